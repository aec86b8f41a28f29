package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pairprog/cursord/pkg/domain"
	"github.com/pairprog/cursord/pkg/engine"
)

// CapabilityName is the tool name the engine issues cursor actions against.
const CapabilityName = "screen_control"

// DefaultMaxIterations is the hard cap on engine round-trips per run. Hitting
// the cap is a normal termination, not an error.
const DefaultMaxIterations = 10

// systemPrompt describes the assistant's role. The capability declaration it
// refers to is sized to the operator's actual screen at loop start.
const systemPrompt = `You are a cursor-control assistant helping an operator pair program. You see a screenshot of the operator's screen and are given a goal. Use the screen_control tool to move and click the mouse so the goal is accomplished. Issue one action at a time. When the goal is complete, or no further cursor action would help, respond with text only and stop issuing actions.`

// ScreenInfo reports the operator's screen dimensions. Queried once per run to
// size the capability declaration handed to the engine.
type ScreenInfo interface {
	Size() (width, height int, err error)
}

// Config carries the engine knobs for a Loop. It replaces any notion of
// process-wide client state: credentials live in the provider, everything else
// lives here.
type Config struct {
	Model     string
	MaxTokens int

	// MaxIterations bounds engine round-trips. Zero means DefaultMaxIterations.
	MaxIterations int

	// ThinkingBudget is passed through to the engine untouched.
	ThinkingBudget int
}

// Loop drives the multi-turn exchange with the reasoning engine: it sends the
// screenshot and goal, translates tool-use requests into cursor instructions,
// acknowledges each request, and stops when the engine stops requesting tools
// or the iteration cap is hit.
type Loop struct {
	provider engine.Provider
	screen   ScreenInfo
	cfg      Config
}

// New creates a Loop.
func New(provider engine.Provider, screen ScreenInfo, cfg Config) *Loop {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	return &Loop{provider: provider, screen: screen, cfg: cfg}
}

// Run executes one agent-loop invocation and returns the accumulated,
// validated instruction sequence.
//
// The conversation is owned exclusively by this call and discarded on return.
// Engine failures abort immediately with no partial result. The sequence is
// validated before being returned; a validation failure indicates a translator
// defect and is surfaced as an error.
func (l *Loop) Run(ctx context.Context, screenshot []byte, metadata map[string]any, goal string) ([]domain.CursorInstruction, error) {
	width, height, err := l.screen.Size()
	if err != nil {
		return nil, fmt.Errorf("querying screen size: %w", err)
	}

	capability := engine.Capability{
		Name:          CapabilityName,
		Description:   fmt.Sprintf("Control the mouse cursor on a %dx%d screen. Actions: move the cursor, click (single or double, left or right button), or drag from the current position to an end point.", width, height),
		DisplayWidth:  width,
		DisplayHeight: height,
	}

	messages := []engine.Message{{
		Role: domain.RoleUser,
		Content: []engine.Block{
			{Type: engine.BlockTypeText, Text: buildGoalText(metadata, goal)},
			{Type: engine.BlockTypeImage, Image: screenshot},
		},
	}}

	var instructions []domain.CursorInstruction

	for i := 0; i < l.cfg.MaxIterations; i++ {
		// Abort between iterations only, never mid-call.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := l.provider.CreateCompletion(ctx, engine.Request{
			Model:          l.cfg.Model,
			MaxTokens:      l.cfg.MaxTokens,
			System:         systemPrompt,
			Messages:       messages,
			Tool:           capability,
			ThinkingBudget: l.cfg.ThinkingBudget,
		})
		if err != nil {
			return nil, fmt.Errorf("engine call %d: %w", i+1, err)
		}

		messages = append(messages, engine.Message{
			Role:    domain.RoleAssistant,
			Content: resp.Content,
		})

		uses := resp.ToolUses()
		if len(uses) == 0 {
			// No tool use means the engine considers the goal handled.
			slog.Debug("Engine signaled completion", "iteration", i+1)
			break
		}

		// Translate in emission order and acknowledge every request. The
		// acknowledgement echoes the original screenshot: the screen is not
		// re-captured mid-run.
		var acks []engine.Block
		for _, use := range uses {
			if use.Name == CapabilityName && use.Action != nil {
				if in, ok := Translate(*use.Action); ok {
					instructions = append(instructions, in)
				}
			}
			acks = append(acks, engine.Block{
				Type: engine.BlockTypeToolResult,
				ToolResult: &engine.ToolResult{
					ToolUseID: use.ID,
					Content:   "ok",
					Image:     screenshot,
				},
			})
		}

		messages = append(messages, engine.Message{
			Role:    domain.RoleUser,
			Content: acks,
		})
	}

	if err := Validate(instructions); err != nil {
		return nil, fmt.Errorf("translator produced an invalid instruction: %w", err)
	}
	return instructions, nil
}

// buildGoalText combines the serialized caller context with the goal.
func buildGoalText(metadata map[string]any, goal string) string {
	if len(metadata) == 0 {
		return "Goal: " + goal
	}
	b, err := json.Marshal(metadata)
	if err != nil {
		// Metadata is advisory; a value that cannot be serialized is dropped.
		slog.Warn("Dropping unserializable context", "error", err)
		return "Goal: " + goal
	}
	return fmt.Sprintf("Context: %s\n\nGoal: %s", b, goal)
}
