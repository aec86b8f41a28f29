package anthropic

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/pairprog/cursord/pkg/domain"
	"github.com/pairprog/cursord/pkg/engine"
)

// Provider implements engine.Provider using the Anthropic Messages API.
type Provider struct {
	client anthropic.Client
}

// Verify interface compliance.
var _ engine.Provider = (*Provider)(nil)

// New creates a new Anthropic provider.
func New(apiKey string) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic api key is empty")
	}
	return &Provider{client: anthropic.NewClient(option.WithAPIKey(apiKey))}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string { return "anthropic" }

// CreateCompletion sends the conversation and capability declaration to the
// Messages API and converts the reply into engine blocks.
func (p *Provider) CreateCompletion(ctx context.Context, req engine.Request) (*engine.Response, error) {
	slog.Debug("anthropic.CreateCompletion", "model", req.Model, "messageCount", len(req.Messages))

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(req.MaxTokens),
		Messages:  toMessageParams(req.Messages),
		Tools:     []anthropic.ToolUnionParam{toToolParam(req.Tool)},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.ThinkingBudget > 0 {
		params.Thinking = anthropic.ThinkingConfigParamOfEnabled(int64(req.ThinkingBudget))
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic messages: %w", err)
	}

	resp := &engine.Response{StopReason: string(msg.StopReason)}
	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			resp.Content = append(resp.Content, engine.Block{
				Type: engine.BlockTypeText,
				Text: v.Text,
			})
		case anthropic.ToolUseBlock:
			use := &engine.ToolUse{ID: v.ID, Name: v.Name}
			var action domain.RemoteAction
			if err := json.Unmarshal(v.Input, &action); err == nil {
				use.Action = &action
			} else {
				slog.Warn("Unparseable tool input", "tool", v.Name, "error", err)
			}
			resp.Content = append(resp.Content, engine.Block{
				Type:    engine.BlockTypeToolUse,
				ToolUse: use,
			})
		case anthropic.ThinkingBlock:
			resp.Content = append(resp.Content, engine.Block{
				Type:     engine.BlockTypeThinking,
				Thinking: &engine.Thinking{Text: v.Thinking, Signature: v.Signature},
			})
		case anthropic.RedactedThinkingBlock:
			resp.Content = append(resp.Content, engine.Block{
				Type:     engine.BlockTypeRedactedThinking,
				Thinking: &engine.Thinking{Redacted: v.Data},
			})
		default:
			slog.Debug("Ignoring unknown content block")
		}
	}
	return resp, nil
}

// toToolParam declares the screen-control capability as a custom tool with a
// JSON schema matching domain.RemoteAction.
func toToolParam(cap engine.Capability) anthropic.ToolUnionParam {
	return anthropic.ToolUnionParam{
		OfTool: &anthropic.ToolParam{
			Name:        cap.Name,
			Description: anthropic.String(cap.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: map[string]any{
					"action": map[string]any{
						"type": "string",
						"enum": []string{"mouse"},
					},
					"subaction": map[string]any{
						"type": "string",
						"enum": []string{"move", "click", "drag"},
					},
					"coordinate": map[string]any{
						"type":        "object",
						"description": fmt.Sprintf("Target position for move, 0,0 to %d,%d", cap.DisplayWidth, cap.DisplayHeight),
						"properties": map[string]any{
							"x": map[string]any{"type": "integer"},
							"y": map[string]any{"type": "integer"},
						},
					},
					"button": map[string]any{
						"type": "string",
						"enum": []string{"left", "right"},
					},
					"clickCount": map[string]any{"type": "integer"},
					"end": map[string]any{
						"type":        "object",
						"description": "End position for drag; the drag starts at the current cursor position",
						"properties": map[string]any{
							"x": map[string]any{"type": "integer"},
							"y": map[string]any{"type": "integer"},
						},
					},
				},
				Required: []string{"action", "subaction"},
			},
		},
	}
}

// toMessageParams converts engine messages to Anthropic message params.
func toMessageParams(messages []engine.Message) []anthropic.MessageParam {
	var params []anthropic.MessageParam
	for _, msg := range messages {
		var blocks []anthropic.ContentBlockParamUnion
		for _, b := range msg.Content {
			switch b.Type {
			case engine.BlockTypeText:
				blocks = append(blocks, anthropic.NewTextBlock(b.Text))
			case engine.BlockTypeImage:
				blocks = append(blocks, anthropic.NewImageBlockBase64("image/png", base64.StdEncoding.EncodeToString(b.Image)))
			case engine.BlockTypeToolUse:
				if b.ToolUse != nil {
					blocks = append(blocks, anthropic.ContentBlockParamUnion{
						OfToolUse: &anthropic.ToolUseBlockParam{
							ID:    b.ToolUse.ID,
							Name:  b.ToolUse.Name,
							Input: b.ToolUse.Action,
						},
					})
				}
			case engine.BlockTypeToolResult:
				if b.ToolResult != nil {
					blocks = append(blocks, toToolResultParam(b.ToolResult))
				}
			case engine.BlockTypeThinking:
				if b.Thinking != nil {
					blocks = append(blocks, anthropic.ContentBlockParamUnion{
						OfThinking: &anthropic.ThinkingBlockParam{
							Thinking:  b.Thinking.Text,
							Signature: b.Thinking.Signature,
						},
					})
				}
			case engine.BlockTypeRedactedThinking:
				if b.Thinking != nil {
					blocks = append(blocks, anthropic.ContentBlockParamUnion{
						OfRedactedThinking: &anthropic.RedactedThinkingBlockParam{
							Data: b.Thinking.Redacted,
						},
					})
				}
			}
		}

		switch msg.Role {
		case domain.RoleAssistant:
			params = append(params, anthropic.NewAssistantMessage(blocks...))
		default:
			params = append(params, anthropic.NewUserMessage(blocks...))
		}
	}
	return params
}

func toToolResultParam(tr *engine.ToolResult) anthropic.ContentBlockParamUnion {
	var content []anthropic.ToolResultBlockParamContentUnion
	if tr.Content != "" {
		content = append(content, anthropic.ToolResultBlockParamContentUnion{
			OfText: &anthropic.TextBlockParam{Text: tr.Content},
		})
	}
	if len(tr.Image) > 0 {
		content = append(content, anthropic.ToolResultBlockParamContentUnion{
			OfImage: &anthropic.ImageBlockParam{
				Source: anthropic.ImageBlockParamSourceUnion{
					OfBase64: &anthropic.Base64ImageSourceParam{
						MediaType: anthropic.Base64ImageSourceMediaTypeImagePNG,
						Data:      base64.StdEncoding.EncodeToString(tr.Image),
					},
				},
			},
		})
	}
	return anthropic.ContentBlockParamUnion{
		OfToolResult: &anthropic.ToolResultBlockParam{
			ToolUseID: tr.ToolUseID,
			Content:   content,
			IsError:   anthropic.Bool(tr.IsError),
		},
	}
}
