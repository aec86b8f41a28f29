package engine

import (
	"context"

	"github.com/pairprog/cursord/pkg/domain"
)

// Block content types.
const (
	BlockTypeText             = "text"
	BlockTypeImage            = "image"
	BlockTypeToolUse          = "tool_use"
	BlockTypeToolResult       = "tool_result"
	BlockTypeThinking         = "thinking"
	BlockTypeRedactedThinking = "redacted_thinking"
)

// Message represents a single turn in the conversation with the engine.
type Message struct {
	// Role indicates the sender (user or assistant).
	Role domain.Role
	// Content holds the turn's content blocks in order.
	Content []Block
}

// Block represents a single component of a message. Exactly one of the
// variant pointers is set, selected by Type; unrecognized variants from the
// engine are represented as an empty Block and ignored by callers.
type Block struct {
	Type string

	// Text content (when Type == "text").
	Text string

	// Image is a PNG payload (when Type == "image").
	Image []byte

	// Tool use request from the engine (when Type == "tool_use").
	ToolUse *ToolUse

	// Tool result acknowledgement sent back (when Type == "tool_result").
	ToolResult *ToolResult

	// Thinking content (when Type == "thinking" or "redacted_thinking").
	Thinking *Thinking
}

// Thinking carries the engine's reasoning content. The signature (or the
// redacted payload) is opaque and must be round-tripped back to the engine
// unchanged on the next request, or the engine rejects the continuation.
type Thinking struct {
	Text      string
	Signature string

	// Redacted is the opaque payload of a redacted thinking block.
	Redacted string
}

// ToolUse is a structured request from the engine naming a capability and
// supplying an action payload.
type ToolUse struct {
	ID     string
	Name   string
	Action *domain.RemoteAction
}

// ToolResult acknowledges a tool use. Image, when set, is the PNG screenshot
// echoed back to the engine as the visual outcome of the action.
type ToolResult struct {
	ToolUseID string
	Content   string
	Image     []byte
	IsError   bool
}

// Capability describes the control surface the engine may issue actions
// against: a mouse sized to the operator's actual screen.
type Capability struct {
	Name          string
	Description   string
	DisplayWidth  int
	DisplayHeight int
}

// Request carries one completion call to the engine.
type Request struct {
	Model     string
	MaxTokens int
	System    string
	Messages  []Message
	Tool      Capability

	// ThinkingBudget is the engine-specific reasoning token budget.
	// Passed through verbatim; zero disables extended thinking.
	ThinkingBudget int
}

// Response is the engine's reply: an ordered list of content blocks.
type Response struct {
	Content    []Block
	StopReason string
}

// Provider represents a remote vision-and-tool-use capable reasoning engine.
type Provider interface {
	// Name returns the provider's identifier (e.g. "anthropic").
	Name() string

	// CreateCompletion sends the full conversation so far plus the capability
	// declaration and blocks until the engine's reply is available. Transport
	// failures are returned as-is and are never retried here.
	CreateCompletion(ctx context.Context, req Request) (*Response, error)
}

// ToolUses returns the tool-use blocks of a response in emission order.
func (r *Response) ToolUses() []*ToolUse {
	var uses []*ToolUse
	for _, b := range r.Content {
		if b.Type == BlockTypeToolUse && b.ToolUse != nil {
			uses = append(uses, b.ToolUse)
		}
	}
	return uses
}
