package domain

import "time"

// InstructionType identifies the kind of cursor primitive to perform.
type InstructionType string

const (
	InstructionMove        InstructionType = "move"
	InstructionClick       InstructionType = "click"
	InstructionDoubleClick InstructionType = "double-click"
	InstructionDrag        InstructionType = "drag"
)

// Mouse buttons accepted on click instructions.
const (
	ButtonLeft  = "left"
	ButtonRight = "right"
)

// CursorInstruction is the normalized unit of work handed to the cursor
// executor. Instances are never mutated after being appended to a sequence.
//
// X and Y are required for move and drag. Button applies only to click and
// double-click; when empty the executor defaults to left. Delay is an optional
// pause in milliseconds applied after the instruction completes.
type CursorInstruction struct {
	Type   InstructionType `json:"type"`
	X      *int            `json:"x,omitempty"`
	Y      *int            `json:"y,omitempty"`
	Button string          `json:"button,omitempty"`
	Delay  *float64        `json:"delay,omitempty"`
}

// Point is a pair of pixel coordinates.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// RemoteAction is the raw screen-control payload emitted by the reasoning
// engine inside a tool-use block. It is consumed only by the action translator
// and never survives past translation.
type RemoteAction struct {
	Action     string `json:"action"`    // only "mouse" is recognized
	Subaction  string `json:"subaction"` // "move", "click", "drag"
	Coordinate *Point `json:"coordinate,omitempty"`
	Button     string `json:"button,omitempty"`
	ClickCount int    `json:"clickCount,omitempty"`
	End        *Point `json:"end,omitempty"`
}

// RunStatus captures the outcome of a pair-programming run.
type RunStatus string

const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is the persisted summary of one agent-loop invocation. The conversation
// itself is discarded when the loop returns; only the outcome is recorded.
type Run struct {
	ID           string              `json:"id"`
	Goal         string              `json:"goal"`
	Context      string              `json:"context,omitempty"`
	Instructions []CursorInstruction `json:"instructions,omitempty"`
	ActionCount  int                 `json:"action_count"`
	Status       RunStatus           `json:"status"`
	Error        string              `json:"error,omitempty"`
	DurationMS   int64               `json:"duration_ms"`
	CreatedAt    time.Time           `json:"created_at"`
}
