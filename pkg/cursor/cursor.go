// Package cursor drives the operator's real mouse cursor from validated
// instruction sequences.
package cursor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pairprog/cursord/pkg/domain"
)

// Device abstracts the OS-level cursor primitives.
type Device interface {
	// Move places the cursor at the given screen coordinates.
	Move(x, y int) error

	// Click presses the given button at the current position. An empty button
	// defaults to left. double performs a double-click.
	Click(button string, double bool) error

	// Drag presses the left button at the current position, moves to the end
	// coordinates, and releases.
	Drag(x, y int) error

	// Position reports the current cursor coordinates.
	Position() (x, y int, err error)
}

// Executor runs instruction sequences against a Device. The cursor is a
// process-wide singleton, so Execute serializes: two sequences never
// interleave, even when computed by concurrent agent-loop runs.
type Executor struct {
	device Device
	mu     sync.Mutex
}

// NewExecutor creates an Executor for the given device.
func NewExecutor(device Device) *Executor {
	return &Executor{device: device}
}

// Execute performs each instruction in order and returns the final cursor
// position. The sequence must already be validated; an instruction the device
// rejects aborts execution. Cancellation is honored between instructions.
func (e *Executor) Execute(ctx context.Context, instructions []domain.CursorInstruction) (domain.Point, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, in := range instructions {
		if err := ctx.Err(); err != nil {
			return domain.Point{}, err
		}

		var err error
		switch in.Type {
		case domain.InstructionMove:
			err = e.device.Move(*in.X, *in.Y)
		case domain.InstructionClick:
			err = e.device.Click(in.Button, false)
		case domain.InstructionDoubleClick:
			err = e.device.Click(in.Button, true)
		case domain.InstructionDrag:
			err = e.device.Drag(*in.X, *in.Y)
		default:
			err = fmt.Errorf("unknown instruction type %q", in.Type)
		}
		if err != nil {
			return domain.Point{}, fmt.Errorf("instruction %d (%s): %w", i, in.Type, err)
		}

		if in.Delay != nil && *in.Delay > 0 {
			time.Sleep(time.Duration(*in.Delay) * time.Millisecond)
		}
	}

	x, y, err := e.device.Position()
	if err != nil {
		return domain.Point{}, fmt.Errorf("querying cursor position: %w", err)
	}
	return domain.Point{X: x, Y: y}, nil
}
