package agent

import (
	"log/slog"

	"github.com/pairprog/cursord/pkg/domain"
)

// Translate maps a single remote screen-control action to a normalized cursor
// instruction. It is total: unrecognized shapes yield ok == false and are
// skipped by the loop rather than treated as errors.
func Translate(action domain.RemoteAction) (domain.CursorInstruction, bool) {
	if action.Action != "mouse" {
		slog.Debug("Ignoring non-mouse action", "action", action.Action)
		return domain.CursorInstruction{}, false
	}

	switch action.Subaction {
	case "move":
		if action.Coordinate == nil {
			slog.Debug("Move action without coordinate")
			return domain.CursorInstruction{}, false
		}
		x, y := action.Coordinate.X, action.Coordinate.Y
		return domain.CursorInstruction{
			Type: domain.InstructionMove,
			X:    &x,
			Y:    &y,
		}, true

	case "click":
		// A left click with count 2 is a double-click; the wire format has no
		// distinct double-click action.
		if action.Button == domain.ButtonLeft && action.ClickCount == 2 {
			return domain.CursorInstruction{
				Type:   domain.InstructionDoubleClick,
				Button: domain.ButtonLeft,
			}, true
		}
		return domain.CursorInstruction{
			Type:   domain.InstructionClick,
			Button: action.Button,
		}, true

	case "drag":
		if action.End == nil {
			slog.Debug("Drag action without end point")
			return domain.CursorInstruction{}, false
		}
		// Only the end point is kept; the executor drags from the current
		// cursor position.
		x, y := action.End.X, action.End.Y
		return domain.CursorInstruction{
			Type: domain.InstructionDrag,
			X:    &x,
			Y:    &y,
		}, true

	default:
		slog.Debug("Ignoring unknown mouse subaction", "subaction", action.Subaction)
		return domain.CursorInstruction{}, false
	}
}
