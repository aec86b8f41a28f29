package store

import (
	"context"
	"errors"

	"github.com/pairprog/cursord/pkg/domain"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// RunStore persists the outcome summaries of pair-programming runs. The live
// conversation of a run is never stored; only its result is.
type RunStore interface {
	// CreateRun persists a completed run. The ID and CreatedAt fields must be
	// set by the caller.
	CreateRun(ctx context.Context, run *domain.Run) error

	// GetRun retrieves a run by its unique ID.
	// Returns ErrNotFound if the run does not exist.
	GetRun(ctx context.Context, id string) (*domain.Run, error)

	// ListRuns returns runs ordered by creation time descending.
	// If limit > 0, returns at most that many.
	ListRuns(ctx context.Context, limit int) ([]domain.Run, error)

	// Subscribe returns a channel that emits run IDs as runs are recorded.
	// Used by the server to push run records to websocket clients.
	Subscribe() <-chan string
}
