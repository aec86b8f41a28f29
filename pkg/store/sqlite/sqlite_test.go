package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pairprog/cursord/pkg/domain"
	"github.com/pairprog/cursord/pkg/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func intp(v int) *int { return &v }

func testRun(goal string) *domain.Run {
	return &domain.Run{
		ID:   uuid.New().String(),
		Goal: goal,
		Instructions: []domain.CursorInstruction{
			{Type: domain.InstructionMove, X: intp(5), Y: intp(6)},
			{Type: domain.InstructionClick, Button: domain.ButtonLeft},
		},
		ActionCount: 2,
		Status:      domain.RunStatusCompleted,
		DurationMS:  1234,
		CreatedAt:   time.Now().UTC(),
	}
}

func TestRunRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := testRun("open the settings menu")
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	got, err := s.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Goal != run.Goal {
		t.Errorf("Goal = %q, want %q", got.Goal, run.Goal)
	}
	if got.Status != domain.RunStatusCompleted {
		t.Errorf("Status = %q, want completed", got.Status)
	}
	if len(got.Instructions) != 2 {
		t.Fatalf("Instructions = %d, want 2", len(got.Instructions))
	}
	if got.Instructions[0].Type != domain.InstructionMove || *got.Instructions[0].X != 5 {
		t.Errorf("unexpected first instruction: %+v", got.Instructions[0])
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetRun(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want store.ErrNotFound", err)
	}
}

func TestListRunsOrderAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		run := testRun(fmt.Sprintf("goal-%d", i))
		run.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Second)
		if err := s.CreateRun(ctx, run); err != nil {
			t.Fatalf("CreateRun %d: %v", i, err)
		}
	}

	runs, err := s.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("len = %d, want 3", len(runs))
	}
	if runs[0].Goal != "goal-2" {
		t.Errorf("newest first: got %q, want goal-2", runs[0].Goal)
	}

	limited, err := s.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns limited: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limited len = %d, want 2", len(limited))
	}
}

func TestSubscribeNotifiesOnCreate(t *testing.T) {
	s := newTestStore(t)
	updates := s.Subscribe()

	run := testRun("notify me")
	if err := s.CreateRun(context.Background(), run); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	select {
	case id := <-updates:
		if id != run.ID {
			t.Errorf("notified id = %q, want %q", id, run.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("no notification received")
	}
}
