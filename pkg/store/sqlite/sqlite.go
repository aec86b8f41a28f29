package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pairprog/cursord/pkg/domain"
	"github.com/pairprog/cursord/pkg/store"
)

// Store implements store.RunStore using SQLite.
type Store struct {
	db          *sql.DB
	subscribers []chan string
	mu          sync.RWMutex
}

// Verify interface compliance at compile time.
var _ store.RunStore = (*Store)(nil)

// New opens (or creates) a SQLite database at the given path and runs migrations.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		goal TEXT NOT NULL DEFAULT '',
		context TEXT NOT NULL DEFAULT '',
		instructions TEXT NOT NULL DEFAULT '[]',
		action_count INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		duration_ms INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateRun persists a completed run and notifies subscribers.
func (s *Store) CreateRun(ctx context.Context, run *domain.Run) error {
	instructions, err := json.Marshal(run.Instructions)
	if err != nil {
		return fmt.Errorf("marshal instructions: %w", err)
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, goal, context, instructions, action_count, status, error, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Goal, run.Context, string(instructions),
		run.ActionCount, run.Status, run.Error, run.DurationMS, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	s.notify(run.ID)
	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, goal, context, instructions, action_count, status, error, duration_ms, created_at
		 FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns runs ordered by creation time descending.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	query := `SELECT id, goal, context, instructions, action_count, status, error, duration_ms, created_at
		 FROM runs ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Subscribe returns a channel that emits run IDs as runs are recorded.
func (s *Store) Subscribe() <-chan string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan string, 16)
	s.subscribers = append(s.subscribers, ch)
	return ch
}

func (s *Store) notify(id string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- id:
		default:
			// Slow subscriber; drop rather than block the writer.
		}
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*domain.Run, error) {
	var run domain.Run
	var instructions string
	if err := row.Scan(&run.ID, &run.Goal, &run.Context, &instructions,
		&run.ActionCount, &run.Status, &run.Error, &run.DurationMS, &run.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(instructions), &run.Instructions); err != nil {
		return nil, fmt.Errorf("unmarshal instructions: %w", err)
	}
	return &run, nil
}
