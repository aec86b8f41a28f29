package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pairprog/cursord/pkg/cursor"
	"github.com/pairprog/cursord/pkg/domain"
	"github.com/pairprog/cursord/pkg/store"
)

// Pilot computes cursor instructions for a goal. Implemented by agent.Loop.
type Pilot interface {
	Run(ctx context.Context, screenshot []byte, metadata map[string]any, goal string) ([]domain.CursorInstruction, error)
}

// Screen captures the operator's display.
type Screen interface {
	Capture() ([]byte, error)
	Size() (width, height int, err error)
}

// Server exposes the agent loop, cursor device, and run history over HTTP.
type Server struct {
	pilot    Pilot
	executor *cursor.Executor
	screen   Screen
	runs     store.RunStore
	srv      *http.Server
}

// New creates a new Server.
func New(pilot Pilot, executor *cursor.Executor, screen Screen, runs store.RunStore) *Server {
	return &Server{
		pilot:    pilot,
		executor: executor,
		screen:   screen,
		runs:     runs,
	}
}

// Handler returns the route table. Split out from Start for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Screen
	mux.HandleFunc("GET /api/screen-info", s.handleScreenInfo)
	mux.HandleFunc("GET /api/screen-capture", s.handleScreenCapture)

	// Cursor
	mux.HandleFunc("POST /api/cursor-action", s.handleCursorAction)

	// Agent loop
	mux.HandleFunc("POST /api/pair-program", s.handlePairProgram)

	// Run history
	mux.HandleFunc("GET /api/runs", s.handleListRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.handleGetRun)

	// WebSocket
	mux.HandleFunc("GET /api/runs/feed", s.handleRunsFeed)

	return s.corsMiddleware(mux)
}

// Start starts the HTTP server.
func (s *Server) Start(addr string) error {
	s.srv = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	slog.Info("Starting server", "addr", addr)
	return s.srv.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, err error) {
	slog.Error("API error", "error", err)
	s.jsonResponse(w, status, map[string]string{"error": err.Error()})
}
