package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pairprog/cursord/pkg/agent"
	"github.com/pairprog/cursord/pkg/domain"
	"github.com/pairprog/cursord/pkg/store"
)

// --- Screen ---

func (s *Server) handleScreenInfo(w http.ResponseWriter, r *http.Request) {
	width, height, err := s.screen.Size()
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]int{"width": width, "height": height})
}

func (s *Server) handleScreenCapture(w http.ResponseWriter, r *http.Request) {
	png, err := s.screen.Capture()
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// --- Cursor ---

func (s *Server) handleCursorAction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string         `json:"action"`
		Params map[string]any `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err)
		return
	}

	// Fold action+params into a one-element sequence and run it through the
	// same grammar the agent loop output passes through.
	obj := map[string]any{"type": req.Action}
	for k, v := range req.Params {
		obj[k] = v
	}
	payload, err := json.Marshal([]map[string]any{obj})
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err)
		return
	}

	instructions, err := agent.ParseInstructions(payload)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err)
		return
	}

	pos, err := s.executor.Execute(r.Context(), instructions)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"position": pos})
}

// --- Agent loop ---

func (s *Server) handlePairProgram(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScreenCapture string         `json:"screenCapture"`
		Context       map[string]any `json:"context"`
		Goal          string         `json:"goal"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err)
		return
	}
	if req.Goal == "" {
		s.errorResponse(w, http.StatusBadRequest, errors.New("goal is required"))
		return
	}

	// Caller may supply the screenshot; otherwise capture live.
	var screenshot []byte
	if req.ScreenCapture != "" {
		var err error
		screenshot, err = base64.StdEncoding.DecodeString(req.ScreenCapture)
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, fmt.Errorf("decoding screenCapture: %w", err))
			return
		}
	} else {
		var err error
		screenshot, err = s.screen.Capture()
		if err != nil {
			s.errorResponse(w, http.StatusInternalServerError, err)
			return
		}
	}

	started := time.Now()
	instructions, err := s.pilot.Run(r.Context(), screenshot, req.Context, req.Goal)
	if err != nil {
		s.recordRun(r, req.Goal, req.Context, nil, started, err)
		var verr *agent.ValidationError
		if errors.As(err, &verr) {
			s.errorResponse(w, http.StatusInternalServerError, err)
		} else {
			s.errorResponse(w, http.StatusBadGateway, err)
		}
		return
	}

	pos, err := s.executor.Execute(r.Context(), instructions)
	if err != nil {
		s.recordRun(r, req.Goal, req.Context, instructions, started, err)
		s.errorResponse(w, http.StatusInternalServerError, err)
		return
	}

	s.recordRun(r, req.Goal, req.Context, instructions, started, nil)
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"actionsPerformed": instructions,
		"finalPosition":    pos,
	})
}

// recordRun persists a run summary. Persistence failures are logged, not
// surfaced: the run itself already succeeded or failed on its own terms.
func (s *Server) recordRun(r *http.Request, goal string, metadata map[string]any, instructions []domain.CursorInstruction, started time.Time, runErr error) {
	run := &domain.Run{
		ID:           uuid.New().String(),
		Goal:         goal,
		Instructions: instructions,
		ActionCount:  len(instructions),
		Status:       domain.RunStatusCompleted,
		DurationMS:   time.Since(started).Milliseconds(),
		CreatedAt:    time.Now().UTC(),
	}
	if len(metadata) > 0 {
		if b, err := json.Marshal(metadata); err == nil {
			run.Context = string(b)
		}
	}
	if runErr != nil {
		run.Status = domain.RunStatusFailed
		run.Error = runErr.Error()
	}

	if err := s.runs.CreateRun(r.Context(), run); err != nil {
		slog.Error("Failed to record run", "runID", run.ID, "error", err)
	}
}

// --- Run history ---

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.runs.ListRuns(r.Context(), 100)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []domain.Run{}
	}
	s.jsonResponse(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	run, err := s.runs.GetRun(r.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		s.errorResponse(w, status, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, run)
}
