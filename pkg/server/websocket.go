package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Local service; the API is already open to any local origin.
		return true
	},
}

// handleRunsFeed pushes run records to the client as runs complete.
func (s *Server) handleRunsFeed(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade websocket", "error", err)
		return
	}
	defer ws.Close()

	updates := s.runs.Subscribe()

	done := make(chan struct{})

	// Reader goroutine: we send no meaningful inbound messages, but reading
	// is what surfaces the client's close.
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case runID := <-updates:
			run, err := s.runs.GetRun(r.Context(), runID)
			if err != nil {
				slog.Error("Failed to load run for feed", "runID", runID, "error", err)
				continue
			}
			if err := ws.WriteJSON(run); err != nil {
				slog.Error("Websocket write failed", "error", err)
				return
			}
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}
