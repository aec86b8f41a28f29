package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/pairprog/cursord/pkg/cursor"
	"github.com/pairprog/cursord/pkg/domain"
	"github.com/pairprog/cursord/pkg/store"
)

type fakePilot struct {
	instructions []domain.CursorInstruction
	err          error
	gotGoal      string
	gotShot      []byte
}

func (f *fakePilot) Run(ctx context.Context, screenshot []byte, metadata map[string]any, goal string) ([]domain.CursorInstruction, error) {
	f.gotGoal = goal
	f.gotShot = screenshot
	if f.err != nil {
		return nil, f.err
	}
	return f.instructions, nil
}

type fakeScreen struct {
	png []byte
}

func (f *fakeScreen) Capture() ([]byte, error) { return f.png, nil }
func (f *fakeScreen) Size() (int, int, error)  { return 1920, 1080, nil }

type fakeDevice struct {
	moves int
	x, y  int
}

func (d *fakeDevice) Move(x, y int) error                    { d.moves++; d.x, d.y = x, y; return nil }
func (d *fakeDevice) Click(button string, double bool) error { return nil }
func (d *fakeDevice) Drag(x, y int) error                    { d.x, d.y = x, y; return nil }
func (d *fakeDevice) Position() (int, int, error)            { return d.x, d.y, nil }

type fakeRuns struct {
	mu   sync.Mutex
	runs []domain.Run
}

func (f *fakeRuns) CreateRun(ctx context.Context, run *domain.Run) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, *run)
	return nil
}

func (f *fakeRuns) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.runs {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeRuns) ListRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Run(nil), f.runs...), nil
}

func (f *fakeRuns) Subscribe() <-chan string { return make(chan string) }

func intp(v int) *int { return &v }

func newTestServer(t *testing.T, pilot *fakePilot) (*Server, *fakeDevice, *fakeRuns) {
	t.Helper()
	device := &fakeDevice{}
	runs := &fakeRuns{}
	srv := New(pilot, cursor.NewExecutor(device), &fakeScreen{png: []byte("fake-png")}, runs)
	return srv, device, runs
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestScreenInfo(t *testing.T) {
	srv, _, _ := newTestServer(t, &fakePilot{})

	rec := doJSON(t, srv.Handler(), "GET", "/api/screen-info", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var info map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info["width"] != 1920 || info["height"] != 1080 {
		t.Errorf("info = %v, want 1920x1080", info)
	}
}

func TestScreenCapture(t *testing.T) {
	srv, _, _ := newTestServer(t, &fakePilot{})

	rec := doJSON(t, srv.Handler(), "GET", "/api/screen-capture", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", got)
	}
	if rec.Body.String() != "fake-png" {
		t.Errorf("body = %q, want fake-png", rec.Body.String())
	}
}

func TestCursorAction(t *testing.T) {
	srv, device, _ := newTestServer(t, &fakePilot{})

	rec := doJSON(t, srv.Handler(), "POST", "/api/cursor-action", map[string]any{
		"action": "move",
		"params": map[string]any{"x": 15, "y": 25},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if device.moves != 1 || device.x != 15 || device.y != 25 {
		t.Errorf("device state = %+v, want one move to 15,25", device)
	}
}

func TestCursorActionRejectsInvalid(t *testing.T) {
	srv, device, _ := newTestServer(t, &fakePilot{})

	cases := []map[string]any{
		{"action": "hover"},
		{"action": "move", "params": map[string]any{"x": 1}},
		{"action": "click", "params": map[string]any{"button": "middle"}},
	}
	for _, body := range cases {
		rec := doJSON(t, srv.Handler(), "POST", "/api/cursor-action", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%v: status = %d, want 400", body, rec.Code)
		}
	}
	if device.moves != 0 {
		t.Errorf("device received %d moves from invalid actions", device.moves)
	}
}

func TestPairProgram(t *testing.T) {
	pilot := &fakePilot{
		instructions: []domain.CursorInstruction{
			{Type: domain.InstructionMove, X: intp(100), Y: intp(200)},
			{Type: domain.InstructionClick},
		},
	}
	srv, device, runs := newTestServer(t, pilot)

	rec := doJSON(t, srv.Handler(), "POST", "/api/pair-program", map[string]any{
		"goal":    "click the save button",
		"context": map[string]any{"app": "editor"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	if pilot.gotGoal != "click the save button" {
		t.Errorf("goal = %q", pilot.gotGoal)
	}
	// No screenshot in the request, so the server captured live.
	if string(pilot.gotShot) != "fake-png" {
		t.Errorf("screenshot = %q, want live capture", pilot.gotShot)
	}

	var result struct {
		ActionsPerformed []domain.CursorInstruction `json:"actionsPerformed"`
		FinalPosition    domain.Point               `json:"finalPosition"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result.ActionsPerformed) != 2 {
		t.Errorf("actionsPerformed = %d, want 2", len(result.ActionsPerformed))
	}
	if result.FinalPosition.X != 100 || result.FinalPosition.Y != 200 {
		t.Errorf("finalPosition = %+v, want 100,200", result.FinalPosition)
	}
	if device.moves != 1 {
		t.Errorf("device moves = %d, want 1", device.moves)
	}

	// The run summary was recorded.
	if len(runs.runs) != 1 {
		t.Fatalf("recorded runs = %d, want 1", len(runs.runs))
	}
	if runs.runs[0].Status != domain.RunStatusCompleted || runs.runs[0].ActionCount != 2 {
		t.Errorf("recorded run = %+v", runs.runs[0])
	}
}

func TestPairProgramRequiresGoal(t *testing.T) {
	srv, _, _ := newTestServer(t, &fakePilot{})

	rec := doJSON(t, srv.Handler(), "POST", "/api/pair-program", map[string]any{"goal": ""})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPairProgramEngineFailure(t *testing.T) {
	pilot := &fakePilot{err: errors.New("engine unreachable")}
	srv, _, runs := newTestServer(t, pilot)

	rec := doJSON(t, srv.Handler(), "POST", "/api/pair-program", map[string]any{"goal": "anything"})
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
	if len(runs.runs) != 1 || runs.runs[0].Status != domain.RunStatusFailed {
		t.Errorf("expected one failed run record, got %+v", runs.runs)
	}
}

func TestGetRunNotFound(t *testing.T) {
	srv, _, _ := newTestServer(t, &fakePilot{})

	rec := doJSON(t, srv.Handler(), "GET", "/api/runs/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestListRuns(t *testing.T) {
	srv, _, runs := newTestServer(t, &fakePilot{})
	runs.runs = append(runs.runs, domain.Run{ID: "r1", Goal: "g", Status: domain.RunStatusCompleted})

	rec := doJSON(t, srv.Handler(), "GET", "/api/runs", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"r1"`) {
		t.Errorf("body missing run: %s", rec.Body.String())
	}
}
