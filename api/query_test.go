package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/save-ai/save/internal/agent"
	"github.com/save-ai/save/internal/config"
	"github.com/save-ai/save/internal/log"
	"github.com/save-ai/save/internal/tools"
)

// scriptedRunner replays a fixed event sequence for every run.
type scriptedRunner struct {
	events []agent.Event

	lastSessionID string
	lastInput     string
}

func (s *scriptedRunner) Run(ctx context.Context, sessionID, input string) <-chan agent.Event {
	s.lastSessionID = sessionID
	s.lastInput = input
	ch := make(chan agent.Event, len(s.events))
	for _, e := range s.events {
		ch <- e
	}
	close(ch)
	return ch
}

func testConfig() *config.Config {
	return &config.Config{
		Port:          8000,
		Host:          "127.0.0.1",
		ModelName:     config.DefaultModelName,
		EmbedderModel: config.DefaultEmbedderModel,
		TopK:          5,
		LexicalWeight: 0.5,
		MaxIterations: 6,
		USDAAPIKey:    "usda-key",
	}
}

func newTestServer(r runner) *Server {
	descriptors := []tools.Descriptor{{Name: "usda_fdc_search", Description: "lookup"}}
	return NewServer(r, testConfig(), descriptors, log.NewNop())
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&scriptedRunner{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %q, want healthy", body["status"])
	}
}

func TestCapabilities(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gk")
	srv := newTestServer(&scriptedRunner{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/capabilities", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var body CapabilitiesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !body.Keys["usda"] {
		t.Error("keys.usda = false, want true")
	}
	if body.Keys["tavily"] {
		t.Error("keys.tavily = true, want false without a key")
	}
	if len(body.Tools) != 1 || body.Tools[0].Name != "usda_fdc_search" {
		t.Errorf("tools = %+v, want the registered descriptor", body.Tools)
	}
}

func TestQueryReturnsFinalAnswer(t *testing.T) {
	r := &scriptedRunner{events: []agent.Event{
		{Kind: agent.KindProgress, Seq: 1, Step: "Starting analysis...", Node: agent.NodeStart},
		{Kind: agent.KindFinal, Seq: 2, Answer: "Cheetos are a corn snack."},
	}}
	srv := newTestServer(r)

	req := httptest.NewRequest(http.MethodPost, "/api/query",
		strings.NewReader(`{"session_id": "s1", "message": "what are cheetos?"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	var body QueryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Response != "Cheetos are a corn snack." {
		t.Errorf("response = %q", body.Response)
	}
	if body.SessionID != "s1" {
		t.Errorf("session_id = %q, want s1", body.SessionID)
	}
	if r.lastInput != "what are cheetos?" {
		t.Errorf("run input = %q", r.lastInput)
	}
}

func TestQueryGeneratesSessionID(t *testing.T) {
	r := &scriptedRunner{events: []agent.Event{{Kind: agent.KindFinal, Seq: 1, Answer: "ok"}}}
	srv := newTestServer(r)

	req := httptest.NewRequest(http.MethodPost, "/api/query",
		strings.NewReader(`{"message": "hi"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var body QueryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.SessionID == "" {
		t.Error("session_id empty, want generated UUID")
	}
}

func TestQueryRejectsEmptyMessage(t *testing.T) {
	srv := newTestServer(&scriptedRunner{})

	req := httptest.NewRequest(http.MethodPost, "/api/query",
		strings.NewReader(`{"message": "  "}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestQueryMapsRunErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"exhausted", agent.ErrPlanningExhausted, http.StatusUnprocessableEntity},
		{"planner down", agent.ErrPlannerUnavailable, http.StatusBadGateway},
		{"empty input", agent.ErrEmptyInput, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &scriptedRunner{events: []agent.Event{{Kind: agent.KindError, Seq: 1, Err: tt.err}}}
			srv := newTestServer(r)

			req := httptest.NewRequest(http.MethodPost, "/api/query",
				strings.NewReader(`{"message": "q"}`))
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestQueryStream(t *testing.T) {
	r := &scriptedRunner{events: []agent.Event{
		{Kind: agent.KindProgress, Seq: 1, Step: "Starting analysis...", Node: agent.NodeStart},
		{Kind: agent.KindProgress, Seq: 2, Step: "AI agent analyzing request...", Node: agent.NodePlanning},
		{Kind: agent.KindFinal, Seq: 3, Answer: "done"},
	}}
	srv := newTestServer(r)

	req := httptest.NewRequest(http.MethodGet, "/api/query/stream?session_id=s1&message=hello", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got, want := rec.Header().Get("Content-Type"), "text/event-stream"; got != want {
		t.Errorf("Content-Type = %q, want %q", got, want)
	}

	var frames []streamEvent
	scanner := bufio.NewScanner(rec.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev streamEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			t.Fatalf("frame unmarshal: %v (%s)", err, line)
		}
		frames = append(frames, ev)
	}

	if len(frames) != 3 {
		t.Fatalf("frames = %d, want 3", len(frames))
	}
	if frames[0].Type != "progress" || frames[0].Node != agent.NodeStart {
		t.Errorf("frames[0] = %+v, want start progress", frames[0])
	}
	last := frames[len(frames)-1]
	if last.Type != "response" || last.Content != "done" {
		t.Errorf("last frame = %+v, want response", last)
	}
}

func TestQueryStreamErrorFrame(t *testing.T) {
	r := &scriptedRunner{events: []agent.Event{
		{Kind: agent.KindError, Seq: 1, Err: agent.ErrPlannerUnavailable},
	}}
	srv := newTestServer(r)

	req := httptest.NewRequest(http.MethodGet, "/api/query/stream?message=hello", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, `"type":"error"`) {
		t.Errorf("body = %q, want an error frame", body)
	}
}

func TestQueryStreamRequiresMessage(t *testing.T) {
	srv := newTestServer(&scriptedRunner{})

	req := httptest.NewRequest(http.MethodGet, "/api/query/stream", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /boom", func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	})
	handler := chain(mux, recoveryMiddleware(log.NewNop()))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}
