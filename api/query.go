package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/save-ai/save/internal/agent"
	"github.com/save-ai/save/internal/log"
)

// maxMessageBytes bounds the request body.
const maxMessageBytes = 64 << 10

// QueryHandler runs agent queries, blocking or streamed.
type QueryHandler struct {
	orch   runner
	logger log.Logger
}

// NewQueryHandler creates the query handler.
func NewQueryHandler(orch runner, logger log.Logger) *QueryHandler {
	return &QueryHandler{orch: orch, logger: logger}
}

// RegisterRoutes registers query endpoints on mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/query", h.Query)
	mux.HandleFunc("GET /api/query/stream", h.QueryStream)
}

// QueryRequest is the POST /api/query body.
type QueryRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// QueryResponse is the POST /api/query reply.
type QueryResponse struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
}

// streamEvent is the SSE wire shape, shared with the original HTTP
// clients: progress frames carry step and node, terminal frames carry
// content.
type streamEvent struct {
	Type    string `json:"type"`
	Step    string `json:"step,omitempty"`
	Node    string `json:"node,omitempty"`
	Content string `json:"content,omitempty"`
}

// Query handles POST /api/query. It drains the run's event stream and
// replies with the final answer only.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	body := http.MaxBytesReader(w, r.Body, maxMessageBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "message is required")
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	var terminal agent.Event
	for event := range h.orch.Run(r.Context(), req.SessionID, req.Message) {
		if event.Terminal() {
			terminal = event
		}
	}

	switch terminal.Kind {
	case agent.KindFinal:
		writeJSON(w, http.StatusOK, QueryResponse{SessionID: req.SessionID, Response: terminal.Answer})
	case agent.KindError:
		status, code := classifyError(terminal.Err)
		writeError(w, status, code, userMessage(terminal.Err))
	default:
		writeError(w, http.StatusInternalServerError, "internal", "run produced no result")
	}
}

// QueryStream handles GET /api/query/stream. Progress and the terminal
// event are forwarded as SSE data frames as they happen.
func (h *QueryHandler) QueryStream(w http.ResponseWriter, r *http.Request) {
	message := strings.TrimSpace(r.URL.Query().Get("message"))
	if message == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "message query parameter is required")
		return
	}
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	sse, err := newSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported", err.Error())
		return
	}

	for event := range h.orch.Run(r.Context(), sessionID, message) {
		if err := sse.WriteJSON(toStreamEvent(event)); err != nil {
			// Client went away; the run drains through the buffer.
			h.logger.Debug("sse write failed", "session_id", sessionID, "error", err)
			return
		}
	}
}

func toStreamEvent(event agent.Event) streamEvent {
	switch event.Kind {
	case agent.KindFinal:
		return streamEvent{Type: "response", Content: event.Answer}
	case agent.KindError:
		return streamEvent{Type: "error", Content: userMessage(event.Err)}
	default:
		return streamEvent{Type: "progress", Step: event.Step, Node: event.Node}
	}
}

// classifyError maps run errors to HTTP status and machine code.
func classifyError(err error) (status int, code string) {
	switch {
	case errors.Is(err, agent.ErrEmptyInput):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, agent.ErrPlanningExhausted):
		return http.StatusUnprocessableEntity, "planning_exhausted"
	case errors.Is(err, agent.ErrPlannerUnavailable):
		return http.StatusBadGateway, "planner_unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// userMessage renders a run error for clients without leaking
// internals.
func userMessage(err error) string {
	switch {
	case errors.Is(err, agent.ErrEmptyInput):
		return "Message must not be empty."
	case errors.Is(err, agent.ErrPlanningExhausted):
		return "I could not reach a confident answer. Try rephrasing or provide a UPC code."
	case errors.Is(err, agent.ErrPlannerUnavailable):
		return "The assistant is temporarily unavailable. Please try again."
	default:
		return "Something went wrong while processing your request."
	}
}
