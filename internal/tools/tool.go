// Package tools provides the tool abstractions the agent dispatches to:
// product lookups, web search, knowledge retrieval and barcode
// validation. Tools report failures as values inside Result so the
// orchestrator can fold them into planning context instead of aborting.
package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/save-ai/save/internal/product"
	"github.com/save-ai/save/internal/retrieval"
)

// Status classifies a tool invocation outcome.
type Status string

const (
	// StatusOK means the tool produced a usable result.
	StatusOK Status = "ok"

	// StatusNotFound means the tool ran but found nothing for the input.
	// Not an error: the planner may try another source.
	StatusNotFound Status = "not_found"

	// StatusError means the tool failed after exhausting retries.
	StatusError Status = "error"

	// StatusTimeout means the per-call deadline elapsed.
	StatusTimeout Status = "timeout"
)

// Args is the argument bag a planner supplies for a tool call.
type Args map[string]any

// String returns the named argument as a string, or "" if absent or
// not a string.
func (a Args) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// Result is the outcome of one tool invocation. Failures are carried
// in Status and Detail rather than as Go errors; an error return from
// Invoke is reserved for context cancellation.
type Result struct {
	Tool     string              `json:"tool"`
	Status   Status              `json:"status"`
	Record   *product.Record     `json:"record,omitempty"`
	Passages []retrieval.Passage `json:"passages,omitempty"`
	Detail   string              `json:"detail,omitempty"`
	Elapsed  time.Duration       `json:"-"`
}

// MarshalJSON reports Elapsed in whole milliseconds under elapsed_ms;
// a raw time.Duration would marshal as nanoseconds.
func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	return json.Marshal(struct {
		plain
		ElapsedMS int64 `json:"elapsed_ms"`
	}{plain: plain(r), ElapsedMS: r.Elapsed.Milliseconds()})
}

// Failed reports whether the invocation produced no usable evidence.
func (r Result) Failed() bool {
	return r.Status == StatusError || r.Status == StatusTimeout
}

// Tool is a single capability the agent can dispatch to.
// Implementations must honor ctx cancellation and never panic on
// malformed args; bad input yields a StatusError result.
type Tool interface {
	// Name returns the unique identifier the planner uses to select
	// this tool.
	Name() string

	// Description tells the planner what the tool does and what
	// arguments it expects.
	Description() string

	// Invoke runs the tool. The returned error is non-nil only when
	// ctx was cancelled or its deadline exceeded; all domain failures
	// are reported through Result.Status.
	Invoke(ctx context.Context, args Args) (Result, error)
}

// Descriptor is the planner-facing view of a registered tool.
type Descriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
