package agent

import (
	"context"

	"github.com/save-ai/save/internal/session"
	"github.com/save-ai/save/internal/tools"
)

// PlanContext is everything a planner sees when deciding the next
// step: the question, conversation memory, the tools on offer and the
// evidence folded from earlier tool calls this run.
type PlanContext struct {
	// Question is the user's current input, verbatim.
	Question string

	// Session is a snapshot of conversation memory, including the
	// last resolved product and recent turns.
	Session session.Snapshot

	// Tools describes the capabilities the planner may call.
	Tools []tools.Descriptor

	// Evidence accumulates tool results from earlier iterations of
	// this run, successes and failures alike.
	Evidence []tools.Result

	// Iteration counts planning rounds in this run, starting at 1.
	Iteration int
}

// ToolCall is a planner request to dispatch one tool.
type ToolCall struct {
	Name string
	Args tools.Args
}

// Decision is a tagged union: exactly one of Call or Answer is set.
// A non-nil Call means "run this tool and come back"; otherwise Answer
// is the final response text.
type Decision struct {
	Call   *ToolCall
	Answer string
}

// Planner decides the next step of a run. Implementations must be
// safe for concurrent runs.
type Planner interface {
	Plan(ctx context.Context, pc PlanContext) (Decision, error)
}
