package agent

import "errors"

// Sentinel errors exposed on error events so transports can map them
// to user-facing messages.
var (
	// ErrPlanningExhausted means the run hit its iteration bound
	// without reaching an answer.
	ErrPlanningExhausted = errors.New("agent: planning iterations exhausted")

	// ErrPlannerUnavailable means the planner failed and the run
	// cannot continue.
	ErrPlannerUnavailable = errors.New("agent: planner unavailable")

	// ErrEmptyInput means the user input was blank.
	ErrEmptyInput = errors.New("agent: empty input")
)
