package agent

// Kind classifies an orchestration event.
type Kind string

const (
	// KindProgress reports a step transition while a run is in flight.
	KindProgress Kind = "progress"

	// KindFinal carries the answer. Terminal.
	KindFinal Kind = "final"

	// KindError reports an aborted run. Terminal.
	KindError Kind = "error"
)

// Node names the state machine stage a progress event came from. These
// values are part of the streaming wire format.
const (
	NodeStart     = "start"
	NodePlanning  = "assistant"
	NodeTools     = "tools"
	NodeAnswering = "answering"
)

// Event is one entry on a run's event stream. Seq increases strictly
// within a run; the stream carries exactly one terminal event (final
// or error) and is closed after it.
type Event struct {
	Kind Kind   `json:"type"`
	Seq  int    `json:"seq"`
	Step string `json:"step,omitempty"`
	Node string `json:"node,omitempty"`

	// Answer is set on final events.
	Answer string `json:"content,omitempty"`

	// Err is set on error events. Not serialized; transports render
	// their own message.
	Err error `json:"-"`
}

// Terminal reports whether the event ends its stream.
func (e Event) Terminal() bool {
	return e.Kind == KindFinal || e.Kind == KindError
}
