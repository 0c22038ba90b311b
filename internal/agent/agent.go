// Package agent implements the orchestration loop that turns a user
// question into an answer: plan, dispatch a tool, fold the result back
// into planning context, repeat until the planner answers or the
// iteration bound trips.
package agent

import (
	"context"
	"fmt"

	"github.com/save-ai/save/internal/log"
	"github.com/save-ai/save/internal/product"
	"github.com/save-ai/save/internal/session"
	"github.com/save-ai/save/internal/tools"
)

// DefaultMaxIterations bounds planning rounds per run.
const DefaultMaxIterations = 6

// toolInvoker is the dispatch surface the orchestrator needs.
// Satisfied by *tools.Invoker.
type toolInvoker interface {
	Invoke(ctx context.Context, name string, args tools.Args) (tools.Result, error)
	Descriptors() []tools.Descriptor
}

// sessionStore is the memory surface the orchestrator needs.
// Satisfied by *session.Store.
type sessionStore interface {
	Load(sessionID string) (session.Snapshot, error)
	AppendTurn(sessionID string, role session.Role, text string) error
	SetLastProduct(sessionID string, ref session.ProductRef) error
}

// Config tunes the orchestrator.
type Config struct {
	MaxIterations int
}

func (c Config) withDefaults() Config {
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	return c
}

// Orchestrator drives runs. Safe for concurrent use; per-run state
// lives on the Run goroutine.
type Orchestrator struct {
	planner  Planner
	invoker  toolInvoker
	sessions sessionStore
	cfg      Config
	logger   log.Logger
}

// New creates an orchestrator.
func New(planner Planner, invoker toolInvoker, sessions sessionStore, cfg Config, logger log.Logger) (*Orchestrator, error) {
	if planner == nil {
		return nil, fmt.Errorf("agent: planner is required")
	}
	if invoker == nil {
		return nil, fmt.Errorf("agent: invoker is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("agent: session store is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("agent: logger is required")
	}
	return &Orchestrator{
		planner:  planner,
		invoker:  invoker,
		sessions: sessions,
		cfg:      cfg.withDefaults(),
		logger:   logger,
	}, nil
}

// Run starts one orchestration run and returns its event stream. The
// channel carries zero or more progress events, then exactly one
// terminal event, and is closed. The channel is buffered so the run
// never blocks on a slow consumer; callers must still drain it to see
// the terminal event.
func (o *Orchestrator) Run(ctx context.Context, sessionID, input string) <-chan Event {
	// Two events per iteration plus start, answering and terminal.
	events := make(chan Event, o.cfg.MaxIterations*2+4)
	go func() {
		defer close(events)
		r := &run{o: o, events: events}
		r.execute(ctx, sessionID, input)
	}()
	return events
}

// run holds per-run emission state.
type run struct {
	o      *Orchestrator
	events chan<- Event
	seq    int
}

func (r *run) progress(step, node string) {
	r.seq++
	r.events <- Event{Kind: KindProgress, Seq: r.seq, Step: step, Node: node}
}

func (r *run) final(answer string) {
	r.seq++
	r.events <- Event{Kind: KindFinal, Seq: r.seq, Answer: answer}
}

func (r *run) fail(err error) {
	r.seq++
	r.events <- Event{Kind: KindError, Seq: r.seq, Err: err}
}

func (r *run) execute(ctx context.Context, sessionID, input string) {
	o := r.o
	if input == "" {
		r.fail(ErrEmptyInput)
		return
	}

	snapshot, err := o.sessions.Load(sessionID)
	if err != nil {
		r.fail(err)
		return
	}

	r.progress("Starting analysis...", NodeStart)
	o.logger.Debug("run started", "session_id", sessionID)

	pc := PlanContext{
		Question: input,
		Session:  snapshot,
		Tools:    o.invoker.Descriptors(),
	}

	for iteration := 1; iteration <= o.cfg.MaxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			r.fail(err)
			return
		}
		pc.Iteration = iteration

		r.progress("AI agent analyzing request...", NodePlanning)
		decision, err := o.planner.Plan(ctx, pc)
		if err != nil {
			if ctx.Err() != nil {
				r.fail(ctx.Err())
				return
			}
			r.fail(fmt.Errorf("%w: %v", ErrPlannerUnavailable, err))
			return
		}

		if decision.Call == nil {
			r.finish(sessionID, input, decision.Answer)
			return
		}

		call := decision.Call
		r.progress(fmt.Sprintf("Executing %s...", call.Name), NodeTools)
		result, err := o.invoker.Invoke(ctx, call.Name, call.Args)
		if err != nil {
			// Only cancellation surfaces as an error; everything else
			// comes back inside the result.
			r.fail(err)
			return
		}
		o.rememberProduct(sessionID, &pc, result)
		pc.Evidence = append(pc.Evidence, result)
	}

	r.fail(fmt.Errorf("%w after %d iterations", ErrPlanningExhausted, o.cfg.MaxIterations))
}

// finish records the exchange in session memory and emits the final
// answer.
func (r *run) finish(sessionID, input, answer string) {
	o := r.o
	r.progress("Preparing response...", NodeAnswering)
	if err := o.sessions.AppendTurn(sessionID, session.RoleUser, input); err != nil {
		o.logger.Warn("append user turn", "session_id", sessionID, "error", err)
	}
	if err := o.sessions.AppendTurn(sessionID, session.RoleAgent, answer); err != nil {
		o.logger.Warn("append agent turn", "session_id", sessionID, "error", err)
	}
	r.final(answer)
}

// rememberProduct updates the session's last-product reference when a
// tool resolved a named product. Bare validator results, which carry a
// UPC but no name, do not count as a resolution.
func (o *Orchestrator) rememberProduct(sessionID string, pc *PlanContext, result tools.Result) {
	rec := result.Record
	if rec == nil || rec.Name == "" || rec.UPC == "" || rec.UPC == product.UnknownUPC {
		return
	}
	ref := session.ProductRef{UPC: rec.UPC, Name: rec.Name, Source: rec.Source}
	if err := o.sessions.SetLastProduct(sessionID, ref); err != nil {
		o.logger.Warn("set last product", "session_id", sessionID, "error", err)
		return
	}
	pc.Session.LastProduct = &ref
}
