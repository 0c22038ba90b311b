package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/save-ai/save/internal/log"
)

// InvokerConfig tunes dispatch behavior. Zero values fall back to the
// defaults below.
type InvokerConfig struct {
	Timeout         time.Duration // per-call deadline
	MaxRetries      int           // retry attempts after the first call
	InitialInterval time.Duration // initial backoff interval
	MaxInterval     time.Duration // backoff cap
	RateLimit       rate.Limit    // upstream calls per second, 0 disables
	RateBurst       int
}

// DefaultInvokerConfig returns sensible defaults for third-party
// product APIs.
func DefaultInvokerConfig() InvokerConfig {
	return InvokerConfig{
		Timeout:         8 * time.Second,
		MaxRetries:      2,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		RateLimit:       5,
		RateBurst:       5,
	}
}

func (c InvokerConfig) withDefaults() InvokerConfig {
	d := DefaultInvokerConfig()
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = d.InitialInterval
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = d.MaxInterval
	}
	return c
}

// retryablePatterns groups error substrings by category. Matched
// case-insensitively against err.Error().
//
// NOTE: string matching because the upstream HTTP clients do not
// expose typed errors for transient failures.
var retryablePatterns = [][]string{
	{"rate limit", "quota exceeded", "429"},      // rate limiting
	{"500", "502", "503", "504", "unavailable"},  // transient server errors
	{"connection reset", "timeout", "temporary"}, // network errors
}

// retryableError reports whether err is transient and worth retrying.
func retryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	for _, group := range retryablePatterns {
		for _, sub := range group {
			if strings.Contains(errStr, sub) {
				return true
			}
		}
	}
	return false
}

// Invoker wraps a tool registry with per-call timeouts, retry with
// exponential backoff, rate limiting and progress events. The agent
// never calls tools directly; every dispatch goes through here.
type Invoker struct {
	registry *Registry
	cfg      InvokerConfig
	limiter  *rate.Limiter
	logger   log.Logger
}

// NewInvoker creates an invoker over the given registry.
func NewInvoker(registry *Registry, cfg InvokerConfig, logger log.Logger) *Invoker {
	cfg = cfg.withDefaults()
	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(cfg.RateLimit, burst)
	}
	return &Invoker{registry: registry, cfg: cfg, limiter: limiter, logger: logger}
}

// Invoke dispatches one tool call. An unknown tool name yields a
// StatusError result, not an error; the planner sees the failure as
// evidence and can choose another tool. The returned error is non-nil
// only when the caller's ctx ends.
func (inv *Invoker) Invoke(ctx context.Context, name string, args Args) (Result, error) {
	start := time.Now()
	emitter := EmitterFromContext(ctx)
	if emitter != nil {
		emitter.OnToolStart(name)
	}

	result, err := inv.invoke(ctx, name, args)
	result.Tool = name
	result.Elapsed = time.Since(start)

	if err != nil {
		if emitter != nil {
			emitter.OnToolError(name)
		}
		return result, err
	}
	if emitter != nil {
		if result.Failed() {
			emitter.OnToolError(name)
		} else {
			emitter.OnToolComplete(name)
		}
	}
	inv.logger.Debug("tool invoked",
		"tool", name,
		"status", result.Status,
		"elapsed", result.Elapsed,
	)
	return result, nil
}

func (inv *Invoker) invoke(ctx context.Context, name string, args Args) (Result, error) {
	tool, ok := inv.registry.Lookup(name)
	if !ok {
		return Result{
			Status: StatusError,
			Detail: fmt.Sprintf("unknown tool %q", name),
		}, nil
	}

	var last Result
	delay := inv.cfg.InitialInterval

	for attempt := 0; attempt <= inv.cfg.MaxRetries; attempt++ {
		if inv.limiter != nil {
			if err := inv.limiter.Wait(ctx); err != nil {
				return Result{Status: StatusError, Detail: "rate limit wait"}, fmt.Errorf("rate limit wait: %w", err)
			}
		}

		result, err := inv.attempt(ctx, tool, args)
		if err != nil {
			// Caller cancellation always wins. A per-call deadline hit
			// is a timeout result, retried like any transient failure.
			if ctx.Err() != nil {
				return Result{Status: StatusError, Detail: ctx.Err().Error()}, ctx.Err()
			}
			result = Result{Status: StatusTimeout, Detail: err.Error()}
		}
		last = result

		if !result.Failed() {
			return result, nil
		}
		if result.Status == StatusError && !retryableError(errors.New(result.Detail)) {
			return result, nil
		}
		if attempt == inv.cfg.MaxRetries {
			break
		}

		inv.logger.Debug("retrying tool",
			"tool", name,
			"attempt", attempt+1,
			"delay", delay,
			"detail", result.Detail,
		)
		select {
		case <-ctx.Done():
			return Result{Status: StatusError, Detail: ctx.Err().Error()}, ctx.Err()
		case <-time.After(delay):
			delay = min(delay*2, inv.cfg.MaxInterval)
		}
	}
	return last, nil
}

// attempt runs one tool call under the per-call deadline.
func (inv *Invoker) attempt(ctx context.Context, tool Tool, args Args) (Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, inv.cfg.Timeout)
	defer cancel()

	result, err := tool.Invoke(callCtx, args)
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

// Descriptors returns the planner-facing view of all registered tools.
func (inv *Invoker) Descriptors() []Descriptor {
	return inv.registry.Descriptors()
}
