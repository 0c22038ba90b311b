package tools

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/save-ai/save/internal/log"
)

// stubTool scripts per-attempt results for invoker tests.
type stubTool struct {
	name    string
	mu      sync.Mutex
	calls   int
	results []Result
	block   time.Duration // sleep before answering, for timeout tests
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return "stub" }

func (s *stubTool) Invoke(ctx context.Context, args Args) (Result, error) {
	s.mu.Lock()
	i := s.calls
	s.calls++
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	s.mu.Unlock()
	if s.block > 0 {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-time.After(s.block):
		}
	}
	return s.results[i], nil
}

func (s *stubTool) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// recordingEmitter captures lifecycle events in order.
type recordingEmitter struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingEmitter) OnToolStart(name string)    { r.record("start:" + name) }
func (r *recordingEmitter) OnToolComplete(name string) { r.record("complete:" + name) }
func (r *recordingEmitter) OnToolError(name string)    { r.record("error:" + name) }

func (r *recordingEmitter) record(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func newTestInvoker(t *testing.T, cfg InvokerConfig, tools ...Tool) *Invoker {
	t.Helper()
	reg := NewRegistry()
	for _, tool := range tools {
		if err := reg.Register(tool); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
	}
	return NewInvoker(reg, cfg, log.NewNop())
}

func fastConfig() InvokerConfig {
	return InvokerConfig{
		Timeout:         50 * time.Millisecond,
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	}
}

func TestInvokeSuccess(t *testing.T) {
	tool := &stubTool{name: "lookup", results: []Result{{Status: StatusOK, Detail: "hit"}}}
	inv := newTestInvoker(t, fastConfig(), tool)

	result, err := inv.Invoke(context.Background(), "lookup", Args{"upc": "028400433303"})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if result.Status != StatusOK {
		t.Errorf("Status = %q, want %q", result.Status, StatusOK)
	}
	if result.Tool != "lookup" {
		t.Errorf("Tool = %q, want %q", result.Tool, "lookup")
	}
	if tool.callCount() != 1 {
		t.Errorf("calls = %d, want 1", tool.callCount())
	}
}

func TestInvokeUnknownToolIsResultNotError(t *testing.T) {
	inv := newTestInvoker(t, fastConfig())

	result, err := inv.Invoke(context.Background(), "no_such_tool", nil)
	if err != nil {
		t.Fatalf("Invoke() error = %v, want nil", err)
	}
	if result.Status != StatusError {
		t.Errorf("Status = %q, want %q", result.Status, StatusError)
	}
}

func TestInvokeRetriesTransientErrors(t *testing.T) {
	tool := &stubTool{name: "lookup", results: []Result{
		{Status: StatusError, Detail: "upstream returned 503"},
		{Status: StatusError, Detail: "rate limit exceeded"},
		{Status: StatusOK},
	}}
	inv := newTestInvoker(t, fastConfig(), tool)

	result, err := inv.Invoke(context.Background(), "lookup", nil)
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if result.Status != StatusOK {
		t.Errorf("Status = %q, want %q after retries", result.Status, StatusOK)
	}
	if tool.callCount() != 3 {
		t.Errorf("calls = %d, want 3", tool.callCount())
	}
}

func TestInvokeDoesNotRetryPermanentErrors(t *testing.T) {
	tool := &stubTool{name: "lookup", results: []Result{
		{Status: StatusError, Detail: "401 unauthorized: bad API key"},
	}}
	inv := newTestInvoker(t, fastConfig(), tool)

	result, err := inv.Invoke(context.Background(), "lookup", nil)
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if result.Status != StatusError {
		t.Errorf("Status = %q, want %q", result.Status, StatusError)
	}
	if tool.callCount() != 1 {
		t.Errorf("calls = %d, want 1 for a permanent error", tool.callCount())
	}
}

func TestInvokeNotFoundIsNotRetried(t *testing.T) {
	tool := &stubTool{name: "lookup", results: []Result{
		{Status: StatusNotFound, Detail: "not cataloged"},
	}}
	inv := newTestInvoker(t, fastConfig(), tool)

	result, err := inv.Invoke(context.Background(), "lookup", nil)
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if result.Status != StatusNotFound {
		t.Errorf("Status = %q, want %q", result.Status, StatusNotFound)
	}
	if tool.callCount() != 1 {
		t.Errorf("calls = %d, want 1; not_found is a final answer", tool.callCount())
	}
}

func TestInvokeTimeout(t *testing.T) {
	tool := &stubTool{name: "slow", block: time.Second, results: []Result{{Status: StatusOK}}}
	cfg := fastConfig()
	cfg.MaxRetries = 1
	inv := newTestInvoker(t, cfg, tool)

	result, err := inv.Invoke(context.Background(), "slow", nil)
	if err != nil {
		t.Fatalf("Invoke() error = %v, want timeout folded into result", err)
	}
	if result.Status != StatusTimeout {
		t.Errorf("Status = %q, want %q", result.Status, StatusTimeout)
	}
	if tool.callCount() != 2 {
		t.Errorf("calls = %d, want 2; timeouts are retried", tool.callCount())
	}
}

func TestInvokeCallerCancellation(t *testing.T) {
	tool := &stubTool{name: "slow", block: time.Second, results: []Result{{Status: StatusOK}}}
	inv := newTestInvoker(t, fastConfig(), tool)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := inv.Invoke(ctx, "slow", nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Invoke() error = %v, want context.Canceled", err)
	}
}

func TestInvokeEmitsLifecycleEvents(t *testing.T) {
	tool := &stubTool{name: "lookup", results: []Result{{Status: StatusOK}}}
	inv := newTestInvoker(t, fastConfig(), tool)

	emitter := &recordingEmitter{}
	ctx := ContextWithEmitter(context.Background(), emitter)
	if _, err := inv.Invoke(ctx, "lookup", nil); err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}

	want := []string{"start:lookup", "complete:lookup"}
	if len(emitter.events) != len(want) {
		t.Fatalf("events = %v, want %v", emitter.events, want)
	}
	for i := range want {
		if emitter.events[i] != want[i] {
			t.Errorf("events[%d] = %q, want %q", i, emitter.events[i], want[i])
		}
	}
}

func TestInvokeEmitsErrorEvent(t *testing.T) {
	tool := &stubTool{name: "lookup", results: []Result{
		{Status: StatusError, Detail: "401 unauthorized"},
	}}
	inv := newTestInvoker(t, fastConfig(), tool)

	emitter := &recordingEmitter{}
	ctx := ContextWithEmitter(context.Background(), emitter)
	if _, err := inv.Invoke(ctx, "lookup", nil); err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}

	if got, want := emitter.events[len(emitter.events)-1], "error:lookup"; got != want {
		t.Errorf("last event = %q, want %q", got, want)
	}
}

func TestRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limit", errors.New("Rate Limit exceeded"), true},
		{"429", errors.New("HTTP 429 too many requests"), true},
		{"503", errors.New("upstream 503"), true},
		{"connection reset", errors.New("read: connection reset by peer"), true},
		{"timeout", errors.New("context deadline exceeded (timeout)"), true},
		{"auth", errors.New("401 unauthorized"), false},
		{"bad input", errors.New("missing argument"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryableError(tt.err); got != tt.want {
				t.Errorf("retryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRegistryDuplicate(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(&stubTool{name: "x", results: []Result{{}}}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := reg.Register(&stubTool{name: "x", results: []Result{{}}}); err == nil {
		t.Fatal("Register() duplicate error = nil, want error")
	}
}

func TestDescriptorsSorted(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := reg.Register(&stubTool{name: name, results: []Result{{}}}); err != nil {
			t.Fatalf("Register(%s) error = %v", name, err)
		}
	}

	descs := reg.Descriptors()
	want := []string{"alpha", "mid", "zeta"}
	for i, d := range descs {
		if d.Name != want[i] {
			t.Errorf("Descriptors()[%d].Name = %q, want %q", i, d.Name, want[i])
		}
	}
}
