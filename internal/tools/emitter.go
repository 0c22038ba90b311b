package tools

import "context"

// emitterKey uses an empty struct for a zero-allocation context key.
type emitterKey struct{}

// ProgressEmitter receives tool lifecycle notifications. The interface
// is minimal so tools stay decoupled from the transport that renders
// progress (SSE, CLI spinner, tests).
type ProgressEmitter interface {
	// OnToolStart signals that the named tool began executing.
	OnToolStart(name string)

	// OnToolComplete signals that the named tool finished with a
	// usable result.
	OnToolComplete(name string)

	// OnToolError signals that the named tool failed or timed out.
	OnToolError(name string)
}

// EmitterFromContext retrieves the ProgressEmitter from ctx. Returns
// nil if none is set; callers treat nil as "no progress reporting".
func EmitterFromContext(ctx context.Context) ProgressEmitter {
	emitter, _ := ctx.Value(emitterKey{}).(ProgressEmitter)
	return emitter
}

// ContextWithEmitter stores a ProgressEmitter in ctx for per-request
// binding.
func ContextWithEmitter(ctx context.Context, emitter ProgressEmitter) context.Context {
	return context.WithValue(ctx, emitterKey{}, emitter)
}
