// Package testutil provides deterministic test doubles shared across
// packages. No network, no randomness.
package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"strings"
	"sync/atomic"
)

// EmbedderDim is the vector size produced by HashEmbedder.
const EmbedderDim = 64

// HashEmbedder is a deterministic embedder for tests: each token hashes to
// a bucket, so texts sharing tokens have higher cosine similarity.
type HashEmbedder struct {
	calls atomic.Int64

	// FailAfter, when > 0, makes Embed fail once that many calls have
	// succeeded. Used to exercise degraded retrieval paths.
	FailAfter int64
}

// ErrEmbedUnavailable is returned once FailAfter is exceeded.
var ErrEmbedUnavailable = errors.New("testutil: embedder unavailable")

// Embed returns a deterministic vector for text.
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	n := e.calls.Add(1)
	if e.FailAfter > 0 && n > e.FailAfter {
		return nil, ErrEmbedUnavailable
	}

	vec := make([]float32, EmbedderDim)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		sum := sha256.Sum256([]byte(tok))
		bucket := binary.BigEndian.Uint32(sum[:4]) % EmbedderDim
		vec[bucket]++
	}
	return vec, nil
}

// Calls returns how many times Embed has been invoked.
func (e *HashEmbedder) Calls() int64 { return e.calls.Load() }
