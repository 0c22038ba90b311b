// Package retrieval implements hybrid search over the product document
// corpus: an IDF-weighted lexical stage and an embedding-similarity semantic
// stage, fused by min-max normalized weighted sum.
//
// The corpus index is built once and read-only afterwards, so a single
// Retriever is safely shared by concurrent queries.
package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/save-ai/save/internal/log"
)

// Passage is one ranked retrieval result. CombinedScore is a deterministic,
// order-preserving function of the two stage scores.
type Passage struct {
	DocumentID    string  `json:"document_id"`
	Text          string  `json:"text"`
	LexicalScore  float64 `json:"lexical_score"`
	SemanticScore float64 `json:"semantic_score"`
	CombinedScore float64 `json:"combined_score"`
}

// Config holds retriever tuning parameters.
type Config struct {
	// TopK is the number of passages returned per query.
	TopK int

	// LexicalWeight is the fusion weight of the lexical stage in [0,1];
	// the semantic stage gets 1-LexicalWeight. The default equal split is
	// a tuning parameter, not a structural invariant, hence configurable.
	LexicalWeight float64
}

// DefaultConfig returns the defaults validated on the product corpus.
func DefaultConfig() Config {
	return Config{TopK: 5, LexicalWeight: 0.5}
}

// Retriever is the hybrid lexical+semantic searcher.
type Retriever struct {
	cfg      Config
	docs     []Document
	lex      *lexicalIndex
	vectors  [][]float32 // L2-normalized document embeddings, nil in lexical-only mode
	embedder Embedder
	logger   log.Logger
}

// New builds the retriever indexes. Document embeddings are computed up
// front; an embedding failure at build time is fatal since the corpus is
// fixed and indexing happens once at startup. A nil embedder builds a
// lexical-only retriever (used in tests and keyless deployments).
func New(ctx context.Context, docs []Document, embedder Embedder, cfg Config, logger log.Logger) (*Retriever, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("retrieval: empty corpus")
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultConfig().TopK
	}
	if cfg.LexicalWeight < 0 || cfg.LexicalWeight > 1 {
		return nil, fmt.Errorf("retrieval: lexical weight %v outside [0,1]", cfg.LexicalWeight)
	}
	seen := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		if _, dup := seen[d.ID]; dup {
			return nil, fmt.Errorf("retrieval: duplicate document id %q", d.ID)
		}
		seen[d.ID] = struct{}{}
	}

	r := &Retriever{
		cfg:      cfg,
		docs:     docs,
		lex:      newLexicalIndex(docs),
		embedder: embedder,
		logger:   logger,
	}

	if embedder != nil {
		vectors := make([][]float32, len(docs))
		for i, d := range docs {
			vec, err := embedder.Embed(ctx, d.Text)
			if err != nil {
				return nil, fmt.Errorf("embed corpus document %s: %w", d.ID, err)
			}
			vectors[i] = normalize(vec)
		}
		r.vectors = vectors
	}

	logger.Info("retrieval index built",
		"documents", len(docs),
		"semantic", r.vectors != nil,
		"top_k", cfg.TopK,
		"lexical_weight", cfg.LexicalWeight)
	return r, nil
}

// Size returns the number of indexed documents.
func (r *Retriever) Size() int { return len(r.docs) }

// Retrieve runs both stages and returns the fused top-k passages, highest
// combined score first. Ties break by lexical score descending, then by
// document ID ascending, so rankings are deterministic.
//
// A query-embedding failure degrades the call to lexical-only scores rather
// than failing: exact-match evidence is still better than no evidence.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]Passage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	queryTokens := tokenize(query)
	lexScores := make([]float64, len(r.docs))
	semScores := make([]float64, len(r.docs))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for i := range r.docs {
			lexScores[i] = r.lex.score(queryTokens, i)
		}
		return nil
	})
	g.Go(func() error {
		if r.vectors == nil {
			return nil
		}
		qvec, err := r.embedder.Embed(gctx, query)
		if err != nil {
			// Degrade, don't fail: the lexical stage still produces evidence.
			r.logger.Warn("query embedding failed, lexical-only retrieval", "error", err)
			return nil
		}
		qn := normalize(qvec)
		for i, dv := range r.vectors {
			semScores[i] = dot(qn, dv)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Candidate set: union of each stage's strongest documents. A document
	// surfaced by both stages contributes one merged entry, never two.
	perStage := max(r.cfg.TopK*4, 20)
	candidates := union(topIndexes(lexScores, perStage), topIndexes(semScores, perStage))
	if len(candidates) == 0 {
		return nil, nil
	}

	normLex := minMax(lexScores, candidates)
	normSem := minMax(semScores, candidates)

	w := r.cfg.LexicalWeight
	passages := make([]Passage, 0, len(candidates))
	for _, i := range candidates {
		passages = append(passages, Passage{
			DocumentID:    r.docs[i].ID,
			Text:          r.docs[i].Text,
			LexicalScore:  normLex[i],
			SemanticScore: normSem[i],
			CombinedScore: Fuse(normLex[i], normSem[i], w),
		})
	}

	sort.Slice(passages, func(a, b int) bool {
		if passages[a].CombinedScore != passages[b].CombinedScore {
			return passages[a].CombinedScore > passages[b].CombinedScore
		}
		if passages[a].LexicalScore != passages[b].LexicalScore {
			return passages[a].LexicalScore > passages[b].LexicalScore
		}
		return passages[a].DocumentID < passages[b].DocumentID
	})

	if len(passages) > r.cfg.TopK {
		passages = passages[:r.cfg.TopK]
	}
	return passages, nil
}

// Fuse combines normalized stage scores with lexical weight w. Monotonic
// non-decreasing in both inputs for any fixed w in [0,1].
func Fuse(lexical, semantic, w float64) float64 {
	return w*lexical + (1-w)*semantic
}

// minMax scales scores over the candidate set into [0,1]. A degenerate
// candidate set (all scores equal) maps to zero so the other stage decides.
func minMax(scores []float64, candidates []int) []float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, i := range candidates {
		lo = math.Min(lo, scores[i])
		hi = math.Max(hi, scores[i])
	}
	norm := make([]float64, len(scores))
	if hi <= lo {
		return norm
	}
	for _, i := range candidates {
		norm[i] = (scores[i] - lo) / (hi - lo)
	}
	return norm
}

// topIndexes returns the indexes of the n highest scores, skipping zero
// scores: a document with no term overlap is not a lexical candidate.
func topIndexes(scores []float64, n int) []int {
	idx := make([]int, 0, len(scores))
	for i, s := range scores {
		if s > 0 {
			idx = append(idx, i)
		}
	}
	sort.Slice(idx, func(a, b int) bool {
		if scores[idx[a]] != scores[idx[b]] {
			return scores[idx[a]] > scores[idx[b]]
		}
		return idx[a] < idx[b]
	})
	if len(idx) > n {
		idx = idx[:n]
	}
	return idx
}

func union(a, b []int) []int {
	seen := make(map[int]struct{}, len(a)+len(b))
	out := make([]int, 0, len(a)+len(b))
	for _, i := range a {
		if _, ok := seen[i]; !ok {
			seen[i] = struct{}{}
			out = append(out, i)
		}
	}
	for _, i := range b {
		if _, ok := seen[i]; !ok {
			seen[i] = struct{}{}
			out = append(out, i)
		}
	}
	return out
}

func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	n := math.Sqrt(sum)
	if n == 0 {
		return vec
	}
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / n)
	}
	return out
}

func dot(a, b []float32) float64 {
	n := min(len(a), len(b))
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
