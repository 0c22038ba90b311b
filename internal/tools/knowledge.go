package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/save-ai/save/internal/log"
	"github.com/save-ai/save/internal/retrieval"
)

// KnowledgeToolName identifies the local knowledge base lookup.
const KnowledgeToolName = "knowledge_search"

// passageSource abstracts the hybrid retriever so tests can script
// results.
type passageSource interface {
	Retrieve(ctx context.Context, query string) ([]retrieval.Passage, error)
}

// KnowledgeTool answers from the curated food knowledge corpus via
// hybrid retrieval.
type KnowledgeTool struct {
	retriever passageSource
	logger    log.Logger
}

// NewKnowledgeTool creates the knowledge base tool.
func NewKnowledgeTool(retriever passageSource, logger log.Logger) (*KnowledgeTool, error) {
	if retriever == nil {
		return nil, fmt.Errorf("knowledge tool: retriever is required")
	}
	return &KnowledgeTool{retriever: retriever, logger: logger}, nil
}

func (t *KnowledgeTool) Name() string { return KnowledgeToolName }

func (t *KnowledgeTool) Description() string {
	return "Search the local food knowledge base for product facts, ingredients and nutrition guidance. " +
		`Arguments: {"query": "<search query>"}.`
}

// Invoke runs the retrieval. Requires args["query"].
func (t *KnowledgeTool) Invoke(ctx context.Context, args Args) (Result, error) {
	query := strings.TrimSpace(args.String("query"))
	if query == "" {
		return Result{Status: StatusError, Detail: `missing "query" argument`}, nil
	}

	passages, err := t.retriever.Retrieve(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{Status: StatusError, Detail: fmt.Sprintf("knowledge retrieve: %v", err)}, nil
	}
	if len(passages) == 0 {
		return Result{Status: StatusNotFound, Detail: fmt.Sprintf("no knowledge base matches for %q", query)}, nil
	}
	return Result{Status: StatusOK, Passages: passages}, nil
}
