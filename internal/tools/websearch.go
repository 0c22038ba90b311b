package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/save-ai/save/internal/log"
	"github.com/save-ai/save/internal/retrieval"
)

// WebSearchToolName identifies the Tavily web search fallback.
const WebSearchToolName = "web_search"

const (
	defaultTavilyBaseURL    = "https://api.tavily.com"
	defaultTavilyMaxResults = 5
)

// WebSearchTool queries the Tavily search API. It is the fallback when
// neither product database knows a barcode, or when the question needs
// information beyond the local knowledge base.
type WebSearchTool struct {
	baseURL    string
	apiKey     string
	maxResults int
	client     *http.Client
	logger     log.Logger
}

// NewWebSearchTool creates the Tavily search tool.
func NewWebSearchTool(apiKey string, logger log.Logger) (*WebSearchTool, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("web search tool: API key is required")
	}
	return &WebSearchTool{
		baseURL:    defaultTavilyBaseURL,
		apiKey:     apiKey,
		maxResults: defaultTavilyMaxResults,
		client:     &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}, nil
}

func (t *WebSearchTool) Name() string { return WebSearchToolName }

func (t *WebSearchTool) Description() string {
	return "Search the web for product or food information not available in the databases. " +
		`Arguments: {"query": "<search query>"}.`
}

type tavilyRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []tavilyResult `json:"results"`
}

type tavilyResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Invoke performs the search. Requires args["query"]. Hits come back
// as passages so the planner folds them the same way as knowledge base
// evidence.
func (t *WebSearchTool) Invoke(ctx context.Context, args Args) (Result, error) {
	query := strings.TrimSpace(args.String("query"))
	if query == "" {
		return Result{Status: StatusError, Detail: `missing "query" argument`}, nil
	}

	payload, err := json.Marshal(tavilyRequest{Query: query, MaxResults: t.maxResults})
	if err != nil {
		return Result{Status: StatusError, Detail: err.Error()}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		t.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return Result{Status: StatusError, Detail: err.Error()}, nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{Status: StatusError, Detail: fmt.Sprintf("tavily request: %v", err)}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{
			Status: StatusError,
			Detail: fmt.Sprintf("tavily: unexpected status %d", resp.StatusCode),
		}, nil
	}

	var body tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Result{Status: StatusError, Detail: fmt.Sprintf("tavily decode: %v", err)}, nil
	}
	if len(body.Results) == 0 {
		return Result{Status: StatusNotFound, Detail: fmt.Sprintf("no web results for %q", query)}, nil
	}

	passages := make([]retrieval.Passage, 0, len(body.Results))
	for _, r := range body.Results {
		passages = append(passages, retrieval.Passage{
			DocumentID:    r.URL,
			Text:          r.Title + "\n" + r.Content,
			CombinedScore: r.Score,
		})
	}
	return Result{Status: StatusOK, Passages: passages}, nil
}
