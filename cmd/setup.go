package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"golang.org/x/time/rate"

	"github.com/save-ai/save/internal/agent"
	"github.com/save-ai/save/internal/config"
	"github.com/save-ai/save/internal/log"
	"github.com/save-ai/save/internal/retrieval"
	"github.com/save-ai/save/internal/session"
	"github.com/save-ai/save/internal/tools"
)

// application holds the wired components shared by serve and ask.
type application struct {
	cfg      *config.Config
	logger   log.Logger
	orch     *agent.Orchestrator
	invoker  *tools.Invoker
	sessions *session.Store
}

// setup builds the whole object graph: model, knowledge base, tools,
// session memory and orchestrator. Tools whose upstream key is absent
// are skipped with a warning instead of failing startup.
func setup(ctx context.Context, cfg *config.Config, logger log.Logger) (*application, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))

	retriever, err := buildRetriever(ctx, g, cfg, logger)
	if err != nil {
		return nil, err
	}

	registry, err := buildRegistry(cfg, retriever, logger)
	if err != nil {
		return nil, err
	}

	invoker := tools.NewInvoker(registry, tools.InvokerConfig{
		Timeout:    time.Duration(cfg.ToolTimeoutSeconds) * time.Second,
		MaxRetries: cfg.ToolMaxRetries,
		RateLimit:  rate.Limit(cfg.ToolRateLimit),
		RateBurst:  int(cfg.ToolRateLimit),
	}, logger)

	planner, err := agent.NewGenkitPlanner(g, cfg.ModelName, registry.Descriptors(), logger)
	if err != nil {
		return nil, fmt.Errorf("creating planner: %w", err)
	}

	sessions := session.NewStore(session.Config{
		TTL:      time.Duration(cfg.SessionTTLMinutes) * time.Minute,
		MaxTurns: cfg.MaxTurns,
	}, logger)

	orch, err := agent.New(planner, invoker, sessions,
		agent.Config{MaxIterations: cfg.MaxIterations}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating orchestrator: %w", err)
	}

	return &application{
		cfg:      cfg,
		logger:   logger,
		orch:     orch,
		invoker:  invoker,
		sessions: sessions,
	}, nil
}

// buildRetriever loads the knowledge corpus and indexes it. A missing
// corpus directory disables the knowledge tool rather than failing
// startup.
func buildRetriever(ctx context.Context, g *genkit.Genkit, cfg *config.Config, logger log.Logger) (*retrieval.Retriever, error) {
	docs, err := retrieval.LoadDir(cfg.CorpusDir)
	if err != nil {
		logger.Warn("knowledge base unavailable", "dir", cfg.CorpusDir, "error", err)
		return nil, nil
	}

	embedder := retrieval.NewGenkitEmbedder(googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel))
	retriever, err := retrieval.New(ctx, docs, embedder, retrieval.Config{
		TopK:          cfg.TopK,
		LexicalWeight: cfg.LexicalWeight,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("indexing knowledge base: %w", err)
	}
	logger.Info("knowledge base indexed", "documents", len(docs), "dir", cfg.CorpusDir)
	return retriever, nil
}

// buildRegistry registers every tool whose dependencies are met.
func buildRegistry(cfg *config.Config, retriever *retrieval.Retriever, logger log.Logger) (*tools.Registry, error) {
	registry := tools.NewRegistry()

	if err := registry.Register(tools.NewUPCExtractTool(logger)); err != nil {
		return nil, err
	}
	if err := registry.Register(tools.NewUPCTool(logger)); err != nil {
		return nil, err
	}
	if err := registry.Register(tools.NewUPCCheckDigitTool(logger)); err != nil {
		return nil, err
	}
	if err := registry.Register(tools.NewOpenFoodFactsTool(logger)); err != nil {
		return nil, err
	}

	if cfg.HasUSDA() {
		usda, err := tools.NewNutritionTool(cfg.USDAAPIKey, logger)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(usda); err != nil {
			return nil, err
		}
	} else {
		logger.Warn("USDA_API_KEY not set, USDA lookup disabled")
	}

	if cfg.HasTavily() {
		search, err := tools.NewWebSearchTool(cfg.TavilyAPIKey, logger)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(search); err != nil {
			return nil, err
		}
	} else {
		logger.Warn("TAVILY_API_KEY not set, web search disabled")
	}

	if retriever != nil {
		knowledge, err := tools.NewKnowledgeTool(retriever, logger)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(knowledge); err != nil {
			return nil, err
		}
	}

	return registry, nil
}
