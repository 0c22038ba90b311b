package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/save-ai/save/internal/log"
	"github.com/save-ai/save/internal/tools"
)

// fallbackAnswer covers the rare case of a model returning neither
// text nor a tool request.
const fallbackAnswer = "I could not produce an answer for that. Please rephrase your question about a packaged food product."

// GenkitPlanner implements Planner on top of a Genkit model. Tool
// declarations are registered with Genkit for function calling, but
// execution stays with the orchestrator: WithReturnToolRequests makes
// the model's tool choices come back as data.
type GenkitPlanner struct {
	g        *genkit.Genkit
	model    string
	toolRefs []ai.ToolRef
	logger   log.Logger

	maxRetries int
	backoff    time.Duration
}

// NewGenkitPlanner creates a planner for the given model and tool set.
func NewGenkitPlanner(g *genkit.Genkit, model string, descriptors []tools.Descriptor, logger log.Logger) (*GenkitPlanner, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit planner: genkit instance is required")
	}
	if model == "" {
		return nil, fmt.Errorf("genkit planner: model is required")
	}

	refs := make([]ai.ToolRef, 0, len(descriptors))
	for _, d := range descriptors {
		// The handler never runs: generation stops at the tool request
		// and the orchestrator dispatches through the invoker instead.
		tool := genkit.DefineTool(g, d.Name, d.Description,
			func(tc *ai.ToolContext, input map[string]any) (string, error) {
				return "", fmt.Errorf("tool %s is dispatched by the orchestrator", d.Name)
			})
		refs = append(refs, tool)
	}

	return &GenkitPlanner{
		g:          g,
		model:      model,
		toolRefs:   refs,
		logger:     logger,
		maxRetries: 2,
		backoff:    500 * time.Millisecond,
	}, nil
}

// Plan asks the model for the next step.
func (p *GenkitPlanner) Plan(ctx context.Context, pc PlanContext) (Decision, error) {
	resp, err := p.generate(ctx, pc)
	if err != nil {
		return Decision{}, err
	}

	if requests := resp.ToolRequests(); len(requests) > 0 {
		req := requests[0]
		args := tools.Args{}
		if m, ok := req.Input.(map[string]any); ok {
			args = m
		}
		p.logger.Debug("planner chose tool", "tool", req.Name, "iteration", pc.Iteration)
		return Decision{Call: &ToolCall{Name: req.Name, Args: args}}, nil
	}

	answer := strings.TrimSpace(resp.Text())
	if answer == "" {
		p.logger.Warn("model returned empty response with no tool requests")
		answer = fallbackAnswer
	}
	return Decision{Answer: answer}, nil
}

func (p *GenkitPlanner) generate(ctx context.Context, pc PlanContext) (*ai.ModelResponse, error) {
	var lastErr error
	delay := p.backoff

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		resp, err := genkit.Generate(ctx, p.g,
			ai.WithModelName(p.model),
			ai.WithSystem(systemPrompt),
			ai.WithPrompt(buildPrompt(pc)),
			ai.WithTools(p.toolRefs...),
			ai.WithReturnToolRequests(true),
		)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !transientModelError(err) || attempt == p.maxRetries {
			break
		}
		p.logger.Debug("retrying model call", "attempt", attempt+1, "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	return nil, fmt.Errorf("model generate: %w", lastErr)
}

// transientModelError matches provider failures worth retrying.
// String matching because the provider SDK exposes no typed errors.
func transientModelError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"rate limit", "quota", "429", "500", "502", "503", "504",
		"unavailable", "connection reset", "timeout", "temporary",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
