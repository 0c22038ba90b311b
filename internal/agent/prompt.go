package agent

import (
	"fmt"
	"sort"
	"strings"

	"github.com/save-ai/save/internal/tools"
)

// systemPrompt instructs the planner model. It enumerates the rules
// the product assistant operates under; tool selection is driven by
// the registered tool declarations, not by prompt text.
const systemPrompt = `You are SAVE (Simple Autonomous Verification Engine), a product data validation and retrieval assistant for packaged food.

Rules:
1. Never claim product details without source attribution (OpenFoodFacts, USDA FoodData Central, web search, knowledge base).
2. Never invent, guess, or silently mutate UPC codes or product information.
3. Extract candidate barcodes from the message, validate them with the UPC validator before querying product databases, and repair bad check digits with the check digit calculator.
4. Query the product databases before falling back to web search.
5. If sources conflict, present both and say so.
6. Only answer product, food and nutrition questions; politely redirect anything else.
7. When the user refers to "it" or "this product", use the last resolved product from the conversation.

When you have enough evidence, answer directly. Attribute each fact to its source.`

// buildPrompt renders the per-iteration planning prompt: conversation
// memory, accumulated evidence, then the question.
func buildPrompt(pc PlanContext) string {
	var sb strings.Builder

	if lp := pc.Session.LastProduct; lp != nil {
		fmt.Fprintf(&sb, "Last resolved product: %s (UPC %s, source %s)\n\n", lp.Name, lp.UPC, lp.Source)
	}

	if len(pc.Session.Turns) > 0 {
		sb.WriteString("Conversation so far:\n")
		for _, turn := range pc.Session.Turns {
			fmt.Fprintf(&sb, "%s: %s\n", turn.Role, turn.Text)
		}
		sb.WriteString("\n")
	}

	if len(pc.Evidence) > 0 {
		sb.WriteString("Evidence gathered this turn:\n")
		for _, ev := range pc.Evidence {
			sb.WriteString(formatEvidence(ev))
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "User question: %s", pc.Question)
	return sb.String()
}

// formatEvidence renders one tool result for the planner. Failures
// are stated plainly so the model can route around them.
func formatEvidence(ev tools.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "- %s [%s]", ev.Tool, ev.Status)
	switch {
	case ev.Record != nil:
		fmt.Fprintf(&sb, ": %s", ev.Record.Summary())
		if len(ev.Record.Ingredients) > 0 {
			fmt.Fprintf(&sb, "; ingredients: %s", strings.Join(ev.Record.Ingredients, ", "))
		}
		if ev.Record.Grade != "" {
			fmt.Fprintf(&sb, "; nutrition grade: %s", ev.Record.Grade)
		}
		// Sorted so identical evidence renders identically.
		names := make([]string, 0, len(ev.Record.Nutrients))
		for name := range ev.Record.Nutrients {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			n := ev.Record.Nutrients[name]
			fmt.Fprintf(&sb, "; %s: %g %s", name, n.Amount, n.Unit)
		}
	case len(ev.Passages) > 0:
		for _, p := range ev.Passages {
			fmt.Fprintf(&sb, "\n  [%s] %s", p.DocumentID, truncate(p.Text, 400))
		}
	case ev.Detail != "":
		fmt.Fprintf(&sb, ": %s", ev.Detail)
	}
	sb.WriteString("\n")
	return sb.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
