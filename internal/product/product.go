// Package product defines the canonical normalized product record.
//
// Every tool adapter maps its upstream schema (USDA FoodData Central,
// OpenFoodFacts, ...) into Record before returning, so the orchestrator
// never sees upstream-specific shapes.
package product

import "strings"

// UnknownUPC marks a record whose UPC could not be resolved to a validated
// 12-digit UPC-A.
const UnknownUPC = "unknown"

// Nutrient is a single nutrient amount with its unit.
type Nutrient struct {
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// Record is the canonical normalized product shape.
// UPC is either a validated 12-digit UPC-A string or UnknownUPC.
type Record struct {
	UPC         string              `json:"upc"`
	Name        string              `json:"name"`
	Brand       string              `json:"brand,omitempty"`
	Categories  []string            `json:"categories,omitempty"`
	Ingredients []string            `json:"ingredients,omitempty"`
	Nutrients   map[string]Nutrient `json:"nutrients,omitempty"`
	Allergens   []string            `json:"allergens,omitempty"`
	Grade       string              `json:"grade,omitempty"`
	ServingSize string              `json:"serving_size,omitempty"`
	Quantity    string              `json:"quantity,omitempty"`
	Source      string              `json:"source"`
	URL         string              `json:"url,omitempty"`
}

// Summary renders a compact one-line description for planner context and
// progress messages.
func (r *Record) Summary() string {
	var sb strings.Builder
	if r.Name != "" {
		sb.WriteString(r.Name)
	} else {
		sb.WriteString("unnamed product")
	}
	if r.Brand != "" {
		sb.WriteString(" by ")
		sb.WriteString(r.Brand)
	}
	if r.UPC != "" && r.UPC != UnknownUPC {
		sb.WriteString(" (UPC ")
		sb.WriteString(r.UPC)
		sb.WriteString(")")
	}
	return sb.String()
}

// SplitList splits a comma-separated upstream field ("milk, sugar, cocoa")
// into trimmed entries, dropping empties. Order is preserved.
func SplitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
