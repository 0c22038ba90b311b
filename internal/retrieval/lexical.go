package retrieval

import (
	"math"
	"strings"
	"unicode"
)

// lexicalIndex scores documents by IDF-weighted term overlap. The lexical
// stage exists because UPCs and exact product names must match verbatim even
// when embedding similarity is weak, so digits are first-class tokens.
type lexicalIndex struct {
	idf   map[string]float64
	terms []map[string]int // term frequency per document, same order as corpus
}

func newLexicalIndex(docs []Document) *lexicalIndex {
	df := make(map[string]int)
	terms := make([]map[string]int, len(docs))

	for i, doc := range docs {
		tf := make(map[string]int)
		for _, tok := range tokenize(doc.Text) {
			tf[tok]++
		}
		terms[i] = tf
		for tok := range tf {
			df[tok]++
		}
	}

	// Smoothed IDF so terms present in every document still contribute.
	n := float64(len(docs))
	idf := make(map[string]float64, len(df))
	for tok, count := range df {
		idf[tok] = math.Log((1+n)/(1+float64(count))) + 1
	}

	return &lexicalIndex{idf: idf, terms: terms}
}

// score computes the raw lexical score of document i for the query tokens:
// the sum over matched distinct terms of idf * (1 + ln tf), which rewards
// repeated mentions without letting long documents dominate.
func (ix *lexicalIndex) score(queryTokens []string, i int) float64 {
	tf := ix.terms[i]
	seen := make(map[string]struct{}, len(queryTokens))
	var total float64
	for _, tok := range queryTokens {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		count, ok := tf[tok]
		if !ok {
			continue
		}
		total += ix.idf[tok] * (1 + math.Log(float64(count)))
	}
	return total
}

// tokenize lowercases and splits text into letter runs and digit runs.
// Digit runs are kept whole so a 12-digit UPC is a single token.
func tokenize(text string) []string {
	var (
		tokens []string
		sb     strings.Builder
		digits bool
	)
	flush := func() {
		if sb.Len() > 0 {
			tokens = append(tokens, sb.String())
			sb.Reset()
		}
	}
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsDigit(r):
			if !digits {
				flush()
				digits = true
			}
			sb.WriteRune(r)
		case unicode.IsLetter(r):
			if digits {
				flush()
				digits = false
			}
			sb.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return tokens
}
