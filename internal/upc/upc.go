// Package upc provides extraction and validation of Universal Product Codes.
//
// All functions are pure and never panic on malformed input: validation
// failures are returned as structured results, so callers (and the agent's
// planning loop) can reason over them instead of handling errors ad hoc.
package upc

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Reason classifies the outcome of a UPC-A validation.
type Reason string

const (
	// ReasonOK means the code is a well-formed UPC-A with a valid check digit.
	ReasonOK Reason = "ok"

	// ReasonInvalidLength means the digit-normalized code is not 12 digits.
	ReasonInvalidLength Reason = "invalid_length"

	// ReasonChecksumMismatch means the last digit does not match the
	// computed UPC-A check digit.
	ReasonChecksumMismatch Reason = "checksum_mismatch"
)

// Validation is the structured result of ValidateUPCA.
type Validation struct {
	Valid      bool
	Normalized string // 12-digit form when Valid, empty otherwise
	Reason     Reason
	// Expected holds the computed check digit on checksum mismatch,
	// so callers can suggest the corrected code.
	Expected byte
}

// candidate digit-run bounds: UPC-E (8) through GTIN-14 (14).
const (
	minCandidateDigits = 8
	maxCandidateDigits = 14
)

// Extract scans free text for UPC-like digit runs and returns them
// normalized to bare digits, most plausible first: exact 12-digit candidates
// lead, then candidates closest in length to 12, longer before shorter on a
// tie, original text order last. The result is de-duplicated and finite.
func Extract(text string) []string {
	type run struct {
		digits string
		pos    int
	}

	var runs []run
	i := 0
	for i < len(text) {
		if !isDigit(text[i]) {
			i++
			continue
		}
		// Consume a digit run, tolerating single separators between digits
		// ("0-28400-43330-3", "0 28400 43330 3").
		start := i
		var sb strings.Builder
		sb.WriteByte(text[i])
		i++
		for i < len(text) {
			if isDigit(text[i]) {
				sb.WriteByte(text[i])
				i++
				continue
			}
			if isSeparator(text[i]) && i+1 < len(text) && isDigit(text[i+1]) {
				i++
				continue
			}
			break
		}
		runs = append(runs, run{digits: sb.String(), pos: start})
	}

	seen := make(map[string]struct{})
	var out []run
	for _, r := range runs {
		if len(r.digits) < minCandidateDigits || len(r.digits) > maxCandidateDigits {
			continue
		}
		if _, dup := seen[r.digits]; dup {
			continue
		}
		seen[r.digits] = struct{}{}
		out = append(out, r)
	}

	sort.SliceStable(out, func(a, b int) bool {
		da, db := lengthDistance(out[a].digits), lengthDistance(out[b].digits)
		if da != db {
			return da < db
		}
		if len(out[a].digits) != len(out[b].digits) {
			return len(out[a].digits) > len(out[b].digits)
		}
		return out[a].pos < out[b].pos
	})

	candidates := make([]string, len(out))
	for i, r := range out {
		candidates[i] = r.digits
	}
	return candidates
}

// ValidateUPCA validates a UPC-A code. Separators are stripped before the
// length check, so "0-28400-43330-3" validates the same as "028400433303".
func ValidateUPCA(code string) Validation {
	normalized := digitsOnly(code)
	if len(normalized) != 12 {
		return Validation{Reason: ReasonInvalidLength}
	}

	expected := checkDigit(normalized[:11])
	if normalized[11] != expected {
		return Validation{Reason: ReasonChecksumMismatch, Expected: expected}
	}

	return Validation{Valid: true, Normalized: normalized, Reason: ReasonOK}
}

// ErrTooLong is returned by Complete for inputs longer than 12 digits.
var ErrTooLong = errors.New("upc: more than 12 digits")

// Complete left-pads a partial code to 11 digits and appends the computed
// UPC-A check digit, returning a complete 12-digit code. A 12-digit input
// has its check digit recomputed over the first 11 digits.
func Complete(partial string) (string, error) {
	digits := digitsOnly(partial)
	switch {
	case len(digits) > 12:
		return "", fmt.Errorf("%w: got %d", ErrTooLong, len(digits))
	case len(digits) == 12:
		digits = digits[:11]
	case len(digits) < 11:
		digits = strings.Repeat("0", 11-len(digits)) + digits
	}
	return digits + string(checkDigit(digits)), nil
}

// checkDigit computes the UPC-A check digit for the first 11 digits:
// 3 times the sum of odd positions plus the sum of even positions,
// check = (10 - total mod 10) mod 10.
func checkDigit(first11 string) byte {
	var odd, even int
	for i := 0; i < 11; i++ {
		d := int(first11[i] - '0')
		if i%2 == 0 {
			odd += d
		} else {
			even += d
		}
	}
	total := odd*3 + even
	return byte('0' + (10-total%10)%10)
}

func digitsOnly(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if isDigit(s[i]) {
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

// lengthDistance ranks candidate lengths by closeness to UPC-A.
func lengthDistance(digits string) int {
	d := len(digits) - 12
	if d < 0 {
		return -d
	}
	return d
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isSeparator(c byte) bool { return c == '-' || c == ' ' || c == '.' }
