package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/save-ai/save/internal/log"
	"github.com/save-ai/save/internal/product"
	"github.com/save-ai/save/internal/upc"
)

// UPCToolName identifies the barcode validator.
const UPCToolName = "upc_validator"

// UPCTool validates a candidate barcode as UPC-A. It never touches the
// network; validation is pure arithmetic, so the planner can call it
// before spending a database lookup on a mistyped code.
type UPCTool struct {
	logger log.Logger
}

// NewUPCTool creates the validator tool.
func NewUPCTool(logger log.Logger) *UPCTool {
	return &UPCTool{logger: logger}
}

func (t *UPCTool) Name() string { return UPCToolName }

func (t *UPCTool) Description() string {
	return "Validate a 12-digit UPC-A barcode, including its check digit. " +
		`Arguments: {"upc": "<candidate barcode, separators allowed>"}.`
}

// Invoke validates args["upc"]. An invalid code is a not_found result
// carrying the reason, so the planner can tell the user what is wrong
// instead of retrying lookups.
func (t *UPCTool) Invoke(ctx context.Context, args Args) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	code := args.String("upc")
	if code == "" {
		return Result{Status: StatusError, Detail: `missing "upc" argument`}, nil
	}

	v := upc.ValidateUPCA(code)
	if !v.Valid {
		detail := fmt.Sprintf("UPC %s is invalid: %s", code, v.Reason)
		if v.Reason == upc.ReasonChecksumMismatch {
			detail = fmt.Sprintf("UPC %s has a bad check digit, expected %c", code, v.Expected)
		}
		return Result{Status: StatusNotFound, Detail: detail}, nil
	}

	rec := product.Record{UPC: v.Normalized, Source: "upc_validator"}
	return Result{
		Status: StatusOK,
		Record: &rec,
		Detail: fmt.Sprintf("UPC %s is a valid UPC-A", v.Normalized),
	}, nil
}

// UPCExtractToolName identifies the free-text barcode extractor.
const UPCExtractToolName = "upc_extraction"

// UPCExtractTool scans free text for UPC-like digit runs so the planner
// does not have to parse barcodes out of user messages itself.
type UPCExtractTool struct {
	logger log.Logger
}

// NewUPCExtractTool creates the extraction tool.
func NewUPCExtractTool(logger log.Logger) *UPCExtractTool {
	return &UPCExtractTool{logger: logger}
}

func (t *UPCExtractTool) Name() string { return UPCExtractToolName }

func (t *UPCExtractTool) Description() string {
	return "Extract candidate UPC codes from natural language text. Use this " +
		"when the user mentions digit runs that could be barcodes. " +
		`Arguments: {"text": "<the user's complete message>"}.`
}

// Invoke extracts candidates from args["text"], most plausible first.
// The first candidate that validates as UPC-A is returned as a record;
// the rest are listed in the detail so the planner can still try them.
func (t *UPCExtractTool) Invoke(ctx context.Context, args Args) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	text := args.String("text")
	if text == "" {
		return Result{Status: StatusError, Detail: `missing "text" argument`}, nil
	}

	candidates := upc.Extract(text)
	if len(candidates) == 0 {
		return Result{Status: StatusNotFound, Detail: "no UPC-like digit runs in the text"}, nil
	}

	detail := "candidates: " + strings.Join(candidates, ", ")
	for _, c := range candidates {
		if v := upc.ValidateUPCA(c); v.Valid {
			rec := product.Record{UPC: v.Normalized, Source: UPCExtractToolName}
			return Result{
				Status: StatusOK,
				Record: &rec,
				Detail: fmt.Sprintf("%s; %s is a valid UPC-A", detail, v.Normalized),
			}, nil
		}
	}
	return Result{Status: StatusOK, Detail: detail + "; none validate as UPC-A"}, nil
}

// UPCCheckDigitToolName identifies the check digit calculator.
const UPCCheckDigitToolName = "upc_check_digit_calculator"

// UPCCheckDigitTool completes a partial barcode: it left-pads short
// codes to 11 digits and appends the computed UPC-A check digit, or
// recomputes the check digit of a full 12-digit code.
type UPCCheckDigitTool struct {
	logger log.Logger
}

// NewUPCCheckDigitTool creates the check digit calculator.
func NewUPCCheckDigitTool(logger log.Logger) *UPCCheckDigitTool {
	return &UPCCheckDigitTool{logger: logger}
}

func (t *UPCCheckDigitTool) Name() string { return UPCCheckDigitToolName }

func (t *UPCCheckDigitTool) Description() string {
	return "Complete a partial UPC by computing its check digit, or fix the " +
		"check digit of a 12-digit code that failed validation. " +
		`Arguments: {"upc": "<up to 12 digits, separators allowed>"}.`
}

// Invoke completes args["upc"]. Inputs longer than 12 digits are a
// StatusError result, not a Go error.
func (t *UPCCheckDigitTool) Invoke(ctx context.Context, args Args) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	code := args.String("upc")
	if code == "" {
		return Result{Status: StatusError, Detail: `missing "upc" argument`}, nil
	}

	complete, err := upc.Complete(code)
	if err != nil {
		return Result{Status: StatusError, Detail: fmt.Sprintf("cannot complete %s: %v", code, err)}, nil
	}

	rec := product.Record{UPC: complete, Source: UPCCheckDigitToolName}
	return Result{
		Status: StatusOK,
		Record: &rec,
		Detail: fmt.Sprintf("complete UPC-A: %s (check digit %c)", complete, complete[11]),
	}, nil
}
