package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/save-ai/save/internal/log"
	"github.com/save-ai/save/internal/product"
)

// OpenFoodFactsToolName identifies the OpenFoodFacts product lookup.
const OpenFoodFactsToolName = "openfoodfacts_lookup"

const defaultOFFBaseURL = "https://world.openfoodfacts.org"

// OpenFoodFactsTool resolves a UPC against the public OpenFoodFacts
// database. No API key required.
type OpenFoodFactsTool struct {
	baseURL string
	client  *http.Client
	logger  log.Logger
}

// NewOpenFoodFactsTool creates the OpenFoodFacts lookup tool.
func NewOpenFoodFactsTool(logger log.Logger) *OpenFoodFactsTool {
	return &OpenFoodFactsTool{
		baseURL: defaultOFFBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

func (t *OpenFoodFactsTool) Name() string { return OpenFoodFactsToolName }

func (t *OpenFoodFactsTool) Description() string {
	return "Look up a packaged product in the OpenFoodFacts database by barcode. " +
		`Arguments: {"upc": "<validated 12-digit UPC>"}.`
}

// offResponse mirrors the subset of the v2 product payload we read.
// status is 1 when the barcode is known.
type offResponse struct {
	Status  int        `json:"status"`
	Product offProduct `json:"product"`
}

type offProduct struct {
	ProductName     string `json:"product_name"`
	Brands          string `json:"brands"`
	BrandOwner      string `json:"brand_owner"`
	Categories      string `json:"categories"`
	IngredientsText string `json:"ingredients_text"`
	AllergensTags   string `json:"allergens"`
	NutritionGrades string `json:"nutrition_grades"`
	Quantity        string `json:"quantity"`
	ServingSize     string `json:"serving_size"`
}

// Invoke performs the lookup. Requires args["upc"].
func (t *OpenFoodFactsTool) Invoke(ctx context.Context, args Args) (Result, error) {
	upc := args.String("upc")
	if upc == "" {
		return Result{Status: StatusError, Detail: `missing "upc" argument`}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/v2/product/%s.json", t.baseURL, upc), nil)
	if err != nil {
		return Result{Status: StatusError, Detail: err.Error()}, nil
	}

	resp, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{Status: StatusError, Detail: fmt.Sprintf("openfoodfacts request: %v", err)}, nil
	}
	defer resp.Body.Close()

	// OpenFoodFacts answers unknown barcodes with 404 plus status 0.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return Result{
			Status: StatusError,
			Detail: fmt.Sprintf("openfoodfacts: unexpected status %d", resp.StatusCode),
		}, nil
	}

	var body offResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Result{Status: StatusError, Detail: fmt.Sprintf("openfoodfacts decode: %v", err)}, nil
	}
	if body.Status != 1 {
		return Result{
			Status: StatusNotFound,
			Detail: fmt.Sprintf("UPC %s not cataloged on OpenFoodFacts", upc),
		}, nil
	}

	p := body.Product
	brand := p.BrandOwner
	if brand == "" {
		// brands is a comma list; the first entry is the primary brand.
		if bs := product.SplitList(p.Brands); len(bs) > 0 {
			brand = bs[0]
		}
	}
	rec := product.Record{
		UPC:         upc,
		Name:        p.ProductName,
		Brand:       brand,
		Categories:  product.SplitList(p.Categories),
		Ingredients: product.SplitList(p.IngredientsText),
		Allergens:   product.SplitList(p.AllergensTags),
		Grade:       p.NutritionGrades,
		ServingSize: p.ServingSize,
		Quantity:    p.Quantity,
		Source:      "openfoodfacts",
		URL:         fmt.Sprintf("https://world.openfoodfacts.org/product/%s", upc),
	}
	return Result{Status: StatusOK, Record: &rec}, nil
}
