package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/save-ai/save/internal/log"
	"github.com/save-ai/save/internal/product"
)

// NutritionToolName identifies the USDA FoodData Central lookup.
const NutritionToolName = "usda_fdc_search"

// defaultFDCBaseURL is the production FoodData Central endpoint.
const defaultFDCBaseURL = "https://api.nal.usda.gov/fdc"

// keyNutrients are the nutrient names worth surfacing in answers.
// Matched as substrings against the FDC nutrientName field.
var keyNutrients = []string{
	"Energy", "Protein", "Total lipid (fat)", "Carbohydrate",
	"Total Sugars", "Fiber", "Sodium",
}

// NutritionTool looks up branded products in USDA FoodData Central by
// UPC. An exact gtinUpc match is preferred; otherwise the first search
// hit is used.
type NutritionTool struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  log.Logger
}

// NewNutritionTool creates the USDA lookup tool.
func NewNutritionTool(apiKey string, logger log.Logger) (*NutritionTool, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("nutrition tool: API key is required")
	}
	return &NutritionTool{
		baseURL: defaultFDCBaseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}, nil
}

func (t *NutritionTool) Name() string { return NutritionToolName }

func (t *NutritionTool) Description() string {
	return "Search the USDA FoodData Central database for a packaged product. " +
		`Arguments: {"upc": "<validated 12-digit UPC>"}.`
}

// fdcSearchResponse mirrors the subset of the FDC search payload we
// read.
type fdcSearchResponse struct {
	TotalHits int       `json:"totalHits"`
	Foods     []fdcFood `json:"foods"`
}

type fdcFood struct {
	FDCID           int64         `json:"fdcId"`
	Description     string        `json:"description"`
	BrandOwner      string        `json:"brandOwner"`
	BrandName       string        `json:"brandName"`
	GtinUPC         string        `json:"gtinUpc"`
	Ingredients     string        `json:"ingredients"`
	ServingSize     float64       `json:"servingSize"`
	ServingSizeUnit string        `json:"servingSizeUnit"`
	FoodNutrients   []fdcNutrient `json:"foodNutrients"`
	FoodCategory    string        `json:"foodCategory"`
}

type fdcNutrient struct {
	NutrientName string  `json:"nutrientName"`
	Value        float64 `json:"value"`
	UnitName     string  `json:"unitName"`
}

// Invoke performs the lookup. Requires args["upc"].
func (t *NutritionTool) Invoke(ctx context.Context, args Args) (Result, error) {
	upc := args.String("upc")
	if upc == "" {
		return Result{Status: StatusError, Detail: `missing "upc" argument`}, nil
	}

	q := url.Values{}
	q.Set("query", upc)
	q.Set("dataType", "Branded")
	q.Set("pageSize", "25")
	q.Set("api_key", t.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		t.baseURL+"/v1/foods/search?"+q.Encode(), nil)
	if err != nil {
		return Result{Status: StatusError, Detail: err.Error()}, nil
	}

	resp, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{Status: StatusError, Detail: fmt.Sprintf("usda fdc request: %v", err)}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{
			Status: StatusError,
			Detail: fmt.Sprintf("usda fdc: unexpected status %d", resp.StatusCode),
		}, nil
	}

	var body fdcSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Result{Status: StatusError, Detail: fmt.Sprintf("usda fdc decode: %v", err)}, nil
	}
	if len(body.Foods) == 0 {
		return Result{
			Status: StatusNotFound,
			Detail: fmt.Sprintf("UPC %s not cataloged in USDA FoodData Central", upc),
		}, nil
	}

	// Prefer the exact barcode match over search relevance.
	food := body.Foods[0]
	for _, f := range body.Foods {
		if f.GtinUPC == upc {
			food = f
			break
		}
	}

	rec := t.toRecord(upc, food)
	return Result{Status: StatusOK, Record: &rec}, nil
}

func (t *NutritionTool) toRecord(upc string, food fdcFood) product.Record {
	rec := product.Record{
		UPC:         upc,
		Name:        food.Description,
		Brand:       food.BrandOwner,
		Ingredients: product.SplitList(food.Ingredients),
		Source:      "usda_fdc",
		URL:         fmt.Sprintf("https://fdc.nal.usda.gov/fdc-app.html#/food-details/%d/nutrients", food.FDCID),
	}
	if food.BrandName != "" {
		rec.Brand = food.BrandName
	}
	if food.FoodCategory != "" {
		rec.Categories = []string{food.FoodCategory}
	}
	if food.ServingSize > 0 {
		rec.ServingSize = fmt.Sprintf("%g %s", food.ServingSize, food.ServingSizeUnit)
	}

	nutrients := make(map[string]product.Nutrient)
	for _, n := range food.FoodNutrients {
		for _, key := range keyNutrients {
			if strings.Contains(n.NutrientName, key) {
				nutrients[n.NutrientName] = product.Nutrient{Amount: n.Value, Unit: n.UnitName}
				break
			}
		}
	}
	if len(nutrients) > 0 {
		rec.Nutrients = nutrients
	}
	return rec
}
