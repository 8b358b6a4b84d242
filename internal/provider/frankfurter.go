package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"fxchain/internal/rates"
)

var _ Source = (*FrankfurterSource)(nil)

// FrankfurterName is the source name of the Frankfurter API.
const FrankfurterName = "frankfurter"

// FrankfurterSource fetches rates from the Frankfurter API.
type FrankfurterSource struct {
	baseURL string
	client  *http.Client
}

// NewFrankfurterSource creates a new FrankfurterSource.
func NewFrankfurterSource(baseURL string, timeoutSec int) *FrankfurterSource {
	if baseURL == "" {
		baseURL = "https://api.frankfurter.dev/v1"
	}
	return &FrankfurterSource{
		baseURL: baseURL,
		client:  newHTTPClient(timeoutSec),
	}
}

// Name implements Source.
func (s *FrankfurterSource) Name() string { return FrankfurterName }

type frankfurterResponse struct {
	Amount float64                    `json:"amount"`
	Base   string                     `json:"base"`
	Date   string                     `json:"date"`
	Rates  map[string]decimal.Decimal `json:"rates"`
}

// Fetch retrieves every rate Frankfurter publishes for base.
func (s *FrankfurterSource) Fetch(ctx context.Context, base rates.Currency) (*rates.Result, error) {
	reqURL := fmt.Sprintf("%s/latest?base=%s", s.baseURL, base)
	body, err := getBody(ctx, s.client, "frankfurter API", reqURL)
	if err != nil {
		return nil, err
	}

	var payload frankfurterResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode frankfurter API response: %w", err)
	}
	if payload.Base != "" && payload.Base != string(base) {
		return nil, fmt.Errorf("frankfurter API answered for %s instead of %s", payload.Base, base)
	}

	res := rates.NewResult(base)
	for code, v := range payload.Rates {
		cur, err := rates.ParseCurrency(code)
		if err != nil {
			continue
		}
		res.Rates[cur] = v
	}
	res.Date = parseDate(payload.Date)
	res.Success = true
	return res, nil
}
