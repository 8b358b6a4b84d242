package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"fxchain/internal/rates"
)

var _ Source = (*ExchangeRateHostSource)(nil)

// ExchangeRateHostName is the source name of the exchangerate.host API.
const ExchangeRateHostName = "exchangerate_host"

// ExchangeRateHostSource fetches rates from the exchangerate.host API.
type ExchangeRateHostSource struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewExchangeRateHostSource creates a new ExchangeRateHostSource with the given configuration.
func NewExchangeRateHostSource(baseURL, apiKey string, timeoutSec int) *ExchangeRateHostSource {
	if baseURL == "" {
		baseURL = "https://api.exchangerate.host"
	}
	return &ExchangeRateHostSource{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  newHTTPClient(timeoutSec),
	}
}

// Name implements Source.
func (s *ExchangeRateHostSource) Name() string { return ExchangeRateHostName }

// Fetch reads the live quotes for base. Quotes are keyed "BASEQUOTE", e.g. "EURMXN".
func (s *ExchangeRateHostSource) Fetch(ctx context.Context, base rates.Currency) (*rates.Result, error) {
	reqURL := fmt.Sprintf("%s/live?access_key=%s&source=%s", s.baseURL, s.apiKey, base)
	body, err := getBody(ctx, s.client, "exchangerate.host API", reqURL)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("exchangerate.host API returned invalid JSON")
	}

	doc := gjson.ParseBytes(body)
	if !doc.Get("success").Bool() {
		msg := doc.Get("error.info").String()
		if msg == "" {
			msg = "success=false"
		}
		return nil, fmt.Errorf("exchangerate.host API failed for %s: %s", base, msg)
	}

	res := rates.NewResult(base)
	var parseErr error
	doc.Get("quotes").ForEach(func(key, value gjson.Result) bool {
		code, ok := strings.CutPrefix(key.String(), string(base))
		if !ok {
			return true
		}
		cur, err := rates.ParseCurrency(code)
		if err != nil {
			return true
		}
		v, err := decimal.NewFromString(value.Raw)
		if err != nil {
			parseErr = fmt.Errorf("exchangerate.host quote %s: %w", key.String(), err)
			return false
		}
		res.Rates[cur] = v
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	if ts := doc.Get("timestamp").Int(); ts > 0 {
		res.Date = time.Unix(ts, 0).UTC().Truncate(24 * time.Hour)
	}
	res.Success = true
	return res, nil
}
