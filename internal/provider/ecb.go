package provider

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fxchain/internal/rates"
)

var _ Source = (*ECBSource)(nil)

// ECBName is the source name of the European Central Bank feed.
const ECBName = "ecb"

// DefaultECBURL is the ECB daily reference rates feed.
const DefaultECBURL = "https://www.ecb.europa.eu/stats/eurofxref/eurofxref-daily.xml"

// ErrInvalidEnvelope is returned when the feed has no rates cube.
var ErrInvalidEnvelope = errors.New("ecb feed has no rates")

// ECBSource fetches the EUR-quoted ECB reference rates and rebases them.
type ECBSource struct {
	url    string
	client *http.Client
}

// NewECBSource creates an ECBSource reading url (DefaultECBURL when empty).
func NewECBSource(url string, timeoutSec int) *ECBSource {
	if url == "" {
		url = DefaultECBURL
	}
	return &ECBSource{url: url, client: newHTTPClient(timeoutSec)}
}

// Name implements Source.
func (s *ECBSource) Name() string { return ECBName }

type ecbEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Cube    struct {
		Days []struct {
			Time  string `xml:"time,attr"`
			Rates []struct {
				Currency string `xml:"currency,attr"`
				Rate     string `xml:"rate,attr"`
			} `xml:"Cube"`
		} `xml:"Cube"`
	} `xml:"Cube"`
}

// Fetch implements Source.
func (s *ECBSource) Fetch(ctx context.Context, base rates.Currency) (*rates.Result, error) {
	body, err := getBody(ctx, s.client, "ecb feed", s.url)
	if err != nil {
		return nil, err
	}

	var env ecbEnvelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode ecb feed: %w", err)
	}
	if len(env.Cube.Days) == 0 || len(env.Cube.Days[0].Rates) == 0 {
		return nil, ErrInvalidEnvelope
	}
	day := env.Cube.Days[0]

	date, err := time.Parse(time.DateOnly, day.Time)
	if err != nil {
		return nil, fmt.Errorf("ecb feed date %q: %w", day.Time, err)
	}

	quoted := make(map[rates.Currency]decimal.Decimal, len(day.Rates))
	for _, r := range day.Rates {
		cur, err := rates.ParseCurrency(r.Currency)
		if err != nil {
			return nil, fmt.Errorf("ecb feed currency %q: %w", r.Currency, err)
		}
		v, err := decimal.NewFromString(strings.TrimSpace(r.Rate))
		if err != nil {
			return nil, fmt.Errorf("ecb feed rate for %s: %w", cur, err)
		}
		quoted[cur] = v
	}

	rebased := rates.Rebase("EUR", base, quoted)
	if len(rebased) == 0 {
		return nil, fmt.Errorf("ecb feed has no rate for %s", base)
	}

	res := rates.NewResult(base)
	res.Rates = rebased
	res.Date = date.UTC()
	res.Success = true
	return res, nil
}
