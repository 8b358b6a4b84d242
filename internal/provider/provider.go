// Package provider implements the rate sources a resolution chain is built from.
package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"fxchain/internal/rates"
)

// Source fetches every rate it knows for a base currency. A failure is
// reported as an error, which is distinct from an empty successful result.
type Source interface {
	// Name identifies the source in a result's error log and in chain edits.
	Name() string
	Fetch(ctx context.Context, base rates.Currency) (*rates.Result, error)
}

// cacheOnly is implemented by sources that only ever read the rate cache.
type cacheOnly interface {
	CacheOnly() bool
}

// IsCacheOnly reports whether src never contributes fresh data.
func IsCacheOnly(src Source) bool {
	co, ok := src.(cacheOnly)
	return ok && co.CacheOnly()
}

// persisted is implemented by sources serving previously stored rates.
type persisted interface {
	Persisted() bool
}

// IsPersisted reports whether src replays stored rates instead of live ones.
// Such results answer a request but are never written to the rate cache.
func IsPersisted(src Source) bool {
	p, ok := src.(persisted)
	return ok && p.Persisted()
}

func newHTTPClient(timeoutSec int) *http.Client {
	if timeoutSec <= 0 {
		timeoutSec = 10
	}
	return &http.Client{Timeout: time.Duration(timeoutSec) * time.Second}
}

// getBody performs a GET and returns the body of a 200 response.
func getBody(ctx context.Context, client *http.Client, name, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%s request creation failed: %w", name, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", name, err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s response read failed: %w", name, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d: %s", name, resp.StatusCode, string(body))
	}
	return body, nil
}

// parseDate parses a YYYY-MM-DD date, falling back to today.
func parseDate(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Now().UTC().Truncate(24 * time.Hour)
	}
	return d.UTC()
}
