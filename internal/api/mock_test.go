package api

import (
	"context"

	"fxchain/internal/rates"
)

// mockRatesService implements service.RatesServiceInterface for testing.
type mockRatesService struct {
	getRatesFunc       func(ctx context.Context, base, symbols string, places int) (*rates.Result, error)
	requestRefreshFunc func(ctx context.Context) (string, error)
	clearCacheFunc     func(ctx context.Context) error
}

func (m *mockRatesService) GetRates(ctx context.Context, base, symbols string, places int) (*rates.Result, error) {
	return m.getRatesFunc(ctx, base, symbols, places)
}

func (m *mockRatesService) RequestRefresh(ctx context.Context) (string, error) {
	return m.requestRefreshFunc(ctx)
}

func (m *mockRatesService) Refresh(_ context.Context) (*rates.Result, error) {
	return nil, nil // Not used in handler tests
}

func (m *mockRatesService) ClearCache(ctx context.Context) error {
	return m.clearCacheFunc(ctx)
}
