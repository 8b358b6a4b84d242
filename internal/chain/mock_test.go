package chain

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"fxchain/internal/rates"
)

type MockSource struct {
	mock.Mock
	name      string
	cacheOnly bool
}

func newMockSource(name string) *MockSource {
	return &MockSource{name: name}
}

func (m *MockSource) Name() string { return m.name }

func (m *MockSource) CacheOnly() bool { return m.cacheOnly }

// Fetch returns a copy of the configured result; links mutate what they receive.
func (m *MockSource) Fetch(ctx context.Context, base rates.Currency) (*rates.Result, error) {
	args := m.Called(ctx, base)
	res, _ := args.Get(0).(*rates.Result)
	if res == nil {
		return nil, args.Error(1)
	}
	cp := *res
	cp.Rates = make(map[rates.Currency]decimal.Decimal, len(res.Rates))
	for c, v := range res.Rates {
		cp.Rates[c] = v
	}
	cp.Errors = make(map[string]string, len(res.Errors))
	for k, v := range res.Errors {
		cp.Errors[k] = v
	}
	return &cp, args.Error(1)
}
