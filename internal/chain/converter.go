package chain

import (
	"context"

	"go.uber.org/zap"

	"fxchain/internal/metrics"
	"fxchain/internal/rates"
)

// Converter is the entry point of rate resolution.
type Converter struct {
	chain   *Chain
	metrics *metrics.Metrics
	log     *zap.SugaredLogger
}

// NewConverter creates a Converter over chain.
func NewConverter(chain *Chain, m *metrics.Metrics, logger *zap.SugaredLogger) *Converter {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Converter{chain: chain, metrics: m, log: logger}
}

// Configure applies edit to the chain. Edits take effect on the next GetRates call.
func (c *Converter) Configure(edit func(*Chain)) {
	edit(c.chain)
	c.log.Infow("Rate source chain configured", "sources", c.chain.Names())
}

// Chain returns the underlying chain.
func (c *Converter) Chain() *Chain { return c.chain }

// GetRates resolves base against destinations and trims the result to exactly
// that set. The only error is rates.ErrConfiguration, returned before any
// source is contacted; partial results are reported through Complete.
func (c *Converter) GetRates(ctx context.Context, base rates.Currency, destinations []rates.Currency) (*rates.Result, error) {
	if err := c.chain.Validate(); err != nil {
		return nil, err
	}

	entry := c.chain.EntryPoint()
	if entry == nil {
		return nil, rates.ErrConfiguration
	}

	res := entry.Resolve(ctx, base, destinations)
	res.Trim(destinations)
	res.CheckComplete(destinations)
	c.metrics.ObserveResolution(res.Complete)

	if !res.Complete {
		c.log.Warnw("Rates resolved partially",
			"base", base,
			"wanted", destinations,
			"resolved", rates.Sorted(res.Rates),
			"errors", res.Errors,
		)
	}
	return res, nil
}
