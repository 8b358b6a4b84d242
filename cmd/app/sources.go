package main

import (
	"fmt"

	"go.uber.org/zap"

	"fxchain/internal/cache"
	"fxchain/internal/chain"
	"fxchain/internal/config"
	"fxchain/internal/metrics"
	"fxchain/internal/provider"
	"fxchain/internal/rates"
)

// buildSources maps chain.sources to rate sources in the configured order.
// exchangerate_host is skipped without an API key.
func buildSources(cfg *config.Config, rateCache *cache.RateCache, snapshots provider.SnapshotReader, logger *zap.SugaredLogger) ([]provider.Source, error) {
	sources := make([]provider.Source, 0, len(cfg.Chain.Sources))
	for _, name := range cfg.Chain.Sources {
		switch name {
		case provider.CacheName:
			sources = append(sources, provider.NewCacheSource(rateCache))
		case provider.ECBName:
			sources = append(sources, provider.NewECBSource(cfg.ECB.URL, cfg.ECB.Timeout))
		case provider.FrankfurterName:
			sources = append(sources, provider.NewFrankfurterSource(cfg.Frankfurter.BaseURL, cfg.Frankfurter.Timeout))
		case provider.ExchangeRateHostName:
			if cfg.ExchangeRateHost.APIKey == "" {
				logger.Warnw("Skipping source without API key", "source", name)
				continue
			}
			sources = append(sources, provider.NewExchangeRateHostSource(
				cfg.ExchangeRateHost.BaseURL, cfg.ExchangeRateHost.APIKey, cfg.ExchangeRateHost.Timeout))
		case provider.SnapshotName:
			if snapshots == nil {
				return nil, fmt.Errorf("source %q requires a database", name)
			}
			sources = append(sources, provider.NewSnapshotSource(snapshots))
		default:
			return nil, fmt.Errorf("unknown rate source %q", name)
		}
	}
	return sources, nil
}

// newConverter builds a converter over an empty chain and fills it through
// Configure, then rejects chains that cannot resolve anything.
func newConverter(cfg *config.Config, rateCache *cache.RateCache, snapshots provider.SnapshotReader,
	m *metrics.Metrics, logger *zap.SugaredLogger) (*chain.Converter, error) {
	sources, err := buildSources(cfg, rateCache, snapshots, logger)
	if err != nil {
		return nil, err
	}
	converter := chain.NewConverter(chain.New(rateCache, m, logger), m, logger)
	converter.Configure(func(c *chain.Chain) { c.Add(sources...) })
	if err := converter.Chain().Validate(); err != nil {
		return nil, fmt.Errorf("build rate source chain: %w", err)
	}
	return converter, nil
}

func parseWatch(codes []string) ([]rates.Currency, error) {
	out := make([]rates.Currency, 0, len(codes))
	for _, code := range codes {
		c, err := rates.ParseCurrency(code)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
