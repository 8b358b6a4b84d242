// Package service implements the rate lookup, refresh and cache maintenance use cases.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fxchain/internal/cache"
	"fxchain/internal/events"
	"fxchain/internal/rates"
	"fxchain/internal/repository"
)

// MaxPlaces bounds the rounding precision a caller may request.
const MaxPlaces = 12

// RatesServiceInterface defines the operations exposed over HTTP and to the worker.
type RatesServiceInterface interface {
	GetRates(ctx context.Context, base, symbols string, places int) (*rates.Result, error)
	RequestRefresh(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (*rates.Result, error)
	ClearCache(ctx context.Context) error
}

// RateConverter resolves rates through the source chain.
type RateConverter interface {
	GetRates(ctx context.Context, base rates.Currency, destinations []rates.Currency) (*rates.Result, error)
}

// Enqueuer schedules an asynchronous refresh and returns the task ID.
type Enqueuer interface {
	EnqueueRefresh(ctx context.Context) (string, error)
}

// Options carries the optional collaborators of RatesService.
type Options struct {
	Validator Validator
	Cache     *cache.RateCache
	Snapshots repository.SnapshotRepository
	Publisher events.Publisher
	Enqueuer  Enqueuer
	// Canonical is the base currency of background refreshes.
	Canonical rates.Currency
	// Watch lists the currencies a refresh resolves.
	Watch []rates.Currency
}

// RatesService defines business logic for rate lookups.
type RatesService struct {
	converter RateConverter
	validator Validator
	cache     *cache.RateCache
	snapshots repository.SnapshotRepository
	publisher events.Publisher
	enqueuer  Enqueuer
	canonical rates.Currency
	watch     []rates.Currency
	log       *zap.SugaredLogger
}

// NewRatesService creates a new RatesService.
func NewRatesService(converter RateConverter, logger *zap.SugaredLogger, opts Options) *RatesService {
	if opts.Validator == nil {
		opts.Validator = NewValidator()
	}
	if opts.Publisher == nil {
		opts.Publisher = events.NopPublisher{}
	}
	if opts.Canonical == "" {
		opts.Canonical = cache.DefaultCanonical
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &RatesService{
		converter: converter,
		validator: opts.Validator,
		cache:     opts.Cache,
		snapshots: opts.Snapshots,
		publisher: opts.Publisher,
		enqueuer:  opts.Enqueuer,
		canonical: opts.Canonical,
		watch:     opts.Watch,
		log:       logger,
	}
}

// GetRates resolves base against the comma separated symbols. The base itself
// is answered with rate 1 without consulting the chain. A negative places
// leaves rates unrounded.
func (s *RatesService) GetRates(ctx context.Context, base, symbols string, places int) (*rates.Result, error) {
	if places > MaxPlaces {
		return nil, ErrInvalidPlaces
	}

	if err := s.validator.Validate(base); err != nil {
		return nil, err
	}
	baseCur := rates.Currency(strings.ToUpper(strings.TrimSpace(base)))

	wanted, err := rates.ParseCurrencyList(symbols)
	if err != nil {
		return nil, err
	}
	if len(wanted) == 0 {
		return nil, ErrNoSymbols
	}
	for _, c := range wanted {
		if err := s.validator.Validate(string(c)); err != nil {
			return nil, err
		}
	}

	identity := false
	destinations := make([]rates.Currency, 0, len(wanted))
	for _, c := range wanted {
		if c == baseCur {
			identity = true
			continue
		}
		destinations = append(destinations, c)
	}

	var res *rates.Result
	if len(destinations) == 0 {
		res = rates.NewResult(baseCur)
		res.Success = true
	} else {
		res, err = s.converter.GetRates(ctx, baseCur, destinations)
		if err != nil {
			s.log.Errorw("Rate resolution misconfigured", "base", baseCur, "error", err)
			return nil, err
		}
	}

	if identity {
		res.Rates[baseCur] = decimal.NewFromInt(1)
	}
	res.CheckComplete(wanted)
	if places >= 0 {
		res.Round(int32(places))
	}
	return res, nil
}

// RequestRefresh schedules a background refresh.
func (s *RatesService) RequestRefresh(ctx context.Context) (string, error) {
	if s.enqueuer == nil {
		return "", ErrInternalQueue
	}
	id, err := s.enqueuer.EnqueueRefresh(ctx)
	if err != nil {
		s.log.Errorw("Failed to enqueue refresh", "error", err)
		return "", ErrInternalQueue
	}
	s.log.Infow("Enqueued rate refresh", "task_id", id)
	return id, nil
}

// Refresh resolves the canonical currency against the watch list, then saves
// the snapshot and publishes the result. Snapshot and publish failures are
// logged; only an empty resolution fails the refresh.
func (s *RatesService) Refresh(ctx context.Context) (*rates.Result, error) {
	watch := make([]rates.Currency, 0, len(s.watch))
	for _, c := range s.watch {
		if c != s.canonical {
			watch = append(watch, c)
		}
	}

	res, err := s.converter.GetRates(ctx, s.canonical, watch)
	if err != nil {
		return nil, err
	}
	if len(res.Rates) == 0 {
		s.log.Errorw("Refresh resolved nothing", "base", s.canonical, "errors", res.Errors)
		return res, ErrNothingResolved
	}

	if s.snapshots != nil {
		if err := s.snapshots.SaveSnapshot(ctx, res); err != nil {
			s.log.Warnw("Failed to save rate snapshot", "error", err)
		}
	}
	if err := s.publisher.PublishRatesRefreshed(ctx, events.NewRatesRefreshed(res)); err != nil {
		s.log.Warnw("Failed to publish rates refreshed event", "error", err)
	}

	s.log.Infow("Rates refreshed",
		"base", s.canonical,
		"complete", res.Complete,
		"resolved", rates.Sorted(res.Rates),
	)
	return res, nil
}

// ClearCache drops every cached rate.
func (s *RatesService) ClearCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Clear(ctx); err != nil {
		s.log.Errorw("Failed to clear rate cache", "error", err)
		return errors.Join(ErrInternal, err)
	}
	return nil
}
