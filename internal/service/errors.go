package service

import (
	"errors"

	"fxchain/internal/rates"
)

// Service-level errors. Handlers map them to HTTP statuses with errors.Is.
var (
	ErrInvalidCurrency     = rates.ErrInvalidCurrency
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrNoSymbols           = errors.New("at least one symbol is required")
	ErrInvalidPlaces       = errors.New("places must be between 0 and 12")
	ErrNotConfigured       = rates.ErrConfiguration
	ErrNothingResolved     = errors.New("no rates could be resolved")
	ErrInternal            = errors.New("internal error")
	ErrInternalQueue       = errors.New("failed to enqueue task")
)
