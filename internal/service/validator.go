package service

import (
	"strings"

	"fxchain/internal/rates"
)

// Validator checks currency codes.
type Validator interface {
	Validate(code string) error
	IsSupported(code string) bool
}

type validator struct {
	allowed map[string]struct{}
}

// NewValidator creates a currency validator. With no allowed codes every
// well-formed code is accepted.
func NewValidator(allowed ...string) Validator {
	v := &validator{}
	if len(allowed) > 0 {
		v.allowed = make(map[string]struct{}, len(allowed))
		for _, code := range allowed {
			v.allowed[strings.ToUpper(code)] = struct{}{}
		}
	}
	return v
}

// Validate checks the format and, when an allow-list is set, membership (case-insensitive).
func (v *validator) Validate(code string) error {
	if !rates.IsValidCurrencyCode(strings.TrimSpace(code)) {
		return ErrInvalidCurrency
	}
	if !v.IsSupported(code) {
		return ErrUnsupportedCurrency
	}
	return nil
}

// IsSupported returns true if the currency code is allowed (case-insensitive).
func (v *validator) IsSupported(code string) bool {
	if v.allowed == nil {
		return true
	}
	_, ok := v.allowed[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}
