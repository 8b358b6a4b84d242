// Package rates holds the value types of rate resolution: currency codes,
// conversion results and the rebasing arithmetic.
package rates

import (
	"errors"
	"sort"
	"strings"
)

// Currency is an upper-case ISO 4217 code such as "EUR".
type Currency string

// ErrInvalidCurrency indicates a currency code that is not three ASCII letters.
var ErrInvalidCurrency = errors.New("invalid currency code format")

// IsValidCurrencyCode checks whether a string is a valid 3-letter currency code.
func IsValidCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	code = strings.ToUpper(code)
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

// ParseCurrency validates and upper-cases a single currency code.
func ParseCurrency(code string) (Currency, error) {
	code = strings.TrimSpace(code)
	if !IsValidCurrencyCode(code) {
		return "", ErrInvalidCurrency
	}
	return Currency(strings.ToUpper(code)), nil
}

// ParseCurrencyList parses a comma separated list ("usd, GBP") into unique codes,
// preserving first-seen order.
func ParseCurrencyList(list string) ([]Currency, error) {
	var out []Currency
	seen := make(map[Currency]struct{})
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		c, err := ParseCurrency(part)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}

// Sorted returns the keys of m in lexical order.
func Sorted[V any](m map[Currency]V) []Currency {
	keys := make([]Currency, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
