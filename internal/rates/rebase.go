package rates

import "github.com/shopspring/decimal"

// Rebase converts rates quoted against from into rates quoted against to,
// using rates[to] as the pivot. The result carries an entry for from and none
// for to. An empty map means the pivot is missing (or zero) and the rates
// cannot be rebased.
func Rebase(from, to Currency, rates map[Currency]decimal.Decimal) map[Currency]decimal.Decimal {
	if from == to {
		out := make(map[Currency]decimal.Decimal, len(rates))
		for c, v := range rates {
			out[c] = v
		}
		return out
	}

	pivot, ok := rates[to]
	if !ok || pivot.IsZero() {
		return map[Currency]decimal.Decimal{}
	}

	out := make(map[Currency]decimal.Decimal, len(rates))
	for c, v := range rates {
		if c == to {
			continue
		}
		out[c] = v.Div(pivot)
	}
	out[from] = decimal.NewFromInt(1).Div(pivot)
	return out
}
