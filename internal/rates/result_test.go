package rates

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestResult_MergeResults(t *testing.T) {
	t.Run("fills gaps without overwriting", func(t *testing.T) {
		r := NewResult("EUR")
		r.Rates["USD"] = d("1.1")
		r.RecordError("ecb", "timeout")

		prev := NewResult("EUR")
		prev.Rates["USD"] = d("9.9")
		prev.Rates["GBP"] = d("0.85")
		prev.RecordError("ecb", "other")
		prev.RecordError("cache", "cache empty")

		r.MergeResults(prev)

		assert.True(t, r.Rates["USD"].Equal(d("1.1")))
		assert.True(t, r.Rates["GBP"].Equal(d("0.85")))
		assert.Equal(t, "timeout", r.Errors["ecb"])
		assert.Equal(t, "cache empty", r.Errors["cache"])
	})

	t.Run("does not touch flags", func(t *testing.T) {
		r := NewResult("USD")
		prev := NewResult("EUR")
		prev.Success = true
		prev.Complete = true
		prev.FromCache = true

		r.MergeResults(prev)

		assert.False(t, r.Success)
		assert.False(t, r.Complete)
		assert.False(t, r.FromCache)
		assert.Equal(t, Currency("USD"), r.Base)
	})

	t.Run("merging twice is idempotent", func(t *testing.T) {
		r := NewResult("EUR")
		prev := NewResult("EUR")
		prev.Rates["JPY"] = d("160.2")

		r.MergeResults(prev)
		r.MergeResults(prev)

		assert.Len(t, r.Rates, 1)
		assert.True(t, r.Rates["JPY"].Equal(d("160.2")))
	})

	t.Run("nil previous", func(t *testing.T) {
		r := NewResult("EUR")
		r.MergeResults(nil)
		assert.Empty(t, r.Rates)
	})
}

func TestResult_CheckComplete(t *testing.T) {
	r := NewResult("EUR")
	r.Rates["USD"] = d("1.1")

	assert.False(t, r.CheckComplete([]Currency{"USD", "GBP"}))
	assert.False(t, r.Complete)

	r.Rates["GBP"] = d("0.85")
	assert.True(t, r.CheckComplete([]Currency{"USD", "GBP"}))

	// never downgraded
	assert.True(t, r.CheckComplete([]Currency{"JPY"}))
	assert.True(t, r.Complete)
}

func TestResult_RecordError_FirstWins(t *testing.T) {
	r := &Result{}
	r.RecordError("frankfurter", "status 500")
	r.RecordError("frankfurter", "status 502")

	assert.Equal(t, map[string]string{"frankfurter": "status 500"}, r.Errors)
}

func TestResult_Round(t *testing.T) {
	r := NewResult("USD")
	r.Rates["EUR"] = d("0.909090909")
	r.Rates["JPY"] = d("149.4567")

	r.Round(2)

	assert.Equal(t, "0.91", r.Rates["EUR"].String())
	assert.Equal(t, "149.46", r.Rates["JPY"].String())
}

func TestResult_Trim(t *testing.T) {
	r := NewResult("EUR")
	r.Rates["USD"] = d("1.1")
	r.Rates["GBP"] = d("0.85")
	r.Rates["JPY"] = d("160")

	r.Trim([]Currency{"USD", "CHF"})

	assert.Equal(t, []Currency{"USD"}, Sorted(r.Rates))
}

func TestResult_Validate(t *testing.T) {
	r := NewResult("EUR")
	r.Rates["USD"] = d("1.1")
	r.Rates["XAU"] = decimal.Zero
	require.NoError(t, r.Validate())

	r.Rates["GBP"] = d("-0.85")
	assert.Error(t, r.Validate())
}

func TestNewFailedResult(t *testing.T) {
	r := NewFailedResult("EUR", "ecb", errors.New("boom"))

	assert.False(t, r.Success)
	assert.Equal(t, "boom", r.Errors["ecb"])
	assert.Empty(t, r.Rates)
	assert.False(t, r.Date.IsZero())
}
