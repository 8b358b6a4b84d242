package rates

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Result is the outcome of one resolution layer. Each layer creates a fresh
// Result and merges it into the caller's accumulating one as the chain unwinds.
type Result struct {
	// Success reports whether this layer's own contribution was obtained without error.
	Success bool
	// Complete is set by CheckComplete once every wanted currency is present.
	Complete  bool
	Base      Currency
	Rates     map[Currency]decimal.Decimal
	Date      time.Time
	FromCache bool
	// Errors maps a source name to the first error it reported.
	Errors map[string]string
}

// NewResult returns an empty, unsuccessful result for base dated today.
func NewResult(base Currency) *Result {
	return &Result{
		Base:   base,
		Rates:  make(map[Currency]decimal.Decimal),
		Date:   today(),
		Errors: make(map[string]string),
	}
}

// NewFailedResult returns a result carrying err recorded against source.
func NewFailedResult(base Currency, source string, err error) *Result {
	r := NewResult(base)
	r.RecordError(source, err.Error())
	return r
}

// MergeResults copies rates and errors from previous whose keys are absent here.
// Existing keys are never overwritten and no other field is touched.
func (r *Result) MergeResults(previous *Result) {
	if previous == nil {
		return
	}
	r.ensureMaps()
	for c, v := range previous.Rates {
		if _, ok := r.Rates[c]; !ok {
			r.Rates[c] = v
		}
	}
	for src, msg := range previous.Errors {
		if _, ok := r.Errors[src]; !ok {
			r.Errors[src] = msg
		}
	}
}

// CheckComplete marks the result complete when every wanted currency has a
// rate. It never clears a flag that is already set.
func (r *Result) CheckComplete(wanted []Currency) bool {
	for _, c := range wanted {
		if _, ok := r.Rates[c]; !ok {
			return r.Complete
		}
	}
	r.Complete = true
	return r.Complete
}

// RecordError adds message for source unless source already has an entry.
func (r *Result) RecordError(source, message string) {
	r.ensureMaps()
	if _, ok := r.Errors[source]; !ok {
		r.Errors[source] = message
	}
}

// Round rounds every rate to places decimal places.
func (r *Result) Round(places int32) {
	for c, v := range r.Rates {
		r.Rates[c] = v.Round(places)
	}
}

// Trim drops every rate whose currency is not in wanted.
func (r *Result) Trim(wanted []Currency) {
	keep := make(map[Currency]struct{}, len(wanted))
	for _, c := range wanted {
		keep[c] = struct{}{}
	}
	for c := range r.Rates {
		if _, ok := keep[c]; !ok {
			delete(r.Rates, c)
		}
	}
}

// Validate rejects negative quotes.
func (r *Result) Validate() error {
	for c, v := range r.Rates {
		if v.IsNegative() {
			return fmt.Errorf("negative rate %s for %s", v.String(), c)
		}
	}
	return nil
}

func (r *Result) ensureMaps() {
	if r.Rates == nil {
		r.Rates = make(map[Currency]decimal.Decimal)
	}
	if r.Errors == nil {
		r.Errors = make(map[string]string)
	}
}

func today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}
