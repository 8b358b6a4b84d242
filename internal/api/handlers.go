package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"fxchain/internal/rates"
	"fxchain/internal/service"
)

// RatesResponse represents resolved rates for a base currency
type RatesResponse struct {
	Base      string            `json:"base" example:"EUR"`
	Date      string            `json:"date" example:"2026-10-16"`
	Success   bool              `json:"success" example:"true"`
	Complete  bool              `json:"complete" example:"true"`
	FromCache bool              `json:"from_cache" example:"false"`
	Rates     map[string]string `json:"rates"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// RefreshResponse represents an accepted refresh request
type RefreshResponse struct {
	TaskID string `json:"task_id" example:"5f0c6a0e-4a43-4a8e-9c0b-8d1f7b0d7c1e"`
}

func ratesResponseFrom(res *rates.Result) RatesResponse {
	resp := RatesResponse{
		Base:      string(res.Base),
		Date:      res.Date.Format(time.DateOnly),
		Success:   res.Success,
		Complete:  res.Complete,
		FromCache: res.FromCache,
		Rates:     make(map[string]string, len(res.Rates)),
	}
	for c, v := range res.Rates {
		resp.Rates[string(c)] = v.String()
	}
	if len(res.Errors) > 0 {
		resp.Errors = res.Errors
	}
	return resp
}

// HandleGetRates godoc
// @Summary Get rates for a base currency
// @Description Resolves the requested symbols through the rate source chain (cache first). A partial answer is returned with complete=false and the per-source errors.
// @Tags rates
// @Produce json
// @Param base query string true "Base currency code (3 letters)" minlength(3) maxlength(3)
// @Param symbols query string true "Comma separated destination currency codes" example(USD,GBP)
// @Param places query int false "Round rates to this many decimal places" minimum(0) maximum(12)
// @Success 200 {object} RatesResponse "Rates resolved (possibly partially)"
// @Failure 400 {object} ErrorResponse "Invalid currency code or parameters"
// @Failure 503 {object} ErrorResponse "Rate source chain not configured"
// @Router /rates [get]
func HandleGetRates(svc service.RatesServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		base := q.Get("base")
		symbols := q.Get("symbols")
		if base == "" || symbols == "" {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "base and symbols query params are required"})
			return
		}

		places := -1
		if p := q.Get("places"); p != "" {
			n, err := strconv.Atoi(p)
			if err != nil || n < 0 {
				writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: service.ErrInvalidPlaces.Error()})
				return
			}
			places = n
		}

		res, err := svc.GetRates(r.Context(), base, symbols, places)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidCurrency),
				errors.Is(err, service.ErrUnsupportedCurrency),
				errors.Is(err, service.ErrNoSymbols),
				errors.Is(err, service.ErrInvalidPlaces):
				writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			case errors.Is(err, service.ErrNotConfigured):
				writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "Rate sources not configured"})
			default:
				writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal error"})
			}
			return
		}

		writeJSON(w, http.StatusOK, ratesResponseFrom(res))
	}
}

// HandleRequestRefresh godoc
// @Summary Request asynchronous rate refresh
// @Description Enqueues a background refresh of the canonical currency against the watch list. Returns immediately.
// @Tags rates
// @Produce json
// @Success 202 {object} RefreshResponse "Refresh accepted"
// @Failure 503 {object} ErrorResponse "Task queue unavailable"
// @Router /rates/refresh [post]
func HandleRequestRefresh(svc service.RatesServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := svc.RequestRefresh(r.Context())
		if err != nil {
			if errors.Is(err, service.ErrInternalQueue) {
				writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
				return
			}
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal error"})
			return
		}
		writeJSON(w, http.StatusAccepted, RefreshResponse{TaskID: id})
	}
}

// HandleClearCache godoc
// @Summary Clear the rate cache
// @Description Drops every cached rate; the next lookup goes to the sources.
// @Tags rates
// @Success 204 "Cache cleared"
// @Failure 500 {object} ErrorResponse "Internal error"
// @Router /rates/cache [delete]
func HandleClearCache(svc service.RatesServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.ClearCache(r.Context()); err != nil {
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal error"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
