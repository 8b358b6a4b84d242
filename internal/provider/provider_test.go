package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fxchain/internal/cache"
	"fxchain/internal/rates"
	"fxchain/internal/repository"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

const ecbFeed = `<?xml version="1.0" encoding="UTF-8"?>
<gesmes:Envelope xmlns:gesmes="http://www.gesmes.org/xml/2002-08-01" xmlns="http://www.ecb.int/vocabulary/2002-08-01/eurofxref">
	<gesmes:subject>Reference rates</gesmes:subject>
	<gesmes:Sender><gesmes:name>European Central Bank</gesmes:name></gesmes:Sender>
	<Cube>
		<Cube time="2026-10-16">
			<Cube currency="USD" rate="1.1"/>
			<Cube currency="GBP" rate="0.85"/>
			<Cube currency="JPY" rate="160.5"/>
		</Cube>
	</Cube>
</gesmes:Envelope>`

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestECBSource_Fetch(t *testing.T) {
	ctx := context.Background()

	t.Run("EUR base", func(t *testing.T) {
		src := NewECBSource(serve(t, http.StatusOK, ecbFeed).URL, 5)

		res, err := src.Fetch(ctx, "EUR")
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, "ecb", src.Name())
		assert.True(t, res.Rates["USD"].Equal(dec("1.1")))
		assert.Len(t, res.Rates, 3)
		assert.Equal(t, time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), res.Date)
	})

	t.Run("rebased to USD", func(t *testing.T) {
		src := NewECBSource(serve(t, http.StatusOK, ecbFeed).URL, 5)

		res, err := src.Fetch(ctx, "USD")
		require.NoError(t, err)
		assert.Equal(t, rates.Currency("USD"), res.Base)
		assert.Equal(t, "0.9091", res.Rates["EUR"].Round(4).String())
		assert.Equal(t, "0.7727", res.Rates["GBP"].Round(4).String())
		assert.NotContains(t, res.Rates, rates.Currency("USD"))
	})

	t.Run("unknown base", func(t *testing.T) {
		src := NewECBSource(serve(t, http.StatusOK, ecbFeed).URL, 5)

		_, err := src.Fetch(ctx, "CHF")
		assert.ErrorContains(t, err, "no rate for CHF")
	})

	t.Run("empty cube", func(t *testing.T) {
		body := `<gesmes:Envelope xmlns:gesmes="http://www.gesmes.org/xml/2002-08-01"><Cube><Cube time="2026-10-16"></Cube></Cube></gesmes:Envelope>`
		src := NewECBSource(serve(t, http.StatusOK, body).URL, 5)

		_, err := src.Fetch(ctx, "EUR")
		assert.ErrorIs(t, err, ErrInvalidEnvelope)
	})

	t.Run("bad status", func(t *testing.T) {
		src := NewECBSource(serve(t, http.StatusBadGateway, "upstream down").URL, 5)

		_, err := src.Fetch(ctx, "EUR")
		assert.ErrorContains(t, err, "status 502")
	})
}

func TestFrankfurterSource_Fetch(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		var gotQuery string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			_, _ = fmt.Fprint(w, `{"amount":1.0,"base":"EUR","date":"2026-10-16","rates":{"USD":1.1,"GBP":0.85}}`)
		}))
		defer srv.Close()

		res, err := NewFrankfurterSource(srv.URL, 5).Fetch(ctx, "EUR")
		require.NoError(t, err)
		assert.Equal(t, "base=EUR", gotQuery)
		assert.True(t, res.Success)
		assert.True(t, res.Rates["GBP"].Equal(dec("0.85")))
		assert.Equal(t, 2026, res.Date.Year())
	})

	t.Run("base mismatch", func(t *testing.T) {
		srv := serve(t, http.StatusOK, `{"base":"USD","date":"2026-10-16","rates":{"EUR":0.9}}`)

		_, err := NewFrankfurterSource(srv.URL, 5).Fetch(ctx, "EUR")
		assert.ErrorContains(t, err, "instead of EUR")
	})

	t.Run("not found", func(t *testing.T) {
		srv := serve(t, http.StatusNotFound, `{"message":"not found"}`)

		_, err := NewFrankfurterSource(srv.URL, 5).Fetch(ctx, "XXX")
		assert.ErrorContains(t, err, "status 404")
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer srv.Close()

		tctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err := NewFrankfurterSource(srv.URL, 5).Fetch(tctx, "EUR")
		assert.Error(t, err)
	})
}

func TestExchangeRateHostSource_Fetch(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		body := `{"success":true,"timestamp":1792195200,"source":"USD","quotes":{"USDEUR":0.909,"USDGBP":0.7727,"XAUUSD":0.0004}}`
		res, err := NewExchangeRateHostSource(serve(t, http.StatusOK, body).URL, "key", 5).Fetch(ctx, "USD")
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, []rates.Currency{"EUR", "GBP"}, rates.Sorted(res.Rates))
		assert.True(t, res.Rates["EUR"].Equal(dec("0.909")))
	})

	t.Run("api error", func(t *testing.T) {
		body := `{"success":false,"error":{"code":101,"info":"invalid access key"}}`
		_, err := NewExchangeRateHostSource(serve(t, http.StatusOK, body).URL, "bad", 5).Fetch(ctx, "USD")
		assert.ErrorContains(t, err, "invalid access key")
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := NewExchangeRateHostSource(serve(t, http.StatusOK, `{"success":`).URL, "key", 5).Fetch(ctx, "USD")
		assert.ErrorContains(t, err, "invalid JSON")
	})
}

func TestCacheSource_Fetch(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore(0)
	defer store.Close()
	c := cache.New(store, cache.Options{TTL: time.Minute}, nil)
	src := NewCacheSource(c)

	assert.True(t, IsCacheOnly(src))
	assert.False(t, IsCacheOnly(NewFrankfurterSource("", 1)))

	_, err := src.Fetch(ctx, "EUR")
	assert.ErrorContains(t, err, cache.ErrCacheEmpty.Error())

	seed := rates.NewResult("EUR")
	seed.Success = true
	seed.Rates["USD"] = dec("1.1")
	require.NoError(t, c.Write(ctx, seed))

	res, err := src.Fetch(ctx, "USD")
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, "0.909", res.Rates["EUR"].Round(3).String())

	_, err = NewCacheSource(nil).Fetch(ctx, "EUR")
	assert.ErrorIs(t, err, cache.ErrCacheEmpty)
}

func TestSnapshotSource_Fetch(t *testing.T) {
	ctx := context.Background()

	t.Run("serves stored rates", func(t *testing.T) {
		src := NewSnapshotSource(new(MockSnapshotReader))
		assert.True(t, IsPersisted(src))
		assert.False(t, IsCacheOnly(src))
		assert.False(t, IsPersisted(NewECBSource("", 1)))
	})

	t.Run("rebases the snapshot", func(t *testing.T) {
		repo := new(MockSnapshotReader)
		asOf := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
		repo.On("LatestSnapshot", mock.Anything).Return(&repository.Snapshot{
			Base:  "EUR",
			Rates: map[rates.Currency]decimal.Decimal{"USD": dec("1.25"), "GBP": dec("0.5")},
			AsOf:  asOf,
		}, nil)

		res, err := NewSnapshotSource(repo).Fetch(ctx, "USD")
		require.NoError(t, err)
		assert.True(t, res.Rates["EUR"].Equal(dec("0.8")))
		assert.True(t, res.Rates["GBP"].Equal(dec("0.4")))
		assert.Equal(t, asOf, res.Date)
		repo.AssertExpectations(t)
	})

	t.Run("nothing saved", func(t *testing.T) {
		repo := new(MockSnapshotReader)
		repo.On("LatestSnapshot", mock.Anything).Return(nil, nil)

		_, err := NewSnapshotSource(repo).Fetch(ctx, "EUR")
		assert.ErrorIs(t, err, ErrNoSnapshot)
	})

	t.Run("repository error", func(t *testing.T) {
		repo := new(MockSnapshotReader)
		repo.On("LatestSnapshot", mock.Anything).Return(nil, errors.New("connection refused"))

		_, err := NewSnapshotSource(repo).Fetch(ctx, "EUR")
		assert.ErrorContains(t, err, "connection refused")
	})
}
