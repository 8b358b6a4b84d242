//go:build integration

package integration

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"fxchain/internal/rates"
	"fxchain/internal/repository"
)

func TestLatestSnapshot_Empty(t *testing.T) {
	resetTestData(t)
	ctx := testContext(t)
	repo := repository.NewPostgresSnapshotRepository(testDB)

	snap, err := repo.LatestSnapshot(ctx)
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if snap != nil {
		t.Fatalf("expected nil snapshot, got %+v", snap)
	}
}

func TestSaveSnapshot_RoundTrip(t *testing.T) {
	resetTestData(t)
	ctx := testContext(t)
	repo := repository.NewPostgresSnapshotRepository(testDB)

	res := eurResult(t, map[rates.Currency]string{"USD": "1.0845", "GBP": "0.8312", "JPY": "161.27"})
	if err := repo.SaveSnapshot(ctx, res); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	snap, err := repo.LatestSnapshot(ctx)
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if snap == nil {
		t.Fatal("expected snapshot, got nil")
	}
	if snap.Base != "EUR" {
		t.Fatalf("expected base EUR, got %s", snap.Base)
	}
	if !snap.AsOf.Equal(res.Date) {
		t.Fatalf("expected as_of %v, got %v", res.Date, snap.AsOf)
	}
	if len(snap.Rates) != 3 {
		t.Fatalf("expected 3 rates, got %d", len(snap.Rates))
	}
	if !snap.Rates["USD"].Equal(decimal.RequireFromString("1.0845")) {
		t.Fatalf("expected USD 1.0845, got %s", snap.Rates["USD"])
	}
}

func TestSaveSnapshot_Upserts(t *testing.T) {
	resetTestData(t)
	ctx := testContext(t)
	repo := repository.NewPostgresSnapshotRepository(testDB)

	if err := repo.SaveSnapshot(ctx, eurResult(t, map[rates.Currency]string{"USD": "1.08", "GBP": "0.83"})); err != nil {
		t.Fatalf("first SaveSnapshot: %v", err)
	}
	if err := repo.SaveSnapshot(ctx, eurResult(t, map[rates.Currency]string{"USD": "1.10"})); err != nil {
		t.Fatalf("second SaveSnapshot: %v", err)
	}

	snap, err := repo.LatestSnapshot(ctx)
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if !snap.Rates["USD"].Equal(decimal.RequireFromString("1.10")) {
		t.Fatalf("expected USD overwritten to 1.10, got %s", snap.Rates["USD"])
	}
	if !snap.Rates["GBP"].Equal(decimal.RequireFromString("0.83")) {
		t.Fatalf("expected GBP kept at 0.83, got %s", snap.Rates["GBP"])
	}
}

func TestSaveSnapshot_OtherBaseReplaces(t *testing.T) {
	resetTestData(t)
	ctx := testContext(t)
	repo := repository.NewPostgresSnapshotRepository(testDB)

	if err := repo.SaveSnapshot(ctx, eurResult(t, map[rates.Currency]string{"USD": "1.08", "GBP": "0.83"})); err != nil {
		t.Fatalf("SaveSnapshot EUR: %v", err)
	}

	usd := rates.NewResult("USD")
	usd.Rates["JPY"] = decimal.RequireFromString("149.5")
	if err := repo.SaveSnapshot(ctx, usd); err != nil {
		t.Fatalf("SaveSnapshot USD: %v", err)
	}

	snap, err := repo.LatestSnapshot(ctx)
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if snap.Base != "USD" || len(snap.Rates) != 1 {
		t.Fatalf("expected only USD based rows, got base %s rates %v", snap.Base, snap.Rates)
	}
}

func TestSaveSnapshot_EmptyResult(t *testing.T) {
	resetTestData(t)
	ctx := testContext(t)
	repo := repository.NewPostgresSnapshotRepository(testDB)

	err := repo.SaveSnapshot(ctx, rates.NewResult("EUR"))
	if !errors.Is(err, repository.ErrEmptySnapshot) {
		t.Fatalf("expected ErrEmptySnapshot, got %v", err)
	}
}
