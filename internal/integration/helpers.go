//go:build integration

package integration

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"fxchain/internal/rates"
)

var (
	testDB  *sql.DB
	testRDB *redis.Client
)

// resetTestData truncates the snapshot table and flushes the current Redis database.
func resetTestData(t *testing.T) {
	t.Helper()

	_, err := testDB.ExecContext(context.Background(), "TRUNCATE TABLE rate_snapshots")
	if err != nil {
		t.Fatalf("failed to truncate rate_snapshots table: %v", err)
	}

	if err := testRDB.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("failed to flush redis: %v", err)
	}
}

// testContext returns a context with a 30-second deadline tied to the test's cleanup.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// eurResult builds a successful EUR based result from "CUR=rate" pairs.
func eurResult(t *testing.T, pairs map[rates.Currency]string) *rates.Result {
	t.Helper()
	res := rates.NewResult("EUR")
	res.Success = true
	res.Date = time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	for c, v := range pairs {
		res.Rates[c] = decimal.RequireFromString(v)
	}
	return res
}
