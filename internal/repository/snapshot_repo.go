package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fxchain/internal/rates"
)

// ErrEmptySnapshot is returned when saving a result without rates.
var ErrEmptySnapshot = errors.New("snapshot has no rates")

// Snapshot is the latest persisted set of rates against one base.
type Snapshot struct {
	Base      rates.Currency
	Rates     map[rates.Currency]decimal.Decimal
	AsOf      time.Time
	UpdatedAt time.Time
}

// SnapshotRepository stores one rate per currency, overwritten on every save.
type SnapshotRepository interface {
	SaveSnapshot(ctx context.Context, result *rates.Result) error
	LatestSnapshot(ctx context.Context) (*Snapshot, error)
}

// PostgresSnapshotRepository is an implementation of SnapshotRepository using PostgreSQL.
type PostgresSnapshotRepository struct {
	db *sql.DB
}

// NewPostgresSnapshotRepository creates a new PostgresSnapshotRepository.
func NewPostgresSnapshotRepository(db *sql.DB) *PostgresSnapshotRepository {
	return &PostgresSnapshotRepository{db: db}
}

// SaveSnapshot upserts every rate of result. Rows quoted against another base
// are removed so the table always holds a single base.
func (r *PostgresSnapshotRepository) SaveSnapshot(ctx context.Context, result *rates.Result) (err error) {
	if result == nil || len(result.Rates) == 0 {
		return ErrEmptySnapshot
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM rate_snapshots WHERE base <> $1`, string(result.Base)); err != nil {
		return fmt.Errorf("drop stale snapshot rows: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO rate_snapshots (currency, base, rate, as_of, updated_at)
              VALUES ($1, $2, $3::numeric, $4, NOW())
              ON CONFLICT (currency)
              DO UPDATE SET base = EXCLUDED.base, rate = EXCLUDED.rate,
                            as_of = EXCLUDED.as_of, updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("prepare snapshot upsert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck // closed with the transaction

	for _, cur := range rates.Sorted(result.Rates) {
		if cur == result.Base {
			continue
		}
		if _, err = stmt.ExecContext(ctx, string(cur), string(result.Base), result.Rates[cur].String(), result.Date); err != nil {
			return fmt.Errorf("upsert snapshot rate %s: %w", cur, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the stored snapshot, or (nil, nil) when nothing is saved.
func (r *PostgresSnapshotRepository) LatestSnapshot(ctx context.Context) (*Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT currency, base, rate::text, as_of, updated_at
              FROM rate_snapshots
              ORDER BY currency`)
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close() //nolint:errcheck // best-effort close

	var snap *Snapshot
	for rows.Next() {
		var (
			currency, base, rate string
			asOf, updatedAt      time.Time
		)
		if err := rows.Scan(&currency, &base, &rate, &asOf, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		v, err := decimal.NewFromString(rate)
		if err != nil {
			return nil, fmt.Errorf("decode snapshot rate %s: %w", currency, err)
		}
		if snap == nil {
			snap = &Snapshot{
				Base:  rates.Currency(base),
				Rates: make(map[rates.Currency]decimal.Decimal),
				AsOf:  asOf.UTC(),
			}
		}
		snap.Rates[rates.Currency(currency)] = v
		if updatedAt.After(snap.UpdatedAt) {
			snap.UpdatedAt = updatedAt
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return snap, nil
}
