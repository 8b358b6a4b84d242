package provider

import (
	"context"
	"errors"
	"fmt"

	"fxchain/internal/rates"
	"fxchain/internal/repository"
)

var _ Source = (*SnapshotSource)(nil)

// SnapshotName is the source name of the persisted snapshot.
const SnapshotName = "snapshot"

// ErrNoSnapshot is returned before the first snapshot is saved.
var ErrNoSnapshot = errors.New("no rate snapshot saved yet")

// SnapshotReader loads the last saved snapshot.
type SnapshotReader interface {
	LatestSnapshot(ctx context.Context) (*repository.Snapshot, error)
}

// SnapshotSource serves the last persisted snapshot. It is meant as the
// final fallback after every live source.
type SnapshotSource struct {
	repo SnapshotReader
}

// NewSnapshotSource creates a SnapshotSource over repo.
func NewSnapshotSource(repo SnapshotReader) *SnapshotSource {
	return &SnapshotSource{repo: repo}
}

// Name implements Source.
func (s *SnapshotSource) Name() string { return SnapshotName }

// Persisted implements the stored-rates capability; snapshot rates are never cached.
func (s *SnapshotSource) Persisted() bool { return true }

// Fetch rebases the saved snapshot to base.
func (s *SnapshotSource) Fetch(ctx context.Context, base rates.Currency) (*rates.Result, error) {
	snap, err := s.repo.LatestSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if snap == nil || len(snap.Rates) == 0 {
		return nil, ErrNoSnapshot
	}

	rebased := rates.Rebase(snap.Base, base, snap.Rates)
	if len(rebased) == 0 {
		return nil, fmt.Errorf("snapshot has no rate for %s", base)
	}

	res := rates.NewResult(base)
	res.Rates = rebased
	res.Date = snap.AsOf
	res.Success = true
	return res, nil
}
