package provider

import (
	"context"

	"github.com/stretchr/testify/mock"

	"fxchain/internal/repository"
)

type MockSnapshotReader struct {
	mock.Mock
}

func (m *MockSnapshotReader) LatestSnapshot(ctx context.Context) (*repository.Snapshot, error) {
	args := m.Called(ctx)
	snap, _ := args.Get(0).(*repository.Snapshot)
	return snap, args.Error(1)
}
