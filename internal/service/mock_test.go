package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"fxchain/internal/events"
	"fxchain/internal/rates"
	"fxchain/internal/repository"
)

type mockConverter struct {
	mock.Mock
}

func (m *mockConverter) GetRates(ctx context.Context, base rates.Currency, destinations []rates.Currency) (*rates.Result, error) {
	args := m.Called(ctx, base, destinations)
	res, _ := args.Get(0).(*rates.Result)
	return res, args.Error(1)
}

type mockSnapshotRepo struct {
	mock.Mock
}

func (m *mockSnapshotRepo) SaveSnapshot(ctx context.Context, result *rates.Result) error {
	return m.Called(ctx, result).Error(0)
}

func (m *mockSnapshotRepo) LatestSnapshot(context.Context) (*repository.Snapshot, error) {
	return nil, nil
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishRatesRefreshed(ctx context.Context, ev events.RatesRefreshed) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *mockPublisher) Close() error { return nil }

type mockEnqueuer struct {
	id  string
	err error
}

func (m *mockEnqueuer) EnqueueRefresh(context.Context) (string, error) {
	return m.id, m.err
}
