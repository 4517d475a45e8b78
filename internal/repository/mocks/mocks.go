package mocks

import (
	"context"
	"time"

	"github.com/ganot/placement-desk/internal/domain/activity"
	"github.com/ganot/placement-desk/internal/repository"
	"github.com/stretchr/testify/mock"
)

// RowStore is a mock for repository.RowStore.
type RowStore struct {
	mock.Mock
}

func (m *RowStore) FetchRows(ctx context.Context, sheet string) ([][]string, error) {
	args := m.Called(ctx, sheet)
	if rows, ok := args.Get(0).([][]string); ok {
		return rows, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RowStore) AppendRow(ctx context.Context, sheet string, row []string) (repository.WriteResult, error) {
	args := m.Called(ctx, sheet, row)
	return writeResult(args.Get(0)), args.Error(1)
}

func (m *RowStore) UpdateRow(ctx context.Context, sheet, key string, row []string) (repository.WriteResult, error) {
	args := m.Called(ctx, sheet, key, row)
	return writeResult(args.Get(0)), args.Error(1)
}

func (m *RowStore) BatchAppend(ctx context.Context, sheet string, rows [][]string) (repository.WriteResult, error) {
	args := m.Called(ctx, sheet, rows)
	return writeResult(args.Get(0)), args.Error(1)
}

func (m *RowStore) BatchUpdate(ctx context.Context, updates []repository.RowUpdate) (repository.WriteResult, error) {
	args := m.Called(ctx, updates)
	return writeResult(args.Get(0)), args.Error(1)
}

func writeResult(v any) repository.WriteResult {
	if res, ok := v.(repository.WriteResult); ok {
		return res
	}
	return repository.WriteResult{}
}

// SnapshotRepository is a mock for repository.SnapshotRepository.
type SnapshotRepository struct {
	mock.Mock
}

func (m *SnapshotRepository) Save(ctx context.Context, sheet string, rows [][]string) error {
	args := m.Called(ctx, sheet, rows)
	return args.Error(0)
}

func (m *SnapshotRepository) Load(ctx context.Context, sheet string) ([][]string, time.Time, error) {
	args := m.Called(ctx, sheet)
	rows, _ := args.Get(0).([][]string)
	at, _ := args.Get(1).(time.Time)
	return rows, at, args.Error(2)
}

// ActivityRepository is a mock for repository.ActivityRepository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.Entry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActivityRecorder is a mock for the Record side of activity.Service.
type ActivityRecorder struct {
	mock.Mock
}

func (m *ActivityRecorder) Record(ctx context.Context, entry activity.Entry) activity.Entry {
	m.Called(ctx, entry)
	return entry
}
