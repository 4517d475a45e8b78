package repository

import (
	"context"
	"time"

	"github.com/ganot/placement-desk/internal/domain/activity"
)

// WriteResult describes the outcome of a remote write.
type WriteResult struct {
	Sheet        string `json:"sheet"`
	UpdatedRange string `json:"updated_range,omitempty"`
	UpdatedRows  int    `json:"updated_rows"`
	Calls        int    `json:"calls"`
}

// RowUpdate overwrites the row whose key column equals Key.
type RowUpdate struct {
	Sheet string
	Key   string
	Row   []string
}

// RangeValues is one range of a batched values write.
type RangeValues struct {
	Range  string
	Values [][]string
}

// RowStore is the sheet-level contract the domain services consume.
type RowStore interface {
	FetchRows(ctx context.Context, sheet string) ([][]string, error)
	AppendRow(ctx context.Context, sheet string, row []string) (WriteResult, error)
	UpdateRow(ctx context.Context, sheet, key string, row []string) (WriteResult, error)
	BatchAppend(ctx context.Context, sheet string, rows [][]string) (WriteResult, error)
	BatchUpdate(ctx context.Context, updates []RowUpdate) (WriteResult, error)
}

// SnapshotRepository keeps the last good copy of each sheet for offline reads.
type SnapshotRepository interface {
	Save(ctx context.Context, sheet string, rows [][]string) error
	Load(ctx context.Context, sheet string) ([][]string, time.Time, error)
}

// ActivityRepository manages activity log persistence
type ActivityRepository interface {
	Log(ctx context.Context, entry *activity.Entry) error
	List(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error)
}

// APIKeyRepository resolves bearer tokens to operators.
type APIKeyRepository interface {
	Create(ctx context.Context, token, operator, description string) error
	Resolve(ctx context.Context, token string) (string, error)
}
