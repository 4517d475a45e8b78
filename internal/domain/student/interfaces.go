package student

import (
	"context"

	"github.com/ganot/placement-desk/internal/domain/activity"
	"github.com/ganot/placement-desk/internal/repository"
)

// Store is the subset of the gateway used for student rows.
type Store interface {
	FetchRows(ctx context.Context, sheet string) ([][]string, error)
	AppendRow(ctx context.Context, sheet string, row []string) (repository.WriteResult, error)
	UpdateRow(ctx context.Context, sheet, key string, row []string) (repository.WriteResult, error)
}

// ActivityRecorder records student changes.
type ActivityRecorder interface {
	Record(ctx context.Context, entry activity.Entry) activity.Entry
}
