package placement

import (
	"context"

	"github.com/ganot/placement-desk/internal/domain/activity"
	"github.com/ganot/placement-desk/internal/domain/company"
	"github.com/ganot/placement-desk/internal/domain/student"
	"github.com/ganot/placement-desk/internal/repository"
)

// Store is the subset of the gateway used for placement rows.
type Store interface {
	FetchRows(ctx context.Context, sheet string) ([][]string, error)
	AppendRow(ctx context.Context, sheet string, row []string) (repository.WriteResult, error)
	UpdateRow(ctx context.Context, sheet, key string, row []string) (repository.WriteResult, error)
}

// StudentLister resolves student references.
type StudentLister interface {
	List(ctx context.Context) ([]student.Student, error)
}

// CompanyLister resolves company references.
type CompanyLister interface {
	List(ctx context.Context) ([]company.Company, error)
}

// ActivityRecorder records placement changes.
type ActivityRecorder interface {
	Record(ctx context.Context, entry activity.Entry) activity.Entry
}
