package distribution

import (
	"context"

	"github.com/ganot/placement-desk/internal/domain/activity"
	"github.com/ganot/placement-desk/internal/domain/company"
	"github.com/ganot/placement-desk/internal/domain/student"
	"github.com/ganot/placement-desk/internal/repository"
)

// Store writes distributed and imported rows.
type Store interface {
	AppendRow(ctx context.Context, sheet string, row []string) (repository.WriteResult, error)
	BatchAppend(ctx context.Context, sheet string, rows [][]string) (repository.WriteResult, error)
}

// CompanyDirectory reads companies.
type CompanyDirectory interface {
	List(ctx context.Context) ([]company.Company, error)
	Get(ctx context.Context, id string) (*company.Company, error)
}

// StudentDirectory reads students and validates import batches.
type StudentDirectory interface {
	List(ctx context.Context) ([]student.Student, error)
	PrepareImport(ctx context.Context, inputs []student.Input) ([]student.Student, []student.Rejection, error)
}

// ActivityRecorder records distribution runs.
type ActivityRecorder interface {
	Record(ctx context.Context, entry activity.Entry) activity.Entry
}
