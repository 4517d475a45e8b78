package gateway

import (
	"context"

	"github.com/ganot/placement-desk/internal/domain/activity"
	"github.com/ganot/placement-desk/internal/repository"
)

// Sheet names used by the placement desk.
const (
	SheetStudents   = "Students"
	SheetCompanies  = "Companies"
	SheetPlacements = "Placements"
	SheetActivities = "Activities"
)

// Table is the remote spreadsheet contract. Implementations make exactly one
// remote call per method and classify failures as *repository.TransportError
// (retryable) or *repository.RejectedError (not retryable).
type Table interface {
	Read(ctx context.Context, rng string) ([][]string, error)
	Append(ctx context.Context, rng string, rows [][]string) (repository.WriteResult, error)
	Update(ctx context.Context, rng string, rows [][]string) (repository.WriteResult, error)
	BatchUpdate(ctx context.Context, data []repository.RangeValues) (repository.WriteResult, error)
}

// ActivityRecorder receives an entry for every completed remote read or write.
type ActivityRecorder interface {
	Record(ctx context.Context, entry activity.Entry) activity.Entry
}
