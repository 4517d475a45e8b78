package activity

import "time"

// Type represents the type of activity event
type Type string

const (
	TypeSheetRead        Type = "sheet_read"
	TypeSheetWrite       Type = "sheet_write"
	TypeFallbackRead     Type = "fallback_read"
	TypeStudentAdded     Type = "student_added"
	TypeStudentUpdated   Type = "student_updated"
	TypeCompanyAdded     Type = "company_added"
	TypeCompanyUpdated   Type = "company_updated"
	TypePlacementAdded   Type = "placement_added"
	TypePlacementUpdated Type = "placement_updated"
	TypeDistribution     Type = "distribution"
	TypeBulkImport       Type = "bulk_import"
)

// DefaultCapacity is the number of entries the in-memory log keeps.
const DefaultCapacity = 50

// Entry represents an event in the activity log
type Entry struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Subject   string    `json:"subject,omitempty"`
	Summary   string    `json:"summary"`
	Details   string    `json:"details,omitempty"`
	Actor     string    `json:"actor,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ListOptions provides filtering options for listing activity.
type ListOptions struct {
	Type    *Type
	Subject string
	Since   time.Time
	Limit   int
	Offset  int
}
