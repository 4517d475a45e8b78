package placement

import (
	"fmt"
	"strings"
	"time"

	"github.com/ganot/placement-desk/internal/repository"
	"github.com/ganot/placement-desk/internal/validation"
)

// Input is an unvalidated placement record. An empty ID is assigned the next
// free PL-### id on add.
type Input struct {
	ID              string `json:"id" validate:"omitempty,placement_id"`
	StudentID       string `json:"student_id" validate:"required,student_id"`
	CompanyID       string `json:"company_id" validate:"required,company_id"`
	Position        string `json:"position" validate:"required,max=120"`
	ApplicationDate string `json:"application_date" validate:"required,datetime=2006-01-02"`
	Status          string `json:"status" validate:"required"`
	Package         string `json:"package"`
	InterviewDate   string `json:"interview_date" validate:"omitempty,datetime=2006-01-02"`
	Notes           string `json:"notes" validate:"max=1000"`
}

// Parse validates in. The application date may not be later than today and
// an Interview Scheduled placement needs an interview date.
func Parse(in Input, now time.Time) (Placement, error) {
	in = trim(in)
	if err := validation.Struct(in); err != nil {
		return Placement{}, err
	}

	status, ok := ParseStatus(in.Status)
	if !ok {
		return Placement{}, repository.Invalid("status", fmt.Sprintf("must be one of: %s", joinStatuses()))
	}

	applied, _ := validation.ParseDate(in.ApplicationDate)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if applied.After(today) {
		return Placement{}, repository.Invalid("application_date", "cannot be in the future")
	}

	interview, hasInterview := validation.ParseDate(in.InterviewDate)
	if status == StatusInterviewScheduled && !hasInterview {
		return Placement{}, repository.Invalid("interview_date", "is required when status is Interview Scheduled")
	}

	var pkg float64
	if in.Package != "" {
		pkg, ok = validation.ParseFloat(in.Package)
		if !ok || pkg < 0 {
			return Placement{}, repository.Invalid("package", "must be a non-negative number")
		}
	}

	return Placement{
		ID:              in.ID,
		StudentID:       in.StudentID,
		CompanyID:       in.CompanyID,
		Position:        in.Position,
		ApplicationDate: applied,
		Status:          status,
		Package:         pkg,
		InterviewDate:   interview,
		Notes:           in.Notes,
	}, nil
}

func trim(in Input) Input {
	in.ID = strings.ToUpper(strings.TrimSpace(in.ID))
	in.StudentID = strings.ToUpper(strings.TrimSpace(in.StudentID))
	in.CompanyID = strings.ToUpper(strings.TrimSpace(in.CompanyID))
	in.Position = strings.TrimSpace(in.Position)
	in.ApplicationDate = strings.TrimSpace(in.ApplicationDate)
	in.Status = strings.TrimSpace(in.Status)
	in.Package = strings.TrimSpace(in.Package)
	in.InterviewDate = strings.TrimSpace(in.InterviewDate)
	in.Notes = strings.TrimSpace(in.Notes)
	return in
}

func joinStatuses() string {
	names := make([]string, len(Statuses))
	for i, s := range Statuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// FromRow reads a Placements sheet row.
func FromRow(row []string) Placement {
	applied, _ := validation.ParseDate(validation.Cell(row, 4))
	pkg, _ := validation.ParseFloat(validation.Cell(row, 6))
	interview, _ := validation.ParseDate(validation.Cell(row, 7))
	status, ok := ParseStatus(validation.Cell(row, 5))
	if !ok {
		status = Status(validation.Cell(row, 5))
	}
	return Placement{
		ID:              validation.Cell(row, 0),
		StudentID:       validation.Cell(row, 1),
		CompanyID:       validation.Cell(row, 2),
		Position:        validation.Cell(row, 3),
		ApplicationDate: applied,
		Status:          status,
		Package:         pkg,
		InterviewDate:   interview,
		Notes:           validation.Cell(row, 8),
	}
}

// ToRow renders p in the Placements column order.
func ToRow(p Placement) []string {
	pkg := ""
	if p.Package > 0 {
		pkg = validation.FormatFloat(p.Package)
	}
	return []string{
		p.ID,
		p.StudentID,
		p.CompanyID,
		p.Position,
		validation.FormatDate(p.ApplicationDate),
		string(p.Status),
		pkg,
		validation.FormatDate(p.InterviewDate),
		p.Notes,
	}
}
