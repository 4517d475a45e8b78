package mcp

import (
	"strconv"
	"time"

	"github.com/ganot/placement-desk/internal/domain/activity"
	"github.com/ganot/placement-desk/internal/domain/company"
	"github.com/ganot/placement-desk/internal/domain/distribution"
	"github.com/ganot/placement-desk/internal/domain/placement"
	"github.com/ganot/placement-desk/internal/domain/student"
	"github.com/ganot/placement-desk/internal/gateway"
	"github.com/ganot/placement-desk/internal/validation"
)

type GetStudentsParams struct {
	ID string `json:"id,omitempty" jsonschema:"student id; omit to list every student"`
}

type StudentParams struct {
	ID         string   `json:"id" jsonschema:"student id such as CS-2023-001"`
	FullName   string   `json:"full_name"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone,omitempty"`
	Department string   `json:"department"`
	Year       string   `json:"year"`
	CGPA       *float64 `json:"cgpa" jsonschema:"0 to 10"`
	Skills     string   `json:"skills,omitempty" jsonschema:"comma separated"`
	Status     string   `json:"status,omitempty" jsonschema:"Active, Inactive or Placed; defaults to Active"`
	DateAdded  string   `json:"date_added,omitempty" jsonschema:"YYYY-MM-DD; defaults to today"`
}

func (p StudentParams) input() student.Input {
	return student.Input{
		ID:         p.ID,
		FullName:   p.FullName,
		Email:      p.Email,
		Phone:      p.Phone,
		Department: p.Department,
		Year:       p.Year,
		CGPA:       floatString(p.CGPA),
		Skills:     p.Skills,
		Status:     p.Status,
		DateAdded:  p.DateAdded,
	}
}

type GetCompaniesParams struct {
	ID string `json:"id,omitempty" jsonschema:"company id; omit to list every company"`
}

type GetPlacementsParams struct{}

type CompanyParams struct {
	ID                  string   `json:"id" jsonschema:"company id such as COMP-001"`
	Name                string   `json:"name"`
	Industry            string   `json:"industry,omitempty"`
	Location            string   `json:"location,omitempty"`
	HRName              string   `json:"hr_name,omitempty"`
	HREmail             string   `json:"hr_email,omitempty"`
	HRPhone             string   `json:"hr_phone,omitempty"`
	Package             *float64 `json:"package" jsonschema:"offered package"`
	Positions           *int     `json:"positions" jsonschema:"open positions"`
	MinCGPA             *float64 `json:"min_cgpa" jsonschema:"minimum CGPA, 0 to 10"`
	Status              string   `json:"status,omitempty" jsonschema:"Active or Inactive; defaults to Active"`
	EligibleDepartments []string `json:"eligible_departments,omitempty" jsonschema:"empty admits every department"`
}

func (p CompanyParams) input() company.Input {
	positions := ""
	if p.Positions != nil {
		positions = strconv.Itoa(*p.Positions)
	}
	return company.Input{
		ID:                  p.ID,
		Name:                p.Name,
		Industry:            p.Industry,
		Location:            p.Location,
		HRName:              p.HRName,
		HREmail:             p.HREmail,
		HRPhone:             p.HRPhone,
		Package:             floatString(p.Package),
		Positions:           positions,
		MinCGPA:             floatString(p.MinCGPA),
		Status:              p.Status,
		EligibleDepartments: p.EligibleDepartments,
	}
}

type PlacementParams struct {
	ID              string   `json:"id,omitempty" jsonschema:"placement id such as PL-001; assigned when omitted on add"`
	StudentID       string   `json:"student_id"`
	CompanyID       string   `json:"company_id"`
	Position        string   `json:"position"`
	ApplicationDate string   `json:"application_date" jsonschema:"YYYY-MM-DD, not in the future"`
	Status          string   `json:"status" jsonschema:"Applied, Shortlisted, Interview Scheduled, Interview Completed, Selected, Rejected, Offer Letter or Joined"`
	Package         *float64 `json:"package,omitempty"`
	InterviewDate   string   `json:"interview_date,omitempty" jsonschema:"YYYY-MM-DD; required for Interview Scheduled"`
	Notes           string   `json:"notes,omitempty"`
}

func (p PlacementParams) input() placement.Input {
	return placement.Input{
		ID:              p.ID,
		StudentID:       p.StudentID,
		CompanyID:       p.CompanyID,
		Position:        p.Position,
		ApplicationDate: p.ApplicationDate,
		Status:          p.Status,
		Package:         floatString(p.Package),
		InterviewDate:   p.InterviewDate,
		Notes:           p.Notes,
	}
}

type DistributeParams struct {
	StudentIDs []string `json:"student_ids" jsonschema:"students to send"`
	CompanyIDs []string `json:"company_ids" jsonschema:"target companies, contacted in this order"`
}

type AutoDistributeParams struct {
	StudentID string `json:"student_id"`
}

type BulkImportParams struct {
	Students []StudentParams `json:"students"`
}

type ExportParams struct {
	CompanyID string `json:"company_id"`
	Format    string `json:"format,omitempty" jsonschema:"csv or json; defaults to csv"`
}

type GetRecentActivityParams struct {
	Type    string `json:"type,omitempty" jsonschema:"activity type such as distribution or sheet_write"`
	Subject string `json:"subject,omitempty" jsonschema:"sheet, record id or run id"`
	Since   string `json:"since,omitempty" jsonschema:"RFC 3339 timestamp"`
	Limit   int    `json:"limit,omitempty" jsonschema:"defaults to 50"`
}

type GetStatsParams struct{}

type ActivityEntryResponse struct {
	Timestamp time.Time     `json:"timestamp"`
	Type      activity.Type `json:"type"`
	Subject   string        `json:"subject,omitempty"`
	Summary   string        `json:"summary"`
	Details   string        `json:"details,omitempty"`
	Actor     string        `json:"actor,omitempty"`
}

type DistributionResponse struct {
	Report  *distribution.Report `json:"report"`
	Summary string               `json:"summary"`
	Message string               `json:"message"`
}

type StatsResponse struct {
	Gateway      gateway.Stats      `json:"gateway"`
	Distribution distribution.Stats `json:"distribution"`
}

func floatString(v *float64) string {
	if v == nil {
		return ""
	}
	return validation.FormatFloat(*v)
}
