package company

import "strings"

// Sheet is the remote sheet holding company rows.
const Sheet = "Companies"

// Status represents whether a company is recruiting.
type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

// IsActive reports whether the status is Active, ignoring case and spacing.
func (s Status) IsActive() bool {
	return strings.EqualFold(strings.TrimSpace(string(s)), string(StatusActive))
}

// Columns is the column order of the Companies sheet. The trailing
// departments column is optional on read.
var Columns = []string{
	"Company ID", "Name", "Industry", "Location", "HR Name", "HR Email",
	"HR Phone", "Package", "Positions", "Min CGPA", "Status", "Eligible Departments",
}

// Company is one row of the Companies sheet.
type Company struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Industry string  `json:"industry,omitempty"`
	Location string  `json:"location,omitempty"`
	HRName   string  `json:"hr_name,omitempty"`
	HREmail  string  `json:"hr_email,omitempty"`
	HRPhone  string  `json:"hr_phone,omitempty"`
	Package  float64 `json:"package"`
	// Positions is the number of open positions.
	Positions int     `json:"positions"`
	MinCGPA   float64 `json:"min_cgpa"`
	Status    Status  `json:"status"`
	// EligibleDepartments restricts who may apply. Empty means all departments.
	EligibleDepartments []string `json:"eligible_departments,omitempty"`
}
