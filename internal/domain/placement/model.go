package placement

import (
	"strings"
	"time"
)

// Sheet is the remote sheet holding placement rows.
const Sheet = "Placements"

// Status is the stage a placement application has reached.
type Status string

const (
	StatusApplied            Status = "Applied"
	StatusShortlisted        Status = "Shortlisted"
	StatusInterviewScheduled Status = "Interview Scheduled"
	StatusInterviewCompleted Status = "Interview Completed"
	StatusSelected           Status = "Selected"
	StatusRejected           Status = "Rejected"
	StatusOfferLetter        Status = "Offer Letter"
	StatusJoined             Status = "Joined"
)

// Statuses lists every valid status in pipeline order.
var Statuses = []Status{
	StatusApplied, StatusShortlisted, StatusInterviewScheduled, StatusInterviewCompleted,
	StatusSelected, StatusRejected, StatusOfferLetter, StatusJoined,
}

// ParseStatus matches raw against the known statuses, ignoring case.
func ParseStatus(raw string) (Status, bool) {
	raw = strings.TrimSpace(raw)
	for _, s := range Statuses {
		if strings.EqualFold(raw, string(s)) {
			return s, true
		}
	}
	return "", false
}

// Columns is the fixed column order of the Placements sheet.
var Columns = []string{
	"Placement ID", "Student ID", "Company ID", "Position", "Application Date",
	"Status", "Package", "Interview Date", "Notes",
}

// Placement is one row of the Placements sheet.
type Placement struct {
	ID              string    `json:"id"`
	StudentID       string    `json:"student_id"`
	CompanyID       string    `json:"company_id"`
	Position        string    `json:"position"`
	ApplicationDate time.Time `json:"application_date"`
	Status          Status    `json:"status"`
	Package         float64   `json:"package,omitempty"`
	// InterviewDate is zero when no interview is set.
	InterviewDate time.Time `json:"interview_date,omitzero"`
	Notes         string    `json:"notes,omitempty"`
}

// View is a placement with its references resolved to display labels.
type View struct {
	Placement
	StudentLabel string `json:"student_label"`
	CompanyLabel string `json:"company_label"`
}

// UnknownStudentLabel is shown for a placement whose student no longer exists.
func UnknownStudentLabel(id string) string {
	return "Unknown student (" + id + ")"
}

// UnknownCompanyLabel is shown for a placement whose company no longer exists.
func UnknownCompanyLabel(id string) string {
	return "Unknown company (" + id + ")"
}
