package student

import (
	"strings"
	"time"
)

// Sheet is the remote sheet holding student rows.
const Sheet = "Students"

// Status represents a student's placement status.
type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
	StatusPlaced   Status = "Placed"
)

// IsActive reports whether the status is Active, ignoring case and spacing.
func (s Status) IsActive() bool {
	return strings.EqualFold(strings.TrimSpace(string(s)), string(StatusActive))
}

// Columns is the fixed column order of the Students sheet.
var Columns = []string{
	"Student ID", "Full Name", "Email", "Phone", "Department",
	"Year", "CGPA", "Skills", "Status", "Date Added",
}

// Student is one row of the Students sheet.
type Student struct {
	ID         string    `json:"id"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Department string    `json:"department"`
	Year       string    `json:"year"`
	CGPA       float64   `json:"cgpa"`
	Skills     []string  `json:"skills,omitempty"`
	Status     Status    `json:"status"`
	DateAdded  time.Time `json:"date_added"`

	// CGPAValid is false when the stored CGPA cell could not be parsed and
	// CGPA was defaulted to 0.
	CGPAValid bool `json:"-"`
}

// Rejection explains why an imported record was not written.
type Rejection struct {
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}
