package student

import (
	"strings"
	"time"

	"github.com/ganot/placement-desk/internal/repository"
	"github.com/ganot/placement-desk/internal/validation"
)

// Input is an unvalidated student record as submitted by a caller or read
// from an import file.
type Input struct {
	ID         string `json:"id" validate:"required,student_id"`
	FullName   string `json:"full_name" validate:"required,max=120"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"omitempty,max=20"`
	Department string `json:"department" validate:"required,max=60"`
	Year       string `json:"year" validate:"required,max=20"`
	CGPA       string `json:"cgpa" validate:"required"`
	Skills     string `json:"skills" validate:"max=500"`
	Status     string `json:"status" validate:"omitempty,oneof=Active Inactive Placed"`
	DateAdded  string `json:"date_added" validate:"omitempty,datetime=2006-01-02"`
}

// Parse validates in and builds a Student. Missing status defaults to
// Active and a missing date added to today.
func Parse(in Input, now time.Time) (Student, error) {
	in = trim(in)
	if err := validation.Struct(in); err != nil {
		return Student{}, err
	}

	cgpa, ok := validation.ParseFloat(in.CGPA)
	if !ok {
		return Student{}, repository.Invalid("cgpa", "must be a number")
	}
	if cgpa < 0 || cgpa > 10 {
		return Student{}, repository.Invalid("cgpa", "must be between 0 and 10")
	}

	s := Student{
		ID:         in.ID,
		FullName:   in.FullName,
		Email:      strings.ToLower(in.Email),
		Phone:      in.Phone,
		Department: in.Department,
		Year:       in.Year,
		CGPA:       cgpa,
		CGPAValid:  true,
		Skills:     validation.SplitList(in.Skills, ","),
		Status:     Status(in.Status),
	}
	if s.Status == "" {
		s.Status = StatusActive
	}
	if added, ok := validation.ParseDate(in.DateAdded); ok {
		s.DateAdded = added
	} else {
		s.DateAdded = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	return s, nil
}

func trim(in Input) Input {
	in.ID = strings.ToUpper(strings.TrimSpace(in.ID))
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Department = strings.TrimSpace(in.Department)
	in.Year = strings.TrimSpace(in.Year)
	in.CGPA = strings.TrimSpace(in.CGPA)
	in.Skills = strings.TrimSpace(in.Skills)
	in.Status = strings.TrimSpace(in.Status)
	in.DateAdded = strings.TrimSpace(in.DateAdded)
	return in
}

// FromRow reads a Students sheet row. It never fails: an unparseable CGPA
// becomes 0 with CGPAValid unset so that the row still lists.
func FromRow(row []string) Student {
	cgpa, ok := validation.ParseFloat(validation.Cell(row, 6))
	added, _ := validation.ParseDate(validation.Cell(row, 9))
	return Student{
		ID:         validation.Cell(row, 0),
		FullName:   validation.Cell(row, 1),
		Email:      validation.Cell(row, 2),
		Phone:      validation.Cell(row, 3),
		Department: validation.Cell(row, 4),
		Year:       validation.Cell(row, 5),
		CGPA:       cgpa,
		CGPAValid:  ok,
		Skills:     validation.SplitList(validation.Cell(row, 7), ","),
		Status:     Status(validation.Cell(row, 8)),
		DateAdded:  added,
	}
}

// ToRow renders s in the Students column order.
func ToRow(s Student) []string {
	return []string{
		s.ID,
		s.FullName,
		s.Email,
		s.Phone,
		s.Department,
		s.Year,
		validation.FormatFloat(s.CGPA),
		strings.Join(s.Skills, ", "),
		string(s.Status),
		validation.FormatDate(s.DateAdded),
	}
}
