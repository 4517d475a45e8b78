package company

import (
	"strconv"
	"strings"

	"github.com/ganot/placement-desk/internal/repository"
	"github.com/ganot/placement-desk/internal/validation"
)

// departmentSep separates departments inside the eligible departments cell.
const departmentSep = ";"

// Input is an unvalidated company record.
type Input struct {
	ID                  string   `json:"id" validate:"required,company_id"`
	Name                string   `json:"name" validate:"required,max=120"`
	Industry            string   `json:"industry" validate:"max=80"`
	Location            string   `json:"location" validate:"max=80"`
	HRName              string   `json:"hr_name" validate:"max=80"`
	HREmail             string   `json:"hr_email" validate:"omitempty,email"`
	HRPhone             string   `json:"hr_phone" validate:"max=20"`
	Package             string   `json:"package" validate:"required"`
	Positions           string   `json:"positions" validate:"required"`
	MinCGPA             string   `json:"min_cgpa" validate:"required"`
	Status              string   `json:"status" validate:"omitempty,oneof=Active Inactive"`
	EligibleDepartments []string `json:"eligible_departments" validate:"dive,required,max=60"`
}

// Parse validates in and builds a Company. Missing status defaults to Active.
func Parse(in Input) (Company, error) {
	in = trim(in)
	if err := validation.Struct(in); err != nil {
		return Company{}, err
	}

	pkg, ok := validation.ParseFloat(in.Package)
	if !ok || pkg < 0 {
		return Company{}, repository.Invalid("package", "must be a non-negative number")
	}
	positions, ok := validation.ParseInt(in.Positions)
	if !ok || positions < 0 {
		return Company{}, repository.Invalid("positions", "must be a non-negative whole number")
	}
	minCGPA, ok := validation.ParseFloat(in.MinCGPA)
	if !ok || minCGPA < 0 || minCGPA > 10 {
		return Company{}, repository.Invalid("min_cgpa", "must be between 0 and 10")
	}

	c := Company{
		ID:                  in.ID,
		Name:                in.Name,
		Industry:            in.Industry,
		Location:            in.Location,
		HRName:              in.HRName,
		HREmail:             strings.ToLower(in.HREmail),
		HRPhone:             in.HRPhone,
		Package:             pkg,
		Positions:           positions,
		MinCGPA:             minCGPA,
		Status:              Status(in.Status),
		EligibleDepartments: in.EligibleDepartments,
	}
	if c.Status == "" {
		c.Status = StatusActive
	}
	return c, nil
}

func trim(in Input) Input {
	in.ID = strings.ToUpper(strings.TrimSpace(in.ID))
	in.Name = strings.TrimSpace(in.Name)
	in.Industry = strings.TrimSpace(in.Industry)
	in.Location = strings.TrimSpace(in.Location)
	in.HRName = strings.TrimSpace(in.HRName)
	in.HREmail = strings.TrimSpace(in.HREmail)
	in.HRPhone = strings.TrimSpace(in.HRPhone)
	in.Package = strings.TrimSpace(in.Package)
	in.Positions = strings.TrimSpace(in.Positions)
	in.MinCGPA = strings.TrimSpace(in.MinCGPA)
	in.Status = strings.TrimSpace(in.Status)
	in.EligibleDepartments = validation.SplitList(strings.Join(in.EligibleDepartments, departmentSep), departmentSep)
	return in
}

// FromRow reads a Companies sheet row. Unparseable numbers become 0, which
// leaves the company ineligible for everyone when it hits positions.
func FromRow(row []string) Company {
	pkg, _ := validation.ParseFloat(validation.Cell(row, 7))
	positions, _ := validation.ParseInt(validation.Cell(row, 8))
	minCGPA, _ := validation.ParseFloat(validation.Cell(row, 9))
	return Company{
		ID:                  validation.Cell(row, 0),
		Name:                validation.Cell(row, 1),
		Industry:            validation.Cell(row, 2),
		Location:            validation.Cell(row, 3),
		HRName:              validation.Cell(row, 4),
		HREmail:             validation.Cell(row, 5),
		HRPhone:             validation.Cell(row, 6),
		Package:             pkg,
		Positions:           positions,
		MinCGPA:             minCGPA,
		Status:              Status(validation.Cell(row, 10)),
		EligibleDepartments: validation.SplitList(validation.Cell(row, 11), departmentSep),
	}
}

// ToRow renders c in the Companies column order.
func ToRow(c Company) []string {
	return []string{
		c.ID,
		c.Name,
		c.Industry,
		c.Location,
		c.HRName,
		c.HREmail,
		c.HRPhone,
		validation.FormatFloat(c.Package),
		strconv.Itoa(c.Positions),
		validation.FormatFloat(c.MinCGPA),
		string(c.Status),
		strings.Join(c.EligibleDepartments, departmentSep+" "),
	}
}
