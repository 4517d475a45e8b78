// Package eligibility decides which companies a student may be sent to.
package eligibility

import (
	"strings"

	"github.com/ganot/placement-desk/internal/domain/company"
	"github.com/ganot/placement-desk/internal/domain/student"
)

// IsEligible reports whether s qualifies for c: the company is active with
// open positions, the student meets the minimum CGPA, and the student's
// department is listed (an empty list admits every department).
func IsEligible(s student.Student, c company.Company) bool {
	if !c.Status.IsActive() || c.Positions <= 0 {
		return false
	}
	if s.CGPA < c.MinCGPA {
		return false
	}
	return departmentAllowed(s.Department, c.EligibleDepartments)
}

func departmentAllowed(dept string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	dept = strings.TrimSpace(dept)
	for _, d := range allowed {
		if strings.EqualFold(strings.TrimSpace(d), dept) {
			return true
		}
	}
	return false
}

// MatchCompaniesForStudent returns the companies s is eligible for, in input order.
func MatchCompaniesForStudent(s student.Student, companies []company.Company) []company.Company {
	out := make([]company.Company, 0, len(companies))
	for _, c := range companies {
		if IsEligible(s, c) {
			out = append(out, c)
		}
	}
	return out
}

// MatchStudentsForCompany returns the students eligible for c, in input order.
func MatchStudentsForCompany(c company.Company, students []student.Student) []student.Student {
	out := make([]student.Student, 0, len(students))
	for _, s := range students {
		if IsEligible(s, c) {
			out = append(out, s)
		}
	}
	return out
}
