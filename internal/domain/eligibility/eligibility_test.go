package eligibility_test

import (
	"testing"

	"github.com/ganot/placement-desk/internal/domain/company"
	"github.com/ganot/placement-desk/internal/domain/eligibility"
	"github.com/ganot/placement-desk/internal/domain/student"
	"github.com/stretchr/testify/require"
)

func TestIsEligible(t *testing.T) {
	cse := student.Student{ID: "CS-2023-001", Department: "CSE", CGPA: 8.0, CGPAValid: true}
	open := company.Company{ID: "COMP-001", Status: company.StatusActive, Positions: 2, MinCGPA: 7.5}
	nanRow := student.FromRow([]string{"CS-2023-009", "Dev", "dev@uni.edu", "", "CSE", "4", "NaN"})

	cases := []struct {
		name    string
		student student.Student
		company company.Company
		want    bool
	}{
		{"all conditions hold", cse, open, true},
		{"cgpa equal to minimum", withCGPA(cse, 7.5), open, true},
		{"cgpa below minimum", withCGPA(cse, 7.49), open, false},
		{"inactive company", cse, withStatus(open, company.StatusInactive), false},
		{"lowercase active status", cse, withStatus(open, "active"), true},
		{"no positions", cse, withPositions(open, 0), false},
		{"negative positions", cse, withPositions(open, -1), false},
		{"department listed", cse, withDepartments(open, "ECE", "cse"), true},
		{"department not listed", cse, withDepartments(open, "ECE", "MECH"), false},
		{"empty department list admits all", cse, withDepartments(open), true},
		{"malformed cgpa counts as zero", student.Student{Department: "CSE"}, open, false},
		{"malformed cgpa with zero minimum", student.Student{Department: "CSE"}, withMin(open, 0), true},
		{"NaN cgpa cell counts as zero", nanRow, open, false},
		{"NaN cgpa cell with zero minimum", nanRow, withMin(open, 0), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, eligibility.IsEligible(tc.student, tc.company))
		})
	}
}

func TestMatchCompaniesForStudent_StableSubset(t *testing.T) {
	s := student.Student{ID: "CS-2023-001", Department: "CSE", CGPA: 8.0}
	companies := []company.Company{
		{ID: "COMP-001", Status: company.StatusActive, Positions: 1, MinCGPA: 7},
		{ID: "COMP-002", Status: company.StatusActive, Positions: 1, MinCGPA: 9},
		{ID: "COMP-003", Status: company.StatusActive, Positions: 4, MinCGPA: 6},
		{ID: "COMP-004", Status: company.StatusInactive, Positions: 4, MinCGPA: 6},
	}

	matched := eligibility.MatchCompaniesForStudent(s, companies)
	require.Equal(t, []string{"COMP-001", "COMP-003"}, companyIDs(matched))
	for _, c := range matched {
		require.True(t, eligibility.IsEligible(s, c))
	}

	require.Empty(t, eligibility.MatchCompaniesForStudent(s, nil))
}

func TestMatchStudentsForCompany_StableSubset(t *testing.T) {
	c := company.Company{ID: "COMP-001", Status: company.StatusActive, Positions: 3, MinCGPA: 7, EligibleDepartments: []string{"CSE", "IT"}}
	students := []student.Student{
		{ID: "IT-2023-004", Department: "IT", CGPA: 7.1},
		{ID: "ME-2023-002", Department: "MECH", CGPA: 9.5},
		{ID: "CS-2023-001", Department: "CSE", CGPA: 8.2},
		{ID: "CS-2023-003", Department: "CSE", CGPA: 6.9},
	}

	matched := eligibility.MatchStudentsForCompany(c, students)
	ids := make([]string, 0, len(matched))
	for _, s := range matched {
		ids = append(ids, s.ID)
	}
	require.Equal(t, []string{"IT-2023-004", "CS-2023-001"}, ids)
	require.Empty(t, eligibility.MatchStudentsForCompany(c, []student.Student{}))
}

func withCGPA(s student.Student, cgpa float64) student.Student {
	s.CGPA = cgpa
	return s
}

func withStatus(c company.Company, status company.Status) company.Company {
	c.Status = status
	return c
}

func withPositions(c company.Company, n int) company.Company {
	c.Positions = n
	return c
}

func withMin(c company.Company, min float64) company.Company {
	c.MinCGPA = min
	return c
}

func withDepartments(c company.Company, depts ...string) company.Company {
	c.EligibleDepartments = depts
	return c
}

func companyIDs(companies []company.Company) []string {
	ids := make([]string, 0, len(companies))
	for _, c := range companies {
		ids = append(ids, c.ID)
	}
	return ids
}
