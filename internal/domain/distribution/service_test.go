package distribution_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ganot/placement-desk/internal/domain/activity"
	"github.com/ganot/placement-desk/internal/domain/company"
	"github.com/ganot/placement-desk/internal/domain/distribution"
	"github.com/ganot/placement-desk/internal/domain/student"
	"github.com/ganot/placement-desk/internal/repository"
	"github.com/ganot/placement-desk/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

type companyStub struct {
	companies []company.Company
	err       error
}

func (c *companyStub) List(context.Context) ([]company.Company, error) {
	return c.companies, c.err
}

func (c *companyStub) Get(_ context.Context, id string) (*company.Company, error) {
	for i := range c.companies {
		if c.companies[i].ID == id {
			return &c.companies[i], nil
		}
	}
	return nil, &repository.NotFoundError{Sheet: company.Sheet, Key: id}
}

type harness struct {
	store     *mocks.RowStore
	companies *companyStub
	activity  *activity.Service
	sleeps    []time.Duration
	svc       *distribution.Service
}

func newHarness(t *testing.T, companies ...company.Company) *harness {
	t.Helper()
	h := &harness{
		store:     &mocks.RowStore{},
		companies: &companyStub{companies: companies},
		activity:  activity.NewService(nil, nil),
	}
	students := student.NewService(h.store, h.activity, nil)
	students.SetClock(func() time.Time { return fixedNow })

	h.svc = distribution.NewService(h.store, students, h.companies, h.activity, distribution.DefaultConfig(), nil)
	h.svc.SetClock(func() time.Time { return fixedNow })
	h.svc.SetSleeper(func(_ context.Context, d time.Duration) error {
		h.sleeps = append(h.sleeps, d)
		return nil
	})
	return h
}

func asha() student.Student {
	return student.Student{
		ID: "CS-2023-001", FullName: "Asha Rao", Email: "asha@uni.edu", Department: "CSE", Year: "4",
		CGPA: 8.7, CGPAValid: true, Skills: []string{"Go"}, Status: student.StatusActive,
		DateAdded: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	}
}

func ashaRow() []string {
	return []string{"CS-2023-001", "Asha Rao", "asha@uni.edu", "", "CSE", "4", "8.7", "Go", "Active", "2024-01-10", "2024-03-15", "Pending Review"}
}

func TestDistributeToCompanies_PartialFailure(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.store.On("AppendRow", ctx, "COMP-001", ashaRow()).Return(repository.WriteResult{Sheet: "COMP-001", UpdatedRows: 1}, nil)
	h.store.On("AppendRow", ctx, "COMP-002", ashaRow()).
		Return(repository.WriteResult{}, &repository.RemoteWriteError{Sheet: "COMP-002", Err: errors.New("sheet missing")})
	h.store.On("AppendRow", ctx, "COMP-003", ashaRow()).Return(repository.WriteResult{Sheet: "COMP-003", UpdatedRows: 1}, nil)

	report, err := h.svc.DistributeToCompanies(ctx, []student.Student{asha()}, []string{"COMP-001", "COMP-002", "COMP-003"})
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 3)
	require.True(t, report.Outcomes[0].Success)
	require.False(t, report.Outcomes[1].Success)
	require.Contains(t, report.Outcomes[1].Error, "sheet missing")
	require.True(t, report.Outcomes[2].Success)
	require.Equal(t, "2/3", report.Summary())
	require.Equal(t, []time.Duration{200 * time.Millisecond, 200 * time.Millisecond}, h.sleeps)

	recent := h.activity.Recent(1)
	require.Len(t, recent, 1)
	require.Equal(t, activity.TypeDistribution, recent[0].Type)
	require.Contains(t, recent[0].Summary, "2/3")
	require.Contains(t, recent[0].Details, "COMP-002")

	stats := h.svc.Stats()
	require.Equal(t, 1, stats.Runs)
	require.Equal(t, 2, stats.Successes)
	require.Equal(t, 1, stats.Failures)
	h.store.AssertExpectations(t)
}

func TestDistributeToCompanies_MultipleStudentsUseBatchAppend(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	second := asha()
	second.ID, second.Email = "CS-2023-002", "bo@uni.edu"
	h.store.On("BatchAppend", ctx, "COMP-001", mock.MatchedBy(func(rows [][]string) bool {
		return len(rows) == 2 && rows[1][0] == "CS-2023-002" && rows[1][11] == "Pending Review"
	})).Return(repository.WriteResult{UpdatedRows: 2, Calls: 1}, nil)

	report, err := h.svc.DistributeToCompanies(ctx, []student.Student{asha(), second}, []string{" comp-001 "})
	require.NoError(t, err)
	require.Equal(t, "1/1", report.Summary())
	require.Equal(t, 2, report.Outcomes[0].Response.UpdatedRows)
	require.Empty(t, h.sleeps)
	h.store.AssertNotCalled(t, "AppendRow", mock.Anything, mock.Anything, mock.Anything)
}

func TestDistributeToCompanies_RejectsEmptyInput(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.DistributeToCompanies(context.Background(), nil, []string{"COMP-001"})
	require.ErrorIs(t, err, distribution.ErrNoStudents)
	require.ErrorIs(t, err, repository.ErrInvalidInput)

	_, err = h.svc.DistributeToCompanies(context.Background(), []student.Student{asha()}, []string{" "})
	require.ErrorIs(t, err, distribution.ErrNoCompanies)
}

func TestDistributeToCompanies_CancellationStopsFurtherCalls(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := newHarness(t)
	h.store.On("AppendRow", ctx, "COMP-001", ashaRow()).
		Run(func(mock.Arguments) { cancel() }).
		Return(repository.WriteResult{UpdatedRows: 1}, nil)

	report, err := h.svc.DistributeToCompanies(ctx, []student.Student{asha()}, []string{"COMP-001", "COMP-002", "COMP-003"})
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	require.Len(t, report.Outcomes, 1)
	require.Equal(t, "1/1", report.Summary())
	h.store.AssertNumberOfCalls(t, "AppendRow", 1)
}

func TestAutoDistribute_SendsOnlyToEligibleCompanies(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t,
		company.Company{ID: "COMP-001", Name: "Acme", Status: company.StatusActive, Positions: 5, MinCGPA: 7.0, EligibleDepartments: []string{"Computer Science"}},
		company.Company{ID: "COMP-002", Name: "Globex", Status: company.StatusActive, Positions: 5, MinCGPA: 9.0},
	)
	st := student.Student{
		ID: "CS-2023-099", FullName: "Dev Shah", Email: "dev@uni.edu", Department: "Computer Science",
		CGPA: 8.2, CGPAValid: true, Status: student.StatusActive,
	}
	h.store.On("AppendRow", ctx, "COMP-001", mock.Anything).Return(repository.WriteResult{UpdatedRows: 1}, nil)

	report, err := h.svc.AutoDistributeToEligibleCompanies(ctx, st)
	require.NoError(t, err)
	require.False(t, report.NoEligibleCompanies)
	require.Equal(t, "1/1", report.Summary())
	require.Equal(t, "COMP-001", report.Outcomes[0].CompanyID)
	h.store.AssertNumberOfCalls(t, "AppendRow", 1)
}

func TestAutoDistribute_NoEligibleCompaniesIsNoOp(t *testing.T) {
	h := newHarness(t, company.Company{ID: "COMP-002", Status: company.StatusActive, Positions: 5, MinCGPA: 9.5})

	report, err := h.svc.AutoDistributeToEligibleCompanies(context.Background(), asha())
	require.NoError(t, err)
	require.True(t, report.NoEligibleCompanies)
	require.Empty(t, report.Outcomes)
	h.store.AssertNotCalled(t, "AppendRow", mock.Anything, mock.Anything, mock.Anything)
	require.Zero(t, h.svc.Stats().Runs)
}

func importInputs(n int) []student.Input {
	inputs := make([]student.Input, n)
	for i := range inputs {
		inputs[i] = student.Input{
			ID:         fmt.Sprintf("CS-2024-%03d", i+1),
			FullName:   fmt.Sprintf("Student %d", i+1),
			Email:      fmt.Sprintf("s%d@uni.edu", i+1),
			Department: "CSE",
			Year:       "1",
			CGPA:       "6.5",
		}
	}
	return inputs
}

func TestBulkImportStudents_ChunksOfOneHundred(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.store.On("FetchRows", ctx, student.Sheet).Return([][]string{}, nil)

	var sizes []int
	h.store.On("BatchAppend", ctx, student.Sheet, mock.Anything).
		Run(func(args mock.Arguments) { sizes = append(sizes, len(args.Get(2).([][]string))) }).
		Return(repository.WriteResult{Calls: 1}, nil)

	var progress [][2]int
	report, err := h.svc.BulkImportStudents(ctx, importInputs(250), func(processed, total int) {
		progress = append(progress, [2]int{processed, total})
	})
	require.NoError(t, err)
	require.Equal(t, []int{100, 100, 50}, sizes)
	require.Equal(t, 3, report.Calls)
	require.Equal(t, 250, report.Processed)
	require.Len(t, report.Imported, 250)
	require.Equal(t, [][2]int{{0, 250}, {100, 250}, {200, 250}, {250, 250}}, progress)
	require.Empty(t, report.Distributions, "no companies means no eligible targets")
	require.Equal(t, 250, h.svc.Stats().StudentsImported)
}

func TestBulkImportStudents_AbortsOnFailingChunk(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.store.On("FetchRows", ctx, student.Sheet).Return([][]string{}, nil)
	h.store.On("BatchAppend", ctx, student.Sheet, mock.Anything).Return(repository.WriteResult{Calls: 1}, nil).Once()
	h.store.On("BatchAppend", ctx, student.Sheet, mock.Anything).
		Return(repository.WriteResult{}, &repository.RemoteWriteError{Sheet: student.Sheet, Err: errors.New("quota")}).Once()

	report, err := h.svc.BulkImportStudents(ctx, importInputs(250), nil)
	require.ErrorIs(t, err, repository.ErrRemoteWrite)
	require.Contains(t, err.Error(), "after 100 of 250")
	require.Equal(t, 100, report.Processed)
	require.Equal(t, 2, report.Calls)
	require.Contains(t, report.Error, "quota")
	h.store.AssertNumberOfCalls(t, "BatchAppend", 2)

	recent := h.activity.Recent(1)
	require.Equal(t, activity.TypeBulkImport, recent[0].Type)
	require.Contains(t, recent[0].Summary, "100/250")
}

func TestBulkImportStudents_RejectsInvalidAndDistributesEligible(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, company.Company{ID: "COMP-001", Status: company.StatusActive, Positions: 2, MinCGPA: 8})
	h.store.On("FetchRows", ctx, student.Sheet).Return([][]string{}, nil)
	h.store.On("BatchAppend", ctx, student.Sheet, mock.Anything).Return(repository.WriteResult{Calls: 1}, nil)
	h.store.On("AppendRow", ctx, "COMP-001", mock.Anything).Return(repository.WriteResult{UpdatedRows: 1}, nil)

	inputs := []student.Input{
		{ID: "CS-2024-001", FullName: "High", Email: "high@uni.edu", Department: "CSE", Year: "1", CGPA: "9.1"},
		{ID: "CS-2024-002", FullName: "Low", Email: "low@uni.edu", Department: "CSE", Year: "1", CGPA: "6"},
		{ID: "CS-2024-003", FullName: "Off", Email: "off@uni.edu", Department: "CSE", Year: "1", CGPA: "9.5", Status: "Inactive"},
		{ID: "bad", FullName: "Broken", Email: "broken@uni.edu", CGPA: "7"},
		{ID: "CS-2024-005", FullName: "Dup", Email: "high@uni.edu", Department: "CSE", Year: "1", CGPA: "8"},
	}

	report, err := h.svc.BulkImportStudents(ctx, inputs, nil)
	require.NoError(t, err)
	require.Equal(t, 3, report.Processed)
	require.Len(t, report.Rejected, 2)
	require.Equal(t, 3, report.Rejected[0].Index)
	require.Equal(t, 4, report.Rejected[1].Index)

	var sent []string
	for _, r := range report.Distributions {
		if !r.NoEligibleCompanies {
			sent = append(sent, r.StudentIDs...)
		}
	}
	require.Equal(t, []string{"CS-2024-001"}, sent)
	h.store.AssertNumberOfCalls(t, "AppendRow", 1)
}

func TestExportForCompany(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, company.Company{ID: "COMP-001", MinCGPA: 8})
	h.store.On("FetchRows", ctx, student.Sheet).Return([][]string{
		{"CS-2023-001", "Asha Rao", "asha@uni.edu", "", "CSE", "4", "8.7", "Go", "Active", "2024-01-10"},
		{"EC-2023-002", "Ravi Kumar", "ravi@uni.edu", "", "ECE", "4", "7.2", "", "Active", "2024-01-11"},
		{"ME-2023-003", "Meera Iyer", "meera@uni.edu", "", "MECH", "3", "n/a", "", "Active", "2024-01-12"},
	}, nil)

	out, err := h.svc.ExportForCompany(ctx, "comp-001", distribution.FormatCSV)
	require.NoError(t, err)
	require.Equal(t, "COMP-001_students_2024-03-15.csv", out.Filename)
	lines := strings.Split(strings.TrimSpace(out.CSV), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "Student ID,"))
	require.True(t, strings.HasPrefix(lines[1], "CS-2023-001,Asha Rao"))

	out, err = h.svc.ExportForCompany(ctx, "COMP-001", distribution.FormatJSON)
	require.NoError(t, err)
	require.Len(t, out.Students, 1)
	require.Empty(t, out.CSV)

	_, err = h.svc.ExportForCompany(ctx, "COMP-001", "xml")
	require.ErrorIs(t, err, repository.ErrInvalidInput)

	_, err = h.svc.ExportForCompany(ctx, "COMP-404", distribution.FormatCSV)
	require.ErrorIs(t, err, repository.ErrNotFound)
}
