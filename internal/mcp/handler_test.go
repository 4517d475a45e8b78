package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ganot/placement-desk/internal/domain/activity"
	"github.com/ganot/placement-desk/internal/domain/company"
	"github.com/ganot/placement-desk/internal/domain/distribution"
	"github.com/ganot/placement-desk/internal/domain/placement"
	"github.com/ganot/placement-desk/internal/domain/student"
	"github.com/ganot/placement-desk/internal/gateway"
	"github.com/ganot/placement-desk/internal/repository"
	"github.com/stretchr/testify/require"
)

type studentStub struct {
	listFn   func(context.Context) ([]student.Student, error)
	getFn    func(context.Context, string) (*student.Student, error)
	addFn    func(context.Context, student.Input) (*student.Student, error)
	updateFn func(context.Context, string, student.Input) (*student.Student, error)
}

func (s studentStub) List(ctx context.Context) ([]student.Student, error) { return s.listFn(ctx) }
func (s studentStub) Get(ctx context.Context, id string) (*student.Student, error) {
	return s.getFn(ctx, id)
}
func (s studentStub) Add(ctx context.Context, in student.Input) (*student.Student, error) {
	return s.addFn(ctx, in)
}
func (s studentStub) Update(ctx context.Context, id string, in student.Input) (*student.Student, error) {
	return s.updateFn(ctx, id, in)
}

type companyStub struct {
	listFn   func(context.Context) ([]company.Company, error)
	getFn    func(context.Context, string) (*company.Company, error)
	addFn    func(context.Context, company.Input) (*company.Company, error)
	updateFn func(context.Context, string, company.Input) (*company.Company, error)
}

func (c companyStub) List(ctx context.Context) ([]company.Company, error) { return c.listFn(ctx) }
func (c companyStub) Get(ctx context.Context, id string) (*company.Company, error) {
	return c.getFn(ctx, id)
}
func (c companyStub) Add(ctx context.Context, in company.Input) (*company.Company, error) {
	return c.addFn(ctx, in)
}
func (c companyStub) Update(ctx context.Context, id string, in company.Input) (*company.Company, error) {
	return c.updateFn(ctx, id, in)
}

type placementStub struct {
	listFn   func(context.Context) ([]placement.View, error)
	addFn    func(context.Context, placement.Input) (*placement.Placement, error)
	updateFn func(context.Context, string, placement.Input) (*placement.Placement, error)
}

func (p placementStub) List(ctx context.Context) ([]placement.View, error) { return p.listFn(ctx) }
func (p placementStub) Add(ctx context.Context, in placement.Input) (*placement.Placement, error) {
	return p.addFn(ctx, in)
}
func (p placementStub) Update(ctx context.Context, id string, in placement.Input) (*placement.Placement, error) {
	return p.updateFn(ctx, id, in)
}

type distributionStub struct {
	distributeFn func(context.Context, []student.Student, []string) (*distribution.Report, error)
	autoFn       func(context.Context, student.Student) (*distribution.Report, error)
	importFn     func(context.Context, []student.Input, distribution.Progress) (*distribution.ImportReport, error)
	exportFn     func(context.Context, string, distribution.Format) (*distribution.Export, error)
	stats        distribution.Stats
}

func (d distributionStub) DistributeToCompanies(ctx context.Context, students []student.Student, companyIDs []string) (*distribution.Report, error) {
	return d.distributeFn(ctx, students, companyIDs)
}
func (d distributionStub) AutoDistributeToEligibleCompanies(ctx context.Context, st student.Student) (*distribution.Report, error) {
	return d.autoFn(ctx, st)
}
func (d distributionStub) BulkImportStudents(ctx context.Context, inputs []student.Input, progress distribution.Progress) (*distribution.ImportReport, error) {
	return d.importFn(ctx, inputs, progress)
}
func (d distributionStub) ExportForCompany(ctx context.Context, companyID string, format distribution.Format) (*distribution.Export, error) {
	return d.exportFn(ctx, companyID, format)
}
func (d distributionStub) Stats() distribution.Stats { return d.stats }

type activityStub struct {
	listFn func(context.Context, activity.ListOptions) ([]activity.Entry, error)
}

func (a activityStub) GetRecentActivity(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error) {
	return a.listFn(ctx, opts)
}

type statsStub gateway.Stats

func (s statsStub) Stats() gateway.Stats { return gateway.Stats(s) }

var roster = []student.Student{
	{ID: "CS-2023-001", FullName: "Asha Rao", Department: "CSE", CGPA: 8.4, CGPAValid: true, Status: student.StatusActive},
	{ID: "EC-2023-002", FullName: "Vikram Nair", Department: "ECE", CGPA: 7.1, CGPAValid: true, Status: student.StatusActive},
}

func rosterStub() studentStub {
	return studentStub{
		listFn: func(context.Context) ([]student.Student, error) { return roster, nil },
		getFn: func(_ context.Context, id string) (*student.Student, error) {
			for i := range roster {
				if roster[i].ID == id {
					return &roster[i], nil
				}
			}
			return nil, &repository.NotFoundError{Sheet: student.Sheet, Key: id}
		},
	}
}

func raw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func requireCode(t *testing.T, err error, code string) *APIError {
	t.Helper()
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "want APIError, got %v", err)
	require.Equal(t, code, apiErr.Code)
	return apiErr
}

func TestHandler_StudentCommands(t *testing.T) {
	ctx := context.Background()
	students := rosterStub()
	students.addFn = func(ctx context.Context, in student.Input) (*student.Student, error) {
		require.Equal(t, "alice", activity.ActorFromContext(ctx))
		require.Equal(t, "8.5", in.CGPA)
		require.Equal(t, "CSE", in.Department)
		return &student.Student{ID: in.ID, FullName: in.FullName, CGPA: 8.5}, nil
	}
	students.updateFn = func(_ context.Context, id string, in student.Input) (*student.Student, error) {
		require.Equal(t, "CS-2023-001", id)
		require.Empty(t, in.CGPA)
		return nil, repository.Invalid("cgpa", "is required")
	}
	h := NewHandler(Services{Students: students})

	res, err := h.Handle(ctx, "alice", "get_students", nil)
	require.NoError(t, err)
	require.Len(t, res.([]student.Student), 2)

	res, err = h.Handle(ctx, "alice", "get_students", raw(t, GetStudentsParams{ID: "EC-2023-002"}))
	require.NoError(t, err)
	require.Equal(t, "Vikram Nair", res.(*student.Student).FullName)

	_, err = h.Handle(ctx, "alice", "get_students", raw(t, GetStudentsParams{ID: "ME-2023-009"}))
	requireCode(t, err, "NOT_FOUND")

	cgpa := 8.5
	res, err = h.Handle(ctx, "alice", "add_student", raw(t, StudentParams{
		ID: "CS-2023-010", FullName: "Meera Iyer", Email: "meera@example.edu", Department: "CSE", Year: "3", CGPA: &cgpa,
	}))
	require.NoError(t, err)
	require.Equal(t, "CS-2023-010", res.(*student.Student).ID)

	_, err = h.Handle(ctx, "alice", "update_student", raw(t, StudentParams{ID: " CS-2023-001 "}))
	requireCode(t, err, "VALIDATION_FAILED")
}

func TestHandler_CompanyAndPlacementCommands(t *testing.T) {
	ctx := context.Background()
	h := NewHandler(Services{
		Companies: companyStub{
			getFn: func(_ context.Context, id string) (*company.Company, error) {
				require.Equal(t, "COMP-001", id)
				return &company.Company{ID: id, Name: "Acme"}, nil
			},
			addFn: func(_ context.Context, in company.Input) (*company.Company, error) {
				require.Equal(t, "3", in.Positions)
				require.Equal(t, "7.5", in.MinCGPA)
				require.Equal(t, []string{"CSE", "IT"}, in.EligibleDepartments)
				return &company.Company{ID: in.ID}, nil
			},
		},
		Placements: placementStub{
			listFn: func(context.Context) ([]placement.View, error) {
				return []placement.View{{
					Placement:    placement.Placement{ID: "PL-001", StudentID: "CS-9"},
					StudentLabel: "Unknown Student (CS-9)",
				}}, nil
			},
			addFn: func(_ context.Context, in placement.Input) (*placement.Placement, error) {
				return nil, placement.ErrUnknownCompany
			},
		},
	})

	res, err := h.Handle(ctx, "", "get_companies", raw(t, GetCompaniesParams{ID: "comp-001"}))
	require.NoError(t, err)
	require.Equal(t, "Acme", res.(*company.Company).Name)

	positions, minCGPA := 3, 7.5
	_, err = h.Handle(ctx, "", "add_company", raw(t, CompanyParams{
		ID: "COMP-002", Name: "Globex", Positions: &positions, MinCGPA: &minCGPA, EligibleDepartments: []string{"CSE", "IT"},
	}))
	require.NoError(t, err)

	res, err = h.Handle(ctx, "", "get_placements", nil)
	require.NoError(t, err)
	require.Equal(t, "Unknown Student (CS-9)", res.([]placement.View)[0].StudentLabel)

	_, err = h.Handle(ctx, "", "add_placement", raw(t, PlacementParams{StudentID: "CS-2023-001", CompanyID: "COMP-404"}))
	requireCode(t, err, "UNKNOWN_REFERENCE")
}

func TestHandler_DistributeResolvesStudentsInOrder(t *testing.T) {
	ctx := context.Background()
	h := NewHandler(Services{
		Students: rosterStub(),
		Distribution: distributionStub{
			distributeFn: func(_ context.Context, students []student.Student, companyIDs []string) (*distribution.Report, error) {
				require.Equal(t, "EC-2023-002", students[0].ID)
				require.Equal(t, "CS-2023-001", students[1].ID)
				require.Equal(t, []string{"COMP-001", "COMP-002", "COMP-003"}, companyIDs)
				return &distribution.Report{
					Outcomes: []distribution.Outcome{
						{CompanyID: "COMP-001", Success: true},
						{CompanyID: "COMP-002", Error: "remote write failed"},
						{CompanyID: "COMP-003", Success: true},
					},
					SuccessCount: 2,
					Total:        3,
				}, nil
			},
		},
	})

	res, err := h.Handle(ctx, "", "distribute_data_to_companies", raw(t, DistributeParams{
		StudentIDs: []string{"EC-2023-002", "CS-2023-001"},
		CompanyIDs: []string{"COMP-001", "COMP-002", "COMP-003"},
	}))
	require.NoError(t, err)
	resp := res.(DistributionResponse)
	require.Equal(t, "2/3", resp.Summary)
	require.Contains(t, resp.Message, "1 failed")

	_, err = h.Handle(ctx, "", "distribute_data_to_companies", raw(t, DistributeParams{
		StudentIDs: []string{"XX-0000-000"},
		CompanyIDs: []string{"COMP-001"},
	}))
	requireCode(t, err, "NOT_FOUND")

	_, err = h.Handle(ctx, "", "distribute_data_to_companies", raw(t, DistributeParams{CompanyIDs: []string{"COMP-001"}}))
	requireCode(t, err, "VALIDATION_FAILED")
}

func TestHandler_InterruptedRunCarriesPartialReport(t *testing.T) {
	partial := &distribution.Report{
		Outcomes:     []distribution.Outcome{{CompanyID: "COMP-001", Success: true}},
		SuccessCount: 1,
		Total:        1,
	}
	h := NewHandler(Services{
		Students: rosterStub(),
		Distribution: distributionStub{
			distributeFn: func(context.Context, []student.Student, []string) (*distribution.Report, error) {
				return partial, context.Canceled
			},
		},
	})

	_, err := h.Handle(context.Background(), "", "distribute_data_to_companies", raw(t, DistributeParams{
		StudentIDs: []string{"CS-2023-001"},
		CompanyIDs: []string{"COMP-001", "COMP-002"},
	}))
	apiErr := requireCode(t, err, "INTERRUPTED")
	require.Same(t, partial, apiErr.Details)
}

func TestHandler_AutoDistributeNoEligible(t *testing.T) {
	h := NewHandler(Services{
		Students: rosterStub(),
		Distribution: distributionStub{
			autoFn: func(_ context.Context, st student.Student) (*distribution.Report, error) {
				require.Equal(t, "CS-2023-001", st.ID)
				return &distribution.Report{StudentIDs: []string{st.ID}, NoEligibleCompanies: true}, nil
			},
		},
	})

	res, err := h.Handle(context.Background(), "", "auto_distribute_to_eligible_companies", raw(t, AutoDistributeParams{StudentID: "CS-2023-001"}))
	require.NoError(t, err)
	resp := res.(DistributionResponse)
	require.True(t, resp.Report.NoEligibleCompanies)
	require.Equal(t, "0/0", resp.Summary)
	require.Contains(t, resp.Message, "no eligible companies")

	_, err = h.Handle(context.Background(), "", "auto_distribute_to_eligible_companies", raw(t, AutoDistributeParams{}))
	requireCode(t, err, "VALIDATION_FAILED")
}

func TestHandler_BulkImportFailureReportsProcessed(t *testing.T) {
	h := NewHandler(Services{
		Distribution: distributionStub{
			importFn: func(_ context.Context, inputs []student.Input, _ distribution.Progress) (*distribution.ImportReport, error) {
				require.Len(t, inputs, 2)
				require.Equal(t, "9.1", inputs[1].CGPA)
				return &distribution.ImportReport{Total: 2, Processed: 0, Calls: 1},
					&repository.RemoteWriteError{Sheet: student.Sheet, Err: errors.New("quota")}
			},
		},
	})

	hi := 9.1
	_, err := h.Handle(context.Background(), "", "bulk_import_students", raw(t, BulkImportParams{
		Students: []StudentParams{{ID: "CS-1"}, {ID: "CS-2", CGPA: &hi}},
	}))
	apiErr := requireCode(t, err, "REMOTE_WRITE_FAILED")
	require.Equal(t, 0, apiErr.Details.(*distribution.ImportReport).Processed)
}

func TestHandler_ExportPassesFormat(t *testing.T) {
	h := NewHandler(Services{
		Distribution: distributionStub{
			exportFn: func(_ context.Context, companyID string, format distribution.Format) (*distribution.Export, error) {
				if format == "xml" {
					return nil, repository.Invalid("format", "must be csv or json")
				}
				return &distribution.Export{CompanyID: companyID, Format: format, CSV: "Student ID\n"}, nil
			},
		},
	})

	res, err := h.Handle(context.Background(), "", "export_for_company", raw(t, ExportParams{CompanyID: "COMP-001", Format: "csv"}))
	require.NoError(t, err)
	require.Equal(t, distribution.FormatCSV, res.(*distribution.Export).Format)

	_, err = h.Handle(context.Background(), "", "export_for_company", raw(t, ExportParams{CompanyID: "COMP-001", Format: "xml"}))
	requireCode(t, err, "VALIDATION_FAILED")
}

func TestHandler_RecentActivityAndStats(t *testing.T) {
	at := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	h := NewHandler(Services{
		Activity: activityStub{
			listFn: func(_ context.Context, opts activity.ListOptions) ([]activity.Entry, error) {
				require.NotNil(t, opts.Type)
				require.Equal(t, activity.TypeDistribution, *opts.Type)
				require.Equal(t, activity.DefaultCapacity, opts.Limit)
				require.True(t, opts.Since.Equal(at))
				return []activity.Entry{{Type: activity.TypeDistribution, Summary: "distributed CS-2023-001 to 1/1 companies", CreatedAt: at, Actor: "alice"}}, nil
			},
		},
		Gateway:      statsStub{CacheHits: 4, RemoteCalls: 7},
		Distribution: distributionStub{stats: distribution.Stats{Runs: 2, Successes: 3}},
	})

	res, err := h.Handle(context.Background(), "", "get_recent_activity", raw(t, GetRecentActivityParams{
		Type:  "distribution",
		Since: at.Format(time.RFC3339),
	}))
	require.NoError(t, err)
	entries := res.([]ActivityEntryResponse)
	require.Len(t, entries, 1)
	require.Equal(t, "alice", entries[0].Actor)

	_, err = h.Handle(context.Background(), "", "get_recent_activity", raw(t, GetRecentActivityParams{Since: "yesterday"}))
	requireCode(t, err, "VALIDATION_FAILED")

	res, err = h.Handle(context.Background(), "", "get_stats", nil)
	require.NoError(t, err)
	stats := res.(StatsResponse)
	require.Equal(t, int64(4), stats.Gateway.CacheHits)
	require.Equal(t, 2, stats.Distribution.Runs)
}

func TestHandler_BadInput(t *testing.T) {
	h := NewHandler(Services{Students: rosterStub()})

	_, err := h.Handle(context.Background(), "", "get_students", json.RawMessage(`{"id":`))
	requireCode(t, err, "VALIDATION_FAILED")

	_, err = h.Handle(context.Background(), "", "drop_students", nil)
	requireCode(t, err, "METHOD_NOT_FOUND")
}
