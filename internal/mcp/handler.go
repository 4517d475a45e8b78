package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ganot/placement-desk/internal/domain/activity"
	"github.com/ganot/placement-desk/internal/domain/company"
	"github.com/ganot/placement-desk/internal/domain/distribution"
	"github.com/ganot/placement-desk/internal/domain/placement"
	"github.com/ganot/placement-desk/internal/domain/student"
	"github.com/ganot/placement-desk/internal/gateway"
	"github.com/ganot/placement-desk/internal/repository"
)

// StudentService defines student operations needed by MCP.
type StudentService interface {
	List(ctx context.Context) ([]student.Student, error)
	Get(ctx context.Context, id string) (*student.Student, error)
	Add(ctx context.Context, in student.Input) (*student.Student, error)
	Update(ctx context.Context, id string, in student.Input) (*student.Student, error)
}

// CompanyService defines company operations needed by MCP.
type CompanyService interface {
	List(ctx context.Context) ([]company.Company, error)
	Get(ctx context.Context, id string) (*company.Company, error)
	Add(ctx context.Context, in company.Input) (*company.Company, error)
	Update(ctx context.Context, id string, in company.Input) (*company.Company, error)
}

// PlacementService defines placement operations needed by MCP.
type PlacementService interface {
	List(ctx context.Context) ([]placement.View, error)
	Add(ctx context.Context, in placement.Input) (*placement.Placement, error)
	Update(ctx context.Context, id string, in placement.Input) (*placement.Placement, error)
}

// DistributionService defines distribution operations needed by MCP.
type DistributionService interface {
	DistributeToCompanies(ctx context.Context, students []student.Student, companyIDs []string) (*distribution.Report, error)
	AutoDistributeToEligibleCompanies(ctx context.Context, st student.Student) (*distribution.Report, error)
	BulkImportStudents(ctx context.Context, inputs []student.Input, progress distribution.Progress) (*distribution.ImportReport, error)
	ExportForCompany(ctx context.Context, companyID string, format distribution.Format) (*distribution.Export, error)
	Stats() distribution.Stats
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error)
}

// StatsSource reports gateway counters.
type StatsSource interface {
	Stats() gateway.Stats
}

// Services contains all domain services needed by MCP.
type Services struct {
	Students     StudentService
	Companies    CompanyService
	Placements   PlacementService
	Distribution DistributionService
	Activity     ActivityService
	Gateway      StatsSource
}

// Handler dispatches MCP commands.
type Handler struct {
	svc Services
}

// NewHandler creates a new MCP handler.
func NewHandler(svc Services) *Handler {
	return &Handler{svc: svc}
}

// Methods lists every method Handle accepts, in tool catalog order.
var Methods = []string{
	"get_students",
	"add_student",
	"update_student",
	"get_companies",
	"add_company",
	"update_company",
	"get_placements",
	"add_placement",
	"update_placement",
	"distribute_data_to_companies",
	"auto_distribute_to_eligible_companies",
	"bulk_import_students",
	"export_for_company",
	"get_recent_activity",
	"get_stats",
}

// Handle dispatches a request on behalf of operator to the domain services.
func (h *Handler) Handle(ctx context.Context, operator, method string, params json.RawMessage) (any, error) {
	if operator != "" {
		ctx = activity.WithActor(ctx, operator)
	}

	switch method {
	case "get_students":
		var req GetStudentsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if id := normalizeID(req.ID); id != "" {
			st, err := h.svc.Students.Get(ctx, id)
			return st, mapError(err)
		}
		students, err := h.svc.Students.List(ctx)
		return students, mapError(err)
	case "add_student":
		var req StudentParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		st, err := h.svc.Students.Add(ctx, req.input())
		return st, mapError(err)
	case "update_student":
		var req StudentParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		st, err := h.svc.Students.Update(ctx, normalizeID(req.ID), req.input())
		return st, mapError(err)

	case "get_companies":
		var req GetCompaniesParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if id := normalizeID(req.ID); id != "" {
			c, err := h.svc.Companies.Get(ctx, id)
			return c, mapError(err)
		}
		companies, err := h.svc.Companies.List(ctx)
		return companies, mapError(err)
	case "add_company":
		var req CompanyParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		c, err := h.svc.Companies.Add(ctx, req.input())
		return c, mapError(err)
	case "update_company":
		var req CompanyParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		c, err := h.svc.Companies.Update(ctx, normalizeID(req.ID), req.input())
		return c, mapError(err)

	case "get_placements":
		views, err := h.svc.Placements.List(ctx)
		return views, mapError(err)
	case "add_placement":
		var req PlacementParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		p, err := h.svc.Placements.Add(ctx, req.input())
		return p, mapError(err)
	case "update_placement":
		var req PlacementParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		p, err := h.svc.Placements.Update(ctx, normalizeID(req.ID), req.input())
		return p, mapError(err)

	case "distribute_data_to_companies":
		var req DistributeParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		students, err := h.lookupStudents(ctx, req.StudentIDs)
		if err != nil {
			return nil, mapError(err)
		}
		report, err := h.svc.Distribution.DistributeToCompanies(ctx, students, req.CompanyIDs)
		return distributionResult(report, err)
	case "auto_distribute_to_eligible_companies":
		var req AutoDistributeParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		id := normalizeID(req.StudentID)
		if id == "" {
			return nil, mapError(repository.Invalid("student_id", "is required"))
		}
		st, err := h.svc.Students.Get(ctx, id)
		if err != nil {
			return nil, mapError(err)
		}
		report, err := h.svc.Distribution.AutoDistributeToEligibleCompanies(ctx, *st)
		return distributionResult(report, err)
	case "bulk_import_students":
		var req BulkImportParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		inputs := make([]student.Input, len(req.Students))
		for i, p := range req.Students {
			inputs[i] = p.input()
		}
		report, err := h.svc.Distribution.BulkImportStudents(ctx, inputs, nil)
		if err != nil {
			if report == nil {
				return nil, mapError(err)
			}
			return nil, mapErrorWithDetails(err, report)
		}
		return report, nil
	case "export_for_company":
		var req ExportParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		export, err := h.svc.Distribution.ExportForCompany(ctx, req.CompanyID, distribution.Format(req.Format))
		return export, mapError(err)

	case "get_recent_activity":
		var req GetRecentActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		opts, err := activityOptions(req)
		if err != nil {
			return nil, mapError(err)
		}
		entries, err := h.svc.Activity.GetRecentActivity(ctx, opts)
		if err != nil {
			return nil, mapError(err)
		}
		resp := make([]ActivityEntryResponse, 0, len(entries))
		for _, entry := range entries {
			resp = append(resp, ActivityEntryResponse{
				Timestamp: entry.CreatedAt,
				Type:      entry.Type,
				Subject:   entry.Subject,
				Summary:   entry.Summary,
				Details:   entry.Details,
				Actor:     entry.Actor,
			})
		}
		return resp, nil
	case "get_stats":
		var resp StatsResponse
		if h.svc.Gateway != nil {
			resp.Gateway = h.svc.Gateway.Stats()
		}
		if h.svc.Distribution != nil {
			resp.Distribution = h.svc.Distribution.Stats()
		}
		return resp, nil
	default:
		return nil, mapError(fmt.Errorf("%w: %s", ErrUnknownMethod, method))
	}
}

// lookupStudents resolves ids against one listing, keeping the given order.
func (h *Handler) lookupStudents(ctx context.Context, ids []string) ([]student.Student, error) {
	if len(ids) == 0 {
		return nil, repository.Invalid("student_ids", "at least one student is required")
	}
	all, err := h.svc.Students.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]student.Student, len(all))
	for _, st := range all {
		byID[st.ID] = st
	}

	out := make([]student.Student, 0, len(ids))
	for _, id := range ids {
		id = normalizeID(id)
		st, ok := byID[id]
		if !ok {
			return nil, &repository.NotFoundError{Sheet: student.Sheet, Key: id}
		}
		out = append(out, st)
	}
	return out, nil
}

func distributionResult(report *distribution.Report, err error) (any, error) {
	if err != nil {
		if report == nil {
			return nil, mapError(err)
		}
		return nil, mapErrorWithDetails(err, report)
	}
	resp := DistributionResponse{Report: report, Summary: report.Summary()}
	switch {
	case report.NoEligibleCompanies:
		resp.Message = "no eligible companies; nothing was sent"
	case report.FailureCount() > 0:
		resp.Message = fmt.Sprintf("sent to %s companies, %d failed", report.Summary(), report.FailureCount())
	default:
		resp.Message = fmt.Sprintf("sent to %s companies", report.Summary())
	}
	return resp, nil
}

func activityOptions(req GetRecentActivityParams) (activity.ListOptions, error) {
	opts := activity.ListOptions{Subject: req.Subject, Limit: req.Limit}
	if opts.Limit <= 0 {
		opts.Limit = activity.DefaultCapacity
	}
	if req.Type != "" {
		t := activity.Type(req.Type)
		opts.Type = &t
	}
	if req.Since != "" {
		since, err := time.Parse(time.RFC3339, req.Since)
		if err != nil {
			return opts, repository.Invalid("since", "must be an RFC 3339 timestamp")
		}
		opts.Since = since
	}
	return opts, nil
}

func normalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return mapError(repository.Invalid("params", err.Error()))
	}
	return nil
}
