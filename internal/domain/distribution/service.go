// Package distribution sends student records to company sheets.
package distribution

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ganot/placement-desk/internal/domain/activity"
	"github.com/ganot/placement-desk/internal/domain/company"
	"github.com/ganot/placement-desk/internal/domain/eligibility"
	"github.com/ganot/placement-desk/internal/domain/student"
	"github.com/ganot/placement-desk/internal/repository"
	"github.com/ganot/placement-desk/internal/validation"
	"github.com/google/uuid"
)

// Service orchestrates matching and writes for distribution and bulk import.
// Companies are always contacted one at a time, in the order given.
type Service struct {
	store     Store
	students  StudentDirectory
	companies CompanyDirectory
	activity  ActivityRecorder
	logger    *slog.Logger
	cfg       Config

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu    sync.Mutex
	stats Stats
}

// NewService creates a new distribution service.
func NewService(store Store, students StudentDirectory, companies CompanyDirectory, rec ActivityRecorder, cfg Config, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		students:  students,
		companies: companies,
		activity:  rec,
		logger:    logger,
		cfg:       cfg.withDefaults(),
		now:       time.Now,
		sleep:     sleepContext,
	}
}

// SetClock overrides the clock used to stamp distributed rows.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// SetSleeper overrides how the pacing delay is waited out.
func (s *Service) SetSleeper(sleep func(ctx context.Context, d time.Duration) error) {
	s.sleep = sleep
}

// Stats returns a copy of the cumulative counters.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// DistributeToCompanies appends students to each company's sheet. A failed
// company is recorded in the report and the remaining companies are still
// contacted. The pacing delay separates consecutive companies, so none is
// waited after the last one. When ctx is cancelled no further companies are contacted and the
// partial report is returned with ctx's error.
func (s *Service) DistributeToCompanies(ctx context.Context, students []student.Student, companyIDs []string) (*Report, error) {
	if len(students) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrNoStudents, repository.Invalid("students", "at least one student is required"))
	}
	targets := normalizeIDs(companyIDs)
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrNoCompanies, repository.Invalid("company_ids", "at least one company is required"))
	}

	report := &Report{
		RunID:      uuid.NewString(),
		StudentIDs: studentIDs(students),
		Outcomes:   make([]Outcome, 0, len(targets)),
	}
	rows := s.rows(students)

	var runErr error
	for i, companyID := range targets {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		outcome := s.send(ctx, companyID, rows)
		report.Outcomes = append(report.Outcomes, outcome)
		if outcome.Success {
			report.SuccessCount++
		}

		if i < len(targets)-1 && s.cfg.Pacing > 0 {
			if err := s.sleep(ctx, s.cfg.Pacing); err != nil {
				runErr = err
				break
			}
		}
	}
	report.Total = len(report.Outcomes)

	s.mu.Lock()
	s.stats.Runs++
	s.stats.CompaniesContacted += report.Total
	s.stats.Successes += report.SuccessCount
	s.stats.Failures += report.FailureCount()
	s.mu.Unlock()

	s.recordRun(ctx, report, runErr)
	if runErr != nil {
		return report, fmt.Errorf("distribution %s interrupted after %d companies: %w", report.RunID, report.Total, runErr)
	}
	return report, nil
}

// AutoDistributeToEligibleCompanies sends st to every company it qualifies
// for. When none qualify the report is flagged NoEligibleCompanies and
// nothing is written.
func (s *Service) AutoDistributeToEligibleCompanies(ctx context.Context, st student.Student) (*Report, error) {
	companies, err := s.companies.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing companies: %w", err)
	}
	return s.autoDistribute(ctx, st, companies)
}

func (s *Service) autoDistribute(ctx context.Context, st student.Student, companies []company.Company) (*Report, error) {
	matched := eligibility.MatchCompaniesForStudent(st, companies)
	if len(matched) == 0 {
		if s.logger != nil {
			s.logger.Info("no eligible companies", "student_id", st.ID, "cgpa", st.CGPA)
		}
		return &Report{
			RunID:               uuid.NewString(),
			StudentIDs:          []string{st.ID},
			Outcomes:            []Outcome{},
			NoEligibleCompanies: true,
		}, nil
	}

	ids := make([]string, len(matched))
	for i, c := range matched {
		ids[i] = c.ID
	}
	return s.DistributeToCompanies(ctx, []student.Student{st}, ids)
}

// BulkImportStudents validates inputs, appends the accepted students in
// chunks and then auto-distributes each imported Active student. The first
// failing chunk stops the import; the report then carries the number of
// students written before it.
func (s *Service) BulkImportStudents(ctx context.Context, inputs []student.Input, progress Progress) (*ImportReport, error) {
	accepted, rejected, err := s.students.PrepareImport(ctx, inputs)
	if err != nil {
		return nil, fmt.Errorf("preparing import: %w", err)
	}

	report := &ImportReport{
		Total:    len(accepted),
		Imported: make([]string, 0, len(accepted)),
		Rejected: rejected,
	}
	if progress != nil {
		progress(0, report.Total)
	}

	for start := 0; start < len(accepted); start += s.cfg.ChunkSize {
		end := min(start+s.cfg.ChunkSize, len(accepted))
		chunk := accepted[start:end]

		rows := make([][]string, len(chunk))
		for i, st := range chunk {
			rows[i] = student.ToRow(st)
		}

		report.Calls++
		if _, err := s.store.BatchAppend(ctx, student.Sheet, rows); err != nil {
			report.Error = err.Error()
			s.recordImport(ctx, report)
			return report, fmt.Errorf("bulk import stopped after %d of %d students: %w", report.Processed, report.Total, err)
		}

		report.Processed += len(chunk)
		report.Imported = append(report.Imported, studentIDs(chunk)...)
		if progress != nil {
			progress(report.Processed, report.Total)
		}
	}

	s.mu.Lock()
	s.stats.StudentsImported += report.Processed
	s.mu.Unlock()
	s.recordImport(ctx, report)

	if err := s.distributeImported(ctx, accepted, report); err != nil {
		return report, err
	}
	return report, nil
}

func (s *Service) distributeImported(ctx context.Context, imported []student.Student, report *ImportReport) error {
	var candidates []student.Student
	for _, st := range imported {
		if st.Status.IsActive() && st.CGPAValid {
			candidates = append(candidates, st)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	companies, err := s.companies.List(ctx)
	if err != nil {
		report.Error = err.Error()
		return fmt.Errorf("listing companies for auto-distribution: %w", err)
	}
	for _, st := range candidates {
		r, err := s.autoDistribute(ctx, st, companies)
		if r != nil {
			report.Distributions = append(report.Distributions, *r)
		}
		if err != nil {
			report.Error = err.Error()
			return fmt.Errorf("auto-distributing %s: %w", st.ID, err)
		}
	}
	return nil
}

// ExportForCompany returns the students whose CGPA meets the company's
// minimum, either as CSV or as a list.
func (s *Service) ExportForCompany(ctx context.Context, companyID string, format Format) (*Export, error) {
	format = Format(strings.ToLower(strings.TrimSpace(string(format))))
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatJSON {
		return nil, repository.Invalid("format", "must be csv or json")
	}

	c, err := s.companies.Get(ctx, strings.ToUpper(strings.TrimSpace(companyID)))
	if err != nil {
		return nil, err
	}
	students, err := s.students.List(ctx)
	if err != nil {
		return nil, err
	}

	selected := make([]student.Student, 0, len(students))
	for _, st := range students {
		if st.CGPA >= c.MinCGPA {
			selected = append(selected, st)
		}
	}

	out := &Export{
		CompanyID: c.ID,
		MinCGPA:   c.MinCGPA,
		Format:    format,
		Filename:  fmt.Sprintf("%s_students_%s.%s", c.ID, s.now().Format(validation.DateLayout), format),
	}
	if format == FormatJSON {
		out.Students = selected
		return out, nil
	}
	out.CSV, err = encodeCSV(selected)
	if err != nil {
		return nil, fmt.Errorf("encoding export for %s: %w", c.ID, err)
	}
	return out, nil
}

func (s *Service) send(ctx context.Context, companyID string, rows [][]string) Outcome {
	var (
		res repository.WriteResult
		err error
	)
	if len(rows) == 1 {
		res, err = s.store.AppendRow(ctx, companyID, rows[0])
	} else {
		res, err = s.store.BatchAppend(ctx, companyID, rows)
	}

	outcome := Outcome{CompanyID: companyID, At: s.now()}
	if err != nil {
		outcome.Error = err.Error()
		if s.logger != nil {
			s.logger.Warn("distribution to company failed", "company_id", companyID, "error", err)
		}
		return outcome
	}
	outcome.Success = true
	outcome.Response = &res
	return outcome
}

// rows renders students as company sheet rows: the student columns followed
// by the date sent and the review status.
func (s *Service) rows(students []student.Student) [][]string {
	sent := validation.FormatDate(s.now())
	rows := make([][]string, len(students))
	for i, st := range students {
		rows[i] = append(student.ToRow(st), sent, s.cfg.ReviewStatus)
	}
	return rows
}

func (s *Service) recordRun(ctx context.Context, report *Report, runErr error) {
	subject := strings.Join(report.StudentIDs, ", ")
	if len(report.StudentIDs) > 3 {
		subject = strconv.Itoa(len(report.StudentIDs)) + " students"
	}
	summary := fmt.Sprintf("distributed %s to %s companies", subject, report.Summary())
	if runErr != nil {
		summary += " (interrupted)"
	}

	var failed []string
	for _, o := range report.Outcomes {
		if !o.Success {
			failed = append(failed, o.CompanyID+": "+o.Error)
		}
	}

	if s.logger != nil {
		s.logger.Info("distribution finished", "run_id", report.RunID, "success", report.SuccessCount, "total", report.Total)
	}
	if s.activity == nil {
		return
	}
	s.activity.Record(ctx, activity.Entry{
		Type:    activity.TypeDistribution,
		Subject: report.RunID,
		Summary: summary,
		Details: strings.Join(failed, "; "),
	})
}

func (s *Service) recordImport(ctx context.Context, report *ImportReport) {
	summary := fmt.Sprintf("imported %s students", tally(report.Processed, report.Total))
	if len(report.Rejected) > 0 {
		summary += fmt.Sprintf(", %d rejected", len(report.Rejected))
	}
	if s.logger != nil {
		s.logger.Info("bulk import finished", "processed", report.Processed, "total", report.Total, "rejected", len(report.Rejected))
	}
	if s.activity == nil {
		return
	}
	s.activity.Record(ctx, activity.Entry{
		Type:    activity.TypeBulkImport,
		Subject: student.Sheet,
		Summary: summary,
		Details: report.Error,
	})
}

func tally(success, total int) string {
	return strconv.Itoa(success) + "/" + strconv.Itoa(total)
}

func normalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.ToUpper(strings.TrimSpace(id))
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}

func studentIDs(students []student.Student) []string {
	ids := make([]string, len(students))
	for i, st := range students {
		ids[i] = st.ID
	}
	return ids
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
