package placement

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ganot/placement-desk/internal/domain/activity"
	"github.com/ganot/placement-desk/internal/repository"
)

// Service handles placement business logic.
type Service struct {
	store     Store
	students  StudentLister
	companies CompanyLister
	activity  ActivityRecorder
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a new placement service.
func NewService(store Store, students StudentLister, companies CompanyLister, rec ActivityRecorder, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		students:  students,
		companies: companies,
		activity:  rec,
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock overrides the clock used to reject future application dates.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// List returns placements with student and company labels. References to
// records that no longer exist get a placeholder label instead of failing.
func (s *Service) List(ctx context.Context) ([]View, error) {
	placements, err := s.listRaw(ctx)
	if err != nil {
		return nil, err
	}
	studentNames, companyNames, err := s.names(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]View, 0, len(placements))
	for _, p := range placements {
		v := View{Placement: p}
		if name, ok := studentNames[p.StudentID]; ok {
			v.StudentLabel = name
		} else {
			v.StudentLabel = UnknownStudentLabel(p.StudentID)
			s.warnDangling(p.ID, "student_id", p.StudentID)
		}
		if name, ok := companyNames[p.CompanyID]; ok {
			v.CompanyLabel = name
		} else {
			v.CompanyLabel = UnknownCompanyLabel(p.CompanyID)
			s.warnDangling(p.ID, "company_id", p.CompanyID)
		}
		views = append(views, v)
	}
	return views, nil
}

// Add validates and appends a placement. Student and company must exist.
func (s *Service) Add(ctx context.Context, in Input) (*Placement, error) {
	p, err := Parse(in, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, p); err != nil {
		return nil, err
	}

	existing, err := s.listRaw(ctx)
	if err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = nextID(existing)
	}
	for _, other := range existing {
		if other.ID == p.ID {
			return nil, fmt.Errorf("%s: %w", p.ID, ErrDuplicateID)
		}
	}

	if _, err := s.store.AppendRow(ctx, Sheet, ToRow(p)); err != nil {
		return nil, fmt.Errorf("adding placement %s: %w", p.ID, err)
	}

	s.record(ctx, activity.TypePlacementAdded, p.ID, fmt.Sprintf("placement %s: %s at %s (%s)", p.ID, p.StudentID, p.CompanyID, p.Status))
	return &p, nil
}

// Update overwrites placement id with in.
func (s *Service) Update(ctx context.Context, id string, in Input) (*Placement, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	if strings.TrimSpace(in.ID) == "" {
		in.ID = id
	}
	if !strings.EqualFold(strings.TrimSpace(in.ID), id) {
		return nil, repository.Invalid("id", "does not match the placement being updated")
	}

	p, err := Parse(in, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, p); err != nil {
		return nil, err
	}
	if _, err := s.store.UpdateRow(ctx, Sheet, id, ToRow(p)); err != nil {
		return nil, fmt.Errorf("updating placement %s: %w", id, err)
	}

	s.record(ctx, activity.TypePlacementUpdated, id, fmt.Sprintf("placement %s moved to %s", id, p.Status))
	return &p, nil
}

func (s *Service) listRaw(ctx context.Context) ([]Placement, error) {
	rows, err := s.store.FetchRows(ctx, Sheet)
	if err != nil {
		return nil, fmt.Errorf("fetching placements: %w", err)
	}
	out := make([]Placement, 0, len(rows))
	for _, row := range rows {
		p := FromRow(row)
		if p.ID == "" {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Service) names(ctx context.Context) (map[string]string, map[string]string, error) {
	students, err := s.students.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	companies, err := s.companies.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	studentNames := make(map[string]string, len(students))
	for _, st := range students {
		studentNames[st.ID] = st.FullName
	}
	companyNames := make(map[string]string, len(companies))
	for _, c := range companies {
		companyNames[c.ID] = c.Name
	}
	return studentNames, companyNames, nil
}

func (s *Service) checkReferences(ctx context.Context, p Placement) error {
	studentNames, companyNames, err := s.names(ctx)
	if err != nil {
		return err
	}
	if _, ok := studentNames[p.StudentID]; !ok {
		return fmt.Errorf("%s: %w", p.StudentID, ErrUnknownStudent)
	}
	if _, ok := companyNames[p.CompanyID]; !ok {
		return fmt.Errorf("%s: %w", p.CompanyID, ErrUnknownCompany)
	}
	return nil
}

// nextID returns PL-### one past the highest numbered placement.
func nextID(existing []Placement) string {
	highest := 0
	for _, p := range existing {
		n, err := strconv.Atoi(strings.TrimPrefix(p.ID, "PL-"))
		if err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("PL-%03d", highest+1)
}

func (s *Service) warnDangling(placementID, field, ref string) {
	if s.logger != nil {
		s.logger.Warn("placement references a missing record", "placement_id", placementID, field, ref)
	}
}

func (s *Service) record(ctx context.Context, typ activity.Type, subject, summary string) {
	if s.activity == nil {
		return
	}
	s.activity.Record(ctx, activity.Entry{Type: typ, Subject: subject, Summary: summary})
}
