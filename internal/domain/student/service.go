package student

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ganot/placement-desk/internal/domain/activity"
	"github.com/ganot/placement-desk/internal/repository"
	"github.com/ganot/placement-desk/internal/validation"
)

// Service handles student business logic.
type Service struct {
	store    Store
	activity ActivityRecorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new student service.
func NewService(store Store, rec ActivityRecorder, logger *slog.Logger) *Service {
	return &Service{store: store, activity: rec, logger: logger, now: time.Now}
}

// SetClock overrides the clock used for default dates.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// List returns every student with an id, in sheet order.
func (s *Service) List(ctx context.Context) ([]Student, error) {
	rows, err := s.store.FetchRows(ctx, Sheet)
	if err != nil {
		return nil, fmt.Errorf("fetching students: %w", err)
	}
	students := make([]Student, 0, len(rows))
	for i, row := range rows {
		st := FromRow(row)
		if st.ID == "" {
			continue
		}
		if !st.CGPAValid && s.logger != nil {
			s.logger.Warn("malformed CGPA treated as 0", "student_id", st.ID, "row", i+2, "value", cellOrEmpty(row, 6))
		}
		students = append(students, st)
	}
	return students, nil
}

// Get returns one student by id.
func (s *Service) Get(ctx context.Context, id string) (*Student, error) {
	students, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range students {
		if students[i].ID == id {
			return &students[i], nil
		}
	}
	return nil, &repository.NotFoundError{Sheet: Sheet, Key: id}
}

// Add validates and appends a new student. Id and email must be unused.
func (s *Service) Add(ctx context.Context, in Input) (*Student, error) {
	st, err := Parse(in, s.now())
	if err != nil {
		return nil, err
	}

	existing, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkUnique(st, existing, ""); err != nil {
		return nil, err
	}

	if _, err := s.store.AppendRow(ctx, Sheet, ToRow(st)); err != nil {
		return nil, fmt.Errorf("adding student %s: %w", st.ID, err)
	}

	s.record(ctx, activity.TypeStudentAdded, st.ID, fmt.Sprintf("added student %s (%s)", st.ID, st.FullName))
	if s.logger != nil {
		s.logger.Info("student added", "student_id", st.ID)
	}
	return &st, nil
}

// Update overwrites the student id with in. The record id cannot change.
func (s *Service) Update(ctx context.Context, id string, in Input) (*Student, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	if strings.TrimSpace(in.ID) == "" {
		in.ID = id
	}
	if !strings.EqualFold(strings.TrimSpace(in.ID), id) {
		return nil, repository.Invalid("id", "does not match the student being updated")
	}

	existing, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var current *Student
	for i := range existing {
		if existing[i].ID == id {
			current = &existing[i]
			break
		}
	}
	if current == nil {
		return nil, &repository.NotFoundError{Sheet: Sheet, Key: id}
	}
	if strings.TrimSpace(in.DateAdded) == "" && !current.DateAdded.IsZero() {
		in.DateAdded = validation.FormatDate(current.DateAdded)
	}

	st, err := Parse(in, s.now())
	if err != nil {
		return nil, err
	}
	if err := checkUnique(st, existing, id); err != nil {
		return nil, err
	}

	if _, err := s.store.UpdateRow(ctx, Sheet, id, ToRow(st)); err != nil {
		return nil, fmt.Errorf("updating student %s: %w", id, err)
	}

	s.record(ctx, activity.TypeStudentUpdated, id, fmt.Sprintf("updated student %s", id))
	return &st, nil
}

// PrepareImport parses a batch of inputs against the current students.
// Records failing validation or colliding on id or email, with existing
// students or earlier records of the same batch, are rejected.
func (s *Service) PrepareImport(ctx context.Context, inputs []Input) ([]Student, []Rejection, error) {
	existing, err := s.List(ctx)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	accepted := make([]Student, 0, len(inputs))
	var rejected []Rejection
	for i, in := range inputs {
		st, err := Parse(in, now)
		if err == nil {
			err = checkUnique(st, existing, "")
		}
		if err != nil {
			rejected = append(rejected, Rejection{Index: i, ID: strings.TrimSpace(in.ID), Reason: err.Error()})
			continue
		}
		accepted = append(accepted, st)
		existing = append(existing, st)
	}
	return accepted, rejected, nil
}

func checkUnique(st Student, existing []Student, self string) error {
	for _, other := range existing {
		if other.ID == self && self != "" {
			continue
		}
		if other.ID == st.ID {
			return fmt.Errorf("%s: %w", st.ID, ErrDuplicateID)
		}
		if strings.EqualFold(other.Email, st.Email) {
			return fmt.Errorf("%s: %w", st.Email, ErrDuplicateEmail)
		}
	}
	return nil
}

func (s *Service) record(ctx context.Context, typ activity.Type, subject, summary string) {
	if s.activity == nil {
		return
	}
	s.activity.Record(ctx, activity.Entry{Type: typ, Subject: subject, Summary: summary})
}

func cellOrEmpty(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
