package company

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ganot/placement-desk/internal/domain/activity"
	"github.com/ganot/placement-desk/internal/repository"
)

// Service handles company business logic.
type Service struct {
	store    Store
	activity ActivityRecorder
	logger   *slog.Logger
}

// NewService creates a new company service.
func NewService(store Store, rec ActivityRecorder, logger *slog.Logger) *Service {
	return &Service{store: store, activity: rec, logger: logger}
}

// List returns every company with an id, in sheet order.
func (s *Service) List(ctx context.Context) ([]Company, error) {
	rows, err := s.store.FetchRows(ctx, Sheet)
	if err != nil {
		return nil, fmt.Errorf("fetching companies: %w", err)
	}
	companies := make([]Company, 0, len(rows))
	for _, row := range rows {
		c := FromRow(row)
		if c.ID == "" {
			continue
		}
		companies = append(companies, c)
	}
	return companies, nil
}

// Get returns one company by id.
func (s *Service) Get(ctx context.Context, id string) (*Company, error) {
	companies, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range companies {
		if companies[i].ID == id {
			return &companies[i], nil
		}
	}
	return nil, &repository.NotFoundError{Sheet: Sheet, Key: id}
}

// Add validates and appends a new company.
func (s *Service) Add(ctx context.Context, in Input) (*Company, error) {
	c, err := Parse(in)
	if err != nil {
		return nil, err
	}

	existing, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, other := range existing {
		if other.ID == c.ID {
			return nil, fmt.Errorf("%s: %w", c.ID, ErrDuplicateID)
		}
	}

	if _, err := s.store.AppendRow(ctx, Sheet, ToRow(c)); err != nil {
		return nil, fmt.Errorf("adding company %s: %w", c.ID, err)
	}

	s.record(ctx, activity.TypeCompanyAdded, c.ID, fmt.Sprintf("added company %s (%s)", c.ID, c.Name))
	if s.logger != nil {
		s.logger.Info("company added", "company_id", c.ID)
	}
	return &c, nil
}

// Update overwrites the company id with in.
func (s *Service) Update(ctx context.Context, id string, in Input) (*Company, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	if strings.TrimSpace(in.ID) == "" {
		in.ID = id
	}
	if !strings.EqualFold(strings.TrimSpace(in.ID), id) {
		return nil, repository.Invalid("id", "does not match the company being updated")
	}

	c, err := Parse(in)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.UpdateRow(ctx, Sheet, id, ToRow(c)); err != nil {
		return nil, fmt.Errorf("updating company %s: %w", id, err)
	}

	s.record(ctx, activity.TypeCompanyUpdated, id, fmt.Sprintf("updated company %s", id))
	return &c, nil
}

func (s *Service) record(ctx context.Context, typ activity.Type, subject, summary string) {
	if s.activity == nil {
		return
	}
	s.activity.Record(ctx, activity.Entry{Type: typ, Subject: subject, Summary: summary})
}
