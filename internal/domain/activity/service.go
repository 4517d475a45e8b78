package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Service handles activity log operations.
type Service struct {
	log    *Log
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new activity service. repo may be nil, in which case
// entries only live in the bounded in-memory log.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		log:    NewLog(DefaultCapacity),
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock overrides the timestamp source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Record stamps and stores an entry. Persistence failures are logged, never
// returned: the activity log must not fail the operation it describes.
func (s *Service) Record(ctx context.Context, entry Entry) Entry {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	if entry.Actor == "" {
		entry.Actor = ActorFromContext(ctx)
	}

	s.log.Add(entry)

	if s.repo != nil {
		if err := s.repo.Log(ctx, &entry); err != nil && s.logger != nil {
			s.logger.Warn("failed to persist activity", "type", entry.Type, "error", err)
		}
	}
	return entry
}

// LogActivity validates and records an entry supplied by a caller.
func (s *Service) LogActivity(ctx context.Context, entry *Entry) error {
	if entry == nil || entry.Type == "" || entry.Summary == "" {
		return ErrInvalidInput
	}
	*entry = s.Record(ctx, *entry)
	return nil
}

// Recent returns the newest entries from the in-memory log.
func (s *Service) Recent(limit int) []Entry {
	return s.log.Recent(limit)
}

// GetRecentActivity lists entries with filtering. It reads the persistent
// store when one is configured and falls back to the in-memory log. At most
// DefaultCapacity entries are returned.
func (s *Service) GetRecentActivity(ctx context.Context, opts ListOptions) ([]Entry, error) {
	if opts.Limit <= 0 || opts.Limit > DefaultCapacity {
		opts.Limit = DefaultCapacity
	}
	if s.repo != nil {
		entries, err := s.repo.List(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("listing activity: %w", err)
		}
		return entries, nil
	}
	return filter(s.log.Recent(0), opts), nil
}

func filter(entries []Entry, opts ListOptions) []Entry {
	out := make([]Entry, 0, len(entries))
	skipped := 0
	for _, e := range entries {
		if opts.Type != nil && e.Type != *opts.Type {
			continue
		}
		if opts.Subject != "" && e.Subject != opts.Subject {
			continue
		}
		if !opts.Since.IsZero() && e.CreatedAt.Before(opts.Since) {
			continue
		}
		if skipped < opts.Offset {
			skipped++
			continue
		}
		out = append(out, e)
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out
}
