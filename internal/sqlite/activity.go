package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ganot/placement-desk/internal/domain/activity"
)

// ActivityRepository implements repository.ActivityRepository for SQLite.
// It retains only the newest activity.DefaultCapacity entries.
type ActivityRepository struct {
	db   *DB
	keep int
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db, keep: activity.DefaultCapacity}
}

// Log inserts a new activity entry
func (r *ActivityRepository) Log(ctx context.Context, entry *activity.Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()

	query := `
		INSERT INTO activity_log (
			id, activity_type, subject, summary, details, actor, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, query,
		entry.ID,
		entry.Type,
		entry.Subject,
		entry.Summary,
		entry.Details,
		entry.Actor,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM activity_log WHERE rowid NOT IN (
			SELECT rowid FROM activity_log ORDER BY created_at DESC, rowid DESC LIMIT ?
		)
	`, r.keep)
	if err != nil {
		return fmt.Errorf("failed to prune activity: %w", err)
	}

	return tx.Commit()
}

// List returns activity entries matching the given filters, newest first
func (r *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error) {
	query := `
		SELECT id, activity_type, subject, summary, details, actor, created_at
		FROM activity_log
	`

	var (
		args       []any
		conditions []string
	)
	if opts.Type != nil {
		conditions = append(conditions, "activity_type = ?")
		args = append(args, *opts.Type)
	}
	if opts.Subject != "" {
		conditions = append(conditions, "subject = ?")
		args = append(args, opts.Subject)
	}
	if !opts.Since.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, opts.Since.UTC())
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at DESC, rowid DESC"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var entries []activity.Entry
	for rows.Next() {
		var (
			entry                    activity.Entry
			subject, details, actor sql.NullString
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.Type,
			&subject,
			&entry.Summary,
			&details,
			&actor,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		entry.Subject = subject.String
		entry.Details = details.String
		entry.Actor = actor.String
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}

	return entries, nil
}
