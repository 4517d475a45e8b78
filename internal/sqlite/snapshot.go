package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ganot/placement-desk/internal/repository"
)

// SnapshotRepository implements repository.SnapshotRepository for SQLite
type SnapshotRepository struct {
	db *DB
}

// NewSnapshotRepository creates a new SnapshotRepository
func NewSnapshotRepository(db *DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Save replaces the stored snapshot of sheet.
func (r *SnapshotRepository) Save(ctx context.Context, sheet string, rows [][]string) error {
	cells, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO snapshots (sheet, cells, saved_at) VALUES (?, ?, ?)
		ON CONFLICT(sheet) DO UPDATE SET cells = excluded.cells, saved_at = excluded.saved_at
	`, sheet, string(cells), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Load returns the stored snapshot of sheet and when it was taken.
func (r *SnapshotRepository) Load(ctx context.Context, sheet string) ([][]string, time.Time, error) {
	var (
		cells   string
		savedAt time.Time
	)
	err := r.db.QueryRowContext(ctx, `SELECT cells, saved_at FROM snapshots WHERE sheet = ?`, sheet).Scan(&cells, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, &repository.NotFoundError{Sheet: sheet, Key: "snapshot"}
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var rows [][]string
	if err := json.Unmarshal([]byte(cells), &rows); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return rows, savedAt, nil
}
