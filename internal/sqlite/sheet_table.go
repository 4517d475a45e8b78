package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ganot/placement-desk/internal/repository"
)

// SheetTable stores spreadsheet tabs in SQLite so the desk can run without
// the remote service. Rows are addressed by their 1-based sheet row number.
type SheetTable struct {
	db *DB
}

// NewSheetTable creates a new SheetTable
func NewSheetTable(db *DB) *SheetTable {
	return &SheetTable{db: db}
}

// Provision registers sheet and writes header as row 1 if the sheet is new.
func (t *SheetTable) Provision(ctx context.Context, sheet string, header []string) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO sheets (name, created_at) VALUES (?, ?)`, sheet, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to provision sheet %s: %w", sheet, err)
	}
	if n, _ := res.RowsAffected(); n > 0 && len(header) > 0 {
		if err := putRow(ctx, tx, sheet, 1, header); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Sheets lists the provisioned sheet names.
func (t *SheetTable) Sheets(ctx context.Context) ([]string, error) {
	rows, err := t.db.QueryContext(ctx, `SELECT name FROM sheets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sheets: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan sheet name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Read returns the rows of rng from its start row to the end of the sheet.
func (t *SheetTable) Read(ctx context.Context, rng string) ([][]string, error) {
	sheet, start, err := repository.ParseA1(rng)
	if err != nil {
		return nil, &repository.RejectedError{Op: "read " + rng, Status: http.StatusBadRequest, Err: err}
	}
	if err := t.requireSheet(ctx, t.db, "read", sheet); err != nil {
		return nil, err
	}

	rows, err := t.db.QueryContext(ctx,
		`SELECT row_num, cells FROM sheet_rows WHERE sheet = ? AND row_num >= ? ORDER BY row_num`,
		sheet, start)
	if err != nil {
		return nil, transportErr("read "+rng, err)
	}
	defer rows.Close()

	out := [][]string{}
	next := start
	for rows.Next() {
		var (
			num   int
			cells string
		)
		if err := rows.Scan(&num, &cells); err != nil {
			return nil, transportErr("read "+rng, err)
		}
		for ; next < num; next++ {
			out = append(out, []string{})
		}
		row, err := decodeCells(cells)
		if err != nil {
			return nil, transportErr("read "+rng, err)
		}
		out = append(out, row)
		next = num + 1
	}
	if err := rows.Err(); err != nil {
		return nil, transportErr("read "+rng, err)
	}
	return out, nil
}

// Append writes rows after the last used row of the sheet.
func (t *SheetTable) Append(ctx context.Context, rng string, values [][]string) (repository.WriteResult, error) {
	sheet, _, err := repository.ParseA1(rng)
	if err != nil {
		return repository.WriteResult{}, &repository.RejectedError{Op: "append " + rng, Status: http.StatusBadRequest, Err: err}
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return repository.WriteResult{}, transportErr("append "+rng, err)
	}
	defer tx.Rollback()

	if err := t.requireSheet(ctx, tx, "append", sheet); err != nil {
		return repository.WriteResult{}, err
	}

	var last sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MAX(row_num) FROM sheet_rows WHERE sheet = ?`, sheet).Scan(&last); err != nil {
		return repository.WriteResult{}, transportErr("append "+rng, err)
	}
	first := int(last.Int64) + 1

	if err := putRows(ctx, tx, sheet, first, values); err != nil {
		return repository.WriteResult{}, transportErr("append "+rng, err)
	}
	if err := tx.Commit(); err != nil {
		return repository.WriteResult{}, transportErr("append "+rng, err)
	}
	return writeResult(sheet, first, values), nil
}

// Update overwrites rows starting at the start row of rng.
func (t *SheetTable) Update(ctx context.Context, rng string, values [][]string) (repository.WriteResult, error) {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return repository.WriteResult{}, transportErr("update "+rng, err)
	}
	defer tx.Rollback()

	res, err := t.update(ctx, tx, rng, values)
	if err != nil {
		return repository.WriteResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return repository.WriteResult{}, transportErr("update "+rng, err)
	}
	return res, nil
}

// BatchUpdate applies every range in one transaction.
func (t *SheetTable) BatchUpdate(ctx context.Context, data []repository.RangeValues) (repository.WriteResult, error) {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return repository.WriteResult{}, transportErr("batch update", err)
	}
	defer tx.Rollback()

	total := repository.WriteResult{Calls: 1}
	for _, rv := range data {
		res, err := t.update(ctx, tx, rv.Range, rv.Values)
		if err != nil {
			return repository.WriteResult{}, err
		}
		total.UpdatedRows += res.UpdatedRows
		if total.Sheet == "" {
			total.Sheet = res.Sheet
		}
	}
	if err := tx.Commit(); err != nil {
		return repository.WriteResult{}, transportErr("batch update", err)
	}
	return total, nil
}

func (t *SheetTable) update(ctx context.Context, tx *sql.Tx, rng string, values [][]string) (repository.WriteResult, error) {
	sheet, start, err := repository.ParseA1(rng)
	if err != nil {
		return repository.WriteResult{}, &repository.RejectedError{Op: "update " + rng, Status: http.StatusBadRequest, Err: err}
	}
	if err := t.requireSheet(ctx, tx, "update", sheet); err != nil {
		return repository.WriteResult{}, err
	}
	if err := putRows(ctx, tx, sheet, start, values); err != nil {
		return repository.WriteResult{}, transportErr("update "+rng, err)
	}
	return writeResult(sheet, start, values), nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (t *SheetTable) requireSheet(ctx context.Context, q querier, op, sheet string) error {
	var name string
	err := q.QueryRowContext(ctx, `SELECT name FROM sheets WHERE name = ?`, sheet).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return &repository.RejectedError{
			Op:     op + " " + sheet,
			Status: http.StatusBadRequest,
			Err:    fmt.Errorf("unable to parse range: sheet %q does not exist", sheet),
		}
	}
	if err != nil {
		return transportErr(op+" "+sheet, err)
	}
	return nil
}

func putRows(ctx context.Context, tx *sql.Tx, sheet string, first int, values [][]string) error {
	for i, row := range values {
		if err := putRow(ctx, tx, sheet, first+i, row); err != nil {
			return err
		}
	}
	return nil
}

func putRow(ctx context.Context, tx *sql.Tx, sheet string, num int, row []string) error {
	cells, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to encode row: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sheet_rows (sheet, row_num, cells) VALUES (?, ?, ?)
		ON CONFLICT(sheet, row_num) DO UPDATE SET cells = excluded.cells
	`, sheet, num, string(cells))
	if err != nil {
		return fmt.Errorf("failed to write row %d of %s: %w", num, sheet, err)
	}
	return nil
}

func decodeCells(raw string) ([]string, error) {
	var row []string
	if err := json.Unmarshal([]byte(raw), &row); err != nil {
		return nil, fmt.Errorf("failed to decode row: %w", err)
	}
	if row == nil {
		row = []string{}
	}
	return row, nil
}

func writeResult(sheet string, first int, values [][]string) repository.WriteResult {
	width := 1
	for _, row := range values {
		width = max(width, len(row))
	}
	res := repository.WriteResult{Sheet: sheet, UpdatedRows: len(values), Calls: 1}
	if len(values) > 0 {
		res.UpdatedRange = repository.A1(sheet, first, first+len(values)-1, repository.ColumnName(width))
	}
	return res
}

func transportErr(op string, err error) error {
	return &repository.TransportError{Op: op, Err: err}
}
