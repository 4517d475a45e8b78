package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ganot/placement-desk/internal/domain/activity"
	"github.com/ganot/placement-desk/internal/repository"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Gateway is the sole reader and writer of remote sheet state. It owns the
// row cache and wraps every remote call in the retry policy.
type Gateway struct {
	table    Table
	cfg      Config
	cache    *rowCache
	group    singleflight.Group
	limiter  *rate.Limiter
	fallback repository.SnapshotRepository
	activity ActivityRecorder
	logger   *slog.Logger
	sleep    func(ctx context.Context, d time.Duration) error
	stats    counters
}

type counters struct {
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
	remoteCalls atomic.Int64
	retries     atomic.Int64
	fallbacks   atomic.Int64
}

// Stats is a point-in-time copy of the gateway counters.
type Stats struct {
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
	RemoteCalls int64 `json:"remote_calls"`
	Retries     int64 `json:"retries"`
	Fallbacks   int64 `json:"fallbacks"`
}

// New creates a gateway over table.
func New(table Table, cfg Config, opts ...Option) *Gateway {
	cfg = cfg.withDefaults()
	g := &Gateway{
		table:  table,
		cfg:    cfg,
		cache:  newRowCache(cfg.CacheTTL),
		logger: slog.New(slog.DiscardHandler),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FetchRows returns the data rows of sheet (header excluded), serving from
// cache while the entry is fresh. Concurrent misses for the same sheet share
// one remote read, unless a write landed in between.
func (g *Gateway) FetchRows(ctx context.Context, sheet string) ([][]string, error) {
	if rows, ok := g.cache.get(sheet); ok {
		g.stats.cacheHits.Add(1)
		return rows, nil
	}
	g.stats.cacheMisses.Add(1)

	gen := g.cache.generation(sheet)
	v, err, _ := g.group.Do(sheet+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		rows, err := g.readFresh(ctx, sheet)
		if err != nil {
			return nil, err
		}
		if !g.cache.set(sheet, rows, gen) {
			g.logger.Debug("sheet written during read, not caching", "sheet", sheet)
		}
		g.saveSnapshot(ctx, sheet, rows)
		return rows, nil
	})
	if err != nil {
		return g.readFallback(ctx, sheet, err)
	}
	return cloneRows(v.([][]string)), nil
}

// AppendRow appends one row to sheet.
func (g *Gateway) AppendRow(ctx context.Context, sheet string, row []string) (repository.WriteResult, error) {
	rng := repository.A1(sheet, 1, 0, g.lastColumn(sheet))
	return g.write(ctx, sheet, "append", func(ctx context.Context) (repository.WriteResult, error) {
		return g.table.Append(ctx, rng, [][]string{row})
	})
}

// UpdateRow overwrites the row whose first column equals key. The row
// position comes from an uncached read made right before the write.
func (g *Gateway) UpdateRow(ctx context.Context, sheet, key string, row []string) (repository.WriteResult, error) {
	rows, err := g.readFresh(ctx, sheet)
	if err != nil {
		return repository.WriteResult{}, fmt.Errorf("locating %s in %s: %w", key, sheet, err)
	}
	idx := indexOfKey(rows, key)
	if idx < 0 {
		return repository.WriteResult{}, &repository.NotFoundError{Sheet: sheet, Key: key}
	}

	pos := sheetRow(idx)
	rng := repository.A1(sheet, pos, pos, g.lastColumn(sheet))
	return g.write(ctx, sheet, "update", func(ctx context.Context) (repository.WriteResult, error) {
		return g.table.Update(ctx, rng, [][]string{row})
	})
}

// BatchAppend appends rows to sheet with one remote call per chunk of at
// most BatchSize rows. When a chunk fails, the result covers the chunks
// already written.
func (g *Gateway) BatchAppend(ctx context.Context, sheet string, rows [][]string) (repository.WriteResult, error) {
	total := repository.WriteResult{Sheet: sheet}
	rng := repository.A1(sheet, 1, 0, g.lastColumn(sheet))

	for start := 0; start < len(rows); start += g.cfg.BatchSize {
		chunk := rows[start:min(start+g.cfg.BatchSize, len(rows))]
		res, err := g.write(ctx, sheet, "batch append", func(ctx context.Context) (repository.WriteResult, error) {
			return g.table.Append(ctx, rng, chunk)
		})
		if err != nil {
			return total, err
		}
		total.UpdatedRows += res.UpdatedRows
		total.UpdatedRange = res.UpdatedRange
		total.Calls++
	}
	return total, nil
}

// BatchUpdate overwrites rows located by key. Every key is resolved against a
// fresh read before anything is written; a missing key aborts with
// NotFoundError and no write.
func (g *Gateway) BatchUpdate(ctx context.Context, updates []repository.RowUpdate) (repository.WriteResult, error) {
	var total repository.WriteResult
	if len(updates) == 0 {
		return total, nil
	}

	positions := make(map[string]map[string]int)
	data := make([]repository.RangeValues, 0, len(updates))
	sheets := make([]string, 0, len(updates))
	for _, u := range updates {
		keys, ok := positions[u.Sheet]
		if !ok {
			rows, err := g.readFresh(ctx, u.Sheet)
			if err != nil {
				return total, fmt.Errorf("locating rows in %s: %w", u.Sheet, err)
			}
			keys = keyPositions(rows)
			positions[u.Sheet] = keys
		}
		pos, ok := keys[u.Key]
		if !ok {
			return total, &repository.NotFoundError{Sheet: u.Sheet, Key: u.Key}
		}
		data = append(data, repository.RangeValues{
			Range:  repository.A1(u.Sheet, pos, pos, g.lastColumn(u.Sheet)),
			Values: [][]string{u.Row},
		})
		sheets = append(sheets, u.Sheet)
	}
	total.Sheet = strings.Join(uniq(sheets), ",")

	for start := 0; start < len(data); start += g.cfg.BatchSize {
		end := min(start+g.cfg.BatchSize, len(data))
		chunk := data[start:end]
		label := strings.Join(uniq(sheets[start:end]), ",")
		res, err := g.write(ctx, label, "batch update", func(ctx context.Context) (repository.WriteResult, error) {
			return g.table.BatchUpdate(ctx, chunk)
		}, sheets[start:end]...)
		if err != nil {
			return total, err
		}
		total.UpdatedRows += res.UpdatedRows
		total.Calls++
	}
	return total, nil
}

// Invalidate drops the cached rows of sheet.
func (g *Gateway) Invalidate(sheet string) {
	g.cache.invalidate(sheet)
}

// Stats returns the gateway counters.
func (g *Gateway) Stats() Stats {
	return Stats{
		CacheHits:   g.stats.cacheHits.Load(),
		CacheMisses: g.stats.cacheMisses.Load(),
		RemoteCalls: g.stats.remoteCalls.Load(),
		Retries:     g.stats.retries.Load(),
		Fallbacks:   g.stats.fallbacks.Load(),
	}
}

func (g *Gateway) readFresh(ctx context.Context, sheet string) ([][]string, error) {
	rng := repository.A1(sheet, 2, 0, g.lastColumn(sheet))
	var rows [][]string
	err := g.withRetry(ctx, "read "+sheet, func(ctx context.Context) error {
		r, err := g.table.Read(ctx, rng)
		if err != nil {
			return err
		}
		rows = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", sheet, err)
	}
	if rows == nil {
		rows = [][]string{}
	}
	g.record(ctx, activity.Entry{
		Type:    activity.TypeSheetRead,
		Subject: sheet,
		Summary: fmt.Sprintf("read %d rows from %s", len(rows), sheet),
	})
	return rows, nil
}

// write runs a remote write under the retry policy and invalidates the cache
// of every affected sheet, whatever the outcome. Failures come back as
// *repository.RemoteWriteError.
func (g *Gateway) write(ctx context.Context, sheet, op string, fn func(context.Context) (repository.WriteResult, error), affected ...string) (repository.WriteResult, error) {
	if len(affected) == 0 {
		affected = []string{sheet}
	}

	var res repository.WriteResult
	err := g.withRetry(ctx, op+" "+sheet, func(ctx context.Context) error {
		r, err := fn(ctx)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	for _, s := range affected {
		g.cache.invalidate(s)
	}
	if err != nil {
		g.logger.Error("remote write failed", "op", op, "sheet", sheet, "error", err)
		return repository.WriteResult{}, &repository.RemoteWriteError{Sheet: sheet, Err: err}
	}

	res.Sheet = sheet
	res.Calls = 1
	g.record(ctx, activity.Entry{
		Type:    activity.TypeSheetWrite,
		Subject: sheet,
		Summary: fmt.Sprintf("%s wrote %d rows to %s", op, res.UpdatedRows, sheet),
		Details: res.UpdatedRange,
	})
	return res, nil
}

func (g *Gateway) saveSnapshot(ctx context.Context, sheet string, rows [][]string) {
	if g.fallback == nil {
		return
	}
	if err := g.fallback.Save(ctx, sheet, rows); err != nil {
		g.logger.Warn("failed to save sheet snapshot", "sheet", sheet, "error", err)
	}
}

func (g *Gateway) readFallback(ctx context.Context, sheet string, cause error) ([][]string, error) {
	if g.fallback == nil || !errors.Is(cause, repository.ErrTransport) {
		return nil, cause
	}
	rows, capturedAt, err := g.fallback.Load(ctx, sheet)
	if err != nil {
		g.logger.Debug("no usable snapshot", "sheet", sheet, "error", err)
		return nil, cause
	}

	g.stats.fallbacks.Add(1)
	g.logger.Warn("serving sheet from local snapshot", "sheet", sheet, "captured_at", capturedAt, "error", cause)
	g.record(ctx, activity.Entry{
		Type:    activity.TypeFallbackRead,
		Subject: sheet,
		Summary: fmt.Sprintf("served %d rows of %s from snapshot taken %s", len(rows), sheet, capturedAt.Format(time.RFC3339)),
		Details: cause.Error(),
	})
	return rows, nil
}

func (g *Gateway) record(ctx context.Context, entry activity.Entry) {
	if g.activity == nil {
		return
	}
	g.activity.Record(ctx, entry)
}

func (g *Gateway) lastColumn(sheet string) string {
	if col, ok := g.cfg.Columns[sheet]; ok {
		return col
	}
	return "Z"
}

func indexOfKey(rows [][]string, key string) int {
	if key == "" {
		return -1
	}
	for i, row := range rows {
		if len(row) > 0 && strings.TrimSpace(row[0]) == key {
			return i
		}
	}
	return -1
}

func keyPositions(rows [][]string) map[string]int {
	out := make(map[string]int, len(rows))
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		key := strings.TrimSpace(row[0])
		if _, dup := out[key]; key != "" && !dup {
			out[key] = sheetRow(i)
		}
	}
	return out
}

// sheetRow converts a data-row index into a 1-indexed sheet row below the header.
func sheetRow(idx int) int {
	return idx + 2
}

func uniq(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
