package gateway

import (
	"context"
	"log/slog"
	"time"

	"github.com/ganot/placement-desk/internal/repository"
	"golang.org/x/time/rate"
)

// Config tunes caching, retry and batching.
type Config struct {
	CacheTTL       time.Duration
	MaxAttempts    int
	RetryBaseDelay time.Duration
	CallTimeout    time.Duration
	BatchSize      int
	// Columns maps a sheet name to its last column letter. Sheets not listed
	// are read up to column Z.
	Columns map[string]string
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		CacheTTL:       5 * time.Minute,
		MaxAttempts:    3,
		RetryBaseDelay: time.Second,
		CallTimeout:    30 * time.Second,
		BatchSize:      100,
		Columns: map[string]string{
			SheetStudents:   "J",
			SheetCompanies:  "L",
			SheetPlacements: "I",
			SheetActivities: "E",
		},
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.CacheTTL <= 0 {
		c.CacheTTL = def.CacheTTL
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = def.RetryBaseDelay
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = def.CallTimeout
	}
	if c.BatchSize <= 0 || c.BatchSize > def.BatchSize {
		c.BatchSize = def.BatchSize
	}
	if c.Columns == nil {
		c.Columns = def.Columns
	}
	return c
}

// Option configures optional gateway collaborators.
type Option func(*Gateway)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithActivity sets the recorder notified of every remote read and write.
func WithActivity(rec ActivityRecorder) Option {
	return func(g *Gateway) { g.activity = rec }
}

// WithFallback sets the snapshot store used when the remote store is unreachable.
func WithFallback(snapshots repository.SnapshotRepository) Option {
	return func(g *Gateway) { g.fallback = snapshots }
}

// WithRateLimit bounds the remote request rate.
func WithRateLimit(limiter *rate.Limiter) Option {
	return func(g *Gateway) { g.limiter = limiter }
}

// WithClock overrides the cache clock.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.cache.now = now }
}

// WithSleeper overrides the backoff sleep.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(g *Gateway) { g.sleep = sleep }
}
