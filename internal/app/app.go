// Package app assembles the placement desk from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ganot/placement-desk/internal/config"
	"github.com/ganot/placement-desk/internal/domain/activity"
	"github.com/ganot/placement-desk/internal/domain/company"
	"github.com/ganot/placement-desk/internal/domain/distribution"
	"github.com/ganot/placement-desk/internal/domain/placement"
	"github.com/ganot/placement-desk/internal/domain/student"
	"github.com/ganot/placement-desk/internal/gateway"
	"github.com/ganot/placement-desk/internal/mcp"
	"github.com/ganot/placement-desk/internal/sheets"
	"github.com/ganot/placement-desk/internal/sqlite"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
)

// ErrRemoteProvision is returned when asked to create a tab in a remote
// spreadsheet. Tabs there are created by the spreadsheet owner.
var ErrRemoteProvision = errors.New("sheet tabs must be created in the remote spreadsheet")

// App holds the wired services.
type App struct {
	Config       config.Config
	Logger       *slog.Logger
	DB           *sqlite.DB
	Local        *sqlite.SheetTable
	Gateway      *gateway.Gateway
	Activity     *activity.Service
	Students     *student.Service
	Companies    *company.Service
	Placements   *placement.Service
	Distribution *distribution.Service
	Handler      *mcp.Handler
	APIKeys      *sqlite.APIKeyRepository
}

// Build opens the database, selects the sheet backend and wires every
// service. Callers must Close the result.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := EnsureDBDir(cfg.DB.Path); err != nil {
		return nil, fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger, DB: db, APIKeys: sqlite.NewAPIKeyRepository(db)}

	table, err := a.table(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	a.Activity = activity.NewService(sqlite.NewActivityRepository(db), logger)

	opts := []gateway.Option{
		gateway.WithLogger(logger),
		gateway.WithActivity(a.Activity),
	}
	if cfg.Gateway.SnapshotFallback {
		opts = append(opts, gateway.WithFallback(sqlite.NewSnapshotRepository(db)))
	}
	if cfg.Gateway.RequestsPerSecond > 0 {
		opts = append(opts, gateway.WithRateLimit(rate.NewLimiter(rate.Limit(cfg.Gateway.RequestsPerSecond), max(cfg.Gateway.Burst, 1))))
	}
	gwCfg := gateway.DefaultConfig()
	gwCfg.CacheTTL = cfg.Gateway.CacheTTL
	gwCfg.MaxAttempts = cfg.Gateway.MaxAttempts
	gwCfg.RetryBaseDelay = cfg.Gateway.RetryBaseDelay
	gwCfg.CallTimeout = cfg.Gateway.CallTimeout
	gwCfg.BatchSize = cfg.Gateway.BatchSize
	a.Gateway = gateway.New(table, gwCfg, opts...)

	a.Students = student.NewService(a.Gateway, a.Activity, logger)
	a.Companies = company.NewService(a.Gateway, a.Activity, logger)
	a.Placements = placement.NewService(a.Gateway, a.Students, a.Companies, a.Activity, logger)
	a.Distribution = distribution.NewService(a.Gateway, a.Students, a.Companies, a.Activity, distribution.Config{
		Pacing:       cfg.Distribution.Pacing,
		ReviewStatus: cfg.Distribution.ReviewStatus,
		ChunkSize:    cfg.Gateway.BatchSize,
	}, logger)

	a.Handler = mcp.NewHandler(mcp.Services{
		Students:     a.Students,
		Companies:    a.Companies,
		Placements:   a.Placements,
		Distribution: a.Distribution,
		Activity:     a.Activity,
		Gateway:      a.Gateway,
	})
	return a, nil
}

func (a *App) table(ctx context.Context) (gateway.Table, error) {
	if a.Config.Store.Backend == config.BackendSheets {
		var opts []option.ClientOption
		if a.Config.Store.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(a.Config.Store.CredentialsFile))
		}
		client, err := sheets.New(ctx, a.Config.Store.SpreadsheetID, a.Logger, opts...)
		if err != nil {
			return nil, fmt.Errorf("connect to spreadsheet: %w", err)
		}
		a.Logger.Info("using remote spreadsheet", "spreadsheet_id", a.Config.Store.SpreadsheetID)
		return client, nil
	}

	a.Local = sqlite.NewSheetTable(a.DB)
	for sheet, header := range map[string][]string{
		student.Sheet:   student.Columns,
		company.Sheet:   company.Columns,
		placement.Sheet: placement.Columns,
	} {
		if err := a.Local.Provision(ctx, sheet, header); err != nil {
			return nil, err
		}
	}
	a.Logger.Info("using local sheet store", "db_path", a.Config.DB.Path)
	return a.Local, nil
}

// CompanySheetHeader is the header row of a company's distribution sheet.
func CompanySheetHeader() []string {
	return append(append([]string{}, student.Columns...), "Date Sent", "Review Status")
}

// ProvisionCompanySheet creates the distribution sheet for companyID on the
// local backend.
func (a *App) ProvisionCompanySheet(ctx context.Context, companyID string) error {
	if a.Local == nil {
		return ErrRemoteProvision
	}
	return a.Local.Provision(ctx, companyID, CompanySheetHeader())
}

// ResolveOperator implements bearer token lookup for both transports.
func (a *App) ResolveOperator(ctx context.Context, token string) (string, error) {
	return a.APIKeys.Resolve(ctx, token)
}

// Close releases the database.
func (a *App) Close() error {
	return a.DB.Close()
}

// EnsureDBDir creates the parent directory of a file database.
func EnsureDBDir(path string) error {
	if path == "" || path == ":memory:" || filepath.Base(path) == path {
		return nil
	}
	if strings.HasPrefix(path, "file:") {
		return nil
	}
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
