package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendSheets = "sheets"
	BackendLocal  = "local"
)

// Transport modes.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// Config defines server configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Transport    TransportConfig    `yaml:"transport"`
	Auth         AuthConfig         `yaml:"auth"`
	DB           DBConfig           `yaml:"db"`
	Log          LogConfig          `yaml:"log"`
	Store        StoreConfig        `yaml:"store"`
	Gateway      GatewayConfig      `yaml:"gateway"`
	Distribution DistributionConfig `yaml:"distribution"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"`
}

type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// StoreConfig selects where sheet rows live. The local backend keeps them in
// the sqlite database.
type StoreConfig struct {
	Backend         string `yaml:"backend"`
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

type GatewayConfig struct {
	CacheTTL          time.Duration `yaml:"cache_ttl"`
	MaxAttempts       int           `yaml:"max_attempts"`
	RetryBaseDelay    time.Duration `yaml:"retry_base_delay"`
	CallTimeout       time.Duration `yaml:"call_timeout"`
	BatchSize         int           `yaml:"batch_size"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	SnapshotFallback  bool          `yaml:"snapshot_fallback"`
}

type DistributionConfig struct {
	Pacing       time.Duration `yaml:"pacing"`
	ReviewStatus string        `yaml:"review_status"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: TransportHTTP,
		},
		Auth: AuthConfig{
			Enabled: true,
		},
		DB: DBConfig{
			Path: "placement.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Store: StoreConfig{
			Backend: BackendLocal,
		},
		Gateway: GatewayConfig{
			CacheTTL:          5 * time.Minute,
			MaxAttempts:       3,
			RetryBaseDelay:    time.Second,
			CallTimeout:       30 * time.Second,
			BatchSize:         100,
			RequestsPerSecond: 1,
			Burst:             5,
			SnapshotFallback:  true,
		},
		Distribution: DistributionConfig{
			Pacing:       200 * time.Millisecond,
			ReviewStatus: "Pending Review",
		},
	}
}

// Load reads configuration from defaults, an optional YAML file, an optional
// .env file and PLACEMENT_* environment variables, in that order of
// precedence (later wins).
func Load() (Config, error) {
	envFile := os.Getenv("PLACEMENT_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("PLACEMENT_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	switch c.Transport.Mode {
	case TransportHTTP, TransportStdio:
	default:
		return fmt.Errorf("invalid transport mode %q: want %s or %s", c.Transport.Mode, TransportHTTP, TransportStdio)
	}
	switch c.Store.Backend {
	case BackendLocal:
	case BackendSheets:
		if c.Store.SpreadsheetID == "" {
			return errors.New("store backend sheets needs a spreadsheet id (PLACEMENT_SPREADSHEET_ID)")
		}
	default:
		return fmt.Errorf("invalid store backend %q: want %s or %s", c.Store.Backend, BackendSheets, BackendLocal)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Gateway.BatchSize > 100 {
		return fmt.Errorf("gateway batch size %d exceeds 100", c.Gateway.BatchSize)
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	e := envReader{}

	e.setString("PLACEMENT_SERVER_HOST", &cfg.Server.Host)
	e.setInt("PLACEMENT_SERVER_PORT", &cfg.Server.Port)
	e.setString("PLACEMENT_TRANSPORT", &cfg.Transport.Mode)
	e.setBool("PLACEMENT_AUTH_ENABLED", &cfg.Auth.Enabled)
	e.setString("PLACEMENT_DB_PATH", &cfg.DB.Path)
	e.setString("PLACEMENT_LOG_LEVEL", &cfg.Log.Level)
	e.setString("PLACEMENT_LOG_PATH", &cfg.Log.Path)

	e.setString("PLACEMENT_STORE_BACKEND", &cfg.Store.Backend)
	e.setString("PLACEMENT_SPREADSHEET_ID", &cfg.Store.SpreadsheetID)
	e.setString("PLACEMENT_CREDENTIALS_FILE", &cfg.Store.CredentialsFile)

	e.setDuration("PLACEMENT_CACHE_TTL", &cfg.Gateway.CacheTTL)
	e.setInt("PLACEMENT_MAX_ATTEMPTS", &cfg.Gateway.MaxAttempts)
	e.setDuration("PLACEMENT_RETRY_BASE_DELAY", &cfg.Gateway.RetryBaseDelay)
	e.setDuration("PLACEMENT_CALL_TIMEOUT", &cfg.Gateway.CallTimeout)
	e.setInt("PLACEMENT_BATCH_SIZE", &cfg.Gateway.BatchSize)
	e.setFloat("PLACEMENT_REQUESTS_PER_SECOND", &cfg.Gateway.RequestsPerSecond)
	e.setInt("PLACEMENT_BURST", &cfg.Gateway.Burst)
	e.setBool("PLACEMENT_SNAPSHOT_FALLBACK", &cfg.Gateway.SnapshotFallback)

	e.setDuration("PLACEMENT_DISTRIBUTION_PACING", &cfg.Distribution.Pacing)
	e.setString("PLACEMENT_REVIEW_STATUS", &cfg.Distribution.ReviewStatus)

	cfg.Transport.Mode = strings.ToLower(cfg.Transport.Mode)
	cfg.Store.Backend = strings.ToLower(cfg.Store.Backend)
	return e.err
}

// envReader applies set variables and keeps the first parse error.
type envReader struct {
	err error
}

func (e *envReader) lookup(key string) (string, bool) {
	if e.err != nil {
		return "", false
	}
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (e *envReader) setString(key string, dst *string) {
	if v, ok := e.lookup(key); ok {
		*dst = v
	}
}

func (e *envReader) setInt(key string, dst *int) {
	if v, ok := e.lookup(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.err = fmt.Errorf("invalid %s: %w", key, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) setFloat(key string, dst *float64) {
	if v, ok := e.lookup(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.err = fmt.Errorf("invalid %s: %w", key, err)
			return
		}
		*dst = f
	}
}

func (e *envReader) setBool(key string, dst *bool) {
	if v, ok := e.lookup(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.err = fmt.Errorf("invalid %s: %w", key, err)
			return
		}
		*dst = b
	}
}

func (e *envReader) setDuration(key string, dst *time.Duration) {
	if v, ok := e.lookup(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.err = fmt.Errorf("invalid %s: %w", key, err)
			return
		}
		*dst = d
	}
}
