package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "INVPULSE"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Upload    UploadConfig    `yaml:"upload" envconfig:"UPLOAD"`
	Store     StoreConfig     `yaml:"store" envconfig:"STORE"`
	Ingest    IngestConfig    `yaml:"ingest" envconfig:"INGEST"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"2m"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"20"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"40"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/invpulse.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// UploadConfig limits what the upload endpoints accept
type UploadConfig struct {
	MaxBytes          int64    `yaml:"max_bytes" envconfig:"MAX_BYTES" default:"10485760"`
	AllowedExtensions []string `yaml:"allowed_extensions" envconfig:"ALLOWED_EXTENSIONS" default:".xlsx,.xls,.csv"`
	MaxDays           int      `yaml:"max_days" envconfig:"MAX_DAYS" default:"3660"`
	OwnerHeader       string   `yaml:"owner_header" envconfig:"OWNER_HEADER" default:"X-Owner-ID"`
}

// StoreConfig selects and tunes the persistence backend
type StoreConfig struct {
	Driver          string        `yaml:"driver" envconfig:"DRIVER" default:"memory"`
	DSN             string        `yaml:"dsn" envconfig:"DSN"`
	MaxConns        int32         `yaml:"max_conns" envconfig:"MAX_CONNS" default:"10"`
	MinConns        int32         `yaml:"min_conns" envconfig:"MIN_CONNS" default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" envconfig:"MAX_CONN_LIFETIME" default:"30m"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" envconfig:"MAX_CONN_IDLE_TIME" default:"5m"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout" envconfig:"CONNECT_TIMEOUT" default:"5s"`
}

// IngestConfig controls the watch-folder ingester
type IngestConfig struct {
	Enabled     bool          `yaml:"enabled" envconfig:"ENABLED" default:"false"`
	Dir         string        `yaml:"dir" envconfig:"DIR" default:"inbox"`
	OwnerID     string        `yaml:"owner_id" envconfig:"OWNER_ID"`
	Debounce    time.Duration `yaml:"debounce" envconfig:"DEBOUNCE" default:"750ms"`
	InitialScan bool          `yaml:"initial_scan" envconfig:"INITIAL_SCAN" default:"true"`
}

// TelemetryConfig controls tracing and metrics export
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME" default:"invpulse"`
	TraceExporter  string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"none"`
	MetricsEnabled bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED" default:"true"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"30s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
}

// Load reads an optional .env file, then environment variables, then an
// optional YAML file. Environment values win over the file unless they are
// still at their defaults.
func Load() (*Config, error) {
	if err := loadDotEnv(envOr(EnvPrefix+"_ENV_FILE", ".env")); err != nil {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile := getConfigFilePath(); configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	// Deployments carried over from the previous stack only set DATABASE_URL.
	if cfg.Store.DSN == "" {
		cfg.Store.DSN = os.Getenv("DATABASE_URL")
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// prefer returns env unless it still holds the default and the file set something.
func prefer[T comparable](env, file, def T) T {
	var zero T
	if env == def && file != zero {
		return file
	}
	return env
}

func preferSlice(env, file, def []string) []string {
	if slices.Equal(env, def) && len(file) > 0 {
		return file
	}
	return env
}

// mergeConfigs merges file config with env config (env takes precedence)
func mergeConfigs(fileConfig, envConfig Config) Config {
	d := Default()
	out := envConfig

	out.Server.Port = prefer(envConfig.Server.Port, fileConfig.Server.Port, d.Server.Port)
	out.Server.ReadTimeout = prefer(envConfig.Server.ReadTimeout, fileConfig.Server.ReadTimeout, d.Server.ReadTimeout)
	out.Server.WriteTimeout = prefer(envConfig.Server.WriteTimeout, fileConfig.Server.WriteTimeout, d.Server.WriteTimeout)
	out.Server.IdleTimeout = prefer(envConfig.Server.IdleTimeout, fileConfig.Server.IdleTimeout, d.Server.IdleTimeout)
	out.Server.ShutdownTimeout = prefer(envConfig.Server.ShutdownTimeout, fileConfig.Server.ShutdownTimeout, d.Server.ShutdownTimeout)
	out.Server.RequestTimeout = prefer(envConfig.Server.RequestTimeout, fileConfig.Server.RequestTimeout, d.Server.RequestTimeout)

	out.Security.AllowedOrigins = preferSlice(envConfig.Security.AllowedOrigins, fileConfig.Security.AllowedOrigins, d.Security.AllowedOrigins)
	out.Security.RateLimit.RPS = prefer(envConfig.Security.RateLimit.RPS, fileConfig.Security.RateLimit.RPS, d.Security.RateLimit.RPS)
	out.Security.RateLimit.Burst = prefer(envConfig.Security.RateLimit.Burst, fileConfig.Security.RateLimit.Burst, d.Security.RateLimit.Burst)

	out.Logging.Level = prefer(envConfig.Logging.Level, fileConfig.Logging.Level, d.Logging.Level)
	out.Logging.Format = prefer(envConfig.Logging.Format, fileConfig.Logging.Format, d.Logging.Format)
	out.Logging.Output = prefer(envConfig.Logging.Output, fileConfig.Logging.Output, d.Logging.Output)
	out.Logging.FilePath = prefer(envConfig.Logging.FilePath, fileConfig.Logging.FilePath, d.Logging.FilePath)

	out.Upload.MaxBytes = prefer(envConfig.Upload.MaxBytes, fileConfig.Upload.MaxBytes, d.Upload.MaxBytes)
	out.Upload.AllowedExtensions = preferSlice(envConfig.Upload.AllowedExtensions, fileConfig.Upload.AllowedExtensions, d.Upload.AllowedExtensions)
	out.Upload.MaxDays = prefer(envConfig.Upload.MaxDays, fileConfig.Upload.MaxDays, d.Upload.MaxDays)
	out.Upload.OwnerHeader = prefer(envConfig.Upload.OwnerHeader, fileConfig.Upload.OwnerHeader, d.Upload.OwnerHeader)

	out.Store.Driver = prefer(envConfig.Store.Driver, fileConfig.Store.Driver, d.Store.Driver)
	out.Store.DSN = prefer(envConfig.Store.DSN, fileConfig.Store.DSN, d.Store.DSN)
	out.Store.MaxConns = prefer(envConfig.Store.MaxConns, fileConfig.Store.MaxConns, d.Store.MaxConns)
	out.Store.MinConns = prefer(envConfig.Store.MinConns, fileConfig.Store.MinConns, d.Store.MinConns)

	out.Ingest.Dir = prefer(envConfig.Ingest.Dir, fileConfig.Ingest.Dir, d.Ingest.Dir)
	out.Ingest.OwnerID = prefer(envConfig.Ingest.OwnerID, fileConfig.Ingest.OwnerID, d.Ingest.OwnerID)
	out.Ingest.Debounce = prefer(envConfig.Ingest.Debounce, fileConfig.Ingest.Debounce, d.Ingest.Debounce)
	// Booleans that default to false can only be switched on from the file.
	out.Ingest.Enabled = envConfig.Ingest.Enabled || fileConfig.Ingest.Enabled
	out.Logging.Development = envConfig.Logging.Development || fileConfig.Logging.Development

	out.Telemetry.ServiceName = prefer(envConfig.Telemetry.ServiceName, fileConfig.Telemetry.ServiceName, d.Telemetry.ServiceName)
	out.Telemetry.TraceExporter = prefer(envConfig.Telemetry.TraceExporter, fileConfig.Telemetry.TraceExporter, d.Telemetry.TraceExporter)

	return out
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("unsupported log format: %s", c.Logging.Format)
	}

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		c.Logging.Output = "console"
	}

	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload max bytes must be positive")
	}

	if len(c.Upload.AllowedExtensions) == 0 {
		return fmt.Errorf("at least one upload extension must be allowed")
	}
	for i, ext := range c.Upload.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Upload.AllowedExtensions[i] = ext
	}

	if c.Upload.MaxDays < 1 {
		return fmt.Errorf("upload max days must be at least 1")
	}

	switch c.Store.Driver {
	case "memory":
	case "sqlite", "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store driver %s requires a DSN", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unsupported store driver: %s", c.Store.Driver)
	}

	if c.Ingest.Enabled {
		if c.Ingest.Dir == "" {
			return fmt.Errorf("ingest directory must be set when ingest is enabled")
		}
		if _, err := uuid.Parse(c.Ingest.OwnerID); err != nil {
			return fmt.Errorf("ingest owner id must be a UUID: %w", err)
		}
	}

	switch c.Telemetry.TraceExporter {
	case "none", "stdout":
	default:
		return fmt.Errorf("unsupported trace exporter: %s", c.Telemetry.TraceExporter)
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG"); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  2 * time.Minute,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   40,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/invpulse.log",
		},
		Upload: UploadConfig{
			MaxBytes:          10 << 20,
			AllowedExtensions: []string{".xlsx", ".xls", ".csv"},
			MaxDays:           3660,
			OwnerHeader:       "X-Owner-ID",
		},
		Store: StoreConfig{
			Driver:          "memory",
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			ConnectTimeout:  5 * time.Second,
		},
		Ingest: IngestConfig{
			Dir:         "inbox",
			Debounce:    750 * time.Millisecond,
			InitialScan: true,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "invpulse",
			TraceExporter:  "none",
			MetricsEnabled: true,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
	}
}
