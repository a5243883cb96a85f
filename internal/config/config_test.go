package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points Load at an empty directory so stray config files and .env
// files in the package directory are never picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("DATABASE_URL", "")
	t.Setenv(EnvPrefix+"_CONFIG", "")
	t.Setenv(EnvPrefix+"_ENV_FILE", "")
	return dir
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     string
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, []string{"http://localhost:3000"}, cfg.Security.AllowedOrigins)
				assert.Equal(t, int64(10<<20), cfg.Upload.MaxBytes)
				assert.Equal(t, []string{".xlsx", ".xls", ".csv"}, cfg.Upload.AllowedExtensions)
				assert.Equal(t, "X-Owner-ID", cfg.Upload.OwnerHeader)
				assert.Equal(t, "memory", cfg.Store.Driver)
				assert.False(t, cfg.Ingest.Enabled)
				assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
			},
		},
		{
			name: "environment overrides",
			env: map[string]string{
				"INVPULSE_SERVER_PORT":               "9090",
				"INVPULSE_SECURITY_ALLOWED_ORIGINS":  "http://a.example,http://b.example",
				"INVPULSE_UPLOAD_ALLOWED_EXTENSIONS": "XLSX, .csv",
				"INVPULSE_STORE_DRIVER":              "sqlite",
				"INVPULSE_STORE_DSN":                 "file:inv.db",
				"INVPULSE_LOGGING_FORMAT":            "text",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Security.AllowedOrigins)
				assert.Equal(t, []string{".xlsx", ".csv"}, cfg.Upload.AllowedExtensions)
				assert.Equal(t, "sqlite", cfg.Store.Driver)
				assert.Equal(t, "file:inv.db", cfg.Store.DSN)
				assert.Equal(t, "text", cfg.Logging.Format)
			},
		},
		{
			name: "database url fallback",
			env: map[string]string{
				"INVPULSE_STORE_DRIVER": "postgres",
				"DATABASE_URL":          "postgres://localhost/inventory",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "postgres://localhost/inventory", cfg.Store.DSN)
			},
		},
		{
			name: "yaml file fills defaults",
			file: "server:\n  port: 7070\nstore:\n  driver: sqlite\n  dsn: inv.db\ningest:\n  enabled: true\n  owner_id: 6ba7b810-9dad-11d1-80b4-00c04fd430c8\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, "sqlite", cfg.Store.Driver)
				assert.True(t, cfg.Ingest.Enabled)
				assert.Equal(t, "inbox", cfg.Ingest.Dir)
			},
		},
		{
			name: "environment beats yaml file",
			env:  map[string]string{"INVPULSE_SERVER_PORT": "9191"},
			file: "server:\n  port: 7070\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9191, cfg.Server.Port)
			},
		},
		{
			name:    "invalid port",
			env:     map[string]string{"INVPULSE_SERVER_PORT": "99999"},
			wantErr: "invalid server port",
		},
		{
			name:    "postgres without dsn",
			env:     map[string]string{"INVPULSE_STORE_DRIVER": "postgres"},
			wantErr: "requires a DSN",
		},
		{
			name:    "unknown driver",
			env:     map[string]string{"INVPULSE_STORE_DRIVER": "mongo"},
			wantErr: "unsupported store driver",
		},
		{
			name: "ingest owner must be uuid",
			env: map[string]string{
				"INVPULSE_INGEST_ENABLED":  "true",
				"INVPULSE_INGEST_OWNER_ID": "alice",
			},
			wantErr: "must be a UUID",
		},
		{
			name:    "unknown trace exporter",
			env:     map[string]string{"INVPULSE_TELEMETRY_TRACE_EXPORTER": "jaeger"},
			wantErr: "unsupported trace exporter",
		},
		{
			name:    "malformed env value",
			env:     map[string]string{"INVPULSE_SERVER_PORT": "eighty"},
			wantErr: "failed to load config from env",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if tt.file != "" {
				path := filepath.Join(dir, "config.yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.file), 0o600))
			}

			cfg, err := Load()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := isolate(t)
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("INVPULSE_SERVER_PORT=6060\n"), 0o600))
	t.Setenv(EnvPrefix+"_ENV_FILE", envFile)
	// Registered so t.Setenv restores the variable godotenv is about to set.
	t.Setenv("INVPULSE_SERVER_PORT", "")
	require.NoError(t, os.Unsetenv("INVPULSE_SERVER_PORT"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 6060, cfg.Server.Port)
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.validate())
	assert.Equal(t, 10, int(cfg.Store.MaxConns))
}
