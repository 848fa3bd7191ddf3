package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shumpiss/pinlog/internal/config"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_FILE", "PORT", "ENV", "LOG_LEVEL", "LOG_FORMAT", "CORS_ORIGINS", "MAX_BODY_BYTES",
		"STORAGE_DRIVER", "SQLITE_PATH", "DATABASE_URL", "REDIS_URL", "REDIS_PREFIX",
		"S3_BUCKET", "S3_REGION", "S3_ENDPOINT", "S3_PREFIX", "S3_PATH_STYLE",
		"S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY",
		"UPSTREAM_URL", "CACHE_SIZE", "TIME_ZONE", "TRACING_ENABLED", "TRACING_EXPORTER",
		"OTEL_EXPORTER_OTLP_ENDPOINT",
	} {
		t.Setenv(k, "")
	}
}

// TestLoad_defaults verifies that every optional value falls back to its default.
func TestLoad_defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()

	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "development", cfg.Env)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
	require.Equal(t, int64(1<<20), cfg.MaxBodyBytes)
	require.Equal(t, config.DriverMemory, cfg.StorageDriver)
	require.Equal(t, 256, cfg.CacheSize)
	require.False(t, cfg.TracingEnabled)
	require.True(t, cfg.IsDevelopment())
}

// TestLoad_overrides verifies that values can be overridden via env vars.
func TestLoad_overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("CORS_ORIGINS", "https://app.example.com, https://admin.example.com")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://user:pass@db:5432/mydb")
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("TIME_ZONE", "UTC")

	cfg, err := config.Load()

	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, "warn", cfg.LogLevel, "non-development env defaults to warn")
	require.Equal(t, "postgres://user:pass@db:5432/mydb", cfg.DatabaseURL)
	require.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.CORSOrigins)
	require.True(t, cfg.TracingEnabled)
	loc, err := cfg.Location()
	require.NoError(t, err)
	require.Equal(t, time.UTC, loc)
}

// TestLoad_missingRequired verifies that driver-specific values are required and
// that the error names the missing variable.
func TestLoad_missingRequired(t *testing.T) {
	tests := map[string]string{
		"postgres": "DATABASE_URL",
		"redis":    "REDIS_URL",
		"s3":       "S3_BUCKET",
	}
	for driver, want := range tests {
		t.Run(driver, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("STORAGE_DRIVER", driver)

			_, err := config.Load()

			require.Error(t, err)
			require.ErrorContains(t, err, want)
		})
	}
}

func TestLoad_s3Credentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_DRIVER", "s3")
	t.Setenv("S3_BUCKET", "pinlog")
	t.Setenv("S3_ENDPOINT", "http://minio:9000")
	t.Setenv("S3_PATH_STYLE", "true")
	t.Setenv("S3_ACCESS_KEY_ID", "minioadmin")
	t.Setenv("S3_SECRET_ACCESS_KEY", "minioadmin-secret")

	cfg, err := config.Load()

	require.NoError(t, err)
	require.Equal(t, "minioadmin", cfg.S3AccessKeyID)
	require.Equal(t, "minioadmin-secret", cfg.S3SecretAccessKey)
	require.True(t, cfg.S3PathStyle)
}

func TestLoad_s3CredentialsMustBePaired(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_DRIVER", "s3")
	t.Setenv("S3_BUCKET", "pinlog")
	t.Setenv("S3_ACCESS_KEY_ID", "minioadmin")

	_, err := config.Load()

	require.ErrorContains(t, err, "S3_SECRET_ACCESS_KEY")
}

func TestLoad_invalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_DRIVER", "floppy")
	t.Setenv("MAX_BODY_BYTES", "lots")
	t.Setenv("TRACING_ENABLED", "maybe")

	_, err := config.Load()

	require.ErrorContains(t, err, "floppy")
	require.ErrorContains(t, err, "MAX_BODY_BYTES")
	require.ErrorContains(t, err, "TRACING_ENABLED")
}

// TestLoad_file verifies that the YAML file fills gaps and the environment wins.
func TestLoad_file(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "pinlog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "7000"
env: production
cors_origins:
  - https://a.example.com
  - https://b.example.com
storage:
  driver: redis
  redis_url: redis://cache:6379/0
offline:
  upstream_url: http://frontend:3000
  cache_size: 64
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7001")

	cfg, err := config.Load()

	require.NoError(t, err)
	require.Equal(t, "7001", cfg.Port)
	require.Equal(t, "production", cfg.Env)
	require.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
	require.Equal(t, config.DriverRedis, cfg.StorageDriver)
	require.Equal(t, "redis://cache:6379/0", cfg.RedisURL)
	require.Equal(t, "http://frontend:3000", cfg.UpstreamURL)
	require.Equal(t, 64, cfg.CacheSize)
}

func TestLoad_missingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := config.Load()

	require.Error(t, err)
}
