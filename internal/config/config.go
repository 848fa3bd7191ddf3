// Package config loads and validates application configuration.
// Environment variables always win; an optional YAML file named by
// CONFIG_FILE supplies values the environment leaves unset.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverS3       = "s3"
)

// Config holds all configuration values for the API server.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// Env names the deployment environment. Defaults to "development".
	Env string

	// LogLevel controls the minimum log level: debug, info, warn, error.
	// Defaults to debug in development-like environments and warn otherwise.
	LogLevel string

	// LogFormat is "json" (default) or "text".
	LogFormat string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64

	// StorageDriver selects the item store: memory, sqlite, postgres, redis, s3.
	StorageDriver string
	SQLitePath    string
	DatabaseURL   string
	RedisURL      string
	RedisPrefix   string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3Prefix    string
	S3PathStyle bool

	// S3AccessKeyID and S3SecretAccessKey are static credentials. Set both
	// or neither; when unset the default AWS credentials chain applies.
	S3AccessKeyID     string
	S3SecretAccessKey string

	// UpstreamURL is the static-asset origin fronted by the offline cache.
	// Empty disables the offline cache.
	UpstreamURL string
	CacheSize   int

	// TimeZone buckets pins by local calendar date. Defaults to "Local".
	TimeZone string

	TracingEnabled  bool
	TracingExporter string
	OTLPEndpoint    string
}

// Load reads configuration from environment variables, overlaid on the YAML
// file named by CONFIG_FILE when set. Returns an error listing every problem.
func Load() (Config, error) {
	k := koanf.New(".")
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config.Load: read %s: %w", path, err)
		}
	}
	src := source{k: k}

	cfg := Config{
		Port:              src.str("PORT", "port", "8080"),
		Env:               src.str("ENV", "env", "development"),
		LogFormat:         src.str("LOG_FORMAT", "log_format", "json"),
		CORSOrigins:       splitCSV(src.str("CORS_ORIGINS", "cors_origins", "http://localhost:5173")),
		StorageDriver:     strings.ToLower(src.str("STORAGE_DRIVER", "storage.driver", DriverMemory)),
		SQLitePath:        src.str("SQLITE_PATH", "storage.sqlite_path", "pinlog.db"),
		DatabaseURL:       src.str("DATABASE_URL", "storage.database_url", ""),
		RedisURL:          src.str("REDIS_URL", "storage.redis_url", ""),
		RedisPrefix:       src.str("REDIS_PREFIX", "storage.redis_prefix", "pinlog:"),
		S3Bucket:          src.str("S3_BUCKET", "storage.s3.bucket", ""),
		S3Region:          src.str("S3_REGION", "storage.s3.region", "us-east-1"),
		S3Endpoint:        src.str("S3_ENDPOINT", "storage.s3.endpoint", ""),
		S3Prefix:          src.str("S3_PREFIX", "storage.s3.prefix", ""),
		S3AccessKeyID:     src.str("S3_ACCESS_KEY_ID", "storage.s3.access_key_id", ""),
		S3SecretAccessKey: src.str("S3_SECRET_ACCESS_KEY", "storage.s3.secret_access_key", ""),
		UpstreamURL:       src.str("UPSTREAM_URL", "offline.upstream_url", ""),
		TimeZone:          src.str("TIME_ZONE", "time_zone", "Local"),
		TracingExporter:   src.str("TRACING_EXPORTER", "tracing.exporter", "otlp-http"),
		OTLPEndpoint:      src.str("OTEL_EXPORTER_OTLP_ENDPOINT", "tracing.endpoint", ""),
	}
	cfg.LogLevel = src.str("LOG_LEVEL", "log_level", defaultLogLevel(cfg.Env))

	var problems []string
	var err error
	if cfg.MaxBodyBytes, err = src.integer("MAX_BODY_BYTES", "max_body_bytes", 1<<20); err != nil {
		problems = append(problems, err.Error())
	}
	var cacheSize int64
	if cacheSize, err = src.integer("CACHE_SIZE", "offline.cache_size", 256); err != nil {
		problems = append(problems, err.Error())
	}
	cfg.CacheSize = int(cacheSize)
	if cfg.S3PathStyle, err = src.boolean("S3_PATH_STYLE", "storage.s3.path_style", false); err != nil {
		problems = append(problems, err.Error())
	}
	if cfg.TracingEnabled, err = src.boolean("TRACING_ENABLED", "tracing.enabled", false); err != nil {
		problems = append(problems, err.Error())
	}

	problems = append(problems, cfg.validate()...)
	if len(problems) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return cfg, nil
}

// validate reports driver-specific required values and malformed settings.
func (c Config) validate() []string {
	var missing, problems []string
	switch c.StorageDriver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case DriverRedis:
		if c.RedisURL == "" {
			missing = append(missing, "REDIS_URL")
		}
	case DriverS3:
		if c.S3Bucket == "" {
			missing = append(missing, "S3_BUCKET")
		}
		if (c.S3AccessKeyID == "") != (c.S3SecretAccessKey == "") {
			problems = append(problems, "S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set together")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}
	if len(missing) > 0 {
		problems = append(problems, "required environment variables not set: "+strings.Join(missing, ", "))
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		problems = append(problems, fmt.Sprintf("LOG_FORMAT must be json or text, got %q", c.LogFormat))
	}
	if c.MaxBodyBytes <= 0 {
		problems = append(problems, "MAX_BODY_BYTES must be positive")
	}
	if _, err := c.Location(); err != nil {
		problems = append(problems, fmt.Sprintf("TIME_ZONE: %v", err))
	}
	return problems
}

// Location resolves TimeZone.
func (c Config) Location() (*time.Location, error) {
	if c.TimeZone == "" || c.TimeZone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.TimeZone)
}

// IsDevelopment reports whether Env names a development-like environment.
func (c Config) IsDevelopment() bool {
	return isDevelopment(c.Env)
}

func isDevelopment(env string) bool {
	switch strings.ToLower(env) {
	case "development", "dev", "local", "localhost":
		return true
	}
	return false
}

func defaultLogLevel(env string) string {
	if isDevelopment(env) {
		return "debug"
	}
	return "warn"
}

// source resolves a setting from the environment, then the file, then a default.
type source struct {
	k *koanf.Koanf
}

func (s source) str(envKey, fileKey, fallback string) string {
	return getEnv(envKey, getFile(s.k, fileKey, fallback))
}

func (s source) integer(envKey, fileKey string, fallback int64) (int64, error) {
	raw := s.str(envKey, fileKey, "")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: not an integer: %q", envKey, raw)
	}
	return n, nil
}

func (s source) boolean(envKey, fileKey string, fallback bool) (bool, error) {
	raw := s.str(envKey, fileKey, "")
	if raw == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: not a boolean: %q", envKey, raw)
	}
	return b, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getFile returns the file value at key rendered as a string, or fallback.
func getFile(k *koanf.Koanf, key, fallback string) string {
	if !k.Exists(key) {
		return fallback
	}
	if v := k.Get(key); v != nil {
		if list, ok := v.([]any); ok {
			parts := make([]string, len(list))
			for i, p := range list {
				parts[i] = fmt.Sprint(p)
			}
			return strings.Join(parts, ",")
		}
		return fmt.Sprint(v)
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
