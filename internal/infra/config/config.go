package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Grid     GridConfig     `yaml:"grid"`
	Upload   UploadConfig   `yaml:"upload"`
	Session  SessionConfig  `yaml:"session"`
	Storage  StorageConfig  `yaml:"storage"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	StaticDir      string          `yaml:"staticDir"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries for idempotent requests.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// CatalogConfig points at the heat zone reference data. Source is a file path or an http(s) URL.
type CatalogConfig struct {
	Source       string        `yaml:"source"`
	FetchTimeout time.Duration `yaml:"fetchTimeout"`
}

// GridConfig bounds heat grid generation.
type GridConfig struct {
	DefaultSize   int     `yaml:"defaultSize"`
	DefaultRadius float64 `yaml:"defaultRadius"`
	MaxSize       int     `yaml:"maxSize"`
	MaxRadius     float64 `yaml:"maxRadius"`
	Workers       int     `yaml:"workers"`
}

// UploadConfig limits building schematic uploads.
type UploadConfig struct {
	MaxFileBytes      int64    `yaml:"maxFileBytes"`
	MaxPixels         int      `yaml:"maxPixels"`
	AllowedExtensions []string `yaml:"allowedExtensions"`
}

// SessionConfig controls the signed session token and its backing store.
type SessionConfig struct {
	Secret     string        `yaml:"secret"`
	TTL        time.Duration `yaml:"ttl"`
	CookieName string        `yaml:"cookieName"`
	Secure     bool          `yaml:"secure"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig contains connection information for session storage.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// StorageConfig selects where uploaded schematics are kept.
type StorageConfig struct {
	R2 R2Config `yaml:"r2"`
}

// R2Config contains S3-compatible bucket settings. An empty endpoint keeps blobs in memory.
type R2Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// PostgresConfig contains DSN and pooling settings for result history.
type PostgresConfig struct {
	DSN        string `yaml:"dsn"`
	MaxConns   int32  `yaml:"maxConns"`
	MinConns   int32  `yaml:"minConns"`
	MaxResults int    `yaml:"maxResults"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	setString("HTTP_ADDRESS", &cfg.HTTP.Address)
	setDuration("HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout)
	setDuration("HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout)
	setList("HTTP_ALLOWED_ORIGINS", &cfg.HTTP.AllowedOrigins)
	setString("HTTP_STATIC_DIR", &cfg.HTTP.StaticDir)
	setBool("HTTP_RATE_LIMIT_ENABLED", &cfg.HTTP.RateLimit.Enabled)
	setInt("HTTP_RATE_LIMIT_RPM", &cfg.HTTP.RateLimit.RequestsPerMinute)
	setInt("HTTP_RATE_LIMIT_BURST", &cfg.HTTP.RateLimit.Burst)
	setBool("HTTP_RETRY_ENABLED", &cfg.HTTP.Retry.Enabled)
	setInt("HTTP_RETRY_MAX_ATTEMPTS", &cfg.HTTP.Retry.MaxAttempts)
	setDuration("HTTP_RETRY_BASE_BACKOFF", &cfg.HTTP.Retry.BaseBackoff)

	setString("CATALOG_SOURCE", &cfg.Catalog.Source)
	setDuration("CATALOG_FETCH_TIMEOUT", &cfg.Catalog.FetchTimeout)

	setInt("GRID_DEFAULT_SIZE", &cfg.Grid.DefaultSize)
	setFloat("GRID_DEFAULT_RADIUS", &cfg.Grid.DefaultRadius)
	setInt("GRID_MAX_SIZE", &cfg.Grid.MaxSize)
	setFloat("GRID_MAX_RADIUS", &cfg.Grid.MaxRadius)
	setInt("GRID_WORKERS", &cfg.Grid.Workers)

	if v := os.Getenv("UPLOAD_MAX_FILE_BYTES"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Upload.MaxFileBytes = parsed
		}
	}
	setInt("UPLOAD_MAX_PIXELS", &cfg.Upload.MaxPixels)
	setList("UPLOAD_ALLOWED_EXTENSIONS", &cfg.Upload.AllowedExtensions)

	setString("SESSION_SECRET", &cfg.Session.Secret)
	setDuration("SESSION_TTL", &cfg.Session.TTL)
	setString("SESSION_COOKIE_NAME", &cfg.Session.CookieName)
	setBool("SESSION_COOKIE_SECURE", &cfg.Session.Secure)
	setBool("SESSION_REDIS_ENABLED", &cfg.Session.Redis.Enabled)
	setString("SESSION_REDIS_ADDR", &cfg.Session.Redis.Addr)
	setString("SESSION_REDIS_PREFIX", &cfg.Session.Redis.Prefix)

	setString("R2_ENDPOINT", &cfg.Storage.R2.Endpoint)
	setString("R2_ACCESS_KEY", &cfg.Storage.R2.AccessKey)
	setString("R2_SECRET_KEY", &cfg.Storage.R2.SecretKey)
	setString("R2_BUCKET", &cfg.Storage.R2.Bucket)
	setString("R2_REGION", &cfg.Storage.R2.Region)

	setString("POSTGRES_DSN", &cfg.Postgres.DSN)
	if v := os.Getenv("POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MinConns = int32(parsed)
		}
	}
	setInt("RESULTS_MAX_ENTRIES", &cfg.Postgres.MaxResults)
}

func setString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "1" || strings.EqualFold(v, "true")
	}
}

func setInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = parsed
		}
	}
}

func setDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}

func setList(key string, dst *[]string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             30,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
				Exclude: []string{
					"/api/v1/uploads",
					"/api/v1/buildings/analyze",
				},
			},
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		},
		Catalog: CatalogConfig{
			Source:       "data/heat_zones.json",
			FetchTimeout: 10 * time.Second,
		},
		Grid: GridConfig{
			DefaultSize:   20,
			DefaultRadius: 0.05,
			MaxSize:       100,
			MaxRadius:     5,
			Workers:       0,
		},
		Upload: UploadConfig{
			MaxFileBytes:      16 << 20,
			MaxPixels:         40_000_000,
			AllowedExtensions: []string{"png", "jpg", "jpeg", "gif", "bmp"},
		},
		Session: SessionConfig{
			TTL:        24 * time.Hour,
			CookieName: "heat_session",
			Redis: RedisConfig{
				Prefix: "heat",
			},
		},
		Storage: StorageConfig{
			R2: R2Config{
				Bucket: "heat-schematics",
				Region: "auto",
			},
		},
		Postgres: PostgresConfig{
			MaxConns:   4,
			MaxResults: 1000,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if strings.TrimSpace(c.Catalog.Source) == "" {
		return errors.New("catalog.source cannot be empty")
	}
	if c.Grid.DefaultSize <= 0 {
		return errors.New("grid.defaultSize must be positive")
	}
	if c.Grid.DefaultRadius <= 0 {
		return errors.New("grid.defaultRadius must be positive")
	}
	if c.Grid.MaxSize < c.Grid.DefaultSize {
		return errors.New("grid.maxSize cannot be smaller than grid.defaultSize")
	}
	if c.Grid.MaxRadius < c.Grid.DefaultRadius {
		return errors.New("grid.maxRadius cannot be smaller than grid.defaultRadius")
	}
	if c.Grid.Workers < 0 {
		return errors.New("grid.workers cannot be negative")
	}
	if c.Upload.MaxFileBytes <= 0 {
		return errors.New("upload.maxFileBytes must be positive")
	}
	if c.Upload.MaxPixels < 0 {
		return errors.New("upload.maxPixels cannot be negative")
	}
	if len(c.Upload.AllowedExtensions) == 0 {
		return errors.New("upload.allowedExtensions cannot be empty")
	}
	if c.Session.TTL <= 0 {
		return errors.New("session.ttl must be positive")
	}
	if strings.TrimSpace(c.Session.CookieName) == "" {
		return errors.New("session.cookieName cannot be empty")
	}
	if c.Session.Redis.Enabled && strings.TrimSpace(c.Session.Redis.Addr) == "" {
		return errors.New("session.redis.addr cannot be empty when redis is enabled")
	}
	if c.Storage.R2.Endpoint != "" && strings.TrimSpace(c.Storage.R2.Bucket) == "" {
		return errors.New("storage.r2.bucket cannot be empty when an endpoint is set")
	}
	if c.Postgres.MaxConns < 0 || c.Postgres.MinConns < 0 {
		return errors.New("postgres connection limits cannot be negative")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	return nil
}
