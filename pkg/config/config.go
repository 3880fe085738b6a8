package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultConfigPath is the YAML file read by Load when it exists.
const DefaultConfigPath = "config.yaml"

// Config holds all configuration for ekaya-ingest.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"3450"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Logging configuration
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"json"` // json or console

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Redis response cache (optional - empty host disables caching)
	Redis RedisConfig `yaml:"redis"`

	// Upstream source endpoints
	Sources SourcesConfig `yaml:"sources"`

	// Résumé extraction policy
	Resume ResumeConfig `yaml:"resume"`

	// Ingestion orchestration
	Ingestion IngestionConfig `yaml:"ingestion"`

	// Downstream processing service (embedding trigger)
	Processing ProcessingConfig `yaml:"processing"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"ekaya"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"ekaya_ingest"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// RedisConfig holds Redis connection settings for the source response cache.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	// TTLSeconds is how long cached source responses stay valid.
	TTLSeconds int `yaml:"ttl_seconds" env:"REDIS_TTL_SECONDS" env-default:"600"`
}

// TTL returns the cache TTL as a duration.
func (c *RedisConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// SourcesConfig holds upstream API endpoints and per-call limits.
type SourcesConfig struct {
	GitHubGraphQLURL  string `yaml:"github_graphql_url" env:"GITHUB_GRAPHQL_URL" env-default:"https://api.github.com/graphql"`
	GitHubRESTURL     string `yaml:"github_rest_url" env:"GITHUB_REST_URL" env-default:"https://api.github.com"`
	LeetCodeURL       string `yaml:"leetcode_graphql_url" env:"LEETCODE_GRAPHQL_URL" env-default:"https://leetcode.com/graphql"`
	LinkedInJobsURL   string `yaml:"linkedin_jobs_url" env:"LINKEDIN_JOBS_URL" env-default:"https://www.linkedin.com/jobs/view"`
	LinkedInUserAgent string `yaml:"linkedin_user_agent" env:"LINKEDIN_USER_AGENT" env-default:"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"`
	// CallTimeoutSeconds bounds every individual outbound call.
	CallTimeoutSeconds int `yaml:"call_timeout_seconds" env:"SOURCE_CALL_TIMEOUT_SECONDS" env-default:"15"`
	// ReadmeConcurrency bounds parallel README fetches per GitHub ingestion.
	ReadmeConcurrency int `yaml:"readme_concurrency" env:"GITHUB_README_CONCURRENCY" env-default:"4"`
}

// CallTimeout returns the per-call timeout as a duration.
func (c *SourcesConfig) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSeconds) * time.Second
}

// ResumeConfig holds résumé extraction policy.
type ResumeConfig struct {
	WordCap        int   `yaml:"word_cap" env:"RESUME_WORD_CAP" env-default:"3000"`
	MaxUploadBytes int64 `yaml:"max_upload_bytes" env:"RESUME_MAX_UPLOAD_BYTES" env-default:"10485760"`
}

// IngestionConfig controls how per-source runs are orchestrated.
type IngestionConfig struct {
	// SourceTimeoutSeconds bounds a whole per-source run inside IngestAll.
	SourceTimeoutSeconds int `yaml:"source_timeout_seconds" env:"INGESTION_SOURCE_TIMEOUT_SECONDS" env-default:"120"`
	// ParallelComposite runs IngestAll branches concurrently when true.
	ParallelComposite bool `yaml:"parallel_composite" env:"INGESTION_PARALLEL_COMPOSITE" env-default:"true"`
}

// SourceTimeout returns the per-source timeout as a duration.
func (c *IngestionConfig) SourceTimeout() time.Duration {
	return time.Duration(c.SourceTimeoutSeconds) * time.Second
}

// ProcessingConfig holds the downstream processing service settings.
type ProcessingConfig struct {
	// BaseURL of the processing service. Empty disables the embedding trigger.
	BaseURL        string `yaml:"base_url" env:"PROCESSING_BASE_URL" env-default:""`
	TimeoutSeconds int    `yaml:"timeout_seconds" env:"PROCESSING_TIMEOUT_SECONDS" env-default:"30"`
}

// Timeout returns the processing call deadline as a duration.
func (c *ProcessingConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Load reads configuration from config.yaml (when present) with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	return LoadFrom(DefaultConfigPath, version)
}

// LoadFrom reads configuration from the given YAML path with environment overrides.
// A missing file is not an error; environment variables and defaults are used instead.
func LoadFrom(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validate rejects settings the ingestion pipeline cannot run with.
func (c *Config) validate() error {
	if c.Resume.WordCap <= 0 {
		return fmt.Errorf("resume.word_cap must be positive, got %d", c.Resume.WordCap)
	}
	if c.Resume.MaxUploadBytes <= 0 {
		return fmt.Errorf("resume.max_upload_bytes must be positive, got %d", c.Resume.MaxUploadBytes)
	}
	if c.Sources.CallTimeoutSeconds <= 0 {
		return fmt.Errorf("sources.call_timeout_seconds must be positive, got %d", c.Sources.CallTimeoutSeconds)
	}
	if c.Sources.ReadmeConcurrency <= 0 {
		return fmt.Errorf("sources.readme_concurrency must be positive, got %d", c.Sources.ReadmeConcurrency)
	}
	if c.Ingestion.SourceTimeoutSeconds <= 0 {
		return fmt.Errorf("ingestion.source_timeout_seconds must be positive, got %d", c.Ingestion.SourceTimeoutSeconds)
	}
	if c.Processing.TimeoutSeconds <= 0 {
		return fmt.Errorf("processing.timeout_seconds must be positive, got %d", c.Processing.TimeoutSeconds)
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// URL returns the PostgreSQL connection URL used by golang-migrate.
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}
