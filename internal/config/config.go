package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Storage  StorageConfig  `yaml:"storage" envconfig:"STORAGE"`
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RateLimitRPS    float64       `yaml:"rate_limit_rps" envconfig:"RATE_LIMIT_RPS" default:"50"`
	RateLimitBurst  int           `yaml:"rate_limit_burst" envconfig:"RATE_LIMIT_BURST" default:"25"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// StorageConfig contains the SQLite-backed store configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path" envconfig:"DATABASE_PATH" default:"data/cwhub.db"`
	RosterPath   string `yaml:"roster_path" envconfig:"ROSTER_PATH" default:"data/roster.csv"`
}

// PipelineConfig contains the ingestion and classification knobs.
// The limits are enforced before parsing; a violating upload is rejected
// whole with no partial commit.
type PipelineConfig struct {
	MaxUploadBytes    int64   `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`
	MaxRows           int     `yaml:"max_rows" envconfig:"MAX_ROWS" default:"10000"`
	MinQualifyHours   float64 `yaml:"min_qualify_hours" envconfig:"MIN_QUALIFY_HOURS" default:"4"`
	SkippedPreviewCap int     `yaml:"skipped_preview_cap" envconfig:"SKIPPED_PREVIEW_CAP" default:"10"`
	TrendMetric       string  `yaml:"trend_metric" envconfig:"TREND_METRIC" default:"sales_per_hour"`
}

// Load loads configuration from .env, environment variables, and an optional
// config file. Environment variables take precedence over the file.
func Load() (*Config, error) {
	// Best effort: a missing .env is the normal production case.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("CWHUB", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if path := configFilePath(); path != "" {
		fileCfg, err := loadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = merge(*fileCfg, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// merge fills env-config zero values from the file config (env wins).
func merge(fileCfg, envCfg Config) Config {
	if envCfg.Server.Port == 0 {
		envCfg.Server.Port = fileCfg.Server.Port
	}
	if envCfg.Logging.Level == "" {
		envCfg.Logging.Level = fileCfg.Logging.Level
	}
	if envCfg.Storage.DatabasePath == "" {
		envCfg.Storage.DatabasePath = fileCfg.Storage.DatabasePath
	}
	if envCfg.Storage.RosterPath == "" {
		envCfg.Storage.RosterPath = fileCfg.Storage.RosterPath
	}
	if envCfg.Pipeline.MaxUploadBytes == 0 {
		envCfg.Pipeline.MaxUploadBytes = fileCfg.Pipeline.MaxUploadBytes
	}
	if envCfg.Pipeline.MaxRows == 0 {
		envCfg.Pipeline.MaxRows = fileCfg.Pipeline.MaxRows
	}
	return envCfg
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Pipeline.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive")
	}
	if c.Pipeline.MaxRows <= 0 {
		return fmt.Errorf("max rows must be positive")
	}
	if c.Pipeline.MinQualifyHours < 0 {
		return fmt.Errorf("min qualify hours must not be negative")
	}
	if c.Storage.DatabasePath == "" {
		return fmt.Errorf("database path must be set")
	}
	return nil
}

// configFilePath returns the path to the config file, if one exists
func configFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimitRPS:    50,
			RateLimitBurst:  25,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Storage: StorageConfig{
			DatabasePath: "data/cwhub.db",
			RosterPath:   "data/roster.csv",
		},
		Pipeline: PipelineConfig{
			MaxUploadBytes:    10 << 20,
			MaxRows:           10000,
			MinQualifyHours:   4,
			SkippedPreviewCap: 10,
			TrendMetric:       "sales_per_hour",
		},
	}
}
