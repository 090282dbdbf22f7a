package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Pipeline      PipelineConfig
	Storage       StorageConfig
	Scheduler     SchedulerConfig
	Observability ObservabilityConfig
}

type ServerConfig struct {
	Host string
	Port int
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// PipelineConfig tunes statement processing.
type PipelineConfig struct {
	Workers       int
	KeepTrailing  bool
	Merge         bool
	ReferencePath string
	TopN          int
	LayoutFile    string
	Layout        Layout
}

type StorageConfig struct {
	Root string
}

type SchedulerConfig struct {
	Enabled  bool
	InboxDir string
	Spec     string
}

type ObservabilityConfig struct {
	MetricsEnabled bool
}

// Layout overrides the anchors that delimit the statement tables. Empty
// fields keep the built-in values.
type Layout struct {
	ClosingMarker string  `yaml:"closing_marker"`
	Category      Anchors `yaml:"category"`
	Rubric        Anchors `yaml:"rubric"`
	Work          Anchors `yaml:"work"`
}

// Anchors are the start and end phrases of one table.
type Anchors struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// A missing .env file is fine; the process environment still applies.
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Enabled:  getEnvAsBool("DATABASE_ENABLED", false),
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "ecad"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Pipeline: PipelineConfig{
			Workers:       getEnvAsInt("PIPELINE_WORKERS", 1),
			KeepTrailing:  getEnvAsBool("PIPELINE_KEEP_TRAILING", false),
			Merge:         getEnvAsBool("PIPELINE_MERGE", false),
			ReferencePath: getEnv("PIPELINE_REFERENCE", ""),
			TopN:          getEnvAsInt("PIPELINE_TOP_N", 10),
			LayoutFile:    getEnv("PIPELINE_LAYOUT_FILE", ""),
		},
		Storage: StorageConfig{
			Root: getEnv("STORAGE_ROOT", "./output"),
		},
		Scheduler: SchedulerConfig{
			Enabled:  getEnvAsBool("SCHEDULER_ENABLED", true),
			InboxDir: getEnv("INBOX_DIR", "./inbox"),
			Spec:     getEnv("SCHEDULER_SPEC", "@every 5m"),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
	}

	if cfg.Pipeline.Workers < 1 {
		return nil, errors.New("PIPELINE_WORKERS must be at least 1")
	}
	if cfg.Storage.Root == "" {
		return nil, errors.New("STORAGE_ROOT is required")
	}

	if cfg.Pipeline.LayoutFile != "" {
		layout, err := LoadLayout(cfg.Pipeline.LayoutFile)
		if err != nil {
			return nil, err
		}
		cfg.Pipeline.Layout = layout
	}

	return cfg, nil
}

// LoadLayout reads a YAML layout profile.
func LoadLayout(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("failed to read layout profile: %w", err)
	}
	return ParseLayout(data)
}

// ParseLayout decodes a YAML layout profile.
func ParseLayout(data []byte) (Layout, error) {
	var layout Layout
	if err := yaml.UnmarshalWithOptions(data, &layout, yaml.DisallowUnknownField()); err != nil {
		return Layout{}, fmt.Errorf("failed to parse layout profile: %w", err)
	}
	return layout, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
