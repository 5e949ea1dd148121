// Package config loads and validates letterscan configuration from YAML or
// TOML files with environment-variable overrides. Command-line flags are
// applied on top by the caller.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultMaxWordLen is the word length cap used when none is configured.
const DefaultMaxWordLen = 31

// Config is the top-level application configuration.
type Config struct {
	Scan     ScanConfig     `yaml:"scan" toml:"scan"`
	Output   OutputConfig   `yaml:"output" toml:"output"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics" toml:"metrics"`
	Export   ExportConfig   `yaml:"export" toml:"export"`
	Kafka    KafkaConfig    `yaml:"kafka" toml:"kafka"`
	Redis    RedisConfig    `yaml:"redis" toml:"redis"`
	Postgres PostgresConfig `yaml:"postgres" toml:"postgres"`
}

// ScanConfig controls tokenization.
type ScanConfig struct {
	MaxWordLen int `yaml:"maxWordLen" toml:"maxWordLen"`
	// Overflow is "split" or "drop".
	Overflow string `yaml:"overflow" toml:"overflow"`
}

type OutputConfig struct {
	Format string `yaml:"format" toml:"format"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// MetricsConfig controls where run metrics are delivered. Empty values
// disable the corresponding target.
type MetricsConfig struct {
	TextfilePath   string `yaml:"textfilePath" toml:"textfilePath"`
	PushgatewayURL string `yaml:"pushgatewayUrl" toml:"pushgatewayUrl"`
	Job            string `yaml:"job" toml:"job"`
}

// ExportConfig bounds each sink publish.
type ExportConfig struct {
	Timeout      time.Duration `yaml:"timeout" toml:"timeout"`
	MaxAttempts  int           `yaml:"maxAttempts" toml:"maxAttempts"`
	InitialDelay time.Duration `yaml:"initialDelay" toml:"initialDelay"`
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled" toml:"enabled"`
	Brokers []string `yaml:"brokers" toml:"brokers"`
	Topic   string   `yaml:"topic" toml:"topic"`
}

// RedisConfig holds Redis connection and pub/sub parameters.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" toml:"enabled"`
	Addr     string `yaml:"addr" toml:"addr"`
	Password string `yaml:"password" toml:"password"`
	DB       int    `yaml:"db" toml:"db"`
	PoolSize int    `yaml:"poolSize" toml:"poolSize"`
	Channel  string `yaml:"channel" toml:"channel"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled" toml:"enabled"`
	Host            string        `yaml:"host" toml:"host"`
	Port            int           `yaml:"port" toml:"port"`
	Database        string        `yaml:"database" toml:"database"`
	User            string        `yaml:"user" toml:"user"`
	Password        string        `yaml:"password" toml:"password"`
	SSLMode         string        `yaml:"sslMode" toml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns" toml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns" toml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime" toml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// ExportEnabled reports whether any export sink is switched on.
func (c *Config) ExportEnabled() bool {
	return c.Kafka.Enabled || c.Redis.Enabled || c.Postgres.Enabled
}

// Load reads a config file (if provided) and applies environment-variable
// overrides. Files ending in .toml are decoded as TOML, anything else as
// YAML. The result is not validated; call Validate after applying flags.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := decode(path, data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return toml.NewDecoder(bytes.NewReader(data)).Decode(cfg)
	}
	return yaml.Unmarshal(data, cfg)
}

// Default returns the configuration used when no file or overrides exist.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			MaxWordLen: DefaultMaxWordLen,
			Overflow:   "split",
		},
		Output: OutputConfig{
			Format: "text",
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Job: "letterscan",
		},
		Export: ExportConfig{
			Timeout:      10 * time.Second,
			MaxAttempts:  3,
			InitialDelay: 200 * time.Millisecond,
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "letterscan-reports",
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 4,
			Channel:  "letterscan:reports",
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "letterscan",
			User:            "letterscan",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: 5 * time.Minute,
		},
	}
}

// applyEnvOverrides reads LS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LS_SCAN_MAX_WORD_LEN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scan.MaxWordLen = n
		}
	}
	if v := os.Getenv("LS_SCAN_OVERFLOW"); v != "" {
		cfg.Scan.Overflow = v
	}
	if v := os.Getenv("LS_OUTPUT_FORMAT"); v != "" {
		cfg.Output.Format = v
	}
	if v := os.Getenv("LS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("LS_METRICS_TEXTFILE"); v != "" {
		cfg.Metrics.TextfilePath = v
	}
	if v := os.Getenv("LS_METRICS_PUSHGATEWAY_URL"); v != "" {
		cfg.Metrics.PushgatewayURL = v
	}
	if v := os.Getenv("LS_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
		cfg.Kafka.Enabled = true
	}
	if v := os.Getenv("LS_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("LS_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("LS_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
		cfg.Postgres.Enabled = true
	}
	if v := os.Getenv("LS_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("LS_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("LS_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("LS_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
}

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		keys = append(keys, field)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, field := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return strings.Join(parts, "; ")
}

// Validate checks the configuration and returns a ValidationError listing
// every offending field.
func (c *Config) Validate() error {
	errs := make(map[string]string)

	if c.Scan.MaxWordLen < 1 {
		errs["scan.maxWordLen"] = "must be at least 1"
	}
	switch c.Scan.Overflow {
	case "split", "drop":
	default:
		errs["scan.overflow"] = fmt.Sprintf("unknown policy %q (want split or drop)", c.Scan.Overflow)
	}
	switch c.Output.Format {
	case "text", "json", "table":
	default:
		errs["output.format"] = fmt.Sprintf("unknown format %q (want text, json or table)", c.Output.Format)
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			errs["kafka.brokers"] = "at least one broker is required"
		}
		if c.Kafka.Topic == "" {
			errs["kafka.topic"] = "topic is required"
		}
	}
	if c.Redis.Enabled && c.Redis.Channel == "" {
		errs["redis.channel"] = "channel is required"
	}
	if c.ExportEnabled() && c.Export.MaxAttempts < 1 {
		errs["export.maxAttempts"] = "must be at least 1"
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
