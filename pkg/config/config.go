// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Postgres, Kafka, Redis, NGram, Reindex, document types).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server        ServerConfig         `yaml:"server"`
	Postgres      PostgresConfig       `yaml:"postgres"`
	Kafka         KafkaConfig          `yaml:"kafka"`
	Redis         RedisConfig          `yaml:"redis"`
	NGram         NGramConfig          `yaml:"ngram"`
	Reindex       ReindexConfig        `yaml:"reindex"`
	DocumentTypes []DocumentTypeConfig `yaml:"documentTypes"`
	Logging       LoggingConfig        `yaml:"logging"`
	Metrics       MetricsConfig        `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	RateLimit       float64       `yaml:"rateLimit"`
	RateBurst       int           `yaml:"rateBurst"`
	CORSOrigins     []string      `yaml:"corsOrigins"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled       bool        `yaml:"enabled"`
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	ReindexRequest  string `yaml:"reindexRequest"`
	ReindexComplete string `yaml:"reindexComplete"`
}

// RedisConfig holds Redis connection parameters. Redis backs the
// cross-process reindex lock.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"poolSize"`
}

// NGramConfig sizes the query and similarity caches and picks the default
// similarity strategy.
type NGramConfig struct {
	QueryCacheSize      int           `yaml:"queryCacheSize"`
	QueryCacheTTL       time.Duration `yaml:"queryCacheTTL"`
	SimilarityCacheSize int           `yaml:"similarityCacheSize"`
	SimilarityCacheTTL  time.Duration `yaml:"similarityCacheTTL"`
	CacheShards         int           `yaml:"cacheShards"`
	DefaultLimit        int           `yaml:"defaultLimit"`
	MaxResults          int           `yaml:"maxResults"`
	DefaultStrategy     string        `yaml:"defaultStrategy"`
}

// ReindexConfig controls the validation/regeneration workflow.
type ReindexConfig struct {
	ValidateOnStart bool          `yaml:"validateOnStart"`
	LockTTL         time.Duration `yaml:"lockTTL"`
}

// DocumentTypeConfig statically registers a document type: where its original
// documents live and which of its fields carry n-gram indexes.
type DocumentTypeConfig struct {
	Name     string        `yaml:"name"`
	Table    string        `yaml:"table"`
	IDColumn string        `yaml:"idColumn"`
	IDType   string        `yaml:"idType"`
	Fields   []FieldConfig `yaml:"fields"`
}

// FieldConfig is the per-field n-gram configuration. N defaults to 2 and
// FailOnMismatch to true when omitted.
type FieldConfig struct {
	Name           string `yaml:"name"`
	N              int    `yaml:"n"`
	FailOnMismatch *bool  `yaml:"failOnMismatch"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the document type registry for obvious mistakes.
func (c *Config) Validate() error {
	seen := make(map[string]struct{}, len(c.DocumentTypes))
	for _, dt := range c.DocumentTypes {
		if dt.Name == "" {
			return fmt.Errorf("document type with empty name")
		}
		if _, dup := seen[dt.Name]; dup {
			return fmt.Errorf("document type %q registered twice", dt.Name)
		}
		seen[dt.Name] = struct{}{}
		for _, f := range dt.Fields {
			if f.Name == "" {
				return fmt.Errorf("document type %q: field with empty name", dt.Name)
			}
			if f.N < 0 {
				return fmt.Errorf("document type %q field %q: n must be positive, got %d", dt.Name, f.Name, f.N)
			}
		}
	}
	return nil
}

// defaultConfig returns a Config with defaults suitable for local development.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RateLimit:       200,
			RateBurst:       400,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "ngramsearch",
			User:            "ngramsearch",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Enabled:       true,
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "ngramsearch-group",
			Topics: KafkaTopics{
				ReindexRequest:  "ngram.reindex.request",
				ReindexComplete: "ngram.reindex.complete",
			},
		},
		Redis: RedisConfig{
			Enabled:  true,
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: 10,
		},
		NGram: NGramConfig{
			QueryCacheSize:      1_000,
			QueryCacheTTL:       10 * time.Minute,
			SimilarityCacheSize: 10_000,
			SimilarityCacheTTL:  10 * time.Minute,
			CacheShards:         16,
			DefaultLimit:        0,
			MaxResults:          1_000,
			DefaultStrategy:     "cosineSimilarity",
		},
		Reindex: ReindexConfig{
			ValidateOnStart: true,
			LockTTL:         10 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads SP_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SP_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SP_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("SP_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("SP_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("SP_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("SP_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("SP_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("SP_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("SP_KAFKA_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Kafka.Enabled = b
		}
	}
	if v := os.Getenv("SP_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SP_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SP_REDIS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Redis.Enabled = b
		}
	}
	if v := os.Getenv("SP_NGRAM_QUERY_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.NGram.QueryCacheSize = n
		}
	}
	if v := os.Getenv("SP_NGRAM_SIMILARITY_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.NGram.SimilarityCacheSize = n
		}
	}
	if v := os.Getenv("SP_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SP_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
