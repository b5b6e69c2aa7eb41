// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Data, Ranking, Search, Redis, Store, Kafka, etc.).
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
	Server   ServerConfig   `yaml:"server"`
	Data     DataConfig     `yaml:"data"`
	Ranking  RankingConfig  `yaml:"ranking"`
	Search   SearchConfig   `yaml:"search"`
	Redis    RedisConfig    `yaml:"redis"`
	Store    StoreConfig    `yaml:"store"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// DataConfig points at the JSON artifacts produced by the crawler and indexer.
type DataConfig struct {
	IndexPath string `yaml:"indexPath"`
	GraphPath string `yaml:"graphPath"`
	PagesPath string `yaml:"pagesPath"`
}

// RankingConfig holds the solver hyperparameters and the blend weights used
// when combining TF-IDF with a link-analysis signal.
type RankingConfig struct {
	PageRank        PageRankConfig `yaml:"pagerank"`
	HITS            HITSConfig     `yaml:"hits"`
	TFIDFWeight     float64        `yaml:"tfidfWeight"`
	SecondaryWeight float64        `yaml:"secondaryWeight"`
	TopK            int            `yaml:"topK"`
}

// PageRankConfig controls the damped power iteration.
type PageRankConfig struct {
	Damping       float64 `yaml:"damping"`
	MaxIterations int     `yaml:"maxIterations"`
	Threshold     float64 `yaml:"threshold"`
}

// HITSConfig controls the hub/authority iteration.
type HITSConfig struct {
	MaxIterations int     `yaml:"maxIterations"`
	Threshold     float64 `yaml:"threshold"`
}

// SearchConfig controls query limits.
type SearchConfig struct {
	DefaultLimit int `yaml:"defaultLimit"`
	MaxResults   int `yaml:"maxResults"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// StoreConfig selects the backend used to persist score vectors.
// Driver is "postgres", "sqlite" or "" (disabled).
type StoreConfig struct {
	Driver     string `yaml:"driver"`
	SQLitePath string `yaml:"sqlitePath"`
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
	SnapshotUpdated string `yaml:"snapshotUpdated"`
	SearchEvents    string `yaml:"searchEvents"`
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
// overrides. It returns a Config populated with defaults for any missing
// values, or an error if the result fails validation.
func Load(path string) (*Config, error) {
	cfg := Default()
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
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns a Config with defaults for local development.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Data: DataConfig{
			IndexPath: "data/inverted_index.json",
			GraphPath: "data/link_graph.json",
			PagesPath: "data/crawled_pages.json",
		},
		Ranking: RankingConfig{
			PageRank: PageRankConfig{
				Damping:       0.85,
				MaxIterations: 30,
				Threshold:     1e-4,
			},
			HITS: HITSConfig{
				MaxIterations: 20,
				Threshold:     1e-4,
			},
			TFIDFWeight:     0.6,
			SecondaryWeight: 0.4,
			TopK:            10,
		},
		Search: SearchConfig{
			DefaultLimit: 10,
			MaxResults:   10,
		},
		Redis: RedisConfig{
			Enabled:  false,
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Store: StoreConfig{
			Driver:     "",
			SQLitePath: "data/scores.db",
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "minisearch",
			User:            "minisearch",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Enabled:       false,
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "minisearch-group",
			Topics: KafkaTopics{
				SnapshotUpdated: "snapshot-updated",
				SearchEvents:    "search-events",
			},
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

// Validate checks that ranking hyperparameters are in range.
func (c *Config) Validate() error {
	pr := c.Ranking.PageRank
	if pr.Damping <= 0 || pr.Damping >= 1 {
		return fmt.Errorf("ranking.pagerank.damping must be in (0, 1), got %v", pr.Damping)
	}
	if pr.MaxIterations <= 0 {
		return fmt.Errorf("ranking.pagerank.maxIterations must be positive, got %d", pr.MaxIterations)
	}
	if pr.Threshold <= 0 {
		return fmt.Errorf("ranking.pagerank.threshold must be positive, got %v", pr.Threshold)
	}
	if c.Ranking.HITS.MaxIterations <= 0 {
		return fmt.Errorf("ranking.hits.maxIterations must be positive, got %d", c.Ranking.HITS.MaxIterations)
	}
	if c.Ranking.HITS.Threshold <= 0 {
		return fmt.Errorf("ranking.hits.threshold must be positive, got %v", c.Ranking.HITS.Threshold)
	}
	if c.Ranking.TFIDFWeight < 0 || c.Ranking.SecondaryWeight < 0 {
		return fmt.Errorf("ranking weights must be non-negative")
	}
	if c.Ranking.TopK <= 0 {
		return fmt.Errorf("ranking.topK must be positive, got %d", c.Ranking.TopK)
	}
	switch c.Store.Driver {
	case "", "postgres", "sqlite":
	default:
		return fmt.Errorf("store.driver must be postgres, sqlite or empty, got %q", c.Store.Driver)
	}
	return nil
}

// applyEnvOverrides reads MSE_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MSE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("MSE_DATA_INDEX_PATH"); v != "" {
		cfg.Data.IndexPath = v
	}
	if v := os.Getenv("MSE_DATA_GRAPH_PATH"); v != "" {
		cfg.Data.GraphPath = v
	}
	if v := os.Getenv("MSE_DATA_PAGES_PATH"); v != "" {
		cfg.Data.PagesPath = v
	}
	if v := os.Getenv("MSE_PAGERANK_DAMPING"); v != "" {
		if d, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Ranking.PageRank.Damping = d
		}
	}
	if v := os.Getenv("MSE_PAGERANK_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Ranking.PageRank.MaxIterations = n
		}
	}
	if v := os.Getenv("MSE_HITS_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Ranking.HITS.MaxIterations = n
		}
	}
	if v := os.Getenv("MSE_REDIS_ENABLED"); v != "" {
		cfg.Redis.Enabled = parseBool(v)
	}
	if v := os.Getenv("MSE_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("MSE_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("MSE_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("MSE_STORE_SQLITE_PATH"); v != "" {
		cfg.Store.SQLitePath = v
	}
	if v := os.Getenv("MSE_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("MSE_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("MSE_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("MSE_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("MSE_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("MSE_KAFKA_ENABLED"); v != "" {
		cfg.Kafka.Enabled = parseBool(v)
	}
	if v := os.Getenv("MSE_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("MSE_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("MSE_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("MSE_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
