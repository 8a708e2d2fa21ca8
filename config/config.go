package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	IngestToken     string  `yaml:"ingest_token"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// IngestConfig holds the ingestion pipeline configuration.
type IngestConfig struct {
	SourceDir   string        `yaml:"source_dir"`
	Source      string        `yaml:"source"`
	BatchSize   int           `yaml:"batch_size"`
	PageSize    int           `yaml:"page_size"`
	MaxFilterIn int           `yaml:"max_filter_in"`
	MaxRetries  int           `yaml:"max_retries"`
	BaseDelayMS int           `yaml:"base_delay_ms"`
	BaseDelay   time.Duration `yaml:"-"` // Ignored by YAML parser
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Ingest.SourceDir == "" {
		cfg.Ingest.SourceDir = "./data"
	}
	if cfg.Ingest.Source == "" {
		cfg.Ingest.Source = "registrar-export"
	}
	if cfg.Ingest.BatchSize <= 0 {
		cfg.Ingest.BatchSize = 500
	}
	// page_size mirrors the backing store's per-read row cap.
	if cfg.Ingest.PageSize <= 0 {
		cfg.Ingest.PageSize = 1000
	}
	if cfg.Ingest.MaxFilterIn <= 0 {
		cfg.Ingest.MaxFilterIn = 200
	}
	if cfg.Ingest.MaxRetries <= 0 {
		cfg.Ingest.MaxRetries = 3
	}
	if cfg.Ingest.BaseDelayMS <= 0 {
		cfg.Ingest.BaseDelayMS = 500
	}
	cfg.Ingest.BaseDelay = time.Duration(cfg.Ingest.BaseDelayMS) * time.Millisecond

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	return &cfg, nil
}
