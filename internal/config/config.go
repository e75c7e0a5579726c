package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/terrasift/terrasift/internal/scoring"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Events      EventsConfig      `yaml:"events"`
	Dataset     DatasetConfig     `yaml:"dataset"`
	Engine      EngineConfig      `yaml:"engine"`
	Scoring     scoring.Params    `yaml:"scoring"`
	Selectivity SelectivityConfig `yaml:"selectivity"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	AdminToken  string `yaml:"admin_token"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type EventsConfig struct {
	URL string `yaml:"url"`
}

type DatasetConfig struct {
	// Source is "postgres" or "synthetic".
	Source         string `yaml:"source"`
	SyntheticCount int    `yaml:"synthetic_count"`
	SyntheticSeed  int64  `yaml:"synthetic_seed"`
}

type EngineConfig struct {
	ChunkSize      int `yaml:"chunk_size"`
	Workers        int `yaml:"workers"`
	DefaultTopN    int `yaml:"default_top_n"`
	MinAcceptable  int `yaml:"min_acceptable"`
	RunRetentionMs int `yaml:"run_retention_ms"`
}

type SelectivityConfig struct {
	WarnBelow    int     `yaml:"warn_below"`
	ErrorBelow   int     `yaml:"error_below"`
	RareFraction float64 `yaml:"rare_fraction"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Config) RunRetention() time.Duration {
	return time.Duration(c.Engine.RunRetentionMs) * time.Millisecond
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        8700,
			MetricsPort: 8701,
		},
		Events: EventsConfig{
			URL: "",
		},
		Dataset: DatasetConfig{
			Source:         "synthetic",
			SyntheticCount: 150000,
			SyntheticSeed:  1,
		},
		Engine: EngineConfig{
			ChunkSize:      4096,
			Workers:        8,
			DefaultTopN:    20,
			MinAcceptable:  1,
			RunRetentionMs: 900000,
		},
		Scoring: scoring.DefaultParams(),
		Selectivity: SelectivityConfig{
			WarnBelow:    100,
			ErrorBelow:   1,
			RareFraction: 0.001,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Scoring.Validate(); err != nil {
		return nil, fmt.Errorf("scoring config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TERRASIFT_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("TERRASIFT_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("TERRASIFT_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("TERRASIFT_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
		cfg.Dataset.Source = "postgres"
	}
	if v := os.Getenv("TERRASIFT_EVENTS_URL"); v != "" {
		cfg.Events.URL = v
	}
	if v := os.Getenv("TERRASIFT_DATASET_SOURCE"); v != "" {
		cfg.Dataset.Source = v
	}
	if v := os.Getenv("TERRASIFT_SYNTHETIC_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Dataset.SyntheticCount = n
		}
	}
	if v := os.Getenv("TERRASIFT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.Workers = n
		}
	}
	if v := os.Getenv("TERRASIFT_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.ChunkSize = n
		}
	}
	if v := os.Getenv("TERRASIFT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
