package infra

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds every setting the engine needs. Loaded from YAML, then
// sensitive or deploy-specific values may be overridden via environment.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Feed struct {
		WSURL             string `yaml:"ws_url"`
		Symbol            string `yaml:"symbol"`
		MaxDepth          int    `yaml:"max_depth"`
		StalenessSec      int    `yaml:"staleness_sec"`
		LatencyWindowSize int    `yaml:"latency_window_size"`
	} `yaml:"feed"`

	Estimator struct {
		ImpactCoefficient float64 `yaml:"impact_coefficient"`
		ReportDepthLevels int     `yaml:"report_depth_levels"`
	} `yaml:"estimator"`

	Server struct {
		Port        int      `yaml:"port"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`

	Storage struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and validates the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Feed.WSURL, "ws://") && !strings.HasPrefix(c.Feed.WSURL, "wss://") {
		return fmt.Errorf("invalid feed WS URL: %s", c.Feed.WSURL)
	}
	if c.Feed.Symbol == "" {
		return fmt.Errorf("feed symbol is required")
	}
	if c.Feed.MaxDepth < 0 {
		return fmt.Errorf("max depth must not be negative")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Estimator.ImpactCoefficient < 0 {
		return fmt.Errorf("impact coefficient must not be negative")
	}
	return nil
}

// overrideWithEnv lets deployment override the file without editing it.
func overrideWithEnv(cfg *Config) {
	if url := os.Getenv("TRADESIM_FEED_URL"); url != "" {
		cfg.Feed.WSURL = url
	}
	if sym := os.Getenv("TRADESIM_SYMBOL"); sym != "" {
		cfg.Feed.Symbol = sym
	}
	if path := os.Getenv("TRADESIM_DB_PATH"); path != "" {
		cfg.Storage.Path = path
	}
	if level := os.Getenv("TRADESIM_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}
