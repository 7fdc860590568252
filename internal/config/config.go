// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"meanrev-go/internal/strategy"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Product is the YAML form of one instrument's trading parameters.
type Product struct {
	Symbol           string  `yaml:"symbol"`
	PositionLimit    int     `yaml:"position_limit"`
	Window           int     `yaml:"window"`
	EdgeBps          float64 `yaml:"edge_bps"`
	SpreadFactor     float64 `yaml:"spread_factor"`
	VolatilityAdjust bool    `yaml:"volatility_adjust"`
}

// Trader configures the decision engine.
type Trader struct {
	UnboundedHistory bool      `yaml:"unbounded_history"`
	Products         []Product `yaml:"products"`
}

// Feed selects where simulated ticks come from.
type Feed struct {
	Provider   string `yaml:"provider"` // stub|file
	Path       string `yaml:"path"`
	Seed       int64  `yaml:"seed"`
	MaxTicks   int    `yaml:"max_ticks"`
	IntervalMs int    `yaml:"interval_ms"`
}

// Paper captures paper-trading account settings.
type Paper struct {
	StartingCash float64 `yaml:"starting_cash"`
	FillsPath    string  `yaml:"fills_path"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App    App    `yaml:"app"`
	Trader Trader `yaml:"trader"`
	Feed   Feed   `yaml:"feed"`
	Paper  Paper  `yaml:"paper"`
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ApplyEnv loads a .env file when present and lets environment variables override file settings.
func ApplyEnv(cfg *Config, files ...string) {
	_ = godotenv.Load(files...) // best-effort
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		cfg.App.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("METRICS_ADDR")); v != "" {
		cfg.App.MetricsAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("FEED_PROVIDER")); v != "" {
		cfg.Feed.Provider = v
	}
	if v := strings.TrimSpace(os.Getenv("FEED_PATH")); v != "" {
		cfg.Feed.Path = v
	}
}

// Registry builds the product registry, falling back to the reference products when none are configured.
func (c *Config) Registry() (*strategy.Registry, error) {
	if len(c.Trader.Products) == 0 {
		return strategy.NewRegistry(strategy.DefaultProducts())
	}
	products := make([]strategy.Product, 0, len(c.Trader.Products))
	for _, p := range c.Trader.Products {
		products = append(products, strategy.Product{
			Symbol:           p.Symbol,
			PositionLimit:    p.PositionLimit,
			Window:           p.Window,
			EdgeBps:          p.EdgeBps,
			SpreadFactor:     p.SpreadFactor,
			VolatilityAdjust: p.VolatilityAdjust,
		})
	}
	return strategy.NewRegistry(products)
}
