package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"meanrev-go/internal/strategy"
)

func TestLoad(t *testing.T) {
	path := filepath.Join("testdata", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Name != "meanrev-test" {
		t.Fatalf("unexpected App.Name: %s", cfg.App.Name)
	}
	if cfg.App.LogLevel != "debug" {
		t.Fatalf("unexpected App.LogLevel: %s", cfg.App.LogLevel)
	}
	if len(cfg.Trader.Products) != 2 {
		t.Fatalf("expected 2 products, got %+v", cfg.Trader.Products)
	}
	kelp := cfg.Trader.Products[1]
	if kelp.Symbol != "KELP" || kelp.Window != 10 || kelp.PositionLimit != 50 || kelp.EdgeBps != 25 {
		t.Fatalf("unexpected KELP product: %+v", kelp)
	}
	if kelp.SpreadFactor != 0.3 || !kelp.VolatilityAdjust {
		t.Fatalf("unexpected KELP quoting settings: %+v", kelp)
	}
	if cfg.Feed.Provider != "stub" || cfg.Feed.Seed != 7 || cfg.Feed.MaxTicks != 1000 {
		t.Fatalf("unexpected feed: %+v", cfg.Feed)
	}
	if cfg.Paper.FillsPath != "data/fills.jsonl" {
		t.Fatalf("unexpected fills path: %s", cfg.Paper.FillsPath)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "config.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	cfg.Trader.Products[0].Window = 50

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload returned error: %v", err)
	}
	if reloaded.Trader.Products[0].Window != 50 {
		t.Fatalf("expected saved window 50, got %d", reloaded.Trader.Products[0].Window)
	}
	if err := Save(path, nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

func TestRegistry(t *testing.T) {
	cfg := &Config{}
	reg, err := cfg.Registry()
	if err != nil {
		t.Fatalf("default registry error: %v", err)
	}
	if _, ok := reg.Lookup("RAINFOREST_RESIN"); !ok {
		t.Fatalf("expected default products")
	}

	cfg.Trader.Products = []Product{{Symbol: "KELP", PositionLimit: 50, Window: 10, SpreadFactor: 0.3, VolatilityAdjust: true}}
	reg, err = cfg.Registry()
	if err != nil {
		t.Fatalf("registry error: %v", err)
	}
	if kelp, _ := reg.Lookup("KELP"); !kelp.Quoting() || !kelp.VolatilityAdjust || kelp.SpreadFactor != 0.3 {
		t.Fatalf("quoting settings not carried into registry: %+v", kelp)
	}

	cfg.Trader.Products = []Product{{Symbol: "KELP", PositionLimit: 50, Window: 0}}
	if _, err := cfg.Registry(); !errors.Is(err, strategy.ErrInvalidProduct) {
		t.Fatalf("expected ErrInvalidProduct, got %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("FEED_PROVIDER=file\nFEED_PATH=ticks.jsonl\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("METRICS_ADDR", ":9999")
	t.Cleanup(func() {
		os.Unsetenv("FEED_PROVIDER")
		os.Unsetenv("FEED_PATH")
	})

	cfg := &Config{App: App{LogLevel: "info"}, Feed: Feed{Provider: "stub"}}
	ApplyEnv(cfg, envFile)

	if cfg.App.LogLevel != "warn" || cfg.App.MetricsAddr != ":9999" {
		t.Fatalf("env overrides not applied: %+v", cfg.App)
	}
	if cfg.Feed.Provider != "file" || cfg.Feed.Path != "ticks.jsonl" {
		t.Fatalf(".env values not applied: %+v", cfg.Feed)
	}
}
