package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"meanrev-go/internal/config"
)

const defaultConfigPath = "internal/config/config.yaml"

func main() {
	reader := bufio.NewReader(os.Stdin)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	for {
		fmt.Println("\n=== MeanRev Control ===")
		fmt.Println("1) Show configuration summary")
		fmt.Println("2) Edit products")
		fmt.Println("3) Edit paper session")
		fmt.Println("4) Save config")
		fmt.Println("5) Launch paper session")
		fmt.Println("6) Reload config from disk")
		fmt.Println("0) Exit")
		fmt.Print("Select option: ")

		input, _ := reader.ReadString('\n')
		choice := strings.TrimSpace(input)

		switch choice {
		case "1":
			printSummary(cfg)
		case "2":
			editProducts(reader, cfg)
		case "3":
			editPaper(reader, cfg)
		case "4":
			if _, err := cfg.Registry(); err != nil {
				fmt.Fprintf(os.Stderr, "not saved: %v\n", err)
			} else if err := saveConfig(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			} else {
				fmt.Println("config saved")
			}
		case "5":
			launchPaper(reader)
		case "6":
			reloaded, err := loadConfig()
			if err != nil {
				fmt.Fprintf(os.Stderr, "reload failed: %v\n", err)
			} else {
				cfg = reloaded
				fmt.Println("config reloaded")
			}
		case "0":
			return
		default:
			fmt.Println("unknown option")
		}
	}
}

func printSummary(cfg *config.Config) {
	fmt.Println("\n--- Configuration Summary ---")
	fmt.Printf("Log level: %s | metrics: %s\n", cfg.App.LogLevel, cfg.App.MetricsAddr)
	fmt.Printf("Unbounded history: %v\n", cfg.Trader.UnboundedHistory)
	if len(cfg.Trader.Products) == 0 {
		fmt.Println("Products: built-in defaults")
	}
	for _, p := range cfg.Trader.Products {
		fmt.Printf("  %-18s limit %3d | window %4d | edge %.1f bps | spread %.2f (vol adjust %v)\n",
			p.Symbol, p.PositionLimit, p.Window, p.EdgeBps, p.SpreadFactor, p.VolatilityAdjust)
	}
	fmt.Printf("Feed: %s (seed %d, max ticks %d, path %q)\n", cfg.Feed.Provider, cfg.Feed.Seed, cfg.Feed.MaxTicks, cfg.Feed.Path)
	fmt.Printf("Starting cash: %.2f | fills: %s\n", cfg.Paper.StartingCash, cfg.Paper.FillsPath)
}

func editProducts(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Products ---")
	for i := range cfg.Trader.Products {
		p := &cfg.Trader.Products[i]
		fmt.Printf("[%s]\n", p.Symbol)
		p.PositionLimit = promptInt(reader, "  Position limit", p.PositionLimit)
		p.Window = promptInt(reader, "  Moving-average window", p.Window)
		p.EdgeBps = promptFloat(reader, "  Take edge (bps)", p.EdgeBps)
		p.SpreadFactor = promptFloat(reader, "  Quote spread factor (0 = off)", p.SpreadFactor)
		if p.SpreadFactor > 0 {
			p.VolatilityAdjust = promptBool(reader, "  Adjust quotes for volatility", p.VolatilityAdjust)
		}
	}
	fmt.Print("Add product symbol (blank to skip): ")
	if line, _ := reader.ReadString('\n'); strings.TrimSpace(line) != "" {
		p := config.Product{Symbol: strings.ToUpper(strings.TrimSpace(line)), PositionLimit: 50, Window: 10}
		p.PositionLimit = promptInt(reader, "  Position limit", p.PositionLimit)
		p.Window = promptInt(reader, "  Moving-average window", p.Window)
		cfg.Trader.Products = append(cfg.Trader.Products, p)
	}
}

func editPaper(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Paper Session ---")
	cfg.Paper.StartingCash = promptFloat(reader, "Starting cash", cfg.Paper.StartingCash)
	cfg.Feed.Seed = int64(promptInt(reader, "Feed seed", int(cfg.Feed.Seed)))
	cfg.Feed.MaxTicks = promptInt(reader, "Max ticks", cfg.Feed.MaxTicks)
}

func launchPaper(reader *bufio.Reader) {
	fmt.Println("Launching paper session (Ctrl+C to stop)...")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx, "go", "run", "./cmd/paper", locateConfig())
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start session: %v\n", err)
		return
	}

	go func() {
		_ = cmd.Wait()
		cancel()
	}()

	fmt.Print("\nPress ENTER to stop the session and return to menu...")
	_, _ = reader.ReadString('\n')
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func promptFloat(reader *bufio.Reader, label string, current float64) float64 {
	fmt.Printf("%s [%.2f]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := strconv.ParseFloat(line, 64)
	if err != nil {
		fmt.Printf("invalid number, keeping %.2f\n", current)
		return current
	}
	return val
}

func promptBool(reader *bufio.Reader, label string, current bool) bool {
	fmt.Printf("%s [%v]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := strconv.ParseBool(line)
	if err != nil {
		fmt.Printf("invalid boolean, keeping %v\n", current)
		return current
	}
	return val
}

func promptInt(reader *bufio.Reader, label string, current int) int {
	fmt.Printf("%s [%d]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := strconv.Atoi(line)
	if err != nil {
		fmt.Printf("invalid integer, keeping %d\n", current)
		return current
	}
	return val
}

func loadConfig() (*config.Config, error) {
	return config.Load(locateConfig())
}

func saveConfig(cfg *config.Config) error {
	return config.Save(locateConfig(), cfg)
}

func locateConfig() string {
	if filepath.IsAbs(defaultConfigPath) {
		return defaultConfigPath
	}
	return filepath.Clean(defaultConfigPath)
}
