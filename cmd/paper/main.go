package main

import (
	"context"
	"errors"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"meanrev-go/internal/config"
	"meanrev-go/internal/exchange"
	"meanrev-go/internal/metrics"
	"meanrev-go/internal/paper"
	sig "meanrev-go/internal/signal"
	"meanrev-go/internal/trader"
	"meanrev-go/internal/util"
)

const defaultConfigPath = "internal/config/config.yaml"

func main() {
	path := defaultConfigPath
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	boot := util.NewLogger("info")
	cfg, err := config.Load(path)
	if err != nil {
		boot.Fatal().Err(err).Msg("load config")
	}
	config.ApplyEnv(cfg)
	log := util.NewLogger(cfg.App.LogLevel)

	registry, err := cfg.Registry()
	if err != nil {
		log.Fatal().Err(err).Msg("build product registry")
	}

	if cfg.App.MetricsAddr != "" {
		_ = metrics.Serve(cfg.App.MetricsAddr)
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	feed := exchange.NewFeed(cfg.Feed.Provider, registry.Symbols(), log,
		exchange.WithPath(cfg.Feed.Path),
		exchange.WithSeed(cfg.Feed.Seed),
		exchange.WithMaxTicks(cfg.Feed.MaxTicks),
		exchange.WithInterval(time.Duration(cfg.Feed.IntervalMs)*time.Millisecond),
	)
	ticks := make(chan sig.State, 64)
	go func() {
		if err := feed.Run(ctx, ticks); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("feed stopped")
		}
	}()

	limits := make(map[string]int)
	for _, sym := range registry.Symbols() {
		p, _ := registry.Lookup(sym)
		limits[sym] = p.PositionLimit
	}
	ledger := paper.NewLedger(1024)
	recorders := []paper.FillRecorder{ledger}
	if cfg.Paper.FillsPath != "" {
		rec, err := paper.NewJSONLRecorder(cfg.Paper.FillsPath)
		if err != nil {
			log.Fatal().Err(err).Msg("open fills recorder")
		}
		defer rec.Close()
		recorders = append(recorders, rec)
	}
	account := paper.NewAccount(cfg.Paper.StartingCash, limits, recorders...)

	opts := []trader.Option{trader.WithLogger(log)}
	if cfg.Trader.UnboundedHistory {
		opts = append(opts, trader.WithUnboundedHistory())
	}
	session := paper.NewSession(trader.New(registry, opts...), account, log)

	log.Info().Str("provider", cfg.Feed.Provider).Strs("symbols", registry.Symbols()).Msg("paper session started")
	sum, err := session.Run(ctx, ticks)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("session aborted")
	}

	ev := log.Info().
		Int("ticks", sum.Ticks).
		Int("orders", sum.Orders).
		Int("fills", sum.Fills).
		Int("rejected", sum.Rejected).
		Str("cash", sum.Final.Cash.StringFixed(2)).
		Str("pnl", sum.Final.PnL.StringFixed(2))
	for sym, pos := range sum.Final.Positions {
		ev = ev.Int("pos_"+sym, pos.Qty).Int("vol_"+sym, ledger.Volume(sym))
	}
	ev.Msg("paper session finished")
}
