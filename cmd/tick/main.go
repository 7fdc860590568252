// Command tick runs one decision tick: a trading state as JSON on stdin, the
// orders, conversions and new trader data as JSON on stdout.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/rs/zerolog"

	"meanrev-go/internal/config"
	"meanrev-go/internal/execution"
	"meanrev-go/internal/metrics"
	sig "meanrev-go/internal/signal"
	"meanrev-go/internal/strategy"
	"meanrev-go/internal/trader"
	"meanrev-go/internal/util"
)

// response mirrors the harness wire format: orders as [price, signed quantity] pairs.
type response struct {
	Orders      map[string][][2]int `json:"orders"`
	Conversions int                 `json:"conversions"`
	TraderData  string              `json:"traderData"`
}

func main() {
	log := util.NewLoggerTo(os.Stderr, os.Getenv("LOG_LEVEL"))

	registry := strategy.MustRegistry(strategy.DefaultProducts())
	if path := os.Getenv("MEANREV_CONFIG"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			log.Fatal().Err(err).Msg("load config")
		}
		if registry, err = cfg.Registry(); err != nil {
			log.Fatal().Err(err).Msg("build product registry")
		}
	}

	if err := run(os.Stdin, os.Stdout, trader.New(registry, trader.WithLogger(log)), log); err != nil {
		log.Fatal().Err(err).Msg("tick failed")
	}
}

// run answers every readable or unreadable input with a response. Only a
// failure to read stdin or write stdout is an error.
func run(in io.Reader, out io.Writer, tr *trader.Trader, log zerolog.Logger) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read state: %w", err)
	}
	st, bad, err := sig.DecodeState(data)
	if err != nil {
		metrics.StateResetsTotal.Inc()
		log.Warn().Err(err).Msg("state unreadable, answering with no orders")
		return write(out, trader.Result{Orders: map[string][]execution.Order{}})
	}

	res := tr.Run(st)
	symbols := make([]string, 0, len(bad))
	for sym := range bad {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	for _, sym := range symbols {
		metrics.InstrumentFailuresTotal.WithLabelValues(sym).Inc()
		log.Warn().Err(bad[sym]).Str("sym", sym).Int64("ts", st.Timestamp).Msg("instrument skipped")
		res.Orders[sym] = []execution.Order{}
	}
	return write(out, res)
}

func write(out io.Writer, res trader.Result) error {
	resp := response{
		Orders:      make(map[string][][2]int, len(res.Orders)),
		Conversions: res.Conversions,
		TraderData:  res.TraderData,
	}
	for sym, orders := range res.Orders {
		pairs := make([][2]int, 0, len(orders))
		for _, o := range orders {
			pairs = append(pairs, [2]int{o.Price, o.SignedQty()})
		}
		resp.Orders[sym] = pairs
	}
	return json.NewEncoder(out).Encode(resp)
}
