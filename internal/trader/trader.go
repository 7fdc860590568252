// Package trader runs one decision tick: history in, orders and history out.
package trader

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"meanrev-go/internal/execution"
	"meanrev-go/internal/history"
	"meanrev-go/internal/metrics"
	"meanrev-go/internal/risk"
	sig "meanrev-go/internal/signal"
	"meanrev-go/internal/strategy"
	"meanrev-go/internal/util"
)

const tokenPreviewLen = 256

// Result is what the harness receives back for a tick.
type Result struct {
	Orders      map[string][]execution.Order
	Conversions int
	TraderData  string
}

// Trader holds only configuration; all cross-tick memory travels in State.TraderData.
type Trader struct {
	registry   *strategy.Registry
	log        zerolog.Logger
	unbounded  bool
	evaluators map[string]*strategy.MeanReversion
	quoters    map[string]*strategy.Quoter
}

// Option configures Trader construction parameters.
type Option func(*Trader)

// WithLogger routes tick logs to log.
func WithLogger(log zerolog.Logger) Option {
	return func(t *Trader) { t.log = log }
}

// WithUnboundedHistory keeps every observed mid-price instead of the trailing window.
func WithUnboundedHistory() Option {
	return func(t *Trader) { t.unbounded = true }
}

// New builds a Trader over the product registry.
func New(registry *strategy.Registry, opts ...Option) *Trader {
	t := &Trader{
		registry:   registry,
		log:        zerolog.Nop(),
		evaluators: make(map[string]*strategy.MeanReversion),
		quoters:    make(map[string]*strategy.Quoter),
	}
	for _, opt := range opts {
		opt(t)
	}
	for _, sym := range registry.Symbols() {
		p, _ := registry.Lookup(sym)
		t.evaluators[sym] = strategy.NewMeanReversion(p.EdgeBps)
		if p.Quoting() {
			t.quoters[sym] = strategy.NewQuoter(p.SpreadFactor, p.VolatilityAdjust)
		}
	}
	return t
}

// Run processes a single tick. It never fails: bad trader data degrades to an
// empty history and a bad book only drops orders for its own instrument.
func (t *Trader) Run(state sig.State) Result {
	hist, err := history.Load(state.TraderData)
	if err != nil {
		metrics.StateResetsTotal.Inc()
		t.log.Warn().Err(err).Int64("ts", state.Timestamp).Msg("trader data unreadable, continuing with recovered history")
	}

	symbols := make([]string, 0, len(state.OrderDepths))
	for sym := range state.OrderDepths {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	result := Result{Orders: make(map[string][]execution.Order, len(symbols))}
	total := 0
	for _, sym := range symbols {
		orders, err := t.runInstrument(hist, sym, state.OrderDepths[sym], state.Position[sym])
		if err != nil {
			metrics.InstrumentFailuresTotal.WithLabelValues(sym).Inc()
			t.log.Warn().Err(err).Str("sym", sym).Int64("ts", state.Timestamp).Msg("instrument skipped")
			orders = nil
		}
		if orders == nil {
			orders = []execution.Order{}
		}
		result.Orders[sym] = orders
		total += len(orders)
	}

	token, err := hist.Save()
	if err != nil {
		t.log.Error().Err(err).Int64("ts", state.Timestamp).Msg("trader data not saved, next tick starts cold")
		token = ""
	}
	result.TraderData = token

	t.log.Debug().
		Int64("ts", state.Timestamp).
		Int("instruments", len(symbols)).
		Int("orders", total).
		Int("trader_data_len", len(token)).
		Str("trader_data", util.Truncate(token, tokenPreviewLen)).
		Msg("tick done")
	return result
}

func (t *Trader) runInstrument(hist *history.History, sym string, depth sig.OrderDepth, position int) (orders []execution.Order, err error) {
	defer func() {
		if r := recover(); r != nil {
			orders, err = nil, fmt.Errorf("instrument %s panicked: %v", sym, r)
		}
	}()

	product, ok := t.registry.Lookup(sym)
	if !ok {
		t.log.Debug().Str("sym", sym).Msg("no product configured, not trading")
		return nil, nil
	}
	if err := depth.Validate(); err != nil {
		return nil, err
	}
	metrics.TicksTotal.WithLabelValues(sym).Inc()

	capacity := product.Window
	if t.unbounded {
		capacity = 0
	}
	quoter := t.quoters[sym]
	vol := 0.0
	mid, hasMid := depth.MidPrice()
	if hasMid {
		if err := hist.Append(sym, mid, capacity); err != nil {
			return nil, err
		}
		if quoter != nil {
			vol = strategy.Volatility(hist.Series(sym), strategy.VolatilityWindow)
			if err := hist.AppendVolatility(sym, vol, capacity); err != nil {
				return nil, err
			}
			metrics.Volatility.WithLabelValues(sym).Set(vol)
		}
	}

	fair, ok := strategy.SMA(hist.Series(sym), product.Window)
	if ok {
		metrics.ReferencePrice.WithLabelValues(sym).Set(fair)
	}

	intents := t.evaluators[sym].Evaluate(sym, depth, fair, ok)
	if hasMid && quoter != nil {
		intents = append(intents, quoter.Quote(sym, depth, position, product.PositionLimit, vol, hist.Volatility(sym))...)
	}
	limits := risk.Limits{PositionLimit: product.PositionLimit}
	orders = limits.SizeAll(intents, position)
	if dropped := len(intents) - len(orders); dropped > 0 {
		t.log.Debug().Str("sym", sym).Int("pos", position).Int("suppressed", dropped).Msg("intents suppressed at position limit")
	}

	t.log.Debug().
		Str("sym", sym).
		Int("pos", position).
		Float64("fair", fair).
		Bool("has_fair", ok).
		Float64("vol", vol).
		Int("history", hist.Len(sym)).
		Int("orders", len(orders)).
		Msg("instrument evaluated")
	return orders, nil
}
