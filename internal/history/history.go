// Package history keeps per-instrument mid-price series and carries them between ticks as an opaque token.
package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrStateCorruption reports a token that could not be decoded in full.
	ErrStateCorruption = errors.New("state corruption")
	// ErrNonFinite rejects NaN and infinities, which cannot be encoded into a token.
	ErrNonFinite = errors.New("non-finite price")
)

const (
	// legacyKey wraps the price series in tokens that also carry volatility.
	legacyKey     = "price_history"
	volatilityKey = "volatility_history"
)

// History is the in-memory form of the token. Series are kept in chronological order.
type History struct {
	series     map[string][]float64
	volatility map[string][]float64
}

// wrapped is the token layout used once any volatility has been recorded.
type wrapped struct {
	Prices     map[string][]float64 `json:"price_history"`
	Volatility map[string][]float64 `json:"volatility_history"`
}

// New returns an empty history.
func New() *History {
	return &History{
		series:     make(map[string][]float64),
		volatility: make(map[string][]float64),
	}
}

// Load decodes a token. An empty token is a cold start. On corruption the
// returned history is still usable: it holds whatever instruments decoded.
// A top-level "price_history" object selects the wrapped layout; as an array
// it is an ordinary instrument.
func Load(token string) (*History, error) {
	h := New()
	if token == "" {
		return h, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(token), &raw); err != nil {
		return h, fmt.Errorf("%w: %v", ErrStateCorruption, err)
	}
	nested, ok := raw[legacyKey]
	if !ok || !isObject(nested) {
		return h, errors.Join(decodeSeries(h.series, raw, "")...)
	}

	var prices map[string]json.RawMessage
	if err := json.Unmarshal(nested, &prices); err != nil {
		return h, fmt.Errorf("%w: %s: %v", ErrStateCorruption, legacyKey, err)
	}
	errs := decodeSeries(h.series, prices, "")
	if vol, ok := raw[volatilityKey]; ok {
		var vols map[string]json.RawMessage
		if err := json.Unmarshal(vol, &vols); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %v", ErrStateCorruption, volatilityKey, err))
		} else {
			errs = append(errs, decodeSeries(h.volatility, vols, volatilityKey+" ")...)
		}
	}
	return h, errors.Join(errs...)
}

func decodeSeries(dst map[string][]float64, raw map[string]json.RawMessage, label string) []error {
	var errs []error
	for symbol, msg := range raw {
		var values []float64
		if err := json.Unmarshal(msg, &values); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s%s: %v", ErrStateCorruption, label, symbol, err))
			continue
		}
		dst[symbol] = values
	}
	return errs
}

func isObject(msg json.RawMessage) bool {
	trimmed := bytes.TrimSpace(msg)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// Append adds price to the tail of symbol's series. A positive capacity keeps
// only the trailing capacity values; zero or negative leaves the series unbounded.
func (h *History) Append(symbol string, price float64, capacity int) error {
	return push(h.series, symbol, price, capacity)
}

// AppendVolatility records a volatility reading for symbol under the same capacity rule as Append.
func (h *History) AppendVolatility(symbol string, v float64, capacity int) error {
	return push(h.volatility, symbol, v, capacity)
}

func push(m map[string][]float64, symbol string, v float64, capacity int) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s", ErrNonFinite, symbol)
	}
	s := append(m[symbol], v)
	if capacity > 0 && len(s) > capacity {
		s = append([]float64(nil), s[len(s)-capacity:]...)
	}
	m[symbol] = s
	return nil
}

// Series returns a copy of symbol's prices, oldest first.
func (h *History) Series(symbol string) []float64 {
	return clone(h.series[symbol])
}

// Volatility returns a copy of symbol's volatility readings, oldest first.
func (h *History) Volatility(symbol string) []float64 {
	return clone(h.volatility[symbol])
}

func clone(s []float64) []float64 {
	out := make([]float64, len(s))
	copy(out, s)
	return out
}

// Len reports how many prices are stored for symbol.
func (h *History) Len(symbol string) int { return len(h.series[symbol]) }

// Symbols lists tracked instruments in sorted order.
func (h *History) Symbols() []string {
	out := make([]string, 0, len(h.series))
	for sym := range h.series {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Save encodes the history. Map keys are emitted sorted, so equal histories
// yield equal tokens. Without volatility readings the token is a flat
// instrument map; with them it uses the wrapped layout.
func (h *History) Save() (string, error) {
	var v any = nonNil(h.series)
	if len(h.volatility) > 0 {
		v = wrapped{Prices: nonNil(h.series), Volatility: nonNil(h.volatility)}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode history: %w", err)
	}
	return string(data), nil
}

func nonNil(m map[string][]float64) map[string][]float64 {
	out := make(map[string][]float64, len(m))
	for sym, s := range m {
		if s == nil {
			s = []float64{}
		}
		out[sym] = s
	}
	return out
}
