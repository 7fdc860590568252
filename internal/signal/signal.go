// Package signal standardizes payloads shared between the harness, the feed and strategy layers.
package signal

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedBook reports an order book that cannot be traded against.
var ErrMalformedBook = errors.New("malformed order book")

// OrderDepth holds the resting liquidity of one instrument: price level -> available quantity.
// Sell-side quantities may arrive negative (exchange convention); the magnitude is what is available.
type OrderDepth struct {
	BuyOrders  map[int]int `json:"buy_orders"`
	SellOrders map[int]int `json:"sell_orders"`
}

// State models everything the harness hands over on a single tick.
type State struct {
	Timestamp   int64                 `json:"timestamp"`
	TraderData  string                `json:"traderData"`
	OrderDepths map[string]OrderDepth `json:"order_depths"`
	Position    map[string]int        `json:"position"`
}

// envelope is State with books left raw so each instrument decodes on its own.
type envelope struct {
	Timestamp   int64                      `json:"timestamp"`
	TraderData  string                     `json:"traderData"`
	OrderDepths map[string]json.RawMessage `json:"order_depths"`
	Position    map[string]int             `json:"position"`
}

// DecodeState parses a tick state. A book that does not decode is left out
// of OrderDepths and reported in bad under its symbol; err is only for an
// unreadable envelope.
func DecodeState(data []byte) (st State, bad map[string]error, err error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return State{}, nil, fmt.Errorf("decode state: %w", err)
	}
	st = State{
		Timestamp:   env.Timestamp,
		TraderData:  env.TraderData,
		OrderDepths: make(map[string]OrderDepth, len(env.OrderDepths)),
		Position:    env.Position,
	}
	for sym, raw := range env.OrderDepths {
		var depth OrderDepth
		if err := json.Unmarshal(raw, &depth); err != nil {
			if bad == nil {
				bad = make(map[string]error)
			}
			bad[sym] = fmt.Errorf("%w: %s: %v", ErrMalformedBook, sym, err)
			continue
		}
		st.OrderDepths[sym] = depth
	}
	return st, bad, nil
}

// Intent expresses a directional order proposal produced by a strategy implementation.
type Intent struct {
	Symbol string
	Side   int // +1 buy, -1 sell
	Price  int
	Qty    int
}

// BestBid returns the highest buy level and its quantity.
func (d OrderDepth) BestBid() (price, qty int, ok bool) {
	for px, q := range d.BuyOrders {
		if !ok || px > price {
			price, qty, ok = px, q, true
		}
	}
	return price, abs(qty), ok
}

// BestAsk returns the lowest sell level and its quantity.
func (d OrderDepth) BestAsk() (price, qty int, ok bool) {
	for px, q := range d.SellOrders {
		if !ok || px < price {
			price, qty, ok = px, q, true
		}
	}
	return price, abs(qty), ok
}

// MidPrice averages best bid and best ask; it is only defined when both sides rest.
func (d OrderDepth) MidPrice() (float64, bool) {
	bid, _, okBid := d.BestBid()
	ask, _, okAsk := d.BestAsk()
	if !okBid || !okAsk {
		return 0, false
	}
	return (float64(bid) + float64(ask)) / 2, true
}

// BidVolume sums the quantity resting on the buy side.
func (d OrderDepth) BidVolume() int { return volume(d.BuyOrders) }

// AskVolume sums the magnitude of the quantity resting on the sell side.
func (d OrderDepth) AskVolume() int { return volume(d.SellOrders) }

func volume(side map[int]int) int {
	total := 0
	for _, q := range side {
		total += abs(q)
	}
	return total
}

// Validate rejects levels a strategy must not act on.
func (d OrderDepth) Validate() error {
	for px, q := range d.BuyOrders {
		if px <= 0 || q <= 0 {
			return fmt.Errorf("%w: bid level %d x %d", ErrMalformedBook, px, q)
		}
	}
	for px, q := range d.SellOrders {
		if px <= 0 || q == 0 {
			return fmt.Errorf("%w: ask level %d x %d", ErrMalformedBook, px, q)
		}
	}
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
