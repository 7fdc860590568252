// Package execution defines concrete orders and fills and the logger-backed submitter.
package execution

import (
	"meanrev-go/internal/metrics"

	"github.com/rs/zerolog"
)

// Side enumerates order directions used by the executor.
type Side string

const (
	// Buy indicates a long order.
	Buy Side = "BUY"
	// Sell indicates a short order.
	Sell Side = "SELL"
)

// SideOf maps a signal direction (+1/-1) to a Side.
func SideOf(direction int) Side {
	if direction < 0 {
		return Sell
	}
	return Buy
}

// Order represents a limit order proposed for the current tick. Qty is always positive.
type Order struct {
	Symbol string `json:"symbol"`
	Side   Side   `json:"side"`
	Qty    int    `json:"qty"`
	Price  int    `json:"price"`
}

// SignedQty returns the exchange wire quantity: negative for sells.
func (o Order) SignedQty() int {
	if o.Side == Sell {
		return -o.Qty
	}
	return o.Qty
}

// Fill is a (possibly partial) execution of an Order.
type Fill struct {
	Symbol    string `json:"symbol"`
	Side      Side   `json:"side"`
	Qty       int    `json:"qty"`
	Price     int    `json:"price"`
	Timestamp int64  `json:"timestamp"`
}

// Executor implements a logger-backed submitter for orders.
type Executor struct{ log zerolog.Logger }

// NewExecutor wraps a zerolog logger for order submissions.
func NewExecutor(log zerolog.Logger) *Executor { return &Executor{log: log} }

// Submit logs the order and counts it; matching happens in the harness.
func (executor *Executor) Submit(order Order) error {
	metrics.OrdersTotal.WithLabelValues(order.Symbol, string(order.Side)).Inc()
	executor.log.Info().Str("sym", order.Symbol).Str("side", string(order.Side)).Int("qty", order.Qty).Int("px", order.Price).Msg("submit order")
	return nil
}
