// Package strategy turns order books and reference prices into order intents.
package strategy

import (
	sig "meanrev-go/internal/signal"
)

// MeanReversion takes resting liquidity that is mispriced against a fair value:
// asks below it are bought, bids above it are sold.
type MeanReversion struct {
	edge float64
}

// NewMeanReversion builds an evaluator that demands edgeBps basis points of
// discount (or premium) to the fair value before taking. Zero takes any cross.
func NewMeanReversion(edgeBps float64) *MeanReversion {
	if edgeBps < 0 {
		edgeBps = 0
	}
	return &MeanReversion{edge: edgeBps / 10_000}
}

// Name returns the identifier for logging.
func (m *MeanReversion) Name() string { return "MeanReversion" }

// Evaluate emits up to two intents, buy first. Each side fires independently
// and takes the full quantity resting at the best level.
func (m *MeanReversion) Evaluate(symbol string, depth sig.OrderDepth, fair float64, ok bool) []sig.Intent {
	if !ok {
		return nil
	}

	var intents []sig.Intent
	if ask, qty, found := depth.BestAsk(); found && float64(ask) < fair*(1-m.edge) {
		intents = append(intents, sig.Intent{Symbol: symbol, Side: 1, Price: ask, Qty: qty})
	}
	if bid, qty, found := depth.BestBid(); found && float64(bid) > fair*(1+m.edge) {
		intents = append(intents, sig.Intent{Symbol: symbol, Side: -1, Price: bid, Qty: qty})
	}
	return intents
}
