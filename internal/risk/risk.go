// Package risk bounds order intents by position limits.
package risk

import (
	"meanrev-go/internal/execution"
	sig "meanrev-go/internal/signal"
)

// Limits holds the symmetric position limit of one instrument: positions stay within -PositionLimit..+PositionLimit.
type Limits struct {
	PositionLimit int
}

// Headroom is how much more can be traded on side before the limit binds.
func (l Limits) Headroom(side execution.Side, position int) int {
	if side == execution.Sell {
		return l.PositionLimit + position
	}
	return l.PositionLimit - position
}

// Size clamps an intent to the remaining headroom from position. Each call
// sizes against the position as given; intents from the same tick do not
// see each other. ok is false when nothing can be traded.
func (l Limits) Size(intent sig.Intent, position int) (execution.Order, bool) {
	if intent.Qty <= 0 || intent.Side == 0 {
		return execution.Order{}, false
	}
	side := execution.SideOf(intent.Side)
	room := l.Headroom(side, position)
	if room <= 0 {
		return execution.Order{}, false
	}
	return execution.Order{
		Symbol: intent.Symbol,
		Side:   side,
		Qty:    min(intent.Qty, room),
		Price:  intent.Price,
	}, true
}

// SizeAll sizes intents in order. Buys draw on one shared headroom and sells
// on another, both measured from position, so the two sides never limit each
// other while repeated intents on one side cannot overshoot together.
func (l Limits) SizeAll(intents []sig.Intent, position int) []execution.Order {
	var orders []execution.Order
	bought, sold := 0, 0
	for _, intent := range intents {
		exposure := position + bought
		if intent.Side < 0 {
			exposure = position - sold
		}
		order, ok := l.Size(intent, exposure)
		if !ok {
			continue
		}
		if order.Side == execution.Buy {
			bought += order.Qty
		} else {
			sold += order.Qty
		}
		orders = append(orders, order)
	}
	return orders
}
