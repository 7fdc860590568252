package paper

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"meanrev-go/internal/execution"
	sig "meanrev-go/internal/signal"
)

// ErrPositionLimit reports a symbol's order set that could breach its limit if fully filled.
var ErrPositionLimit = errors.New("position limit exceeded")

// FillRecorder captures paper fills for later inspection.
type FillRecorder interface {
	Record(execution.Fill)
}

// Account tracks cash and signed integer positions while replaying ticks. Shorts are allowed down to -limit.
type Account struct {
	mu           sync.Mutex
	startingCash decimal.Decimal
	cash         decimal.Decimal
	limits       map[string]int
	positions    map[string]int
	recorders    []FillRecorder
}

// PositionSnapshot exposes a read-only view of a single symbol position.
type PositionSnapshot struct {
	Qty         int
	Mark        float64
	MarketValue decimal.Decimal
}

// Snapshot represents a view of the account state marked to market using provided prices.
type Snapshot struct {
	Cash      decimal.Decimal
	Equity    decimal.Decimal
	PnL       decimal.Decimal
	Positions map[string]PositionSnapshot
}

// NewAccount constructs an account with starting cash and per-symbol position limits.
func NewAccount(startingCash float64, limits map[string]int, recorders ...FillRecorder) *Account {
	cash := decimal.NewFromFloat(startingCash)
	l := make(map[string]int, len(limits))
	for sym, v := range limits {
		l[sym] = v
	}
	return &Account{
		startingCash: cash,
		cash:         cash,
		limits:       l,
		positions:    make(map[string]int),
		recorders:    recorders,
	}
}

// Positions returns a copy of the current positions, shaped like the harness input.
func (a *Account) Positions() map[string]int {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]int, len(a.positions))
	for sym, qty := range a.positions {
		out[sym] = qty
	}
	return out
}

// Position returns the current position for symbol.
func (a *Account) Position(symbol string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.positions[symbol]
}

// Execute matches one symbol's orders against depth. Both sides are checked
// against the position held before the tick: if the total buy or total sell
// quantity could breach the limit, every order for the symbol is rejected.
// Buys take asks at or below their price, cheapest first; sells take bids at
// or above their price, richest first. Consumed liquidity is not reused.
func (a *Account) Execute(timestamp int64, symbol string, depth sig.OrderDepth, orders []execution.Order) ([]execution.Fill, error) {
	if len(orders) == 0 {
		return nil, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	pos := a.positions[symbol]
	limit, limited := a.limits[symbol]
	var buys, sells int
	for _, o := range orders {
		if o.Symbol != symbol || o.Qty <= 0 {
			return nil, fmt.Errorf("invalid order %+v for %s", o, symbol)
		}
		if o.Side == execution.Buy {
			buys += o.Qty
		} else {
			sells += o.Qty
		}
	}
	if limited && (pos+buys > limit || pos-sells < -limit) {
		return nil, fmt.Errorf("%w: %s pos=%d buys=%d sells=%d limit=%d", ErrPositionLimit, symbol, pos, buys, sells, limit)
	}

	asks := levels(depth.SellOrders)
	bids := levels(depth.BuyOrders)
	sort.Slice(asks, func(i, j int) bool { return asks[i].price < asks[j].price })
	sort.Slice(bids, func(i, j int) bool { return bids[i].price > bids[j].price })

	var fills []execution.Fill
	for _, o := range orders {
		book := asks
		crosses := func(px int) bool { return px <= o.Price }
		if o.Side == execution.Sell {
			book = bids
			crosses = func(px int) bool { return px >= o.Price }
		}
		remaining := o.Qty
		for i := range book {
			if remaining == 0 || !crosses(book[i].price) {
				break
			}
			take := min(remaining, book[i].qty)
			if take == 0 {
				continue
			}
			book[i].qty -= take
			remaining -= take
			fills = append(fills, a.apply(timestamp, symbol, o.Side, take, book[i].price))
		}
	}
	return fills, nil
}

func (a *Account) apply(timestamp int64, symbol string, side execution.Side, qty, price int) execution.Fill {
	notional := decimal.NewFromInt(int64(qty)).Mul(decimal.NewFromInt(int64(price)))
	if side == execution.Buy {
		a.cash = a.cash.Sub(notional)
		a.positions[symbol] += qty
	} else {
		a.cash = a.cash.Add(notional)
		a.positions[symbol] -= qty
	}
	fill := execution.Fill{Symbol: symbol, Side: side, Qty: qty, Price: price, Timestamp: timestamp}
	for _, r := range a.recorders {
		r.Record(fill)
	}
	return fill
}

// Snapshot returns balances marked with the supplied prices; unmarked positions count as zero value.
func (a *Account) Snapshot(marks map[string]float64) Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	positions := make(map[string]PositionSnapshot, len(a.positions))
	equity := a.cash
	for sym, qty := range a.positions {
		mark := marks[sym]
		value := decimal.NewFromInt(int64(qty)).Mul(decimal.NewFromFloat(mark))
		positions[sym] = PositionSnapshot{Qty: qty, Mark: mark, MarketValue: value}
		equity = equity.Add(value)
	}
	return Snapshot{
		Cash:      a.cash,
		Equity:    equity,
		PnL:       equity.Sub(a.startingCash),
		Positions: positions,
	}
}

type level struct {
	price int
	qty   int
}

func levels(side map[int]int) []level {
	out := make([]level, 0, len(side))
	for px, q := range side {
		if q < 0 {
			q = -q
		}
		out = append(out, level{price: px, qty: q})
	}
	return out
}
