package strategy

import (
	"math"

	sig "meanrev-go/internal/signal"
)

// VolatilityWindow is how many trailing mid-prices feed one volatility reading.
const VolatilityWindow = 20

// Volatility is the population standard deviation of the last window values
// of series. It is zero until window values exist.
func Volatility(series []float64, window int) float64 {
	if window < 1 || len(series) < window {
		return 0
	}
	tail := series[len(series)-window:]
	mean := 0.0
	for _, v := range tail {
		mean += v
	}
	mean /= float64(window)
	variance := 0.0
	for _, v := range tail {
		variance += (v - mean) * (v - mean)
	}
	return math.Sqrt(variance / float64(window))
}

// Quoter posts passive orders around the mid-price. The spread is a fraction
// of the touch, optionally widened when volatility runs above its average,
// and both quotes shift against the current position so inventory unwinds.
type Quoter struct {
	spreadFactor float64
	volAdjust    bool
}

// NewQuoter returns nil when spreadFactor is not positive, which disables quoting.
func NewQuoter(spreadFactor float64, volatilityAdjust bool) *Quoter {
	if spreadFactor <= 0 {
		return nil
	}
	return &Quoter{spreadFactor: spreadFactor, volAdjust: volatilityAdjust}
}

// Name returns the identifier for logging.
func (q *Quoter) Name() string { return "Quoter" }

// Quote emits up to two passive intents, bid first. It needs both sides of
// the book. vol is this tick's reading and volHistory the recorded readings
// including it. Quantities shrink as |position| approaches limit; the caller
// still sizes them against the limit.
func (q *Quoter) Quote(symbol string, depth sig.OrderDepth, position, limit int, vol float64, volHistory []float64) []sig.Intent {
	if q == nil || limit <= 0 {
		return nil
	}
	bid, _, okBid := depth.BestBid()
	ask, _, okAsk := depth.BestAsk()
	if !okBid || !okAsk {
		return nil
	}

	mid := (float64(bid) + float64(ask)) / 2
	spread := (float64(ask) - float64(bid)) * q.spreadFactor
	if q.volAdjust && len(volHistory) > 0 {
		factor := 1.0
		if avg := average(volHistory); avg > 0 {
			factor = vol / avg
		}
		spread *= 1 + factor*0.5
	}

	fill := math.Abs(float64(position)) / float64(limit)
	skew := spread * fill * sign(position)
	ourBid := math.Min(mid-spread/2-skew, float64(bid))
	ourAsk := math.Max(mid+spread/2-skew, float64(ask))

	scale := 1 - fill
	buyQty := min(depth.AskVolume(), max(1, int(float64(limit-position)*scale)))
	sellQty := min(depth.BidVolume(), max(1, int(float64(limit+position)*scale)))

	var intents []sig.Intent
	if bidPx := int(math.Floor(ourBid)); buyQty > 0 && bidPx > 0 && ourBid < float64(ask) {
		intents = append(intents, sig.Intent{Symbol: symbol, Side: 1, Price: bidPx, Qty: buyQty})
	}
	if sellQty > 0 && ourAsk > float64(bid) {
		intents = append(intents, sig.Intent{Symbol: symbol, Side: -1, Price: int(math.Floor(ourAsk)), Qty: sellQty})
	}
	return intents
}

func average(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

func sign(v int) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
