// Package exchange hosts the simulated venues that produce tick states for the paper harness.
package exchange

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	sig "meanrev-go/internal/signal"
)

const (
	// ProviderStub emits seeded synthetic order books (useful for tests/offline work).
	ProviderStub = "stub"
	// ProviderFile replays tick states recorded as JSON lines.
	ProviderFile = "file"
)

const (
	// TimestampStep is the simulated clock advance between ticks.
	TimestampStep = 100

	stubAnchoredValue = 10000.0
	stubWalkStart     = 2000.0
	maxLineBytes      = 4 << 20
)

// Feed represents a pluggable tick source.
type Feed struct {
	provider string
	symbols  []string
	log      zerolog.Logger
	interval time.Duration
	seed     int64
	maxTicks int
	path     string
}

// Option configures Feed construction parameters.
type Option func(*Feed)

// WithInterval paces emission; zero emits as fast as the consumer reads.
func WithInterval(d time.Duration) Option {
	return func(f *Feed) {
		if d >= 0 {
			f.interval = d
		}
	}
}

// WithSeed fixes the synthetic book generator so runs repeat.
func WithSeed(seed int64) Option {
	return func(f *Feed) { f.seed = seed }
}

// WithMaxTicks stops the feed after n ticks; zero or negative means unlimited.
func WithMaxTicks(n int) Option {
	return func(f *Feed) { f.maxTicks = n }
}

// WithPath names the JSON-lines file replayed by ProviderFile.
func WithPath(path string) Option {
	return func(f *Feed) { f.path = path }
}

// NewFeed constructs a feed backed by the requested provider. Symbols are deduplicated and sorted.
func NewFeed(provider string, symbols []string, log zerolog.Logger, opts ...Option) *Feed {
	if provider == "" {
		provider = ProviderStub
	}
	f := &Feed{
		provider: strings.ToLower(provider),
		log:      log,
		seed:     1,
	}
	unique := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		sym = strings.TrimSpace(sym)
		if sym == "" {
			continue
		}
		unique[sym] = struct{}{}
	}
	for sym := range unique {
		f.symbols = append(f.symbols, sym)
	}
	sort.Strings(f.symbols)
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Run pushes tick states onto out until the source is exhausted or the context is canceled.
// It closes out when it returns.
func (f *Feed) Run(ctx context.Context, out chan<- sig.State) error {
	defer close(out)
	switch f.provider {
	case ProviderFile:
		return f.runFile(ctx, out)
	case ProviderStub:
		return f.runStub(ctx, out)
	default:
		return fmt.Errorf("unknown feed provider %q", f.provider)
	}
}

func (f *Feed) emit(ctx context.Context, out chan<- sig.State, st sig.State, pace <-chan time.Time) error {
	if pace != nil {
		select {
		case <-pace:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	select {
	case out <- st:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Feed) pacer() (<-chan time.Time, func()) {
	if f.interval <= 0 {
		return nil, func() {}
	}
	ticker := time.NewTicker(f.interval)
	return ticker.C, ticker.Stop
}

func (f *Feed) runFile(ctx context.Context, out chan<- sig.State) error {
	file, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("open tick file: %w", err)
	}
	defer file.Close()

	pace, stop := f.pacer()
	defer stop()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	line, sent := 0, 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		st, bad, err := sig.DecodeState([]byte(raw))
		if err != nil {
			f.log.Warn().Err(err).Int("line", line).Msg("skipping unreadable tick")
			continue
		}
		for sym, err := range bad {
			f.log.Warn().Err(err).Int("line", line).Str("sym", sym).Msg("dropping unreadable book")
		}
		if err := f.emit(ctx, out, st, pace); err != nil {
			return err
		}
		sent++
		if f.maxTicks > 0 && sent >= f.maxTicks {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read tick file: %w", err)
	}
	f.log.Info().Str("path", f.path).Int("ticks", sent).Msg("tick file exhausted")
	return nil
}

// stubMarket is the hidden fair value of one synthetic instrument.
type stubMarket struct {
	value    float64
	anchored bool
}

func (f *Feed) runStub(ctx context.Context, out chan<- sig.State) error {
	rng := rand.New(rand.NewSource(f.seed))
	markets := make(map[string]*stubMarket, len(f.symbols))
	for _, sym := range f.symbols {
		if strings.Contains(sym, "RESIN") {
			markets[sym] = &stubMarket{value: stubAnchoredValue, anchored: true}
		} else {
			markets[sym] = &stubMarket{value: stubWalkStart}
		}
	}

	pace, stop := f.pacer()
	defer stop()

	for n := 0; f.maxTicks <= 0 || n < f.maxTicks; n++ {
		st := sig.State{
			Timestamp:   int64(n) * TimestampStep,
			OrderDepths: make(map[string]sig.OrderDepth, len(f.symbols)),
		}
		for _, sym := range f.symbols {
			m := markets[sym]
			if !m.anchored {
				m.value += rng.NormFloat64()
			}
			st.OrderDepths[sym] = stubBook(rng, m.value)
		}
		if err := f.emit(ctx, out, st, pace); err != nil {
			return err
		}
	}
	return nil
}

// stubBook lays a few levels either side of value. Now and then a level
// crosses value, or one side is missing, so strategies have something to do.
func stubBook(rng *rand.Rand, value float64) sig.OrderDepth {
	lo := int(math.Floor(value))
	hi := int(math.Ceil(value))
	if lo == hi {
		hi++
	}
	half := 1 + rng.Intn(2)
	depth := sig.OrderDepth{BuyOrders: map[int]int{}, SellOrders: map[int]int{}}
	for i := 0; i < 3; i++ {
		depth.BuyOrders[lo-half-i] += 1 + rng.Intn(25)
		depth.SellOrders[hi+half+i] -= 1 + rng.Intn(25)
	}
	if rng.Float64() < 0.1 {
		depth.SellOrders[lo-1] -= 1 + rng.Intn(5)
	}
	if rng.Float64() < 0.1 {
		depth.BuyOrders[hi+1] += 1 + rng.Intn(5)
	}
	switch r := rng.Float64(); {
	case r < 0.02:
		depth.BuyOrders = map[int]int{}
	case r < 0.04:
		depth.SellOrders = map[int]int{}
	}
	return depth
}
