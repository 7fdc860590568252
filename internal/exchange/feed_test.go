package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"meanrev-go/internal/signal"
)

func collect(t *testing.T, feed *Feed) ([]signal.State, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ticks := make(chan signal.State, 8)
	errCh := make(chan error, 1)
	go func() { errCh <- feed.Run(ctx, ticks) }()

	var out []signal.State
	for st := range ticks {
		out = append(out, st)
	}
	return out, <-errCh
}

func TestStubFeedEmitsBooks(t *testing.T) {
	feed := NewFeed(ProviderStub, []string{"KELP", "RAINFOREST_RESIN", "KELP", " "}, zerolog.Nop(), WithMaxTicks(50), WithSeed(3))
	states, err := collect(t, feed)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(states) != 50 {
		t.Fatalf("expected 50 ticks, got %d", len(states))
	}
	for i, st := range states {
		if st.Timestamp != int64(i*TimestampStep) {
			t.Fatalf("unexpected timestamp %d at tick %d", st.Timestamp, i)
		}
		if len(st.OrderDepths) != 2 {
			t.Fatalf("expected 2 instruments, got %d", len(st.OrderDepths))
		}
		for sym, depth := range st.OrderDepths {
			if err := depth.Validate(); err != nil {
				t.Fatalf("tick %d %s: generated malformed book: %v", i, sym, err)
			}
		}
	}
}

func TestStubFeedIsDeterministic(t *testing.T) {
	a, _ := collect(t, NewFeed(ProviderStub, []string{"KELP"}, zerolog.Nop(), WithMaxTicks(20), WithSeed(42)))
	b, _ := collect(t, NewFeed(ProviderStub, []string{"KELP"}, zerolog.Nop(), WithMaxTicks(20), WithSeed(42)))
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected identical runs for identical seeds")
	}
}

func TestStubFeedStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	feed := NewFeed(ProviderStub, []string{"KELP"}, zerolog.Nop(), WithInterval(10*time.Millisecond))
	ticks := make(chan signal.State, 1)
	errCh := make(chan error, 1)
	go func() { errCh <- feed.Run(ctx, ticks) }()

	select {
	case <-ticks:
		cancel()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tick")
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("feed did not stop after cancel")
	}
}

func TestFileFeedReplays(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticks.jsonl")
	first := signal.State{Timestamp: 0, OrderDepths: map[string]signal.OrderDepth{
		"KELP": {BuyOrders: map[int]int{2018: 5}, SellOrders: map[int]int{2022: -5}},
	}}
	second := signal.State{Timestamp: 100, OrderDepths: map[string]signal.OrderDepth{
		"KELP": {BuyOrders: map[int]int{2019: 2}},
	}}
	var lines []byte
	for _, st := range []signal.State{first, second} {
		raw, err := json.Marshal(st)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		lines = append(lines, raw...)
		lines = append(lines, '\n')
	}
	lines = append(lines, []byte("not json\n\n")...)
	lines = append(lines, []byte(`{"timestamp":200,"order_depths":{"KELP":{"buy_orders":{"x":1}},"RAINFOREST_RESIN":{"buy_orders":{"9998":2}}}}`+"\n")...)
	if err := os.WriteFile(path, lines, 0o644); err != nil {
		t.Fatalf("write ticks: %v", err)
	}

	states, err := collect(t, NewFeed(ProviderFile, nil, zerolog.Nop(), WithPath(path)))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(states) != 3 {
		t.Fatalf("expected 3 replayed ticks, got %d", len(states))
	}
	if _, ok := states[2].OrderDepths["KELP"]; ok || states[2].OrderDepths["RAINFOREST_RESIN"].BuyOrders[9998] != 2 {
		t.Fatalf("expected only the readable book kept, got %+v", states[2].OrderDepths)
	}
	if states[1].Timestamp != 100 || states[1].OrderDepths["KELP"].BuyOrders[2019] != 2 {
		t.Fatalf("unexpected second tick %+v", states[1])
	}
}

func TestFileFeedMissingFile(t *testing.T) {
	_, err := collect(t, NewFeed(ProviderFile, nil, zerolog.Nop(), WithPath(filepath.Join(t.TempDir(), "missing.jsonl"))))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestUnknownProvider(t *testing.T) {
	_, err := collect(t, NewFeed("binance", []string{"KELP"}, zerolog.Nop()))
	if err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}
