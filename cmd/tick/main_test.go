package main

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"meanrev-go/internal/strategy"
	"meanrev-go/internal/trader"
)

func TestRunWritesHarnessResponse(t *testing.T) {
	in := strings.NewReader(`{
		"timestamp": 300,
		"traderData": "{\"KELP\":[100,100,100,100,100,100,100,100,100]}",
		"order_depths": {"KELP": {"buy_orders": {"110": 3}, "sell_orders": {"95": -5}}},
		"position": {"KELP": 48}
	}`)
	var out bytes.Buffer
	tr := trader.New(strategy.MustRegistry(strategy.DefaultProducts()))
	if err := run(in, &out, tr, zerolog.Nop()); err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	var resp response
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	kelp := resp.Orders["KELP"]
	if len(kelp) != 2 {
		t.Fatalf("expected 2 KELP orders, got %v", kelp)
	}
	if kelp[0] != [2]int{95, 2} {
		t.Fatalf("expected buy clamped to 2 @95, got %v", kelp[0])
	}
	if kelp[1] != [2]int{110, -3} {
		t.Fatalf("expected sell 3 @110, got %v", kelp[1])
	}
	if resp.Conversions != 0 || resp.TraderData == "" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestRunAnswersUnreadableInput(t *testing.T) {
	tr := trader.New(strategy.MustRegistry(strategy.DefaultProducts()))
	for _, in := range []string{"{", "", `{"order_depths":[1]}`} {
		var out bytes.Buffer
		if err := run(strings.NewReader(in), &out, tr, zerolog.Nop()); err != nil {
			t.Fatalf("%q: run returned error: %v", in, err)
		}
		if got := strings.TrimSpace(out.String()); got != `{"orders":{},"conversions":0,"traderData":""}` {
			t.Fatalf("%q: unexpected response %s", in, got)
		}
	}
}

func TestRunIsolatesUndecodableBook(t *testing.T) {
	const kelp = `"KELP": {"buy_orders": {"110": 3}, "sell_orders": {"95": -5}}`
	const token = `"traderData": "{\"KELP\":[100,100,100]}"`
	tr := trader.New(strategy.MustRegistry(strategy.DefaultProducts()))

	decode := func(in string) response {
		t.Helper()
		var out, logs bytes.Buffer
		if err := run(strings.NewReader(in), &out, tr, zerolog.New(&logs)); err != nil {
			t.Fatalf("run returned error: %v", err)
		}
		var resp response
		if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if strings.Contains(in, "two") && !strings.Contains(logs.String(), "instrument skipped") {
			t.Fatalf("expected skipped instrument warning, got %s", logs.String())
		}
		return resp
	}

	alone := decode(`{` + token + `, "order_depths": {` + kelp + `}}`)
	mixed := decode(`{` + token + `, "order_depths": {` + kelp + `,
		"RAINFOREST_RESIN": {"buy_orders": {"9998": "two"}, "sell_orders": {"10002": -2}}}}`)

	if len(mixed.Orders["KELP"]) != 2 || !reflect.DeepEqual(alone.Orders["KELP"], mixed.Orders["KELP"]) {
		t.Fatalf("bad RESIN book changed KELP orders: %v vs %v", alone.Orders["KELP"], mixed.Orders["KELP"])
	}
	if resin, ok := mixed.Orders["RAINFOREST_RESIN"]; !ok || len(resin) != 0 {
		t.Fatalf("expected empty RESIN order list, got %v (present=%v)", resin, ok)
	}
	if mixed.TraderData == "" || mixed.TraderData != alone.TraderData {
		t.Fatalf("expected token carried past the bad book, got %q vs %q", mixed.TraderData, alone.TraderData)
	}
}
