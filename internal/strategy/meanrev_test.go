package strategy

import (
	"testing"

	"meanrev-go/internal/signal"
)

func TestEvaluateNoFairValue(t *testing.T) {
	strat := NewMeanReversion(0)
	depth := signal.OrderDepth{BuyOrders: map[int]int{110: 3}, SellOrders: map[int]int{95: -5}}
	if intents := strat.Evaluate("KELP", depth, 0, false); len(intents) != 0 {
		t.Fatalf("expected no intents without fair value, got %+v", intents)
	}
}

func TestEvaluateBothSidesCross(t *testing.T) {
	strat := NewMeanReversion(0)
	depth := signal.OrderDepth{
		BuyOrders:  map[int]int{110: 3, 105: 10},
		SellOrders: map[int]int{95: -5, 97: -8},
	}

	intents := strat.Evaluate("KELP", depth, 100, true)
	if len(intents) != 2 {
		t.Fatalf("expected buy and sell intents, got %+v", intents)
	}
	buy, sell := intents[0], intents[1]
	if buy.Side != 1 || buy.Price != 95 || buy.Qty != 5 {
		t.Fatalf("unexpected buy intent %+v", buy)
	}
	if sell.Side != -1 || sell.Price != 110 || sell.Qty != 3 {
		t.Fatalf("unexpected sell intent %+v", sell)
	}
	if buy.Symbol != "KELP" || sell.Symbol != "KELP" {
		t.Fatalf("expected symbol propagated")
	}
}

func TestEvaluateQuietBook(t *testing.T) {
	strat := NewMeanReversion(0)
	depth := signal.OrderDepth{BuyOrders: map[int]int{99: 3}, SellOrders: map[int]int{101: -5}}
	if intents := strat.Evaluate("KELP", depth, 100, true); len(intents) != 0 {
		t.Fatalf("expected no intents on quiet book, got %+v", intents)
	}

	atFair := signal.OrderDepth{BuyOrders: map[int]int{100: 3}, SellOrders: map[int]int{100: -5}}
	if intents := strat.Evaluate("KELP", atFair, 100, true); len(intents) != 0 {
		t.Fatalf("expected no intents when best prices equal fair, got %+v", intents)
	}
}

func TestEvaluateMissingSide(t *testing.T) {
	strat := NewMeanReversion(0)
	depth := signal.OrderDepth{SellOrders: map[int]int{95: -5}}
	intents := strat.Evaluate("KELP", depth, 100, true)
	if len(intents) != 1 || intents[0].Side != 1 {
		t.Fatalf("expected only buy intent, got %+v", intents)
	}
}

func TestEvaluateEdgeThreshold(t *testing.T) {
	strat := NewMeanReversion(200)
	depth := signal.OrderDepth{BuyOrders: map[int]int{101: 3}, SellOrders: map[int]int{99: -5}}
	if intents := strat.Evaluate("KELP", depth, 100, true); len(intents) != 0 {
		t.Fatalf("expected edge to suppress small crosses, got %+v", intents)
	}

	wide := signal.OrderDepth{BuyOrders: map[int]int{103: 3}, SellOrders: map[int]int{97: -5}}
	if intents := strat.Evaluate("KELP", wide, 100, true); len(intents) != 2 {
		t.Fatalf("expected both sides beyond 2%% edge, got %+v", intents)
	}
}
