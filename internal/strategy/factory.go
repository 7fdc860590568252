package strategy

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidProduct reports an unusable product definition.
var ErrInvalidProduct = errors.New("invalid product")

// Product is the fixed trading configuration of one instrument.
// SpreadFactor > 0 turns on passive quoting at that fraction of the touch.
type Product struct {
	Symbol           string
	PositionLimit    int
	Window           int
	EdgeBps          float64
	SpreadFactor     float64
	VolatilityAdjust bool
}

// Registry maps instrument identifiers to their configuration.
type Registry struct {
	products map[string]Product
}

// DefaultProducts returns the reference two-instrument deployment.
func DefaultProducts() []Product {
	return []Product{
		{Symbol: "RAINFOREST_RESIN", PositionLimit: 50, Window: 100},
		{Symbol: "KELP", PositionLimit: 50, Window: 10},
	}
}

// QuotingProducts is the richer deployment: a 2% take threshold plus
// volatility-adjusted passive quotes on both instruments.
func QuotingProducts() []Product {
	return []Product{
		{Symbol: "RAINFOREST_RESIN", PositionLimit: 50, Window: 100, EdgeBps: 200, SpreadFactor: 0.5, VolatilityAdjust: true},
		{Symbol: "KELP", PositionLimit: 50, Window: 10, EdgeBps: 200, SpreadFactor: 0.3, VolatilityAdjust: true},
	}
}

// Quoting reports whether passive quotes are enabled for the product.
func (p Product) Quoting() bool { return p.SpreadFactor > 0 }

// NewRegistry validates products and indexes them by symbol.
func NewRegistry(products []Product) (*Registry, error) {
	reg := &Registry{products: make(map[string]Product, len(products))}
	for _, p := range products {
		p.Symbol = strings.TrimSpace(p.Symbol)
		switch {
		case p.Symbol == "":
			return nil, fmt.Errorf("%w: empty symbol", ErrInvalidProduct)
		case p.Window < 1:
			return nil, fmt.Errorf("%w: %s window %d", ErrInvalidProduct, p.Symbol, p.Window)
		case p.PositionLimit < 0:
			return nil, fmt.Errorf("%w: %s position limit %d", ErrInvalidProduct, p.Symbol, p.PositionLimit)
		case p.EdgeBps < 0:
			return nil, fmt.Errorf("%w: %s edge %.2f", ErrInvalidProduct, p.Symbol, p.EdgeBps)
		case p.SpreadFactor < 0:
			return nil, fmt.Errorf("%w: %s spread factor %.2f", ErrInvalidProduct, p.Symbol, p.SpreadFactor)
		}
		if _, dup := reg.products[p.Symbol]; dup {
			return nil, fmt.Errorf("%w: duplicate symbol %s", ErrInvalidProduct, p.Symbol)
		}
		reg.products[p.Symbol] = p
	}
	return reg, nil
}

// MustRegistry is NewRegistry for static tables; it panics on invalid input.
func MustRegistry(products []Product) *Registry {
	reg, err := NewRegistry(products)
	if err != nil {
		panic(err)
	}
	return reg
}

// Lookup returns the product configured for symbol.
func (r *Registry) Lookup(symbol string) (Product, bool) {
	p, ok := r.products[symbol]
	return p, ok
}

// Symbols lists configured instruments in sorted order.
func (r *Registry) Symbols() []string {
	out := make([]string, 0, len(r.products))
	for sym := range r.products {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
