package valuation

import (
	"github.com/vportnov/balancetrack/internal/domain"
)

const fiatQuote = "USDT"

// stablecoins are treated as pegged 1:1 to the fiat reference and bypass
// the price cache entirely.
var stablecoins = map[string]struct{}{
	"USDT": {},
	"BUSD": {},
}

// bridges are intermediate assets tried, in order, when no direct fiat
// pair exists for an asset.
var bridges = []string{"BTC", "ETH"}

// PriceLookup is the read side of the price cache.
type PriceLookup interface {
	Lookup(pair string) (float64, bool)
}

// Engine resolves fiat prices for asset codes and valuates balances.
type Engine struct {
	prices PriceLookup
}

// NewEngine creates a valuation engine reading prices from the given cache.
func NewEngine(prices PriceLookup) *Engine {
	return &Engine{prices: prices}
}

// Valuate resolves the fiat price for an asset code and multiplies it by
// the quantity. Resolution order: stablecoin peg, direct USDT pair, direct
// BUSD pair, a bridge through BTC or ETH, and finally zero. An
// unresolvable price is not an error; the asset simply contributes nothing
// to the total.
func (e *Engine) Valuate(code string, quantity float64) (price, value float64) {
	price = e.resolvePrice(code)
	return price, price * quantity
}

func (e *Engine) resolvePrice(code string) float64 {
	if _, ok := stablecoins[code]; ok {
		return 1
	}

	if price, ok := e.prices.Lookup(code + fiatQuote); ok {
		return price
	}
	if price, ok := e.prices.Lookup(code + "BUSD"); ok {
		return price
	}

	// No fiat quote for this asset; try a two-hop conversion through an
	// intermediate pair, e.g. XMRBTC * BTCUSDT.
	for _, bridge := range bridges {
		base, ok := e.prices.Lookup(code + bridge)
		if !ok {
			continue
		}
		fiat, ok := e.prices.Lookup(bridge + fiatQuote)
		if !ok {
			continue
		}
		return base * fiat
	}

	return 0
}

// FilterNonZero keeps only assets whose total held quantity is positive.
// Zero-quantity assets are absent from the result, never present with a
// zero value.
func FilterNonZero(raw map[string]domain.RawBalance) map[string]domain.AssetBalance {
	balances := make(map[string]domain.AssetBalance)
	for code, b := range raw {
		total := b.Available + b.OnOrder
		if total <= 0 {
			continue
		}
		balances[code] = domain.AssetBalance{
			Available: b.Available,
			Order:     b.OnOrder,
			Total:     total,
		}
	}
	return balances
}

// Portfolio filters the raw balances and valuates every remaining asset
// against the current cache contents, returning the balance map and the
// summed total fiat value.
func (e *Engine) Portfolio(raw map[string]domain.RawBalance) (map[string]domain.AssetBalance, float64) {
	balances := FilterNonZero(raw)

	var total float64
	for code, b := range balances {
		b.Price, b.Value = e.Valuate(code, b.Total)
		balances[code] = b
		total += b.Value
	}
	return balances, total
}
