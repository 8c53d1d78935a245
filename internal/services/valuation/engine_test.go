package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vportnov/balancetrack/internal/domain"
)

type staticPrices map[string]float64

func (p staticPrices) Lookup(pair string) (float64, bool) {
	price, ok := p[pair]
	return price, ok
}

func TestResolvePrice(t *testing.T) {
	prices := staticPrices{
		"BTCUSDT": 30000,
		"ETHUSDT": 2000,
		"XMRBTC":  0.005,
		"RNDETH":  0.1,
		"ABCBUSD": 7,
	}
	engine := NewEngine(prices)

	tests := []struct {
		name     string
		code     string
		quantity float64
		price    float64
		value    float64
	}{
		{
			name:     "stablecoin is pegged regardless of cache",
			code:     "USDT",
			quantity: 100,
			price:    1,
			value:    100,
		},
		{
			name:     "BUSD is pegged too",
			code:     "BUSD",
			quantity: 3,
			price:    1,
			value:    3,
		},
		{
			name:     "direct USDT pair",
			code:     "BTC",
			quantity: 0.5,
			price:    30000,
			value:    15000,
		},
		{
			name:     "direct BUSD pair when no USDT pair exists",
			code:     "ABC",
			quantity: 2,
			price:    7,
			value:    14,
		},
		{
			name:     "bridge through BTC",
			code:     "XMR",
			quantity: 10,
			price:    150, // 0.005 * 30000
			value:    1500,
		},
		{
			name:     "bridge through ETH",
			code:     "RND",
			quantity: 5,
			price:    200, // 0.1 * 2000
			value:    1000,
		},
		{
			name:     "unresolvable asset prices to zero, not an error",
			code:     "NOPE",
			quantity: 42,
			price:    0,
			value:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, value := engine.Valuate(tt.code, tt.quantity)
			assert.InDelta(t, tt.price, price, 1e-9)
			assert.InDelta(t, tt.value, value, 1e-9)
		})
	}
}

func TestFilterNonZero(t *testing.T) {
	raw := map[string]domain.RawBalance{
		"BTC":  {Available: 0.5, OnOrder: 0},
		"ETH":  {Available: 0, OnOrder: 1.5},
		"DUST": {Available: 0, OnOrder: 0},
	}

	balances := FilterNonZero(raw)

	require.Len(t, balances, 2)
	assert.NotContains(t, balances, "DUST")
	assert.Equal(t, 0.5, balances["BTC"].Total)
	assert.Equal(t, 1.5, balances["ETH"].Total)
	assert.Equal(t, 1.5, balances["ETH"].Order)
}

func TestPortfolio(t *testing.T) {
	prices := staticPrices{"BTCUSDT": 30000}
	engine := NewEngine(prices)

	raw := map[string]domain.RawBalance{
		"BTC":  {Available: 0.5},
		"USDT": {Available: 100},
		"DUST": {},
	}

	balances, total := engine.Portfolio(raw)

	require.Len(t, balances, 2)
	assert.InDelta(t, 15100, total, 1e-9)
	assert.InDelta(t, 15000, balances["BTC"].Value, 1e-9)
	assert.InDelta(t, 30000, balances["BTC"].Price, 1e-9)
	assert.InDelta(t, 100, balances["USDT"].Value, 1e-9)
	assert.InDelta(t, 1, balances["USDT"].Price, 1e-9)

	var sum float64
	for _, b := range balances {
		sum += b.Value
	}
	assert.InDelta(t, total, sum, 1e-9)
}

func TestPortfolioKeepsUnpricedAssets(t *testing.T) {
	engine := NewEngine(staticPrices{})

	raw := map[string]domain.RawBalance{
		"OBSCURE": {Available: 12},
	}

	balances, total := engine.Portfolio(raw)

	require.Contains(t, balances, "OBSCURE")
	assert.Zero(t, balances["OBSCURE"].Price)
	assert.Zero(t, balances["OBSCURE"].Value)
	assert.Equal(t, 12.0, balances["OBSCURE"].Total)
	assert.Zero(t, total)
}
