package clients

import (
	"context"
	"strconv"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"

	"github.com/vportnov/balancetrack/internal/domain"
)

// BinanceSession wraps one authenticated (or market-data-only) Binance
// client. Sessions are created once at startup and never recreated.
type BinanceSession struct {
	client *binance.Client
}

// NewBinanceSession creates a client for the given credentials and runs the
// server-time synchronization handshake. Binance rejects signed requests
// from clients whose clock drifts, so a session is not usable before the
// handshake succeeds.
func NewBinanceSession(ctx context.Context, apiKey, apiSecret string) (*BinanceSession, error) {
	client := binance.NewClient(apiKey, apiSecret)

	if _, err := client.NewSetServerTimeService().Do(ctx); err != nil {
		return nil, errors.Wrap(err, "sync binance server time")
	}

	return &BinanceSession{client: client}, nil
}

// AllPrices fetches the full ticker table. Entries whose price does not
// parse are dropped; the exchange payload is not trusted past this point.
func (s *BinanceSession) AllPrices(ctx context.Context) (map[string]float64, error) {
	prices, err := s.client.NewListPricesService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list binance prices")
	}

	table := make(map[string]float64, len(prices))
	for _, p := range prices {
		price, err := strconv.ParseFloat(p.Price, 64)
		if err != nil {
			continue
		}
		table[p.Symbol] = price
	}
	return table, nil
}

// AccountBalances fetches the raw asset balances of the session's account.
// Malformed quantity fields are dropped at this boundary.
func (s *BinanceSession) AccountBalances(ctx context.Context) (map[string]domain.RawBalance, error) {
	account, err := s.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "get binance account")
	}

	balances := make(map[string]domain.RawBalance, len(account.Balances))
	for _, b := range account.Balances {
		free, err := strconv.ParseFloat(b.Free, 64)
		if err != nil {
			continue
		}
		locked, err := strconv.ParseFloat(b.Locked, 64)
		if err != nil {
			continue
		}
		balances[b.Asset] = domain.RawBalance{Available: free, OnOrder: locked}
	}
	return balances, nil
}
