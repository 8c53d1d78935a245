package pricecache

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vportnov/balancetrack/internal/monitoring"
)

// PriceSource provides the full current ticker table, pair symbol to price.
type PriceSource interface {
	AllPrices(ctx context.Context) (map[string]float64, error)
}

// Cache holds the latest known price for every traded pair.
//
// Refresh overlays fetched entries onto the existing table instead of
// replacing it wholesale, so a reader never observes an empty cache once
// the first refresh has succeeded. A pair absent from the cache is
// indistinguishable from "not yet priced".
type Cache struct {
	source   PriceSource
	logger   *zap.Logger
	interval time.Duration

	mu     sync.RWMutex
	prices map[string]float64
}

// New creates an empty cache refreshing from source every interval.
func New(source PriceSource, interval time.Duration, logger *zap.Logger) *Cache {
	return &Cache{
		source:   source,
		logger:   logger,
		interval: interval,
		prices:   make(map[string]float64),
	}
}

// Refresh fetches the full price table and overwrites cached entries.
// Callers must run it once to completion before any valuation happens.
func (c *Cache) Refresh(ctx context.Context) error {
	table, err := c.source.AllPrices(ctx)
	if err != nil {
		return errors.Wrap(err, "fetch ticker prices")
	}

	c.mu.Lock()
	for pair, price := range table {
		c.prices[pair] = price
	}
	c.mu.Unlock()

	monitoring.RecordPriceRefresh(len(table))
	return nil
}

// Lookup returns the cached price for a pair. It never blocks on a refresh
// and never triggers one.
func (c *Cache) Lookup(pair string) (float64, bool) {
	c.mu.RLock()
	price, ok := c.prices[pair]
	c.mu.RUnlock()
	return price, ok
}

// Len reports how many pairs are currently priced.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.prices)
}

// Run refreshes the cache on the configured interval until ctx is
// cancelled. A failed refresh is logged and the previous contents are kept
// untouched until the next tick.
func (c *Cache) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				monitoring.RecordPriceRefreshError()
				c.logger.Error("price refresh failed, keeping stale cache", zap.Error(err))
			}
		}
	}
}
