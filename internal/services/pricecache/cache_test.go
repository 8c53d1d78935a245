package pricecache

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSource struct {
	table map[string]float64
	err   error
}

func (f *fakeSource) AllPrices(ctx context.Context) (map[string]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.table, nil
}

func TestRefreshOverlaysEntries(t *testing.T) {
	source := &fakeSource{table: map[string]float64{"BTCUSDT": 30000, "ETHUSDT": 2000}}
	cache := New(source, time.Second, zap.NewNop())

	require.NoError(t, cache.Refresh(context.Background()))

	price, ok := cache.Lookup("BTCUSDT")
	require.True(t, ok)
	assert.Equal(t, 30000.0, price)

	// A later table missing a pair must not evict the old entry.
	source.table = map[string]float64{"ETHUSDT": 2100}
	require.NoError(t, cache.Refresh(context.Background()))

	price, ok = cache.Lookup("BTCUSDT")
	require.True(t, ok)
	assert.Equal(t, 30000.0, price)

	price, ok = cache.Lookup("ETHUSDT")
	require.True(t, ok)
	assert.Equal(t, 2100.0, price)

	assert.Equal(t, 2, cache.Len())
}

func TestFailedRefreshKeepsContents(t *testing.T) {
	source := &fakeSource{table: map[string]float64{"BTCUSDT": 30000}}
	cache := New(source, time.Second, zap.NewNop())
	require.NoError(t, cache.Refresh(context.Background()))

	source.err = errors.New("exchange down")
	require.Error(t, cache.Refresh(context.Background()))

	price, ok := cache.Lookup("BTCUSDT")
	require.True(t, ok)
	assert.Equal(t, 30000.0, price)
}

func TestLookupUnknownPair(t *testing.T) {
	cache := New(&fakeSource{}, time.Second, zap.NewNop())

	price, ok := cache.Lookup("NOPEUSDT")
	assert.False(t, ok)
	assert.Zero(t, price)
}
