package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	snapshotsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "balancetrack_snapshots_total",
			Help: "Total number of balance snapshots persisted",
		},
		[]string{"user"},
	)

	snapshotErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "balancetrack_snapshot_errors_total",
			Help: "Total number of failed snapshot ticks",
		},
		[]string{"user"},
	)

	ticksSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "balancetrack_ticks_skipped_total",
			Help: "Ticks skipped because the previous one was still running",
		},
		[]string{"user"},
	)

	portfolioValue = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "balancetrack_portfolio_value",
			Help: "Last computed total fiat value per user",
		},
		[]string{"user"},
	)

	priceRefreshes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "balancetrack_price_refreshes_total",
			Help: "Total number of successful price table refreshes",
		},
	)

	priceRefreshErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "balancetrack_price_refresh_errors_total",
			Help: "Total number of failed price table refreshes",
		},
	)

	pairsTracked = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "balancetrack_pairs_tracked",
			Help: "Number of pairs in the last fetched price table",
		},
	)
)

func init() {
	prometheus.MustRegister(snapshotsTotal)
	prometheus.MustRegister(snapshotErrors)
	prometheus.MustRegister(ticksSkipped)
	prometheus.MustRegister(portfolioValue)
	prometheus.MustRegister(priceRefreshes)
	prometheus.MustRegister(priceRefreshErrors)
	prometheus.MustRegister(pairsTracked)
}

// Handler exposes the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordSnapshot records a persisted snapshot and its total value.
func RecordSnapshot(user string, value float64) {
	snapshotsTotal.WithLabelValues(user).Inc()
	portfolioValue.WithLabelValues(user).Set(value)
}

// RecordSnapshotError records a failed snapshot tick.
func RecordSnapshotError(user string) {
	snapshotErrors.WithLabelValues(user).Inc()
}

// RecordTickSkipped records a tick dropped by the single-flight guard.
func RecordTickSkipped(user string) {
	ticksSkipped.WithLabelValues(user).Inc()
}

// RecordPriceRefresh records a successful refresh of n pairs.
func RecordPriceRefresh(n int) {
	priceRefreshes.Inc()
	pairsTracked.Set(float64(n))
}

// RecordPriceRefreshError records a failed refresh.
func RecordPriceRefreshError() {
	priceRefreshErrors.Inc()
}
