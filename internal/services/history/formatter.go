package history

import (
	"encoding/json"
	"sort"

	"github.com/vportnov/balancetrack/internal/domain"
)

// ChartBalance is one asset line as served to the chart: the persisted
// quantities collapse to total/price/value plus the share of the
// snapshot's portfolio value.
type ChartBalance struct {
	Total      float64 `json:"total"`
	Price      float64 `json:"price"`
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
}

// ChartPoint is one snapshot reshaped for charting. Values holds the
// per-asset fiat values and is flattened to top-level JSON keys next to
// the snapshot fields, which is the shape charting clients consume.
type ChartPoint struct {
	User      string                  `json:"user"`
	TimeStamp int64                   `json:"timeStamp"`
	Time      domain.SnapshotTime     `json:"time"`
	Value     float64                 `json:"value"`
	Balances  map[string]ChartBalance `json:"balances"`

	Values map[string]float64 `json:"-"`
}

// MarshalJSON emits the per-asset values as top-level keys merged with the
// snapshot fields.
func (p ChartPoint) MarshalJSON() ([]byte, error) {
	type alias ChartPoint
	base, err := json.Marshal(alias(p))
	if err != nil {
		return nil, err
	}

	merged := make(map[string]json.RawMessage, len(p.Values)+5)
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for code, value := range p.Values {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		merged[code] = raw
	}
	return json.Marshal(merged)
}

// Meta summarizes a queried range: the highest portfolio value seen and
// the timestamp of the first snapshot attaining it.
type Meta struct {
	HighestValue float64 `json:"highestValue"`
	HighestTime  int64   `json:"highestTime"`
}

// Chart is the response shape of the history endpoint.
type Chart struct {
	Keys    []string     `json:"keys"`
	History []ChartPoint `json:"history"`
	Meta    Meta         `json:"meta"`
}

// Format reshapes an ascending snapshot sequence into chart series.
// Keys lists every asset code observed in the range ordered by first
// appearance (asset codes of one snapshot are visited in sorted order).
// The peak comparison is strictly greater, so ties keep the earliest
// snapshot.
func Format(snapshots []domain.Snapshot) Chart {
	chart := Chart{
		Keys:    []string{},
		History: make([]ChartPoint, 0, len(snapshots)),
	}
	seen := make(map[string]struct{})

	for _, snap := range snapshots {
		if snap.Value > chart.Meta.HighestValue {
			chart.Meta.HighestValue = snap.Value
			chart.Meta.HighestTime = snap.TimeStamp
		}

		point := ChartPoint{
			User:      snap.User,
			TimeStamp: snap.TimeStamp,
			Time:      snap.Time,
			Value:     snap.Value,
			Balances:  make(map[string]ChartBalance, len(snap.Balances)),
			Values:    make(map[string]float64, len(snap.Balances)),
		}

		codes := make([]string, 0, len(snap.Balances))
		for code := range snap.Balances {
			codes = append(codes, code)
		}
		sort.Strings(codes)

		for _, code := range codes {
			balance := snap.Balances[code]

			var percentage float64
			if snap.Value != 0 {
				percentage = balance.Value / snap.Value * 100
			}

			point.Balances[code] = ChartBalance{
				Total:      balance.Total,
				Price:      balance.Price,
				Value:      balance.Value,
				Percentage: percentage,
			}
			point.Values[code] = balance.Value

			if _, ok := seen[code]; !ok {
				seen[code] = struct{}{}
				chart.Keys = append(chart.Keys, code)
			}
		}

		chart.History = append(chart.History, point)
	}

	return chart
}
