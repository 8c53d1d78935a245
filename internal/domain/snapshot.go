package domain

import "time"

// RawBalance is one asset line as reported by the exchange, before any
// filtering or valuation.
type RawBalance struct {
	Available float64
	OnOrder   float64
}

// AssetBalance is one valuated asset line inside a snapshot.
// Percentage is computed at query time only and is never persisted.
type AssetBalance struct {
	Available float64 `json:"available"`
	Order     float64 `json:"order"`
	Total     float64 `json:"total"`
	Price     float64 `json:"price"`
	Value     float64 `json:"value"`
}

// SnapshotTime is the denormalized calendar breakdown stored next to the
// unix timestamp. Date and Day carry the historical off-by-one (day of
// month and weekday are both incremented); stored histories depend on it.
type SnapshotTime struct {
	Year   int `json:"year"`
	Month  int `json:"month"`
	Date   int `json:"date"`
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
	Second int `json:"second"`
}

// NewSnapshotTime breaks a wall-clock instant into the persisted calendar
// fields.
func NewSnapshotTime(t time.Time) SnapshotTime {
	return SnapshotTime{
		Year:   t.Year(),
		Month:  int(t.Month()),
		Date:   t.Day() + 1,
		Day:    int(t.Weekday()) + 1,
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}
}

// Snapshot is one user's portfolio at one instant. Immutable once saved.
type Snapshot struct {
	User      string                  `json:"user"`
	TimeStamp int64                   `json:"timeStamp"`
	Time      SnapshotTime            `json:"time"`
	Value     float64                 `json:"value"`
	Balances  map[string]AssetBalance `json:"balances"`
}

// NewSnapshot builds a snapshot for a user at the given instant.
func NewSnapshot(user string, at time.Time, value float64, balances map[string]AssetBalance) Snapshot {
	return Snapshot{
		User:      user,
		TimeStamp: at.Unix(),
		Time:      NewSnapshotTime(at),
		Value:     value,
		Balances:  balances,
	}
}
