package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ValueSnapshot portfolio valuation at a point in time.
type ValueSnapshot struct {
	Timestamp   time.Time       `json:"ts"`
	Spent       decimal.Decimal `json:"spent"`
	Value       decimal.Decimal `json:"value"`
	Gain        decimal.Decimal `json:"gain"`
	GainPercent decimal.Decimal `json:"gain_percent"`
}

// NewValueSnapshot derives gain figures from spent and value.
// Gain percent is zero when nothing was spent.
func NewValueSnapshot(ts time.Time, spent, value decimal.Decimal) ValueSnapshot {
	gainPercent := decimal.Zero
	if !spent.IsZero() {
		gainPercent = value.Div(spent).Sub(decimal.NewFromInt(1)).Mul(hundred)
	}

	return ValueSnapshot{
		Timestamp:   ts,
		Spent:       spent,
		Value:       value,
		Gain:        value.Sub(spent),
		GainPercent: gainPercent,
	}
}

// ValueSnapshotRecord bundles a snapshot with its storage index.
type ValueSnapshotRecord struct {
	Index    uint64
	Snapshot ValueSnapshot
}
