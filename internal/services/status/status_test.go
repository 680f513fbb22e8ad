package status

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/coinfolio/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		diff string
		want Trend
	}{
		{"0", TrendFlat},
		{"0.049", TrendFlat},
		{"-0.049", TrendFlat},
		{"-0.05", TrendSlightDown},
		{"-0.099", TrendSlightDown},
		{"-0.10", TrendDown},
		{"-3", TrendDown},
		{"0.05", TrendSlightUp},
		{"0.249", TrendSlightUp},
		{"0.25", TrendUp},
		{"12", TrendUp},
	}

	for _, tt := range tests {
		t.Run(tt.diff, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(decimal.RequireFromString(tt.diff)))
		})
	}
}

func snapshot(spent, value int64) domain.ValueSnapshot {
	return domain.NewValueSnapshot(time.Unix(0, 0), decimal.NewFromInt(spent), decimal.NewFromInt(value))
}

func TestNewReport(t *testing.T) {
	prev := snapshot(1000, 1500)
	cur := snapshot(1000, 1510)

	r := NewReport(cur, &prev)
	assert.True(t, r.ValueDiff.Equal(decimal.NewFromInt(10)))
	assert.True(t, r.GainDiff.Equal(decimal.NewFromInt(1)), "got %s", r.GainDiff)
	assert.Equal(t, TrendUp, r.Trend)
}

func TestNewReport_NoPrevious(t *testing.T) {
	r := NewReport(snapshot(1000, 900), nil)
	assert.True(t, r.ValueDiff.IsZero())
	assert.Equal(t, TrendFlat, r.Trend)
	assert.True(t, r.Current.GainPercent.Equal(decimal.NewFromInt(-10)))
}

func TestTracker_RemembersLast(t *testing.T) {
	tr := NewTracker(nil)

	first := tr.Next(snapshot(1000, 1000))
	assert.Equal(t, TrendFlat, first.Trend)

	second := tr.Next(snapshot(1000, 990))
	assert.True(t, second.ValueDiff.Equal(decimal.NewFromInt(-10)))
	assert.Equal(t, TrendDown, second.Trend)
}

func TestReport_Render(t *testing.T) {
	prev := snapshot(1000, 1500)
	out := NewReport(snapshot(1000, 1250), &prev).Render()

	require.Contains(t, out, "$1000.00")
	assert.Contains(t, out, "$1250.00")
	assert.Contains(t, out, "%25.00")
	assert.Contains(t, out, "-$250.00")
}

func TestRenderBalances(t *testing.T) {
	s := domain.NewBalanceSnapshot(
		domain.Holding{Coin: "AUD", Quantity: decimal.NewFromInt(5), UnitRate: decimal.NewFromInt(1), Value: decimal.NewFromInt(5)},
		domain.Holding{Coin: "BTC", Quantity: decimal.RequireFromString("0.1"), UnitRate: decimal.NewFromInt(1000), Value: decimal.NewFromInt(100)},
	)

	out := RenderBalances(s, "AUD")
	assert.Contains(t, out, "BTC")
	assert.Contains(t, out, "TOTAL: $100.00")
}
