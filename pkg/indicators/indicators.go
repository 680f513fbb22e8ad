// Package indicators provides moving-average and momentum indicators over
// portfolio value history.
package indicators

import (
	"fmt"
	"math"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/shopspring/decimal"
)

// Direction of a value series judged by its short and long EMAs.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// ValueTrend summarises a value history.
type ValueTrend struct {
	Last      decimal.Decimal
	EMAShort  decimal.Decimal
	EMALong   decimal.Decimal
	RSI       decimal.Decimal
	HasRSI    bool
	Direction Direction
}

// CalculateEMA calculates the Exponential Moving Average for the given period.
func CalculateEMA(values []decimal.Decimal, period int) ([]decimal.Decimal, error) {
	if period < 1 {
		return nil, fmt.Errorf("EMA period must be positive, got %d", period)
	}
	if len(values) < period {
		return nil, fmt.Errorf("not enough data points: need %d, got %d", period, len(values))
	}

	ema := trend.NewEmaWithPeriod[float64](period)
	outputChan := ema.Compute(helper.SliceToChan(decimalsToFloat64(values)))

	return float64ToDecimals(helper.ChanToSlice(outputChan)), nil
}

// CalculateRSI calculates the Relative Strength Index for the given period.
func CalculateRSI(values []decimal.Decimal, period int) ([]decimal.Decimal, error) {
	if len(values) < period+1 {
		return nil, fmt.Errorf("not enough data points for RSI: need %d, got %d", period+1, len(values))
	}

	rsi := momentum.NewRsiWithPeriod[float64](period)
	outputChan := rsi.Compute(helper.SliceToChan(decimalsToFloat64(values)))

	return float64ToDecimals(helper.ChanToSlice(outputChan)), nil
}

// AnalyzeValues computes short and long EMAs of the series and, when there is
// enough history, a 14-period RSI.
func AnalyzeValues(values []decimal.Decimal, short, long int) (ValueTrend, error) {
	if short >= long {
		return ValueTrend{}, fmt.Errorf("short period %d must be below long period %d", short, long)
	}

	emaShort, err := CalculateEMA(values, short)
	if err != nil {
		return ValueTrend{}, fmt.Errorf("failed to calculate short EMA: %w", err)
	}
	emaLong, err := CalculateEMA(values, long)
	if err != nil {
		return ValueTrend{}, fmt.Errorf("failed to calculate long EMA: %w", err)
	}
	if len(emaShort) == 0 || len(emaLong) == 0 {
		return ValueTrend{}, fmt.Errorf("not enough data points for EMA(%d, %d)", short, long)
	}

	res := ValueTrend{
		Last:     values[len(values)-1],
		EMAShort: emaShort[len(emaShort)-1],
		EMALong:  emaLong[len(emaLong)-1],
	}

	// within 0.1% of each other counts as flat
	band := res.EMALong.Abs().Mul(decimal.RequireFromString("0.001"))
	switch diff := res.EMAShort.Sub(res.EMALong); {
	case diff.GreaterThan(band):
		res.Direction = DirectionUp
	case diff.LessThan(band.Neg()):
		res.Direction = DirectionDown
	default:
		res.Direction = DirectionFlat
	}

	if rsi, err := CalculateRSI(values, 14); err == nil && len(rsi) > 0 {
		res.RSI = rsi[len(rsi)-1]
		res.HasRSI = true
	}

	return res, nil
}

func decimalsToFloat64(decimals []decimal.Decimal) []float64 {
	result := make([]float64, len(decimals))
	for i, d := range decimals {
		result[i], _ = d.Float64()
	}
	return result
}

// float64ToDecimals maps non-finite values (RSI of a flat series) to zero.
func float64ToDecimals(floats []float64) []decimal.Decimal {
	result := make([]decimal.Decimal, len(floats))
	for i, f := range floats {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			result[i] = decimal.Zero
			continue
		}
		result[i] = decimal.NewFromFloat(f)
	}
	return result
}
