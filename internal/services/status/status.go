// Package status computes the spent/value/gain report and how it moved since
// the previous report.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/coinfolio/internal/domain"
)

// Trend buckets a gain percent movement.
type Trend int

const (
	TrendFlat Trend = iota
	TrendSlightDown
	TrendSlightUp
	TrendDown
	TrendUp
)

var (
	flatThreshold       = decimal.RequireFromString("0.05")
	slightDownThreshold = decimal.RequireFromString("-0.10")
	slightUpThreshold   = decimal.RequireFromString("0.25")
)

// Classify buckets a gain percent difference (in percentage points).
func Classify(diff decimal.Decimal) Trend {
	switch {
	case diff.Abs().LessThan(flatThreshold):
		return TrendFlat
	case diff.IsNegative() && diff.GreaterThan(slightDownThreshold):
		return TrendSlightDown
	case !diff.IsNegative() && diff.LessThan(slightUpThreshold):
		return TrendSlightUp
	case diff.IsNegative():
		return TrendDown
	default:
		return TrendUp
	}
}

func (t Trend) String() string {
	switch t {
	case TrendSlightDown:
		return "slight-down"
	case TrendSlightUp:
		return "slight-up"
	case TrendDown:
		return "down"
	case TrendUp:
		return "up"
	default:
		return "flat"
	}
}

var trendColors = map[Trend]lipgloss.Color{
	TrendFlat:       lipgloss.Color("8"),
	TrendSlightDown: lipgloss.Color("1"),
	TrendSlightUp:   lipgloss.Color("2"),
	TrendDown:       lipgloss.Color("9"),
	TrendUp:         lipgloss.Color("10"),
}

// Report the current valuation and its change since the previous one.
type Report struct {
	Current   domain.ValueSnapshot
	ValueDiff decimal.Decimal
	GainDiff  decimal.Decimal
	Trend     Trend
}

// NewReport compares current with previous. Without a previous snapshot the
// report is compared with itself and shows no movement.
func NewReport(current domain.ValueSnapshot, previous *domain.ValueSnapshot) Report {
	prev := current
	if previous != nil {
		prev = *previous
	}

	gainDiff := current.GainPercent.Sub(prev.GainPercent)
	return Report{
		Current:   current,
		ValueDiff: current.Value.Sub(prev.Value),
		GainDiff:  gainDiff,
		Trend:     Classify(gainDiff),
	}
}

// Tracker remembers the last report across commands of one session.
type Tracker struct {
	last *domain.ValueSnapshot
}

// NewTracker starts from an optional persisted snapshot.
func NewTracker(last *domain.ValueSnapshot) *Tracker {
	return &Tracker{last: last}
}

// Next builds a report for current and remembers it.
func (t *Tracker) Next(current domain.ValueSnapshot) Report {
	r := NewReport(current, t.last)
	t.last = &current
	return r
}

var labelStyle = lipgloss.NewStyle().Bold(true)

// Render formats the report for a terminal.
func (r Report) Render() string {
	var b strings.Builder
	line := func(label, value string) {
		fmt.Fprintf(&b, "%s = %s\n", labelStyle.Render(fmt.Sprintf("%-6s", label)), value)
	}

	line("Spent", money(r.Current.Spent))
	line("Value", money(r.Current.Value))
	line("Gain$", money(r.Current.Gain))
	line("Gain%", "%"+r.Current.GainPercent.StringFixed(2))

	diff := lipgloss.NewStyle().Foreground(trendColors[r.Trend])
	b.WriteString(diff.Render("  Diff$ = "+money(r.ValueDiff)) + "\n")
	b.WriteString(diff.Render("  Diff% = %"+r.GainDiff.StringFixed(3)) + "\n")

	return b.String()
}

// RenderGain formats only the gain percent and its movement.
func (r Report) RenderGain() string {
	color := lipgloss.Color("2")
	if r.Current.GainPercent.IsNegative() {
		color = lipgloss.Color("1")
	}
	style := lipgloss.NewStyle().Foreground(color)
	return style.Render("Gain %"+r.Current.GainPercent.StringFixed(2)) + "\n" +
		style.Render("Diff %"+r.GainDiff.StringFixed(3)) + "\n"
}

// RenderBalances lists holdings with a total that leaves out exclude.
func RenderBalances(s domain.BalanceSnapshot, exclude string) string {
	var b strings.Builder
	row := lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	for _, coin := range s.Coins() {
		h := s[coin]
		b.WriteString(row.Render(fmt.Sprintf("%5s: %14s x %12s = %s",
			coin, h.Quantity.String(), money(h.UnitRate), money(h.Value))) + "\n")
	}
	total := lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	b.WriteString(total.Render("TOTAL: "+money(s.Total(exclude))) + "\n")
	return b.String()
}

func money(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}
