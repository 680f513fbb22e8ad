// Package sheetupdater mirrors portfolio figures into the tracking spreadsheet.
package sheetupdater

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/coinfolio/internal/domain"
	"github.com/vadiminshakov/coinfolio/internal/services/reconcile"
	"github.com/vadiminshakov/coinfolio/internal/sheets"
)

const (
	summaryDateLayout = "02 Jan 06 15:04:05"
	summaryTimeLayout = "15:04:05"
	depositDateLayout = "02 January 2006 15:04:05"
	holdingColumns    = 4
)

type spreadsheet interface {
	GetRange(ctx context.Context, ref string) ([][]any, error)
	SetValue(ctx context.Context, ref string, value any) error
	SetRange(ctx context.Context, ref string, rows [][]any) error
	Append(ctx context.Context, ref string, rows [][]any) (string, error)
	Clear(ctx context.Context, ref string) error
}

type portfolio interface {
	Balances(ctx context.Context) (domain.BalanceSnapshot, error)
	Deposits(ctx context.Context) (domain.Deposits, error)
}

// Ranges A1 locations of everything the updater writes. Empty entries are
// skipped.
type Ranges struct {
	Spent         string
	UpdateDate    string
	UpdateTime    string
	TotalValue    string
	ValueTable    string
	GainsTable    string
	HoldingsTable string
	DepositsTable string
}

// Updater writes summary cells, appends value and gains rows and keeps the
// holdings table in line with the exchange.
type Updater struct {
	sheet         spreadsheet
	portfolio     portfolio
	ranges        Ranges
	myCurrency    string
	depositsSince time.Time
	now           func() time.Time
	logger        *zap.Logger
}

// NewUpdater creates an updater. Deposits up to depositsSince are not counted
// as spent; the myCurrency balance is not counted as value.
func NewUpdater(sheet spreadsheet, p portfolio, ranges Ranges, myCurrency string,
	depositsSince time.Time, logger *zap.Logger) *Updater {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Updater{
		sheet:         sheet,
		portfolio:     p,
		ranges:        ranges,
		myCurrency:    domain.NormalizeCoin(myCurrency),
		depositsSince: depositsSince,
		now:           time.Now,
		logger:        logger,
	}
}

// Update values the portfolio and records it in the spreadsheet.
func (u *Updater) Update(ctx context.Context) (domain.ValueSnapshot, error) {
	deposits, err := u.portfolio.Deposits(ctx)
	if err != nil {
		return domain.ValueSnapshot{}, errors.Wrap(err, "fetch deposits")
	}
	balances, err := u.portfolio.Balances(ctx)
	if err != nil {
		return domain.ValueSnapshot{}, errors.Wrap(err, "fetch balances")
	}

	now := u.now()
	snapshot := domain.NewValueSnapshot(now, deposits.Since(u.depositsSince).Total(), balances.Total(u.myCurrency))

	if err := u.updateSummary(ctx, snapshot); err != nil {
		return domain.ValueSnapshot{}, err
	}
	if err := u.appendValueRow(ctx, snapshot); err != nil {
		return domain.ValueSnapshot{}, err
	}
	if u.ranges.HoldingsTable != "" {
		if _, err := u.syncHoldings(ctx, balances); err != nil {
			return domain.ValueSnapshot{}, err
		}
	}

	u.logger.Info("spreadsheet updated",
		zap.String("spent", snapshot.Spent.StringFixed(2)),
		zap.String("value", snapshot.Value.StringFixed(2)))

	return snapshot, nil
}

func (u *Updater) updateSummary(ctx context.Context, s domain.ValueSnapshot) error {
	cells := []struct {
		ref   string
		value any
	}{
		{u.ranges.Spent, s.Spent.String()},
		{u.ranges.UpdateDate, s.Timestamp.Format(summaryDateLayout)},
		{u.ranges.UpdateTime, s.Timestamp.Format(summaryTimeLayout)},
		{u.ranges.TotalValue, s.Value.String()},
	}

	for _, c := range cells {
		if c.ref == "" {
			continue
		}
		if err := u.sheet.SetValue(ctx, c.ref, c.value); err != nil {
			return errors.Wrap(err, "update summary")
		}
	}
	return nil
}

func (u *Updater) appendValueRow(ctx context.Context, s domain.ValueSnapshot) error {
	if u.ranges.ValueTable == "" {
		return nil
	}

	row := []any{s.Timestamp.Format(summaryDateLayout), s.Spent.String(), s.Value.String()}
	tableRange, err := u.sheet.Append(ctx, u.ranges.ValueTable, [][]any{row})
	if err != nil {
		return errors.Wrap(err, "append value row")
	}

	if u.ranges.GainsTable == "" {
		return nil
	}

	next, err := sheets.NextRow(tableRange)
	if err != nil {
		return errors.Wrap(err, "locate gains row")
	}

	gains := []any{fmt.Sprintf("=D%d-C%d", next, next), fmt.Sprintf("=F%d/C%d", next, next)}
	if _, err := u.sheet.Append(ctx, u.ranges.GainsTable, [][]any{gains}); err != nil {
		return errors.Wrap(err, "append gains row")
	}

	return nil
}

// SyncHoldings rewrites the holdings table from live balances. Quantities and
// current prices come from the exchange; recorded buy-in prices are kept and
// new coins take their current price as buy-in.
func (u *Updater) SyncHoldings(ctx context.Context) (reconcile.Result, error) {
	if u.ranges.HoldingsTable == "" {
		return reconcile.Result{}, errors.New("holdings table range is not configured")
	}

	balances, err := u.portfolio.Balances(ctx)
	if err != nil {
		return reconcile.Result{}, errors.Wrap(err, "fetch balances")
	}
	return u.syncHoldings(ctx, balances)
}

func (u *Updater) syncHoldings(ctx context.Context, balances domain.BalanceSnapshot) (reconcile.Result, error) {
	table, err := sheets.ParseRange(u.ranges.HoldingsTable)
	if err != nil {
		return reconcile.Result{}, errors.Wrap(err, "holdings table")
	}

	values, err := u.sheet.GetRange(ctx, u.ranges.HoldingsTable)
	if err != nil {
		return reconcile.Result{}, errors.Wrap(err, "read holdings")
	}
	rows, err := ParseHoldings(values)
	if err != nil {
		return reconcile.Result{}, err
	}

	recorded := make(map[string]domain.RecordedHolding, len(rows))
	for _, r := range rows {
		recorded[domain.NormalizeCoin(r.Coin)] = r
	}

	live := balances.Without(u.myCurrency)
	res := reconcile.Diff(live, reconcile.RecordedSnapshot(rows))
	if res.Empty() {
		return res, nil
	}

	synced := reconcile.Apply(reconcile.RecordedSnapshot(rows), live, res)
	out := make([][]any, 0, len(synced))
	for _, coin := range synced.Coins() {
		h := synced[coin]
		buyIn := h.UnitRate
		if prev, ok := recorded[coin]; ok {
			buyIn = prev.BuyInPrice
		}
		out = append(out, domain.RecordedHolding{
			Coin:         coin,
			Quantity:     h.Quantity,
			BuyInPrice:   buyIn,
			CurrentPrice: h.UnitRate,
		}.Row())
	}

	// rows are overwritten before anything is cleared
	if len(out) > 0 {
		if err := u.sheet.SetRange(ctx, table.StartRef(), out); err != nil {
			return reconcile.Result{}, errors.Wrap(err, "write holdings")
		}
	}
	if len(values) > len(out) {
		if leftover, ok := table.Tail(len(out)); ok {
			if err := u.sheet.Clear(ctx, leftover.String()); err != nil {
				return reconcile.Result{}, errors.Wrap(err, "clear leftover holdings")
			}
		}
	}

	u.logger.Info("holdings synced",
		zap.Strings("added", res.ToAdd),
		zap.Strings("updated", res.ToUpdate),
		zap.Strings("removed", res.ToRemove))

	return res, nil
}

// WriteDeposits appends every deposit as a dated row and returns how many
// rows were written.
func (u *Updater) WriteDeposits(ctx context.Context) (int, error) {
	if u.ranges.DepositsTable == "" {
		return 0, errors.New("deposits table range is not configured")
	}

	deposits, err := u.portfolio.Deposits(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "fetch deposits")
	}
	if len(deposits) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(deposits))
	for _, d := range deposits {
		rows = append(rows, []any{d.Created.Format(depositDateLayout), d.Amount.String()})
	}

	if _, err := u.sheet.Append(ctx, u.ranges.DepositsTable, rows); err != nil {
		return 0, errors.Wrap(err, "append deposits")
	}
	return len(rows), nil
}

// ParseHoldings converts holdings table rows into recorded holdings. Blank
// rows are skipped; currency symbols and thousands separators are ignored.
func ParseHoldings(values [][]any) ([]domain.RecordedHolding, error) {
	out := make([]domain.RecordedHolding, 0, len(values))
	for i, row := range values {
		if len(row) == 0 || strings.TrimSpace(fmt.Sprint(row[0])) == "" {
			continue
		}

		cells := make([]decimal.Decimal, holdingColumns-1)
		for col := 1; col < holdingColumns; col++ {
			if col >= len(row) {
				continue
			}
			d, err := parseNumber(row[col])
			if err != nil {
				return nil, errors.Wrapf(err, "holdings row %d column %d", i+1, col+1)
			}
			cells[col-1] = d
		}

		out = append(out, domain.RecordedHolding{
			Coin:         domain.NormalizeCoin(fmt.Sprint(row[0])),
			Quantity:     cells[0],
			BuyInPrice:   cells[1],
			CurrentPrice: cells[2],
		})
	}
	return out, nil
}

func parseNumber(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	}

	text := strings.NewReplacer("$", "", ",", "", " ", "").Replace(fmt.Sprint(v))
	if text == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(text)
}
