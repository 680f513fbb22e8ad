package internal

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/coinfolio/config"
	"github.com/vadiminshakov/coinfolio/internal/domain"
	"github.com/vadiminshakov/coinfolio/internal/services/pricer"
	"github.com/vadiminshakov/coinfolio/internal/services/reconcile"
	"github.com/vadiminshakov/coinfolio/internal/services/status"
	"github.com/vadiminshakov/coinfolio/internal/web"
	"github.com/vadiminshakov/coinfolio/pkg/indicators"
)

const (
	trendShortPeriod = 5
	trendLongPeriod  = 20
)

// ErrNoSpreadsheet a spreadsheet command ran without a configured spreadsheet.
var ErrNoSpreadsheet = errors.New("spreadsheet is not configured")

type exchange interface {
	Balances(ctx context.Context) (domain.BalanceSnapshot, error)
	AllPrices(ctx context.Context) (map[string]domain.CoinPrice, error)
	Deposits(ctx context.Context) (domain.Deposits, error)
	OpenOrders(ctx context.Context) (domain.OpenOrders, error)
	QuickSellQuote(ctx context.Context, coin string, amount decimal.Decimal) (string, error)
	Sell(ctx context.Context, coin string, amount, rate decimal.Decimal) (string, error)
	Buy(ctx context.Context, coin string, amount decimal.Decimal) (string, error)
	Raw(ctx context.Context, path string) (string, error)
}

type sheetUpdater interface {
	Update(ctx context.Context) (domain.ValueSnapshot, error)
	SyncHoldings(ctx context.Context) (reconcile.Result, error)
	WriteDeposits(ctx context.Context) (int, error)
}

type snapshotStore interface {
	Save(snapshot domain.ValueSnapshot) (uint64, error)
	SnapshotsAfter(index uint64) ([]domain.ValueSnapshotRecord, error)
	Latest() (*domain.ValueSnapshot, error)
}

type valueBroadcaster interface {
	Publish(s domain.ValueSnapshot)
	Subscribe() chan domain.ValueSnapshot
	Unsubscribe(ch chan domain.ValueSnapshot)
}

// Portfolio runs the tracker's commands against the exchange and spreadsheet.
type Portfolio struct {
	exchange    exchange
	updater     sheetUpdater
	local       pricer.Pricer
	reference   pricer.Pricer
	store       snapshotStore
	broadcaster valueBroadcaster
	tracker     *status.Tracker
	conf        config.Config
	sheetURL    string
	out         io.Writer
	logger      *zap.Logger
	now         func() time.Time
	closers     []func() error
}

// Close releases storage.
func (p *Portfolio) Close() {
	for _, c := range p.closers {
		if err := c(); err != nil {
			p.logger.Warn("close", zap.Error(err))
		}
	}
}

func (p *Portfolio) restoreTracker() error {
	last, err := p.store.Latest()
	if err != nil {
		return errors.Wrap(err, "load last value snapshot")
	}
	p.tracker = status.NewTracker(last)
	return nil
}

func (p *Portfolio) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

// valuation computes spent and value straight from the exchange.
func (p *Portfolio) valuation(ctx context.Context) (domain.ValueSnapshot, domain.BalanceSnapshot, error) {
	deposits, err := p.exchange.Deposits(ctx)
	if err != nil {
		return domain.ValueSnapshot{}, nil, err
	}
	balances, err := p.exchange.Balances(ctx)
	if err != nil {
		return domain.ValueSnapshot{}, nil, err
	}

	spent := deposits.Since(p.conf.DepositsSince).Total()
	return domain.NewValueSnapshot(p.clock(), spent, balances.Total(p.conf.MyCurrency)), balances, nil
}

// record stores and publishes a snapshot; a storage failure is logged, not returned.
func (p *Portfolio) record(s domain.ValueSnapshot) {
	if _, err := p.store.Save(s); err != nil {
		p.logger.Error("failed to save value snapshot", zap.Error(err))
	}
	p.broadcaster.Publish(s)
}

// Status prints spent, value and gain, and how they moved since last time.
func (p *Portfolio) Status(ctx context.Context) error {
	snapshot, _, err := p.valuation(ctx)
	if err != nil {
		return err
	}
	p.record(snapshot)
	fmt.Fprint(p.out, p.tracker.Next(snapshot).Render())
	return nil
}

// Gain prints only the gain percent and its movement.
func (p *Portfolio) Gain(ctx context.Context) error {
	snapshot, _, err := p.valuation(ctx)
	if err != nil {
		return err
	}
	p.record(snapshot)
	fmt.Fprint(p.out, p.tracker.Next(snapshot).RenderGain())
	return nil
}

// Balances prints every holding and the portfolio total.
func (p *Portfolio) Balances(ctx context.Context) error {
	balances, err := p.exchange.Balances(ctx)
	if err != nil {
		return err
	}
	fmt.Fprint(p.out, status.RenderBalances(balances, p.conf.MyCurrency))
	return nil
}

// Prices prints CoinSpot prices for all coins, or for the given coins along
// with the reference feed's price.
func (p *Portfolio) Prices(ctx context.Context, coins ...string) error {
	if len(coins) == 0 {
		prices, err := p.exchange.AllPrices(ctx)
		if err != nil {
			return err
		}
		names := make([]string, 0, len(prices))
		for coin := range prices {
			names = append(names, coin)
		}
		sort.Strings(names)
		for _, coin := range names {
			pr := prices[coin]
			fmt.Fprintf(p.out, "%6s: bid=%s ask=%s last=%s\n", coin, pr.Bid, pr.Ask, pr.Last)
		}
		return nil
	}

	for _, coin := range coins {
		local, err := p.local.GetPrice(ctx, domain.NewPair(coin, p.conf.MyCurrency))
		if err != nil {
			return err
		}
		line := fmt.Sprintf("%s: %s %s", domain.NormalizeCoin(coin), local, p.conf.MyCurrency)

		if p.reference != nil {
			pair := domain.NewPair(coin, p.conf.ReferenceQuote)
			ref, err := p.reference.GetPrice(ctx, pair)
			if err != nil {
				p.logger.Warn("reference price unavailable", zap.String("pair", pair.String()), zap.Error(err))
			} else {
				line += fmt.Sprintf(" (%s %s on %s)", ref, p.conf.ReferenceQuote, p.conf.ReferencePricer)
			}
		}
		fmt.Fprintln(p.out, line)
	}
	return nil
}

// Deposits prints counted deposits and their total.
func (p *Portfolio) Deposits(ctx context.Context) error {
	deposits, err := p.exchange.Deposits(ctx)
	if err != nil {
		return err
	}
	counted := deposits.Since(p.conf.DepositsSince)
	for _, d := range counted {
		fmt.Fprintf(p.out, "$%s on %s\n", d.Amount.StringFixed(2), d.Created.Format(time.DateTime))
	}
	fmt.Fprintf(p.out, "Total deposited: $%s\n", counted.Total().StringFixed(2))
	return nil
}

// Orders prints open orders; side is "buy", "sell" or empty for both.
func (p *Portfolio) Orders(ctx context.Context, side string) error {
	orders, err := p.exchange.OpenOrders(ctx)
	if err != nil {
		return err
	}

	show := func(title string, list []domain.Order) {
		fmt.Fprintln(p.out, title+":")
		for _, o := range list {
			fmt.Fprintf(p.out, "  %s %s %s\n", o.Market, o.Amount, o.Created.Format(time.DateTime))
		}
	}

	switch strings.ToLower(side) {
	case "buy":
		show("BUY", orders.Buy)
	case "sell":
		show("SELL", orders.Sell)
	case "":
		show("BUY", orders.Buy)
		show("SELL", orders.Sell)
	default:
		return errors.Errorf("unknown order side %q", side)
	}
	return nil
}

// Update writes the current valuation to the spreadsheet.
func (p *Portfolio) Update(ctx context.Context) error {
	if p.updater == nil {
		return ErrNoSpreadsheet
	}
	snapshot, err := p.updater.Update(ctx)
	if err != nil {
		return err
	}
	p.record(snapshot)
	fmt.Fprintln(p.out, "Updated spreadsheet", p.sheetURL)
	return nil
}

// Sync brings the spreadsheet holdings table in line with live balances.
func (p *Portfolio) Sync(ctx context.Context) error {
	if p.updater == nil {
		return ErrNoSpreadsheet
	}
	res, err := p.updater.SyncHoldings(ctx)
	if err != nil {
		return err
	}
	if res.Empty() {
		fmt.Fprintln(p.out, "Holdings already in sync")
		return nil
	}
	fmt.Fprintf(p.out, "added: %v\nupdated: %v\nremoved: %v\n", res.ToAdd, res.ToUpdate, res.ToRemove)
	return nil
}

// WriteDeposits appends all deposits to the spreadsheet.
func (p *Portfolio) WriteDeposits(ctx context.Context) error {
	if p.updater == nil {
		return ErrNoSpreadsheet
	}
	n, err := p.updater.WriteDeposits(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(p.out, "Wrote %d deposits\n", n)
	return nil
}

// Trend prints moving averages of the recorded value history.
func (p *Portfolio) Trend() error {
	records, err := p.store.SnapshotsAfter(0)
	if err != nil {
		return err
	}
	values := make([]decimal.Decimal, 0, len(records))
	for _, r := range records {
		values = append(values, r.Snapshot.Value)
	}

	res, err := indicators.AnalyzeValues(values, trendShortPeriod, trendLongPeriod)
	if err != nil {
		return errors.Wrapf(err, "value history has %d snapshots", len(values))
	}

	fmt.Fprintf(p.out, "Value %s, EMA%d %s, EMA%d %s: %s\n",
		res.Last.StringFixed(2),
		trendShortPeriod, res.EMAShort.StringFixed(2),
		trendLongPeriod, res.EMALong.StringFixed(2),
		res.Direction)
	if res.HasRSI {
		fmt.Fprintf(p.out, "RSI14 %s\n", res.RSI.StringFixed(1))
	}
	return nil
}

// QuickSell asks for a sell quote.
func (p *Portfolio) QuickSell(ctx context.Context, coin string, amount decimal.Decimal) error {
	text, err := p.exchange.QuickSellQuote(ctx, coin, amount)
	if err != nil {
		return err
	}
	fmt.Fprintln(p.out, text)
	return nil
}

// Sell places a limit sell order.
func (p *Portfolio) Sell(ctx context.Context, coin string, amount, rate decimal.Decimal) error {
	text, err := p.exchange.Sell(ctx, coin, amount, rate)
	if err != nil {
		return err
	}
	fmt.Fprintln(p.out, text)
	return nil
}

// Buy places a market buy order.
func (p *Portfolio) Buy(ctx context.Context, coin string, amount decimal.Decimal) error {
	text, err := p.exchange.Buy(ctx, coin, amount)
	if err != nil {
		return err
	}
	fmt.Fprintln(p.out, text)
	return nil
}

// Call performs a raw read-only call and prints the response.
func (p *Portfolio) Call(ctx context.Context, path string) error {
	text, err := p.exchange.Raw(ctx, path)
	if err != nil {
		return err
	}
	fmt.Fprintln(p.out, text)
	return nil
}

// Watch revalues the portfolio every interval until ctx is done, updating
// the spreadsheet when one is configured and serving the dashboard. A
// dashboard that cannot start or stops with an error ends the watch.
func (p *Portfolio) Watch(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.Errorf("watch interval must be positive, got %s", interval)
	}

	g, gctx := errgroup.WithContext(ctx)

	if p.conf.WebAddr != "" {
		server := web.NewServer(p.conf.WebAddr, p.store, p.broadcaster, p.logger.Named("web"))
		g.Go(func() error {
			var err error
			if len(p.conf.WebTLSDomains) > 0 {
				err = server.StartWithAutoTLS(gctx, p.conf.WebTLSDomains, p.conf.CertCacheDir)
			} else {
				err = server.Start(gctx)
			}
			return errors.Wrap(err, "dashboard")
		})
	}

	g.Go(func() error {
		return p.watchLoop(gctx, interval)
	})

	return g.Wait()
}

func (p *Portfolio) watchLoop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.logger.Info("Starting watch loop", zap.Duration("interval", interval))
	p.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Context done, stopping watch loop.")
			return ctx.Err()
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Portfolio) tick(ctx context.Context) {
	var (
		snapshot domain.ValueSnapshot
		err      error
	)
	if p.updater != nil {
		snapshot, err = p.updater.Update(ctx)
	} else {
		snapshot, _, err = p.valuation(ctx)
	}
	if err != nil {
		p.logger.Error("valuation failed", zap.Error(err))
		return
	}

	p.record(snapshot)
	report := p.tracker.Next(snapshot)
	p.logger.Info("portfolio valued",
		zap.String("value", snapshot.Value.StringFixed(2)),
		zap.String("gain_percent", snapshot.GainPercent.StringFixed(2)),
		zap.Stringer("trend", report.Trend))
}
