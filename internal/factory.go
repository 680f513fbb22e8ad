package internal

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/coinfolio/config"
	"github.com/vadiminshakov/coinfolio/internal/clients"
	"github.com/vadiminshakov/coinfolio/internal/events"
	"github.com/vadiminshakov/coinfolio/internal/services/coinspot"
	"github.com/vadiminshakov/coinfolio/internal/services/pricer"
	"github.com/vadiminshakov/coinfolio/internal/services/sheetupdater"
	"github.com/vadiminshakov/coinfolio/internal/storage/valuesnapshots"
)

// newReferencePricer is the single point of dispatch to the reference price feeds.
func newReferencePricer(name string) (pricer.Pricer, error) {
	switch name {
	case config.PricerBinance:
		return pricer.NewBinancePricer(clients.NewBinanceClient()), nil
	case config.PricerBybit:
		return pricer.NewBybitPricer(clients.NewBybitClient()), nil
	case config.PricerNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported reference pricer: %s", name)
	}
}

// NewPortfolio wires the exchange, spreadsheet, storage and price feeds
// described by conf.
func NewPortfolio(ctx context.Context, conf config.Config, logger *zap.Logger) (*Portfolio, error) {
	if !conf.HasCredential() {
		logger.Warn("coinspot credential not set, private commands will fail",
			zap.String("key_env", config.EnvAPIKey),
			zap.String("secret_env", config.EnvAPISecret))
	}

	api, err := clients.NewCoinSpotClient(clients.CoinSpotConfig{
		BaseURL:     conf.Site,
		Credential:  conf.Credential,
		Timeout:     conf.Timeout,
		MinInterval: conf.MinInterval,
	}, logger.Named("coinspot"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create coinspot client")
	}
	exchange := coinspot.NewService(api, conf.MyCurrency, logger)

	reference, err := newReferencePricer(conf.ReferencePricer)
	if err != nil {
		return nil, err
	}

	store, err := valuesnapshots.NewWALStore(conf.WALDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open value history")
	}

	p := &Portfolio{
		exchange:    exchange,
		local:       pricer.NewCoinSpotPricer(exchange, conf.MyCurrency),
		reference:   reference,
		store:       store,
		broadcaster: events.NewValueBroadcaster(16),
		conf:        conf,
		out:         os.Stdout,
		logger:      logger,
		closers:     []func() error{store.Close},
	}

	if conf.SheetsEnabled() {
		sheet, err := clients.NewSheetsClient(ctx, clients.SheetsConfig{
			SpreadsheetID:   conf.SpreadsheetID,
			CredentialsFile: conf.CredentialsFile,
			WritesPerSecond: conf.WriteRate,
		}, logger.Named("sheets"))
		if err != nil {
			_ = store.Close()
			return nil, errors.Wrap(err, "failed to create sheets client")
		}
		p.updater = sheetupdater.NewUpdater(sheet, exchange, conf.Ranges, conf.MyCurrency, conf.DepositsSince, logger)
		p.sheetURL = sheet.URL()
	}

	if err := p.restoreTracker(); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}
