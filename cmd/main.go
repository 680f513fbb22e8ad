// Command coinfolio tracks a CoinSpot portfolio: what was spent, what it is
// worth now and how that changes over time, optionally mirrored into a Google
// spreadsheet.
//
// Usage:
//
//	coinfolio                  interactive shell
//	coinfolio status           run one command and exit
//	coinfolio watch            revalue periodically and serve the dashboard
//	coinfolio --setup          write coinfolio.yaml with the wizard
//	coinfolio --config my.yaml --debug balances
//
// Required environment variables for private endpoints:
//
//	COINSPOT_API_KEY, COINSPOT_API_SECRET
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/vadiminshakov/coinfolio/config"
	"github.com/vadiminshakov/coinfolio/internal"
	"github.com/vadiminshakov/coinfolio/internal/setup"
)

func main() {
	conf, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	if conf.Setup {
		if err := setup.RunTUI(config.DefaultPath); err != nil {
			log.Fatal(err)
		}
		return
	}

	logger, err := newLogger(conf.Debug)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	portfolio, err := internal.NewPortfolio(ctx, conf, logger)
	if err != nil {
		logger.Fatal("failed to start", zap.Error(err))
	}
	defer portfolio.Close()

	if len(conf.Args) == 0 {
		if err := portfolio.Shell(ctx, os.Stdin); err != nil {
			logger.Error("shell stopped", zap.Error(err))
		}
		return
	}

	if err := portfolio.Execute(ctx, conf.Args); err != nil {
		portfolio.ReportError(err)
		portfolio.Close()
		os.Exit(1)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
