package pricer

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/coinfolio/internal/domain"
)

type priceSource interface {
	AllPrices(ctx context.Context) (map[string]domain.CoinPrice, error)
}

// CoinSpotPricer quotes coins in the account currency using CoinSpot's
// public latest prices.
type CoinSpotPricer struct {
	source     priceSource
	myCurrency string
}

func NewCoinSpotPricer(source priceSource, myCurrency string) *CoinSpotPricer {
	return &CoinSpotPricer{source: source, myCurrency: domain.NormalizeCoin(myCurrency)}
}

// GetPrice returns the last traded price. Only pairs quoted in the account
// currency are supported.
func (p *CoinSpotPricer) GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	if domain.NormalizeCoin(pair.To) != p.myCurrency {
		return decimal.Decimal{}, errors.Errorf("coinspot quotes only in %s, got %s", p.myCurrency, pair.String())
	}

	prices, err := p.source.AllPrices(ctx)
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "coinspot prices")
	}

	price, ok := prices[domain.NormalizeCoin(pair.From)]
	if !ok {
		return decimal.Decimal{}, errors.Errorf("coinspot has no price for %s", pair.From)
	}

	return price.Last, nil
}
