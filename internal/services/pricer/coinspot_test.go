package pricer

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/coinfolio/internal/domain"
)

type staticPrices struct {
	prices map[string]domain.CoinPrice
	err    error
}

func (s staticPrices) AllPrices(context.Context) (map[string]domain.CoinPrice, error) {
	return s.prices, s.err
}

func TestCoinSpotPricer_GetPrice(t *testing.T) {
	source := staticPrices{prices: map[string]domain.CoinPrice{
		"BTC": {Bid: decimal.NewFromInt(79000), Ask: decimal.NewFromInt(80100), Last: decimal.NewFromInt(80000)},
	}}
	p := NewCoinSpotPricer(source, "aud")

	t.Run("last price in account currency", func(t *testing.T) {
		price, err := p.GetPrice(context.Background(), domain.NewPair("btc", "AUD"))
		require.NoError(t, err)
		assert.True(t, price.Equal(decimal.NewFromInt(80000)))
	})

	t.Run("unknown coin", func(t *testing.T) {
		_, err := p.GetPrice(context.Background(), domain.NewPair("XYZ", "AUD"))
		assert.Error(t, err)
	})

	t.Run("foreign quote currency", func(t *testing.T) {
		_, err := p.GetPrice(context.Background(), domain.NewPair("BTC", "USDT"))
		assert.Error(t, err)
	})
}

func TestCoinSpotPricer_SourceError(t *testing.T) {
	boom := errors.New("boom")
	p := NewCoinSpotPricer(staticPrices{err: boom}, "AUD")

	_, err := p.GetPrice(context.Background(), domain.NewPair("BTC", "AUD"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
}
