//go:build integration

package pricer

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/coinfolio/internal/clients"
	"github.com/vadiminshakov/coinfolio/internal/domain"
)

// TestBybitPricer_GetPrice_Integration calls the real Bybit API.
// To run this test, use: go test -tags=integration -v ./...
func TestBybitPricer_GetPrice_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	pricer := NewBybitPricer(clients.NewBybitClient())
	ctx := context.Background()

	t.Run("returns price for ETH/USDT pair", func(t *testing.T) {
		pair := domain.Pair{From: "ETH", To: "USDT"}

		price, err := pricer.GetPrice(ctx, pair)

		require.NoError(t, err)
		assert.True(t, price.GreaterThan(decimal.Zero), "Expected price > 0 for %s, got %s", pair.String(), price.String())
		t.Logf("Current %s price: %s", pair.String(), price.String())
	})

	t.Run("returns error for invalid trading pair", func(t *testing.T) {
		pair := domain.Pair{From: "INVALID", To: "PAIR"}

		price, err := pricer.GetPrice(ctx, pair)

		assert.Error(t, err, "Expected error for invalid pair")
		assert.True(t, price.IsZero(), "Expected zero price for invalid pair, got %s", price.String())
	})
}
