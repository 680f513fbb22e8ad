package pricer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/coinfolio/internal/domain"
)

func TestBinancePricer_GetPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/ticker/price", r.URL.Path)
		assert.Equal(t, "ETHUSDT", r.URL.Query().Get("symbol"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"symbol":"ETHUSDT","price":"3120.55000000"}`))
	}))
	defer srv.Close()

	client := binance.NewClient("", "")
	client.BaseURL = srv.URL

	price, err := NewBinancePricer(client).GetPrice(context.Background(), domain.NewPair("eth", "usdt"))
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("3120.55")), "got %s", price)
}
