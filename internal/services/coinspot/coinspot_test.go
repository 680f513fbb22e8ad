package coinspot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/coinfolio/internal/clients"
	callerMock "github.com/vadiminshakov/coinfolio/mocks/caller"
)

const balancesJSON = `{
  "status": "ok",
  "balances": [
    {"AUD": {"balance": 120.5, "audbalance": 120.5, "rate": 1}},
    {"BTC": {"balance": 0.5, "audbalance": 40000, "rate": 80000}},
    {"doge": {"balance": 0, "audbalance": 0, "rate": 0.2}}
  ]
}`

func newTestService(t *testing.T) (*Service, *callerMock.Caller) {
	api := callerMock.NewCaller(t)
	return NewService(api, "aud", zap.NewNop()), api
}

func TestService_Balances(t *testing.T) {
	svc, api := newTestService(t)
	api.On("Call", mock.Anything, "/api/ro/my/balances", "{}").Return(balancesJSON, nil)

	balances, err := svc.Balances(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"AUD", "BTC", "DOGE"}, balances.Coins())
	assert.True(t, balances["BTC"].Quantity.Equal(decimal.RequireFromString("0.5")))
	assert.True(t, balances["BTC"].Value.Equal(decimal.NewFromInt(40000)))
	assert.True(t, balances.Has("DOGE"), "zero balance is still a holding")
}

func TestService_PortfolioValueExcludesMyCurrency(t *testing.T) {
	svc, api := newTestService(t)
	api.On("Call", mock.Anything, "/api/ro/my/balances", "{}").Return(balancesJSON, nil)

	value, err := svc.PortfolioValue(context.Background())
	require.NoError(t, err)
	assert.True(t, value.Equal(decimal.NewFromInt(40000)), "got %s", value)
}

func TestService_CoinBalance(t *testing.T) {
	svc, api := newTestService(t)
	api.On("Call", mock.Anything, "/api/ro/my/balances/:BTC", "{}").
		Return(`{"status":"ok","balance":{"BTC":{"balance":0.5,"audbalance":40000,"rate":80000}}}`, nil)

	h, err := svc.CoinBalance(context.Background(), "btc")
	require.NoError(t, err)
	assert.Equal(t, "BTC", h.Coin)
	assert.True(t, h.UnitRate.Equal(decimal.NewFromInt(80000)))
}

func TestService_TotalSpentSinceCutoff(t *testing.T) {
	svc, api := newTestService(t)
	api.On("Call", mock.Anything, "/api/ro/my/deposits", "{}").Return(`{
  "status": "ok",
  "deposits": [
    {"amount": 100, "created": "2020-10-01T00:00:00Z", "status": "completed", "type": "bank", "reference": "a"},
    {"amount": 250.5, "created": "2021-01-15T10:00:00Z", "status": "completed", "type": "bank", "reference": "b"},
    {"amount": 50, "created": "2022-03-02T08:30:00Z", "status": "completed", "type": "payid", "reference": "c"}
  ]
}`, nil)

	spent, err := svc.TotalSpent(context.Background(), time.Date(2020, 11, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, spent.Equal(decimal.RequireFromString("300.5")), "got %s", spent)
}

func TestService_AllPrices(t *testing.T) {
	svc, api := newTestService(t)
	api.On("PublicCall", mock.Anything, "/pubapi/latest").
		Return(`{"status":"ok","prices":{"btc":{"bid":"79000","ask":"80100","last":"80000"},"eth":{"bid":2000,"ask":2010,"last":2005}}}`, nil)

	prices, err := svc.AllPrices(context.Background())
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.True(t, prices["BTC"].Last.Equal(decimal.NewFromInt(80000)))
	assert.True(t, prices["ETH"].Ask.Equal(decimal.NewFromInt(2010)))
}

func TestService_OpenOrders(t *testing.T) {
	svc, api := newTestService(t)
	api.On("Call", mock.Anything, "/api/ro/my/transactions/open", "{}").
		Return(`{"status":"ok","buyorders":[{"market":"BTC/AUD","amount":0.1}],"sellorders":[]}`, nil)

	orders, err := svc.OpenOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders.Buy, 1)
	assert.Equal(t, "BTC/AUD", orders.Buy[0].Market)
	assert.Empty(t, orders.Sell)
}

func TestService_OrdersHitWriteEndpoints(t *testing.T) {
	svc, api := newTestService(t)
	ctx := context.Background()

	api.On("Call", mock.Anything, "/api/buy", `{"cointype":"BTC","amount":100}`).Return(`{"status":"ok"}`, nil).Once()
	api.On("Call", mock.Anything, "/api/sell", `{"cointype":"ETH","amount":1.5,"rate":2000}`).Return(`{"status":"ok"}`, nil).Once()
	api.On("Call", mock.Anything, "/api/quote/sell", `{"cointype":"BTC","amount":0.01}`).Return(`{"status":"ok","quote":800}`, nil).Once()

	_, err := svc.Buy(ctx, "btc", decimal.NewFromInt(100))
	require.NoError(t, err)

	_, err = svc.Sell(ctx, "eth", decimal.RequireFromString("1.5"), decimal.NewFromInt(2000))
	require.NoError(t, err)

	quote, err := svc.QuickSellQuote(ctx, "BTC", decimal.RequireFromString("0.01"))
	require.NoError(t, err)
	assert.Contains(t, quote, `"quote":800`)
}

func TestService_StatusError(t *testing.T) {
	svc, api := newTestService(t)
	api.On("Call", mock.Anything, "/api/ro/my/balances", "{}").
		Return(`{"status":"error","message":"invalid nonce"}`, nil)

	_, err := svc.Balances(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStatus))
	assert.Contains(t, err.Error(), "invalid nonce")
}

func TestService_PropagatesAPIError(t *testing.T) {
	svc, api := newTestService(t)
	apiErr := &clients.APIError{Kind: clients.KindTransport, Endpoint: "/api/ro/my/deposits"}
	api.On("Call", mock.Anything, "/api/ro/my/deposits", "{}").Return("", apiErr)

	_, err := svc.Deposits(context.Background())

	var got *clients.APIError
	require.True(t, errors.As(err, &got))
	assert.Equal(t, clients.KindTransport, got.Kind)
}

func TestService_Raw(t *testing.T) {
	svc, api := newTestService(t)
	api.On("Call", mock.Anything, "/api/ro/my/balances/:ETH", "{}").Return(`{"status":"ok"}`, nil)

	text, err := svc.Raw(context.Background(), "/balances/:ETH")
	require.NoError(t, err)
	assert.Equal(t, `{"status":"ok"}`, text)
}
