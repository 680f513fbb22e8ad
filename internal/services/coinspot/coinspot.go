// Package coinspot exposes the CoinSpot account API as typed operations on top
// of the signed client.
package coinspot

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/vadiminshakov/coinfolio/internal/domain"
)

const (
	readOnlyPrefix = "/api/ro/my/"
	writePrefix    = "/api/"
	latestPrices   = "/pubapi/latest"
	statusOK       = "ok"
)

// ErrStatus the exchange answered but reported an application error.
var ErrStatus = errors.New("coinspot status error")

type caller interface {
	Call(ctx context.Context, endpoint, jsonBody string) (string, error)
	PublicCall(ctx context.Context, endpoint string) (string, error)
}

// Service typed access to a CoinSpot account.
type Service struct {
	api        caller
	myCurrency string
	logger     *zap.Logger
}

// NewService creates a service. myCurrency is the account's fiat currency;
// its balance is left out of portfolio values.
func NewService(api caller, myCurrency string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		api:        api,
		myCurrency: domain.NormalizeCoin(myCurrency),
		logger:     logger,
	}
}

// MyCurrency returns the account fiat currency.
func (s *Service) MyCurrency() string {
	return s.myCurrency
}

type balanceEntry struct {
	Balance    decimal.Decimal `json:"balance"`
	AudBalance decimal.Decimal `json:"audbalance"`
	Rate       decimal.Decimal `json:"rate"`
}

type balancesResponse struct {
	Balances []map[string]balanceEntry `json:"balances"`
}

// Balances fetches the live balance snapshot.
func (s *Service) Balances(ctx context.Context) (domain.BalanceSnapshot, error) {
	text, err := s.private(ctx, readOnlyPrefix+"balances", "{}")
	if err != nil {
		return nil, err
	}

	var resp balancesResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return nil, errors.Wrap(err, "decode balances")
	}

	snapshot := domain.NewBalanceSnapshot()
	for _, entry := range resp.Balances {
		for coin, b := range entry {
			snapshot.Put(domain.Holding{
				Coin:     coin,
				Quantity: b.Balance,
				UnitRate: b.Rate,
				Value:    b.AudBalance,
			})
		}
	}

	s.logger.Debug("balances fetched", zap.Int("coins", len(snapshot)))
	return snapshot, nil
}

// CoinBalance fetches the balance of a single coin.
func (s *Service) CoinBalance(ctx context.Context, coin string) (domain.Holding, error) {
	coin = domain.NormalizeCoin(coin)
	text, err := s.private(ctx, readOnlyPrefix+"balances/:"+coin, "{}")
	if err != nil {
		return domain.Holding{}, err
	}

	raw := gjson.Get(text, "balance")
	if !raw.Exists() {
		return domain.Holding{}, errors.Errorf("no balance for %s", coin)
	}

	var entries map[string]balanceEntry
	if err := json.Unmarshal([]byte(raw.Raw), &entries); err != nil {
		return domain.Holding{}, errors.Wrapf(err, "decode %s balance", coin)
	}

	for key, b := range entries {
		if domain.NormalizeCoin(key) != coin {
			continue
		}
		return domain.Holding{Coin: coin, Quantity: b.Balance, UnitRate: b.Rate, Value: b.AudBalance}, nil
	}

	return domain.Holding{}, errors.Errorf("no balance for %s", coin)
}

// AllPrices fetches the latest public prices keyed by coin.
func (s *Service) AllPrices(ctx context.Context) (map[string]domain.CoinPrice, error) {
	text, err := s.api.PublicCall(ctx, latestPrices)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(text); err != nil {
		return nil, err
	}

	var resp struct {
		Prices map[string]domain.CoinPrice `json:"prices"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return nil, errors.Wrap(err, "decode prices")
	}

	prices := make(map[string]domain.CoinPrice, len(resp.Prices))
	for coin, p := range resp.Prices {
		prices[domain.NormalizeCoin(coin)] = p
	}
	return prices, nil
}

// Deposits fetches every fiat deposit of the account.
func (s *Service) Deposits(ctx context.Context) (domain.Deposits, error) {
	text, err := s.private(ctx, readOnlyPrefix+"deposits", "{}")
	if err != nil {
		return nil, err
	}

	var resp struct {
		Deposits domain.Deposits `json:"deposits"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return nil, errors.Wrap(err, "decode deposits")
	}
	return resp.Deposits, nil
}

// OpenOrders fetches the account's open buy and sell orders.
func (s *Service) OpenOrders(ctx context.Context) (domain.OpenOrders, error) {
	text, err := s.private(ctx, readOnlyPrefix+"transactions/open", "{}")
	if err != nil {
		return domain.OpenOrders{}, err
	}

	var orders domain.OpenOrders
	if err := json.Unmarshal([]byte(text), &orders); err != nil {
		return domain.OpenOrders{}, errors.Wrap(err, "decode open orders")
	}
	return orders, nil
}

// PortfolioValue values every holding except the fiat balance.
func (s *Service) PortfolioValue(ctx context.Context) (decimal.Decimal, error) {
	balances, err := s.Balances(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return balances.Total(s.myCurrency), nil
}

// TotalSpent sums deposits made after the cut-off.
func (s *Service) TotalSpent(ctx context.Context, since time.Time) (decimal.Decimal, error) {
	deposits, err := s.Deposits(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return deposits.Since(since).Total(), nil
}

type order struct {
	CoinType string      `json:"cointype"`
	Amount   json.Number `json:"amount"`
	Rate     json.Number `json:"rate,omitempty"`
}

// QuickSellQuote asks for a quote to sell amount of coin.
func (s *Service) QuickSellQuote(ctx context.Context, coin string, amount decimal.Decimal) (string, error) {
	return s.write(ctx, "quote/sell", order{CoinType: domain.NormalizeCoin(coin), Amount: number(amount)})
}

// Sell places a sell order at rate.
func (s *Service) Sell(ctx context.Context, coin string, amount, rate decimal.Decimal) (string, error) {
	return s.write(ctx, "sell", order{
		CoinType: domain.NormalizeCoin(coin),
		Amount:   number(amount),
		Rate:     number(rate),
	})
}

// Buy places a market buy order.
func (s *Service) Buy(ctx context.Context, coin string, amount decimal.Decimal) (string, error) {
	return s.write(ctx, "buy", order{CoinType: domain.NormalizeCoin(coin), Amount: number(amount)})
}

// Raw performs a read-only private call and returns the response unchanged.
// path is relative to the read-only prefix, e.g. "balances".
func (s *Service) Raw(ctx context.Context, path string) (string, error) {
	return s.api.Call(ctx, readOnlyPrefix+strings.TrimPrefix(path, "/"), "{}")
}

func (s *Service) write(ctx context.Context, path string, o order) (string, error) {
	body, err := json.Marshal(o)
	if err != nil {
		return "", errors.Wrap(err, "encode order")
	}

	s.logger.Info("placing order", zap.String("endpoint", path), zap.String("coin", o.CoinType))
	return s.private(ctx, writePrefix+path, string(body))
}

func (s *Service) private(ctx context.Context, endpoint, body string) (string, error) {
	text, err := s.api.Call(ctx, endpoint, body)
	if err != nil {
		return "", err
	}
	if err := checkStatus(text); err != nil {
		return "", errors.Wrap(err, endpoint)
	}
	return text, nil
}

func checkStatus(text string) error {
	status := gjson.Get(text, "status")
	if !status.Exists() || status.String() == statusOK {
		return nil
	}

	message := gjson.Get(text, "message").String()
	if message == "" {
		message = status.String()
	}
	return errors.Wrap(ErrStatus, message)
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
