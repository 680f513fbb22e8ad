package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Holding one coin's balance at a point in time.
type Holding struct {
	Coin     string          `json:"coin"`
	Quantity decimal.Decimal `json:"balance"`
	UnitRate decimal.Decimal `json:"rate"`
	// Value is Quantity expressed in the quote currency.
	Value decimal.Decimal `json:"value"`
}

// BalanceSnapshot holdings keyed by normalised coin identifier.
// Keys are unique by construction.
type BalanceSnapshot map[string]Holding

// NewBalanceSnapshot builds a snapshot from holdings. A later holding for the
// same coin replaces an earlier one.
func NewBalanceSnapshot(holdings ...Holding) BalanceSnapshot {
	s := make(BalanceSnapshot, len(holdings))
	for _, h := range holdings {
		s.Put(h)
	}
	return s
}

// Put inserts or replaces the holding for its coin.
func (s BalanceSnapshot) Put(h Holding) {
	h.Coin = NormalizeCoin(h.Coin)
	s[h.Coin] = h
}

// Has reports whether the coin is present, regardless of its quantity.
func (s BalanceSnapshot) Has(coin string) bool {
	_, ok := s[NormalizeCoin(coin)]
	return ok
}

// Coins returns the sorted coin identifiers.
func (s BalanceSnapshot) Coins() []string {
	coins := make([]string, 0, len(s))
	for coin := range s {
		coins = append(coins, coin)
	}
	sort.Strings(coins)
	return coins
}

// Without returns a copy of the snapshot with the given coins left out.
func (s BalanceSnapshot) Without(coins ...string) BalanceSnapshot {
	skip := make(map[string]struct{}, len(coins))
	for _, c := range coins {
		skip[NormalizeCoin(c)] = struct{}{}
	}

	out := make(BalanceSnapshot, len(s))
	for coin, h := range s {
		if _, ok := skip[coin]; ok {
			continue
		}
		out[coin] = h
	}
	return out
}

// Total sums holding values, leaving out the listed currencies (typically the
// account's fiat balance).
func (s BalanceSnapshot) Total(exclude ...string) decimal.Decimal {
	total := decimal.Zero
	for _, h := range s.Without(exclude...) {
		total = total.Add(h.Value)
	}
	return total
}
