package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Deposit fiat deposit into the exchange account.
type Deposit struct {
	Amount    decimal.Decimal `json:"amount"`
	Created   time.Time       `json:"created"`
	Status    string          `json:"status"`
	Type      string          `json:"type"`
	Reference string          `json:"reference"`
}

// Deposits list of account deposits.
type Deposits []Deposit

// Since returns deposits created strictly after the cut-off.
func (d Deposits) Since(cutoff time.Time) Deposits {
	out := make(Deposits, 0, len(d))
	for _, dep := range d {
		if dep.Created.After(cutoff) {
			out = append(out, dep)
		}
	}
	return out
}

// Total sums deposit amounts.
func (d Deposits) Total() decimal.Decimal {
	total := decimal.Zero
	for _, dep := range d {
		total = total.Add(dep.Amount)
	}
	return total
}
