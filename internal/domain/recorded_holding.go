package domain

import "github.com/shopspring/decimal"

// RecordedHolding a row of the spreadsheet holdings table.
type RecordedHolding struct {
	Coin         string
	Quantity     decimal.Decimal
	BuyInPrice   decimal.Decimal
	CurrentPrice decimal.Decimal
}

// Holding converts the row into a snapshot entry valued at the current price.
func (r RecordedHolding) Holding() Holding {
	return Holding{
		Coin:     NormalizeCoin(r.Coin),
		Quantity: r.Quantity,
		UnitRate: r.CurrentPrice,
		Value:    r.Quantity.Mul(r.CurrentPrice),
	}
}

// Row renders the holding as spreadsheet cells.
func (r RecordedHolding) Row() []any {
	return []any{
		r.Coin,
		r.Quantity.String(),
		r.BuyInPrice.String(),
		r.CurrentPrice.String(),
	}
}
