package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order open market order.
type Order struct {
	OTC         bool            `json:"otc"`
	Market      string          `json:"market"`
	Amount      decimal.Decimal `json:"amount"`
	Created     time.Time       `json:"created"`
	AudFeeExGst decimal.Decimal `json:"audfeeExGst"`
	AudGst      decimal.Decimal `json:"audGst"`
	AudTotal    decimal.Decimal `json:"audtotal"`
}

// OpenOrders open buy and sell orders of the account.
type OpenOrders struct {
	Buy  []Order `json:"buyorders"`
	Sell []Order `json:"sellorders"`
}

// CoinPrice latest market prices for a coin.
type CoinPrice struct {
	Bid  decimal.Decimal `json:"bid"`
	Ask  decimal.Decimal `json:"ask"`
	Last decimal.Decimal `json:"last"`
}
