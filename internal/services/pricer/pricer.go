// Package pricer provides spot price feeds for coin pairs.
package pricer

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/coinfolio/internal/domain"
)

// Pricer returns the latest price of pair.From expressed in pair.To.
type Pricer interface {
	GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error)
}
