package clients

import (
	"github.com/hirokisan/bybit/v2"
)

// NewBybitClient returns an unauthenticated Bybit client for V5 market data.
func NewBybitClient() *bybit.Client {
	return bybit.NewClient()
}
