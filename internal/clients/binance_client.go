package clients

import (
	"github.com/adshao/go-binance/v2"
)

// NewBinanceClient returns a Binance client for public market data; reference
// price lookups need no API key.
func NewBinanceClient() *binance.Client {
	return binance.NewClient("", "")
}
