// Package domain defines core data structures shared by the exchange, reconciliation and
// spreadsheet layers.
package domain

import (
	"fmt"
	"strings"
)

// Pair cryptocurrency market pair used to query reference price feeds.
type Pair struct {
	// From base coin symbol.
	From string
	// To quote currency symbol.
	To string
}

// NewPair builds a pair with upper-cased symbols.
func NewPair(from, to string) Pair {
	return Pair{From: NormalizeCoin(from), To: NormalizeCoin(to)}
}

// String returns the string representation.
func (p Pair) String() string {
	return fmt.Sprintf("%s_%s", p.From, p.To)
}

// Symbol returns the concatenated symbol representation.
func (p Pair) Symbol() string {
	return fmt.Sprintf("%s%s", p.From, p.To)
}

// NormalizeCoin canonicalises a coin identifier so snapshot keys compare equal
// regardless of how the exchange or the spreadsheet spelled them.
func NormalizeCoin(coin string) string {
	return strings.ToUpper(strings.TrimSpace(coin))
}
