// Package reconcile computes how a recorded holdings table must change to
// match a live balance snapshot.
package reconcile

import (
	"sort"

	"github.com/vadiminshakov/coinfolio/internal/domain"
)

// Result lists coins to add, update and remove. The three lists are sorted
// and disjoint.
type Result struct {
	ToAdd    []string
	ToUpdate []string
	ToRemove []string
}

// Empty reports whether the record is already in sync.
func (r Result) Empty() bool {
	return len(r.ToAdd) == 0 && len(r.ToUpdate) == 0 && len(r.ToRemove) == 0
}

// Coins returns every coin mentioned by the result.
func (r Result) Coins() []string {
	coins := make([]string, 0, len(r.ToAdd)+len(r.ToUpdate)+len(r.ToRemove))
	coins = append(coins, r.ToAdd...)
	coins = append(coins, r.ToUpdate...)
	coins = append(coins, r.ToRemove...)
	sort.Strings(coins)
	return coins
}

type options struct {
	skipUnchanged bool
}

// Option tunes Diff.
type Option func(*options)

// SkipUnchanged leaves coins out of ToUpdate when their quantity and rate are
// the same in both snapshots.
func SkipUnchanged() Option {
	return func(o *options) {
		o.skipUnchanged = true
	}
}

// Diff classifies coins by presence:
//   - recorded but not live: ToRemove;
//   - live and recorded: ToUpdate;
//   - live only: ToAdd.
//
// ToRemove is taken from recorded coins missing live, so it never shares a
// coin with ToAdd. A zero live quantity still counts as present.
func Diff(live, recorded domain.BalanceSnapshot, opts ...Option) Result {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	liveSet := normalized(live)
	recordedSet := normalized(recorded)

	remove := make(map[string]struct{})
	for coin := range recordedSet {
		if _, ok := liveSet[coin]; !ok {
			remove[coin] = struct{}{}
		}
	}

	var res Result
	for _, coin := range sortedKeys(liveSet) {
		if prev, ok := recordedSet[coin]; ok {
			if o.skipUnchanged && unchanged(liveSet[coin], prev) {
				continue
			}
			res.ToUpdate = append(res.ToUpdate, coin)
			continue
		}
		res.ToAdd = append(res.ToAdd, coin)
	}
	res.ToRemove = sortedKeys(remove)

	return res
}

// Apply returns recorded with the result applied using holdings from live.
// recorded is not modified.
func Apply(recorded, live domain.BalanceSnapshot, res Result) domain.BalanceSnapshot {
	out := make(domain.BalanceSnapshot, len(recorded))
	for _, h := range recorded {
		out.Put(h)
	}

	liveSet := normalized(live)
	for _, coin := range res.ToRemove {
		delete(out, coin)
	}
	for _, coin := range res.ToUpdate {
		out.Put(liveSet[coin])
	}
	for _, coin := range res.ToAdd {
		out.Put(liveSet[coin])
	}

	return out
}

// RecordedSnapshot builds a deduplicated snapshot from recorded table rows.
// When a coin appears more than once the last row wins.
func RecordedSnapshot(rows []domain.RecordedHolding) domain.BalanceSnapshot {
	s := make(domain.BalanceSnapshot, len(rows))
	for _, row := range rows {
		s.Put(row.Holding())
	}
	return s
}

func unchanged(a, b domain.Holding) bool {
	return a.Quantity.Equal(b.Quantity) && a.UnitRate.Equal(b.UnitRate)
}

// normalized re-keys a snapshot by canonical coin id so hand-built snapshots
// compare correctly.
func normalized(s domain.BalanceSnapshot) map[string]domain.Holding {
	out := make(map[string]domain.Holding, len(s))
	for key, h := range s {
		coin := domain.NormalizeCoin(key)
		h.Coin = coin
		out[coin] = h
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
