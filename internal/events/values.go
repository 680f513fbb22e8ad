package events

import (
	"sync"

	"github.com/vadiminshakov/coinfolio/internal/domain"
)

// ValueBroadcaster fans out value snapshots to all subscribers via buffered channels.
type ValueBroadcaster struct {
	mu     sync.RWMutex
	subs   map[chan domain.ValueSnapshot]struct{}
	buffer int
}

// NewValueBroadcaster creates a broadcaster with the given per-subscriber buffer.
func NewValueBroadcaster(buffer int) *ValueBroadcaster {
	if buffer < 1 {
		buffer = 64
	}
	return &ValueBroadcaster{
		subs:   make(map[chan domain.ValueSnapshot]struct{}),
		buffer: buffer,
	}
}

// Publish sends the snapshot to all subscribers, dropping if a reader is slow.
func (b *ValueBroadcaster) Publish(s domain.ValueSnapshot) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- s:
		default:
			// drop slow consumer
		}
	}
}

// Subscribe returns a channel that receives snapshots until Unsubscribe is called.
func (b *ValueBroadcaster) Subscribe() chan domain.ValueSnapshot {
	ch := make(chan domain.ValueSnapshot, b.buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the channel and closes it.
func (b *ValueBroadcaster) Unsubscribe(ch chan domain.ValueSnapshot) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Subscribers returns the number of active subscriptions.
func (b *ValueBroadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
