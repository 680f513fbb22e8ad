package events

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/coinfolio/internal/domain"
)

func TestValueBroadcaster_PublishSubscribe(t *testing.T) {
	b := NewValueBroadcaster(1)
	ch := b.Subscribe()
	require.Equal(t, 1, b.Subscribers())

	s := domain.NewValueSnapshot(time.Unix(100, 0), decimal.NewFromInt(10), decimal.NewFromInt(12))
	b.Publish(s)

	select {
	case got := <-ch:
		assert.True(t, got.Value.Equal(decimal.NewFromInt(12)))
	case <-time.After(time.Second):
		t.Fatal("snapshot not delivered")
	}
}

func TestValueBroadcaster_DropsWhenFull(t *testing.T) {
	b := NewValueBroadcaster(1)
	ch := b.Subscribe()

	b.Publish(domain.ValueSnapshot{Value: decimal.NewFromInt(1)})
	b.Publish(domain.ValueSnapshot{Value: decimal.NewFromInt(2)})

	got := <-ch
	assert.True(t, got.Value.Equal(decimal.NewFromInt(1)))
	assert.Len(t, ch, 0)
}

func TestValueBroadcaster_Unsubscribe(t *testing.T) {
	b := NewValueBroadcaster(0)
	ch := b.Subscribe()
	b.Unsubscribe(ch)
	b.Unsubscribe(ch)

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, b.Subscribers())
}
