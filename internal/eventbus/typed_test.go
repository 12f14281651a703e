package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedBusKeepsLatest(t *testing.T) {
	bus := NewTyped[int]()
	_, ok := bus.Latest()
	assert.False(t, ok)

	ch := bus.Subscribe()
	bus.Publish(1)
	bus.Publish(2)
	bus.Publish(3)
	assert.Equal(t, 3, <-ch, "unread values are replaced")

	late := bus.Subscribe()
	assert.Equal(t, 3, <-late, "late subscribers receive the latest value")

	v, ok := bus.Latest()
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestTypedBusClose(t *testing.T) {
	bus := NewTyped[string]()
	ch := bus.Subscribe()
	bus.Close()
	_, ok := <-ch
	assert.False(t, ok)
	assert.NotPanics(t, func() { bus.Unsubscribe(ch) })
	assert.NotPanics(t, func() { bus.Publish("x") })
}
