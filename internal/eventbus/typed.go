package eventbus

import "sync"

// TypedBus is a type-safe bus for a single value type. Unlike Bus it keeps
// the last published value and delivers it to new subscribers, which suits
// state snapshots where only the latest value matters.
type TypedBus[T any] struct {
	mu     sync.RWMutex
	subs   []chan T
	last   T
	has    bool
	closed bool
}

// NewTyped creates a new TypedBus.
func NewTyped[T any]() *TypedBus[T] { return &TypedBus[T]{} }

// Publish records e as the latest value and offers it to every subscriber.
// A subscriber that has not consumed the previous value gets it replaced.
func (b *TypedBus[T]) Publish(e T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.last, b.has = e, true
	for _, ch := range b.subs {
		offer(ch, e)
	}
}

func offer[T any](ch chan T, e T) {
	select {
	case ch <- e:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- e:
	default:
	}
}

// Latest returns the last published value.
func (b *TypedBus[T]) Latest() (T, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.last, b.has
}

// Subscribe registers a subscriber. If a value was already published it is
// immediately available on the channel.
func (b *TypedBus[T]) Subscribe() <-chan T {
	ch := make(chan T, 1)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	if b.has {
		ch <- b.last
	}
	b.subs = append(b.subs, ch)
	return ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *TypedBus[T]) Unsubscribe(sub <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(ch)
			}
			return
		}
	}
}

// Close closes the bus and all subscriber channels.
func (b *TypedBus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
