// Package notify fans state out to subscribers that only care about the latest value.
package notify

import "sync"

// Broadcaster keeps a current value and pushes every new one to its subscribers.
// Each subscriber channel holds at most one value; a slow reader skips intermediate values
// but always ends up with the latest one.
type Broadcaster[T any] struct {
	clone func(T) T

	mu      sync.Mutex
	current T
	subs    map[chan T]struct{}
	closed  bool
}

// New creates a broadcaster holding initial. clone, when not nil, is applied to every value handed to a
// subscriber so they never alias the publisher's copy.
func New[T any](initial T, clone func(T) T) *Broadcaster[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}

	return &Broadcaster[T]{
		clone:   clone,
		current: initial,
		subs:    make(map[chan T]struct{}),
	}
}

// Subscribe returns a channel that immediately holds the current value.
// unsubscribe closes the channel and is safe to call more than once.
func (b *Broadcaster[T]) Subscribe() (unsubscribe func(), updates <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan T, 1)
	if b.closed {
		close(ch)
		return func() {}, ch
	}

	ch <- b.clone(b.current)
	b.subs[ch] = struct{}{}

	unsubscribe = func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if _, ok := b.subs[ch]; !ok {
			return
		}
		delete(b.subs, ch)
		drainAndClose(ch)
	}

	return unsubscribe, ch
}

// Publish replaces the current value and delivers it to every subscriber.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.current = v
	for ch := range b.subs {
		// only Publish sends and it holds the lock, so after the drain the send cannot block
		select {
		case <-ch:
		default:
		}
		ch <- b.clone(v)
	}
}

func (b *Broadcaster[T]) Current() T {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.clone(b.current)
}

func (b *Broadcaster[T]) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.subs)
}

// Close closes every subscriber channel. Later subscriptions get an already closed channel.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for ch := range b.subs {
		drainAndClose(ch)
		delete(b.subs, ch)
	}
}

func drainAndClose[T any](ch chan T) {
	for {
		select {
		case <-ch:
		default:
			close(ch)
			return
		}
	}
}
