package notify

import "sync"

// Hub fans values out to subscribers in subscription order.
type Hub[T any] struct {
	mu   sync.RWMutex
	next uint64
	subs []subscriber[T]
}

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// Subscribe registers fn and returns a function that removes it again.
// Calling the returned function more than once is harmless.
func (h *Hub[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	h.mu.Lock()
	h.next++
	id := h.next
	h.subs = append(h.subs, subscriber[T]{id: id, fn: fn})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.remove(id) })
	}
}

func (h *Hub[T]) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, s := range h.subs {
		if s.id == id {
			h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
			return
		}
	}
}

// Publish calls every subscriber synchronously. Subscribers may subscribe or
// unsubscribe from inside the callback.
func (h *Hub[T]) Publish(v T) {
	h.mu.RLock()
	subs := make([]subscriber[T], len(h.subs))
	copy(subs, h.subs)
	h.mu.RUnlock()

	for _, s := range subs {
		s.fn(v)
	}
}

// Len returns the number of subscribers.
func (h *Hub[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
