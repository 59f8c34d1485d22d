package session

import (
	"sync"

	"liirat-news/pkg/utils"
)

// Bus fans AuthChanged events out to subscribers.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]func(AuthChanged)
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[int]func(AuthChanged))}
}

// Subscribe registers fn and returns a function that removes it.
// Calling the returned function more than once is a no-op.
func (b *Bus) Subscribe(fn func(AuthChanged)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers evt to every current subscriber. Handlers run on the
// caller's goroutine, outside the lock; a panicking handler does not stop the rest.
func (b *Bus) Publish(evt AuthChanged) {
	b.mu.RLock()
	handlers := make([]func(AuthChanged), 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h := h
		utils.RunSafe(func() { h(evt) })
	}
}

// Len returns the number of active subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
