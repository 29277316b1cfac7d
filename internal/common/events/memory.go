// internal/common/events/memory.go
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrBusClosed = errors.New("EVENT_BUS_CLOSED")

type subscription struct {
	id int
	h  Handler
}

// MemoryBus delivers events synchronously, in subscription order, on the
// publisher's goroutine.
type MemoryBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string][]subscription
	closed bool
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string][]subscription)}
}

func (b *MemoryBus) Publish(ctx context.Context, topic string, payload interface{}) (Event, error) {
	e, err := newEvent(topic, payload)
	if err != nil {
		return Event{}, err
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return Event{}, ErrBusClosed
	}
	handlers := make([]Handler, 0, len(b.subs[topic]))
	for _, s := range b.subs[topic] {
		handlers = append(handlers, s.h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, e)
	}
	return e, nil
}

func (b *MemoryBus) Subscribe(topic string, h Handler) (func(), error) {
	if !ValidTopic(topic) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBusClosed
	}
	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, h: h})

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(topic, id) })
	}, nil
}

func (b *MemoryBus) remove(topic string, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[topic]
	for i, s := range subs {
		if s.id == id {
			b.subs[topic] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[string][]subscription)
	return nil
}
