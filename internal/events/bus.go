// Package events is the in-process event surface. The swap engine emits
// named notifications; listeners such as persistence glue or webhook alerts
// subscribe independently, and emitting never depends on a listener existing.
package events

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Handler receives an event payload.
type Handler = func(name string, payload any)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus fans events out to subscribers synchronously, in subscription order.
// A panicking handler is recovered and logged so one listener cannot break
// the emitter or its siblings.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]subscription
	nextID uint64
	log    *zap.Logger
}

// NewBus creates an empty bus. A nil logger discards handler failures.
func NewBus(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{subs: make(map[string][]subscription), log: log}
}

// Subscribe registers h for events named name and returns a function that
// removes the subscription. The returned function is idempotent.
func (b *Bus) Subscribe(name string, h Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[name] = append(b.subs[name], subscription{id: id, handler: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(name, id) })
	}
}

func (b *Bus) remove(name string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[name]
	for i, s := range subs {
		if s.id == id {
			b.subs[name] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[name]) == 0 {
		delete(b.subs, name)
	}
}

// Emit delivers payload to every current subscriber of name.
func (b *Bus) Emit(name string, payload any) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.subs[name]...)
	b.mu.RUnlock()

	for _, s := range subs {
		b.deliver(name, payload, s.handler)
	}
}

func (b *Bus) deliver(name string, payload any, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked",
				zap.String("event", name),
				zap.String("panic", fmt.Sprint(r)))
		}
	}()
	h(name, payload)
}

// Subscribers returns the number of handlers registered for name.
func (b *Bus) Subscribers(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[name])
}
