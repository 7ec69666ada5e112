// Package event carries registry notifications to interested subscribers.
package event

import (
	"reflect"
	"sync"
)

// Bus is a double-buffered event bus. Events emitted during one batch of
// registry edits become visible to handlers after the next SwapBuffers.
type Bus struct {
	mu       sync.Mutex // guards handlers
	front    []queued
	back     []queued
	handlers map[reflect.Type][]func(any)
}

type queued struct {
	typ reflect.Type
	ev  any
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[reflect.Type][]func(any))}
}

func typeOf[T any]() reflect.Type { return reflect.TypeOf((*T)(nil)).Elem() }

// Emit queues ev into the back buffer. A nil bus drops the event.
func Emit[T any](b *Bus, ev T) {
	if b == nil {
		return
	}
	b.back = append(b.back, queued{typ: typeOf[T](), ev: ev})
}

// Subscribe registers fn for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := typeOf[T]()
	b.handlers[t] = append(b.handlers[t], func(ev any) { fn(ev.(T)) })
}

// Pending reports how many events wait in the back buffer.
func (b *Bus) Pending() int { return len(b.back) }

// SwapBuffers moves the back buffer to the front and empties the back.
func (b *Bus) SwapBuffers() {
	b.front, b.back = b.back, b.front[:0]
}

// DispatchAll delivers the front buffer in emission order.
func (b *Bus) DispatchAll() {
	b.mu.Lock()
	handlers := b.handlers
	b.mu.Unlock()
	for _, q := range b.front {
		for _, h := range handlers[q.typ] {
			h(q.ev)
		}
	}
	b.front = b.front[:0]
}

// Flush swaps the buffers and dispatches everything emitted so far.
func (b *Bus) Flush() {
	b.SwapBuffers()
	b.DispatchAll()
}
