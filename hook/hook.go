// Package hook provides typed lifecycle event registries. Each registry
// carries the payload of exactly one event kind and dispatches it to
// subscribed handlers in registration order.
//
// Dispatch is notify-only: a panicking handler never affects the operation
// that emitted the event. Recovered panics are forwarded to the registry's
// panic callback when one is configured.
package hook

import "sync"

// Handler receives one event payload.
type Handler[T any] func(T)

type entry[T any] struct {
	id   int
	fn   Handler[T]
	once bool
}

// Registry is a typed publish/subscribe registry for a single event kind.
// The zero value is not usable; create registries with [NewRegistry].
type Registry[T any] struct {
	mu      sync.Mutex
	nextID  int
	entries []entry[T]
	onPanic func(recovered any)
}

// NewRegistry creates a registry. onPanic may be nil, in which case handler
// panics are recovered and discarded.
func NewRegistry[T any](onPanic func(recovered any)) *Registry[T] {
	return &Registry[T]{onPanic: onPanic}
}

// On subscribes fn to every future emission and returns a subscription id
// usable with [Registry.Off].
func (r *Registry[T]) On(fn Handler[T]) int {
	return r.subscribe(fn, false)
}

// Once subscribes fn to the next emission only.
func (r *Registry[T]) Once(fn Handler[T]) int {
	return r.subscribe(fn, true)
}

func (r *Registry[T]) subscribe(fn Handler[T], once bool) int {
	if fn == nil {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	r.entries = append(r.entries, entry[T]{id: r.nextID, fn: fn, once: once})
	return r.nextID
}

// Off removes the subscription with the given id. Unknown ids are ignored.
func (r *Registry[T]) Off(id int) {
	if r == nil || id == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, e := range r.entries {
		if e.id == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return
		}
	}
}

// Len returns the number of active subscriptions.
func (r *Registry[T]) Len() int {
	if r == nil {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Emit delivers v to all subscribed handlers in registration order.
// Once-subscriptions are removed before their handler runs. Emit is safe to
// call on a nil registry.
func (r *Registry[T]) Emit(v T) {
	if r == nil {
		return
	}

	r.mu.Lock()
	snapshot := make([]entry[T], len(r.entries))
	copy(snapshot, r.entries)

	kept := r.entries[:0]
	for _, e := range r.entries {
		if !e.once {
			kept = append(kept, e)
		}
	}
	r.entries = kept
	r.mu.Unlock()

	for _, e := range snapshot {
		r.call(e.fn, v)
	}
}

func (r *Registry[T]) call(fn Handler[T], v T) {
	defer func() {
		if recovered := recover(); recovered != nil && r.onPanic != nil {
			r.onPanic(recovered)
		}
	}()

	fn(v)
}
