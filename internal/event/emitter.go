package event

import "sort"

type handler[T any] struct {
	fn       func(T)
	priority Priority
	sub      *Subscription
	once     bool
}

// Emitter is an ordered subscription list for events of type T.
// The zero value is ready to use. An Emitter is not safe for concurrent use;
// it belongs to the single goroutine that owns the publishing entity.
type Emitter[T any] struct {
	handlers []*handler[T]
	emitting int
	pending  bool // a handler was disposed while emitting
}

// Subscribe registers fn and returns a handle that removes it.
func (e *Emitter[T]) Subscribe(fn func(T), opts ...Option) *Subscription {
	cfg := subscribeConfig{priority: PriorityNormal}
	for _, opt := range opts {
		opt(&cfg)
	}

	h := &handler[T]{fn: fn, priority: cfg.priority, once: cfg.once}
	h.sub = &Subscription{}
	h.sub.dispose = func() { e.remove(h) }

	// Handlers stay sorted by priority; equal priorities keep insertion order.
	i := sort.Search(len(e.handlers), func(i int) bool {
		return e.handlers[i].priority > h.priority
	})
	e.handlers = append(e.handlers, nil)
	copy(e.handlers[i+1:], e.handlers[i:])
	e.handlers[i] = h

	return h.sub
}

// Emit delivers v to every live handler in priority order.
func (e *Emitter[T]) Emit(v T) {
	if len(e.handlers) == 0 {
		return
	}

	// Handlers may subscribe or dispose during dispatch; walk a snapshot.
	snapshot := make([]*handler[T], len(e.handlers))
	copy(snapshot, e.handlers)

	e.emitting++
	defer func() {
		e.emitting--
		if e.emitting == 0 && e.pending {
			e.compact()
		}
	}()

	for _, h := range snapshot {
		if h.sub.disposed {
			continue
		}
		if h.once {
			h.sub.Dispose()
		}
		h.fn(v)
	}
}

// Len returns the number of live subscriptions.
func (e *Emitter[T]) Len() int {
	n := 0
	for _, h := range e.handlers {
		if !h.sub.disposed {
			n++
		}
	}
	return n
}

// Clear disposes every subscription.
func (e *Emitter[T]) Clear() {
	for _, h := range e.handlers {
		h.sub.disposed = true
	}
	if e.emitting > 0 {
		e.pending = true
		return
	}
	e.handlers = nil
	e.pending = false
}

func (e *Emitter[T]) remove(h *handler[T]) {
	if e.emitting > 0 {
		e.pending = true
		return
	}
	for i, cur := range e.handlers {
		if cur == h {
			e.handlers = append(e.handlers[:i], e.handlers[i+1:]...)
			return
		}
	}
}

func (e *Emitter[T]) compact() {
	live := e.handlers[:0]
	for _, h := range e.handlers {
		if !h.sub.disposed {
			live = append(live, h)
		}
	}
	for i := len(live); i < len(e.handlers); i++ {
		e.handlers[i] = nil
	}
	e.handlers = live
	e.pending = false
}
