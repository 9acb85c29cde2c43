// pkg/unarc/listener.go
package unarc

import (
	"reflect"
	"sync"

	"go.uber.org/zap"
)

// Listener receives lifecycle events from an Unarchiver.
// A listener is identified by interface identity: registering the same
// value twice for the same kind is a no-op, and removal uses the same
// comparison. Implementations should therefore be pointer types (or use
// ListenerFunc); values of non-comparable types have no usable identity
// and are rejected at registration.
type Listener interface {
	HandleEvent(ev Event)
}

type listenerFunc struct {
	fn func(Event)
}

func (l *listenerFunc) HandleEvent(ev Event) { l.fn(ev) }

// ListenerFunc adapts a plain function to the Listener interface.
// Each call returns a distinct listener identity, so the returned value
// must be kept if it is to be removed later.
func ListenerFunc(fn func(Event)) Listener {
	return &listenerFunc{fn: fn}
}

// listenerRegistry maps event kinds to ordered listener sets.
// One registry per Unarchiver instance; no process-wide state.
type listenerRegistry struct {
	mu        sync.Mutex
	listeners map[EventKind][]Listener
	logger    *zap.Logger
}

func newListenerRegistry(logger *zap.Logger) *listenerRegistry {
	return &listenerRegistry{
		listeners: make(map[EventKind][]Listener),
		logger:    logger,
	}
}

// add registers l for kind. Unrecognized kinds, nil listeners and
// duplicates are ignored. Listeners whose dynamic type is not
// comparable are rejected: identity comparison against them would
// panic, so they can never be deduplicated or removed.
func (r *listenerRegistry) add(kind EventKind, l Listener) {
	if !kind.valid() || l == nil {
		return
	}
	if !reflect.TypeOf(l).Comparable() {
		r.logger.Warn("listener type is not comparable, ignoring registration; use a pointer type or ListenerFunc",
			zap.String("type", reflect.TypeOf(l).String()))
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.listeners[kind] {
		if existing == l {
			return
		}
	}
	r.listeners[kind] = append(r.listeners[kind], l)
}

// remove unregisters l for kind. No-op if not present.
func (r *listenerRegistry) remove(kind EventKind, l Listener) {
	if !kind.valid() || l == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.listeners[kind] {
		if existing == l {
			r.listeners[kind] = append(r.listeners[kind][:i], r.listeners[kind][i+1:]...)
			return
		}
	}
}

// registered reports whether l is currently registered for kind.
func (r *listenerRegistry) registered(kind EventKind, l Listener) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.listeners[kind] {
		if existing == l {
			return true
		}
	}
	return false
}

// dispatch invokes every listener registered for ev.Kind in registration
// order. The snapshot is taken up front, but membership is re-checked
// before each invocation so RemoveEventListener stops delivery even for
// events already queued on the boundary. A panicking listener does not
// prevent the remaining listeners from running.
func (r *listenerRegistry) dispatch(ev Event) {
	r.mu.Lock()
	snapshot := make([]Listener, len(r.listeners[ev.Kind]))
	copy(snapshot, r.listeners[ev.Kind])
	r.mu.Unlock()

	for _, l := range snapshot {
		if !r.registered(ev.Kind, l) {
			continue
		}
		r.invoke(ev, l)
	}
}

// invoke isolates a single listener call.
func (r *listenerRegistry) invoke(ev Event, l Listener) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("listener panicked",
				zap.Stringer("kind", ev.Kind),
				zap.Any("panic", rec))
		}
	}()
	l.HandleEvent(ev)
}
