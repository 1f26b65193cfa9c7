// Package notify is the process-wide toast registry. Components raise toasts
// through a Registry and front ends subscribe to its state; the visible list
// is bounded so only the most recent toasts are kept.
package notify

import (
	"slices"
	"strconv"
	"sync"
)

const defaultLimit = 1

// Variant selects how a toast is presented.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Toast is a single user-visible notification.
type Toast struct {
	ID          string  `json:"id"`
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Variant     Variant `json:"variant,omitempty"`
}

// State is the list of visible toasts, newest first.
type State struct {
	Toasts []Toast `json:"toasts"`
}

// Listener receives a copy of the state after every change.
type Listener func(State)

// Notifier raises toasts. *Registry implements it; consumers accept the
// interface so tests can record toasts without a registry.
type Notifier interface {
	Toast(t Toast) Handle
}

// Handle refers to a raised toast.
type Handle struct {
	ID       string
	registry *Registry
}

// Dismiss removes the toast from the visible list.
func (h Handle) Dismiss() {
	if h.registry != nil {
		h.registry.Dismiss(h.ID)
	}
}

// Registry holds the visible toasts and their subscribers.
type Registry struct {
	mu        sync.Mutex
	limit     int
	count     uint64
	state     State
	nextSubID uint64
	listeners map[uint64]Listener
}

// NewRegistry returns a registry that keeps at most limit visible toasts.
// A limit <= 0 uses the default of 1.
func NewRegistry(limit int) *Registry {
	if limit <= 0 {
		limit = defaultLimit
	}

	return &Registry{
		limit:     limit,
		listeners: make(map[uint64]Listener),
	}
}

// Subscribe registers l and returns a function that unregisters it. The
// returned function is idempotent.
func (r *Registry) Subscribe(l Listener) (unsubscribe func()) {
	r.mu.Lock()
	id := r.nextSubID
	r.nextSubID++
	r.listeners[id] = l
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.listeners, id)
			r.mu.Unlock()
		})
	}
}

// Toast adds t to the front of the visible list, trimming the list to the
// registry limit. Any ID on t is replaced with a generated one.
func (r *Registry) Toast(t Toast) Handle {
	if t.Variant == "" {
		t.Variant = VariantDefault
	}

	r.mu.Lock()
	r.count++
	t.ID = strconv.FormatUint(r.count, 10)

	toasts := append([]Toast{t}, r.state.Toasts...)
	if len(toasts) > r.limit {
		toasts = toasts[:r.limit]
	}
	r.state = State{Toasts: toasts}
	r.mu.Unlock()

	r.dispatch()
	return Handle{ID: t.ID, registry: r}
}

// Dismiss removes the toast with the given ID. Unknown IDs still notify
// listeners with the unchanged state.
func (r *Registry) Dismiss(id string) {
	r.mu.Lock()
	r.state = State{
		Toasts: slices.DeleteFunc(slices.Clone(r.state.Toasts), func(t Toast) bool {
			return t.ID == id
		}),
	}
	r.mu.Unlock()

	r.dispatch()
}

// State returns a copy of the current state.
func (r *Registry) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

// dispatch calls every listener outside the lock so listeners may call back
// into the registry.
func (r *Registry) dispatch() {
	r.mu.Lock()
	state := r.snapshot()
	listeners := make([]Listener, 0, len(r.listeners))
	for _, l := range r.listeners {
		listeners = append(listeners, l)
	}
	r.mu.Unlock()

	for _, l := range listeners {
		l(State{Toasts: slices.Clone(state.Toasts)})
	}
}

func (r *Registry) snapshot() State {
	return State{Toasts: slices.Clone(r.state.Toasts)}
}
