package tweak

import (
	"fmt"
	"sort"
	"sync"
)

// Factory creates a fresh tweak instance.
type Factory func() Tweak

// Registry holds the known tweaks, keyed by ID.
type Registry struct {
	mu        sync.Mutex
	factories []Factory
	byID      map[string]int // id -> index in factories
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make([]Factory, 0),
		byID:      make(map[string]int),
	}
}

// Add registers f. Registering the same ID twice panics.
func (r *Registry) Add(f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := f().ID()
	if _, dup := r.byID[id]; dup {
		panic(fmt.Sprintf("tweak %q registered twice", id))
	}
	r.byID[id] = len(r.factories)
	r.factories = append(r.factories, f)
}

// IDs returns the registered IDs in sorted order.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// New instantiates the tweak with the given ID.
func (r *Registry) New(id string) (Tweak, bool) {
	r.mu.Lock()
	idx, ok := r.byID[id]
	var f Factory
	if ok {
		f = r.factories[idx]
	}
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	return f(), true
}

// Len returns the number of registered tweaks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.factories)
}

// Filter decides whether a tweak may be offered. nil allows everything.
type Filter func(Tweak) bool

// Prepared instantiates every tweak accepted by filter and returns those
// whose Prepare succeeds, in registration order.
func (r *Registry) Prepared(sel *Selection, filter Filter) []Tweak {
	r.mu.Lock()
	factories := append([]Factory(nil), r.factories...)
	r.mu.Unlock()

	var out []Tweak
	for _, f := range factories {
		t := f()
		if filter != nil && !filter(t) {
			continue
		}
		span := sel.Span().Child(traceScope, t.ID()+".prepare")
		ok := t.Prepare(sel)
		span.End(fmt.Sprintf("applicable=%v", ok))
		if ok {
			out = append(out, t)
		}
	}
	return out
}

// Available is Prepared with hidden and disabled tweaks filtered out.
func (r *Registry) Available(sel *Selection, disabled []string) []Tweak {
	skip := make(map[string]bool, len(disabled))
	for _, id := range disabled {
		skip[id] = true
	}
	return r.Prepared(sel, func(t Tweak) bool {
		return !t.Hidden() && !skip[t.ID()]
	})
}

// Default is the registry tweaks add themselves to.
var Default = NewRegistry()

// Register adds f to Default.
func Register(f Factory) { Default.Add(f) }

// Prepared runs Default.Prepared.
func Prepared(sel *Selection, filter Filter) []Tweak { return Default.Prepared(sel, filter) }
