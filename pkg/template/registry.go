// registry.go - Lookup of templates and stickers by id.
package template

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the active templates and stickers. It is safe for
// concurrent reads and merges.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*Template
	stickers  []Sticker
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{templates: make(map[string]*Template)}
}

// Builtin returns a registry pre-filled with the shipped catalog.
func Builtin() *Registry {
	r := NewRegistry()
	r.Merge(Catalog{Templates: builtinTemplates(), Stickers: builtinStickers()})
	return r
}

// Get returns the template with the given id.
func (r *Registry) Get(id string) (*Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[id]
	return t, ok
}

// MustGet is Get for ids known at compile time. It panics on unknown ids.
func (r *Registry) MustGet(id string) *Template {
	t, ok := r.Get(id)
	if !ok {
		panic(fmt.Sprintf("template: unknown id %q", id))
	}
	return t
}

// DefaultID is the template used for cards with a missing or unknown id.
const DefaultID = "t1"

// Resolve returns the template with the given id. Empty and unknown ids
// fall back to DefaultID; a registry without it yields a frameless
// template with no background.
func (r *Registry) Resolve(id string) *Template {
	if t, ok := r.Get(id); ok {
		return t
	}
	if t, ok := r.Get(DefaultID); ok {
		return t
	}
	return &Template{ID: id}
}

// List returns all templates ordered by id.
func (r *Registry) List() []*Template {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Template, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return lessID(out[i].ID, out[j].ID) })
	return out
}

// Stickers returns the sticker catalog in display order.
func (r *Registry) Stickers() []Sticker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Sticker(nil), r.stickers...)
}

// Sticker looks up a catalog sticker.
func (r *Registry) Sticker(id string) (Sticker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.stickers {
		if s.ID == id {
			return s, true
		}
	}
	return Sticker{}, false
}

// lessID orders "t2" before "t10".
func lessID(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
