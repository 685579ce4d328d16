package catalog

import "sync/atomic"

// Holder publishes the current catalog to readers while loads swap in
// replacements. Readers always see either the previous complete store or
// the new one, never a partially built catalog.
type Holder struct {
	ptr atomic.Pointer[Store]
}

// NewHolder creates a holder, optionally seeded with an initial store.
func NewHolder(initial *Store) *Holder {
	h := &Holder{}
	if initial != nil {
		h.ptr.Store(initial)
	}
	return h
}

// Current returns the published store, or nil when no load has completed.
func (h *Holder) Current() *Store {
	return h.ptr.Load()
}

// Swap publishes a new store and returns the previous one.
func (h *Holder) Swap(s *Store) *Store {
	return h.ptr.Swap(s)
}
