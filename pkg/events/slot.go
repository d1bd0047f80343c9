package events

import (
	"slices"
)

// ID is the identity token of a single registration.
type ID uint64

type entry[E any] struct {
	id      ID
	handler Handler[E]
	// origin is the handler given by the subscriber. It differs from
	// handler for wrapped registrations like SubscribeOnce.
	origin Handler[E]
}

// slot is the type-erased view of an ordered handler composition
// as stored in the registry.
type slot interface {
	len() int
	has(id ID) bool
	remove(id ID) bool
	removeHandler(h any) bool
	invoke(inv *invoker, scoped bool) error
}

type typedSlot[E any] struct {
	entries []*entry[E]
}

var _ slot = (*typedSlot[struct{}])(nil)

func (s *typedSlot[E]) len() int {
	return len(s.entries)
}

func (s *typedSlot[E]) add(e *entry[E]) {
	s.entries = append(s.entries, e)
}

func (s *typedSlot[E]) index(match func(e *entry[E]) bool) int {
	for i, e := range s.entries {
		if match(e) {
			return i
		}
	}
	return -1
}

func (s *typedSlot[E]) has(id ID) bool {
	return s.index(func(e *entry[E]) bool { return e.id == id }) >= 0
}

func (s *typedSlot[E]) delete(i int) bool {
	if i < 0 {
		return false
	}
	s.entries = slices.Delete(s.entries, i, i+1)
	return true
}

func (s *typedSlot[E]) remove(id ID) bool {
	return s.delete(s.index(func(e *entry[E]) bool { return e.id == id }))
}

// removeHandler removes the first entry registered for the given handler.
// The caller must ensure that h has a comparable dynamic type.
func (s *typedSlot[E]) removeHandler(h any) bool {
	t, ok := h.(Handler[E])
	if !ok {
		return false
	}
	return s.delete(s.index(func(e *entry[E]) bool { return e.origin == t }))
}

func (s *typedSlot[E]) snapshot() []*entry[E] {
	return slices.Clone(s.entries)
}

func (s *typedSlot[E]) invoke(inv *invoker, scoped bool) error {
	event, ok := inv.event.(E)
	if !ok {
		return nil
	}
	for _, e := range s.snapshot() {
		if err := inv.call(e.id, scoped, func() error { return e.handler.HandleEvent(event) }); err != nil {
			return err
		}
	}
	return nil
}
