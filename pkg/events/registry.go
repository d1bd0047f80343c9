package events

import (
	"fmt"
	"reflect"
	"slices"
	"sync/atomic"

	"github.com/mandelsoft/logging"

	"github.com/mandelsoft/eventcore/pkg/utils"
)

// Registry keeps the global and the instance scoped handler compositions
// per event kind.
//
// A Registry is not synchronized. All subscriptions and triggers must be
// issued by a single logical thread, typically the host's update loop.
// Only the diagnostic hook settings may be changed concurrently.
type Registry struct {
	log       logging.Logger
	global    map[Kind]slot
	scoped    map[Kind]map[any]slot
	lastID    ID
	keepEmpty bool
	// panicking is set while a logged listener panic unwinds
	// nested dispatches.
	panicking bool
	depth     int

	observer    atomic.Pointer[Observer]
	diagnostics atomic.Bool
	dispatched  atomic.Uint64
}

// Option configures a Registry.
type Option func(r *Registry)

// WithLogger derives the registry logger from the given logging context.
func WithLogger(lctx logging.Context) Option {
	return func(r *Registry) {
		if lctx != nil {
			r.log = lctx.Logger(REALM)
		}
	}
}

// WithKeepEmptySlots disables pruning of slots which become empty
// by unsubscribing their last listener.
func WithKeepEmptySlots() Option {
	return func(r *Registry) {
		r.keepEmpty = true
	}
}

// WithDiagnostics sets the initial state of the diagnostic hook flag.
func WithDiagnostics(enabled bool) Option {
	return func(r *Registry) {
		r.diagnostics.Store(enabled)
	}
}

// WithObserver installs the diagnostic observer.
func WithObserver(o Observer) Option {
	return func(r *Registry) {
		r.SetObserver(o)
	}
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		log:    log,
		global: map[Kind]slot{},
		scoped: map[Kind]map[any]slot{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Clear removes all global and scoped registrations.
// Subscriptions issued before are not active anymore.
func (r *Registry) Clear() {
	r.log.Debug("clearing all registrations")
	clear(r.global)
	clear(r.scoped)
}

func (r *Registry) nextID() ID {
	r.lastID++
	return r.lastID
}

func (r *Registry) add(kind Kind, inst any, create func() slot, add func(slot)) {
	if inst == nil {
		s := r.global[kind]
		if s == nil {
			s = create()
			r.global[kind] = s
		}
		add(s)
		return
	}

	m := r.scoped[kind]
	if m == nil {
		m = map[any]slot{}
		r.scoped[kind] = m
	}
	s := m[inst]
	if s == nil {
		s = create()
		m[inst] = s
	}
	add(s)
}

func (r *Registry) lookup(kind Kind, inst any) slot {
	if inst == nil {
		return r.global[kind]
	}
	return r.scoped[kind][inst]
}

func (r *Registry) removeWith(kind Kind, inst any, remove func(slot) bool) bool {
	s := r.lookup(kind, inst)
	if s == nil || !remove(s) {
		return false
	}
	if s.len() > 0 || r.keepEmpty {
		return true
	}
	if inst == nil {
		delete(r.global, kind)
		return true
	}
	m := r.scoped[kind]
	delete(m, inst)
	if len(m) == 0 {
		delete(r.scoped, kind)
	}
	return true
}

func (r *Registry) remove(kind Kind, inst any, id ID) bool {
	return r.removeWith(kind, inst, func(s slot) bool { return s.remove(id) })
}

func (r *Registry) contains(kind Kind, inst any, id ID) bool {
	s := r.lookup(kind, inst)
	return s != nil && s.has(id)
}

// Count returns the number of global listeners for the given kind.
func (r *Registry) Count(kind Kind) int {
	if s := r.global[kind]; s != nil {
		return s.len()
	}
	return 0
}

// ScopedCount returns the number of listeners for the given kind
// scoped to the given instance.
func (r *Registry) ScopedCount(kind Kind, inst any) int {
	inst = instance(inst)
	if inst == nil {
		return 0
	}
	if s := r.scoped[kind][inst]; s != nil {
		return s.len()
	}
	return 0
}

// HasSlot reports whether a slot is kept for the given kind and
// optional instance, even if it is empty.
func (r *Registry) HasSlot(kind Kind, inst ...any) bool {
	return r.lookup(kind, instance(inst...)) != nil
}

// Kinds returns all kinds with a global or scoped slot.
func (r *Registry) Kinds() []Kind {
	kinds := utils.MapKeys(r.global)
	for k := range r.scoped {
		if _, ok := r.global[k]; !ok {
			kinds = append(kinds, k)
		}
	}
	slices.SortFunc(kinds, utils.CompareStringable[Kind])
	return kinds
}

// Instances returns the instances with a scoped slot for the given kind.
func (r *Registry) Instances(kind Kind) []any {
	return utils.MapKeys(r.scoped[kind])
}

// Stats describes the current state of a Registry.
type Stats struct {
	// GlobalSlots is the number of kinds with a global slot.
	GlobalSlots int
	// ScopedSlots is the number of (kind, instance) slots.
	ScopedSlots int
	// Listeners is the total number of registrations.
	Listeners int
	// Dispatched is the number of Trigger calls since creation.
	Dispatched uint64
}

func (r *Registry) Stats() Stats {
	stats := Stats{
		GlobalSlots: len(r.global),
		Dispatched:  r.dispatched.Load(),
	}
	for _, s := range r.global {
		stats.Listeners += s.len()
	}
	for _, m := range r.scoped {
		stats.ScopedSlots += len(m)
		for _, s := range m {
			stats.Listeners += s.len()
		}
	}
	return stats
}

// instance determines the optional scope instance.
// nil means global scope.
func instance(inst ...any) any {
	i := utils.Optional(inst...)
	if i == nil {
		return nil
	}
	if !reflect.TypeOf(i).Comparable() {
		panic(fmt.Errorf("%w: %T is not comparable", ErrInvalidInstance, i))
	}
	return i
}
