package events

import (
	"fmt"
	"reflect"

	"github.com/modern-go/reflect2"
)

// Subscription is the handle of a single registration.
// It stays valid after the registration has been removed;
// Unsubscribe is then a no-op.
type Subscription struct {
	registry *Registry
	kind     Kind
	id       ID
	instance any
}

func (s *Subscription) ID() ID {
	return s.id
}

func (s *Subscription) Kind() Kind {
	return s.kind
}

// Instance returns the scope instance, or nil for a global subscription.
func (s *Subscription) Instance() any {
	return s.instance
}

// Active reports whether the registration is still present.
func (s *Subscription) Active() bool {
	return s.registry.contains(s.kind, s.instance, s.id)
}

// Unsubscribe removes exactly this registration.
func (s *Subscription) Unsubscribe() {
	if s.registry.remove(s.kind, s.instance, s.id) {
		s.registry.log.Trace("unsubscribed {{id}} from {{kind}}", "id", s.id, "kind", s.kind)
	}
}

// Subscribe registers a handler for events of kind E. Without an instance
// (or with a nil instance) the handler receives every trigger of the kind.
// Otherwise it only receives triggers issued for this instance.
// The same handler may be subscribed multiple times; every registration
// fires separately.
func Subscribe[E any](r *Registry, h Handler[E], inst ...any) *Subscription {
	return subscribe[E](r, h, h, instance(inst...))
}

// SubscribeFunc registers a function as handler for events of kind E.
func SubscribeFunc[E any](r *Registry, f func(E) error, inst ...any) *Subscription {
	return Subscribe[E](r, HandlerFunc[E](f), inst...)
}

// Listen registers a function that cannot fail as handler for events of kind E.
func Listen[E any](r *Registry, f func(E), inst ...any) *Subscription {
	return Subscribe[E](r, Listener[E](f), inst...)
}

// SubscribeOnce registers a handler which is removed from the registry
// the first time it is called, before the handler itself is executed.
func SubscribeOnce[E any](r *Registry, h Handler[E], inst ...any) *Subscription {
	var (
		cell  *Subscription
		fired bool
	)
	wrapper := HandlerFunc[E](func(event E) error {
		if fired {
			return nil
		}
		fired = true
		cell.Unsubscribe()
		return h.HandleEvent(event)
	})
	cell = subscribe[E](r, wrapper, h, instance(inst...))
	return cell
}

// Unsubscribe removes the first registration of the given handler for kind E
// and the optional instance. Handlers are matched by identity, which requires
// a comparable handler type like a pointer. Other handlers, for example plain
// functions, can only be removed with their Subscription.
func Unsubscribe[E any](r *Registry, h Handler[E], inst ...any) {
	kind := KindOf[E]()
	if isNil(h) {
		return
	}
	if !reflect.TypeOf(h).Comparable() {
		r.log.Debug("handler {{handler}} for {{kind}} is not comparable, use its subscription to unsubscribe",
			"handler", fmt.Sprintf("%T", h), "kind", kind)
		return
	}
	r.removeWith(kind, instance(inst...), func(s slot) bool { return s.removeHandler(h) })
}

func subscribe[E any](r *Registry, h, origin Handler[E], inst any) *Subscription {
	kind := KindOf[E]()
	if kind.isInterface() {
		panic(fmt.Errorf("%w: %s is an interface", ErrInterfaceKind, kind))
	}
	if isNil(origin) {
		panic(fmt.Errorf("%w: kind %s", ErrNilHandler, kind))
	}

	e := &entry[E]{
		id:      r.nextID(),
		handler: h,
		origin:  origin,
	}
	r.add(kind, inst,
		func() slot { return &typedSlot[E]{} },
		func(s slot) { s.(*typedSlot[E]).add(e) },
	)
	if inst == nil {
		r.log.Trace("subscribed {{id}} to {{kind}}", "id", e.id, "kind", kind)
	} else {
		r.log.Trace("subscribed {{id}} to {{kind}} for {{instance}}", "id", e.id, "kind", kind, "instance", inst)
	}
	return &Subscription{
		registry: r,
		kind:     kind,
		id:       e.id,
		instance: inst,
	}
}

// isNil checks for a nil handler. Only nullable kinds can carry a nil
// value, a struct or array handler is never nil.
func isNil(h any) bool {
	if h == nil {
		return true
	}
	return reflect2.IsNullable(reflect.TypeOf(h).Kind()) && reflect2.IsNil(h)
}
