package events

import (
	"fmt"

	"github.com/mandelsoft/logging"
)

// invoker is the dispatch context of a single Trigger call.
type invoker struct {
	registry *Registry
	log      logging.Logger
	kind     Kind
	event    any
	instance any
}

func newInvoker(r *Registry, kind Kind, event any, inst any) *invoker {
	return &invoker{
		registry: r,
		log:      r.log,
		kind:     kind,
		event:    event,
		instance: inst,
	}
}

// Trigger dispatches the event to all global listeners of its kind and, if
// an instance is given, to all listeners scoped to this instance.
// Listeners are called synchronously in subscription order.
//
// If a listener fails, the error is returned as *ListenerError and no
// further listener is called. A panicking listener is logged and the panic
// is propagated unchanged.
func Trigger[E any](r *Registry, event E, inst ...any) error {
	kind := KindOf[E]()
	if kind.isInterface() {
		return TriggerAny(r, event, inst...)
	}
	return newInvoker(r, kind, event, instance(inst...)).fire()
}

// TriggerAny dispatches a type-erased event according to the kind of its
// dynamic type. A nil event has no kind. It is only passed to the
// diagnostic hook.
func TriggerAny(r *Registry, event any, inst ...any) error {
	kind := KindFor(event)
	if kind.IsZero() {
		instance(inst...)
		r.dispatched.Add(1)
		r.notify(event)
		return nil
	}
	return newInvoker(r, kind, event, instance(inst...)).fire()
}

func (i *invoker) fire() error {
	r := i.registry
	r.depth++
	defer func() {
		r.depth--
		if r.depth == 0 {
			r.panicking = false
		}
	}()

	i.registry.dispatched.Add(1)
	i.registry.notify(i.event)

	if s := i.registry.global[i.kind]; s != nil {
		if err := s.invoke(i, false); err != nil {
			return err
		}
	}
	if i.instance != nil {
		if s := i.registry.scoped[i.kind][i.instance]; s != nil {
			return s.invoke(i, true)
		}
	}
	return nil
}

func (i *invoker) call(id ID, scoped bool, f func() error) error {
	log := i.log.WithValues("kind", i.kind, "listener", id)
	if scoped {
		log = log.WithValues("instance", fmt.Sprintf("%v", i.instance))
	}

	defer func() {
		if v := recover(); v != nil {
			// nested triggers already reported the panic
			if !i.registry.panicking {
				i.registry.panicking = true
				log.Error("listener panicked: {{panic}}", "panic", fmt.Sprintf("%v", v))
			}
			panic(v)
		}
	}()

	err := f()
	i.registry.panicking = false
	if err == nil {
		return nil
	}
	log.LogError(err, "listener failed")
	return &ListenerError{
		Kind:     i.kind,
		ID:       id,
		Instance: i.instance,
		Scoped:   scoped,
		Err:      err,
	}
}
