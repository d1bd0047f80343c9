package lifecycle

import (
	"github.com/mandelsoft/eventcore/pkg/events"
)

// Relay triggers the lifecycle events on a registry.
// Like every producer it must be used on the thread driving the registry.
type Relay struct {
	registry *events.Registry
}

func NewRelay(r *events.Registry) *Relay {
	return &Relay{registry: r}
}

func (r *Relay) Registry() *events.Registry {
	return r.registry
}

func (r *Relay) Awake() error {
	return events.Trigger(r.registry, Awake{})
}

func (r *Relay) Tick(dt float64) error {
	return events.Trigger(r.registry, Tick{DeltaTime: dt})
}

func (r *Relay) FocusGained() error {
	return events.Trigger(r.registry, FocusGained{})
}

func (r *Relay) FocusLost() error {
	return events.Trigger(r.registry, FocusLost{})
}

// Focus triggers FocusGained or FocusLost.
func (r *Relay) Focus(focused bool) error {
	if focused {
		return r.FocusGained()
	}
	return r.FocusLost()
}

func (r *Relay) Quitting() error {
	return events.Trigger(r.registry, Quitting{})
}

func (r *Relay) OnAwake(f func()) *events.Subscription {
	return events.Listen(r.registry, func(Awake) { f() })
}

func (r *Relay) OnTick(f func(dt float64)) *events.Subscription {
	return events.Listen(r.registry, func(e Tick) { f(e.DeltaTime) })
}

func (r *Relay) OnFocusGained(f func()) *events.Subscription {
	return events.Listen(r.registry, func(FocusGained) { f() })
}

func (r *Relay) OnFocusLost(f func()) *events.Subscription {
	return events.Listen(r.registry, func(FocusLost) { f() })
}

func (r *Relay) OnQuitting(f func()) *events.Subscription {
	return events.Listen(r.registry, func(Quitting) { f() })
}
