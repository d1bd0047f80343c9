package events

import (
	"context"

	"github.com/mandelsoft/eventcore/pkg/future"
)

// Pending is the outcome of an Expect call.
type Pending[E any] struct {
	sub    *Subscription
	result future.Promise[E]
}

// Expect registers a one-shot listener for the next event of kind E
// (for the optional instance). Like every subscription it must be called
// on the thread driving the registry, while the returned Pending can be
// waited for from any goroutine.
func Expect[E any](r *Registry, inst ...any) *Pending[E] {
	p := &Pending[E]{
		result: future.New[E](),
	}
	p.sub = SubscribeOnce[E](r, Listener[E](func(e E) {
		p.result.Resolve(e, nil)
	}), inst...)
	return p
}

func (p *Pending[E]) Subscription() *Subscription {
	return p.sub
}

// Wait blocks until the expected event has been triggered or the context
// is done.
func (p *Pending[E]) Wait(ctx context.Context) (E, error) {
	return p.result.Wait(ctx)
}
