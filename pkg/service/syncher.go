package service

import (
	"context"
	"sync"

	"github.com/mandelsoft/eventcore/pkg/future"
)

// Syncher is used to wait for a service state.
type Syncher interface {
	SetError(err error)
	Wait() error
}

// Trigger is a Syncher released explicitly. An error set before
// the trigger is reported by Wait.
type Trigger interface {
	Syncher
	Trigger()
}

func SyncTrigger() Trigger {
	return &trigger{
		state: future.New[struct{}](),
	}
}

type trigger struct {
	lock  sync.Mutex
	err   error
	state future.Promise[struct{}]
}

var _ Trigger = (*trigger)(nil)

func (t *trigger) Trigger() {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.state.Resolve(struct{}{}, t.err)
}

func (t *trigger) SetError(err error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if !t.state.IsDone() {
		t.err = err
	}
}

func (t *trigger) Wait() error {
	_, err := t.state.Wait(context.Background())
	return err
}
