package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/mandelsoft/logging"

	"github.com/mandelsoft/eventcore/pkg/ctxutil"
)

var REALM = logging.DefineRealm("eventcore/service", "service orchestration")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)

// Service is a long-running component.
// Start returns a ready syncher (optional) released when the service is
// operational and a done syncher released when it has terminated.
// The service terminates when the given context is canceled.
type Service interface {
	Start(ctx context.Context) (ready Syncher, done Syncher, err error)
	Wait() error
}

// Services starts a set of services in the order they were added
// and waits for their termination. If one service fails to start,
// the common context is canceled, which stops the others.
type Services interface {
	Add(s Service) error
	Start(st ...Service) error
	Wait() error
	Cancel()
}

type services struct {
	lock     sync.Mutex
	ctx      context.Context
	order    []Service
	services map[Service]Syncher
	started  bool
	wg       sync.WaitGroup
	errs     []error
}

func New(ctx context.Context) Services {
	return &services{
		ctx:      ctxutil.CancelContext(ctx),
		services: map[Service]Syncher{},
	}
}

func (t *services) Add(s Service) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if _, ok := t.services[s]; ok {
		return nil
	}
	t.order = append(t.order, s)
	t.services[s] = nil
	if t.started {
		return t.startServices(s)
	}
	return nil
}

// Start starts the given services, or all added services
// if none is given.
func (t *services) Start(st ...Service) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if len(st) == 0 {
		if t.started {
			return nil
		}
		t.started = true
		return t.startServices(t.order...)
	}
	for _, s := range st {
		if _, ok := t.services[s]; !ok {
			t.order = append(t.order, s)
			t.services[s] = nil
		}
	}
	return t.startServices(st...)
}

func (t *services) Cancel() {
	ctxutil.Cancel(t.ctx)
}

func (t *services) startServices(list ...Service) error {
	var ready []Syncher
	for _, s := range list {
		if t.services[s] != nil {
			continue
		}
		r, err := t.start(s)
		if err != nil {
			return err
		}
		if r != nil {
			ready = append(ready, r)
		}
	}

	for _, r := range ready {
		err := r.Wait()
		if err != nil {
			t.Cancel()
			return err
		}
	}
	return nil
}

func (t *services) start(s Service) (Syncher, error) {
	log.Debug("starting service {{service}}", "service", fmt.Sprintf("%T", s))
	ready, done, err := s.Start(t.ctx)
	if err != nil || done == nil {
		t.Cancel()
		if err == nil {
			err = fmt.Errorf("service %T does not return a done syncher", s)
		} else {
			err = fmt.Errorf("service %T: %w", s, err)
		}
		return nil, err
	}
	t.services[s] = done
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		err := done.Wait()
		if err != nil {
			log.LogError(err, "service {{service}} failed", "service", fmt.Sprintf("%T", s))
			t.lock.Lock()
			t.errs = append(t.errs, err)
			t.lock.Unlock()
			t.Cancel()
		}
	}()
	return ready, nil
}

// Wait waits for all started services and returns their joined errors.
func (t *services) Wait() error {
	t.wg.Wait()
	t.lock.Lock()
	defer t.lock.Unlock()
	return errors.Join(slices.Clone(t.errs)...)
}
