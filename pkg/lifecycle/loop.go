package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mandelsoft/logging"
	"k8s.io/client-go/util/workqueue"

	"github.com/mandelsoft/eventcore/pkg/healthz"
	"github.com/mandelsoft/eventcore/pkg/service"
	"github.com/mandelsoft/eventcore/pkg/utils"
)

// Work is an action executed on the loop thread.
type Work func() error

type work struct {
	action Work
}

// Loop drives a Relay. It owns the logical thread of the registry:
// lifecycle events are triggered and posted work is executed
// on a single goroutine.
type Loop struct {
	lock   sync.Mutex
	name   string
	relay  *Relay
	period time.Duration
	log    logging.Logger

	queue workqueue.Interface

	frames    atomic.Uint64
	lastFrame utils.AtomicValue[time.Time]

	ready service.Trigger
	done  service.Trigger
}

var _ service.Service = (*Loop)(nil)

type LoopOption func(l *Loop)

// WithLoopLogger derives the loop logger from the given logging context.
func WithLoopLogger(lctx logging.Context) LoopOption {
	return func(l *Loop) {
		l.log = lctx.Logger(REALM)
	}
}

// WithName sets the name used for the health check and the work queue.
func WithName(name string) LoopOption {
	return func(l *Loop) {
		l.name = name
	}
}

func NewLoop(relay *Relay, period time.Duration, opts ...LoopOption) *Loop {
	l := &Loop{
		name:   "loop",
		relay:  relay,
		period: period,
		log:    logging.DefaultContext().Logger(REALM),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.WithValues("loop", l.name)
	l.queue = workqueue.NewWithConfig(workqueue.QueueConfig{Name: l.name})
	return l
}

func (l *Loop) Relay() *Relay {
	return l.relay
}

// Frames returns the number of executed frames.
func (l *Loop) Frames() uint64 {
	return l.frames.Load()
}

// LastFrame returns the time of the last executed frame.
func (l *Loop) LastFrame() time.Time {
	return l.lastFrame.Load()
}

// Post schedules work for the next frame. Failing work stops the loop.
// Work posted after the loop has terminated is discarded.
func (l *Loop) Post(action Work) {
	if l.queue.ShuttingDown() {
		l.log.Debug("loop terminated, discarding posted work")
		return
	}
	l.queue.Add(&work{action})
}

// SetFocus posts a focus change.
func (l *Loop) SetFocus(focused bool) {
	l.Post(func() error { return l.relay.Focus(focused) })
}

// Start starts the loop thread. It triggers Awake and then a Tick per
// period until the context is canceled. Finally, pending work is
// executed and Quitting is triggered.
func (l *Loop) Start(ctx context.Context) (service.Syncher, service.Syncher, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.done != nil {
		return nil, nil, fmt.Errorf("loop %s already started", l.name)
	}
	if l.period <= 0 {
		return nil, nil, fmt.Errorf("invalid loop period %s", l.period)
	}
	l.ready = service.SyncTrigger()
	l.done = service.SyncTrigger()
	go l.run(ctx)
	return l.ready, l.done, nil
}

func (l *Loop) Wait() error {
	l.lock.Lock()
	done := l.done
	l.lock.Unlock()
	if done == nil {
		return nil
	}
	return done.Wait()
}

func (l *Loop) run(ctx context.Context) {
	key := fmt.Sprintf("loop %s", l.name)
	healthz.Start(key, l.period)
	defer healthz.End(key)

	err := l.loop(ctx, key)
	l.queue.ShutDown()
	if err != nil {
		l.log.LogError(err, "loop stopped")
	} else {
		l.log.Info("loop stopped after {{frames}} frames", "frames", l.Frames())
	}
	l.done.SetError(err)
	l.done.Trigger()
}

func (l *Loop) loop(ctx context.Context, key string) error {
	l.log.Info("starting loop with period {{period}}", "period", l.period)
	err := l.relay.Awake()
	if err != nil {
		l.ready.SetError(err)
	}
	l.ready.Trigger()
	if err != nil {
		return err
	}

	ticker := time.NewTicker(l.period)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			if err := l.drain(); err != nil {
				return err
			}
			return l.relay.Quitting()
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			if err := l.Frame(dt); err != nil {
				return err
			}
			healthz.Tick(key)
		}
	}
}

// Frame executes a single frame: a Tick followed by the posted work.
// It is called by the loop thread, but may be used directly to drive
// a registry without starting the loop.
func (l *Loop) Frame(dt float64) error {
	l.frames.Add(1)
	l.lastFrame.Store(time.Now())
	if err := l.relay.Tick(dt); err != nil {
		return err
	}
	return l.drain()
}

func (l *Loop) drain() error {
	for l.queue.Len() > 0 {
		item, shutdown := l.queue.Get()
		if shutdown {
			return nil
		}
		err := l.execute(item)
		l.queue.Done(item)
		if err != nil {
			return err
		}
	}
	return nil
}

func (l *Loop) execute(item interface{}) error {
	w, ok := item.(*work)
	if !ok {
		return fmt.Errorf("expected work in queue but got %T", item)
	}
	return w.action()
}
