package future

import (
	"context"
	"sync"
)

// Future provides a result which becomes available asynchronously.
type Future[T any] interface {
	// Wait blocks until the result is available or the context is done.
	// In the latter case the context error is returned.
	Wait(ctx context.Context) (T, error)
	// Done is closed when the result is available.
	Done() <-chan struct{}
	IsDone() bool
}

// Promise is a Future completed by its creator.
type Promise[T any] interface {
	Future[T]
	// Resolve completes the future. Only the first call has an effect,
	// it reports whether the result has been taken.
	Resolve(v T, err error) bool
}

type promise[T any] struct {
	once   sync.Once
	done   chan struct{}
	result T
	err    error
}

var _ Promise[struct{}] = (*promise[struct{}])(nil)

func New[T any]() Promise[T] {
	return &promise[T]{done: make(chan struct{})}
}

// Resolved provides an already completed future.
func Resolved[T any](v T, err error) Future[T] {
	p := New[T]()
	p.Resolve(v, err)
	return p
}

func (p *promise[T]) Resolve(v T, err error) bool {
	taken := false
	p.once.Do(func() {
		p.result, p.err = v, err
		close(p.done)
		taken = true
	})
	return taken
}

func (p *promise[T]) Done() <-chan struct{} {
	return p.done
}

func (p *promise[T]) IsDone() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *promise[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.result, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
