package utils

import (
	"sync/atomic"
)

// AtomicValue is a typed atomic.Value. Load returns the zero value
// before the first Store.
type AtomicValue[T any] struct {
	value atomic.Value
}

type boxed[T any] struct {
	v T
}

func (v *AtomicValue[T]) Load() T {
	if b, ok := v.value.Load().(boxed[T]); ok {
		return b.v
	}
	var _nil T
	return _nil
}

func (v *AtomicValue[T]) Store(new T) {
	v.value.Store(boxed[T]{new})
}

func (v *AtomicValue[T]) Swap(new T) T {
	if b, ok := v.value.Swap(boxed[T]{new}).(boxed[T]); ok {
		return b.v
	}
	var _nil T
	return _nil
}
