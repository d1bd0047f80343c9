package events

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInstance is raised for scope instances which cannot be used
	// as map keys (slices, maps, functions).
	ErrInvalidInstance = errors.New("invalid scope instance")

	// ErrNilHandler is raised when subscribing a nil handler.
	ErrNilHandler = errors.New("handler must not be nil")

	// ErrInterfaceKind is raised when subscribing to an interface type.
	// Events are always dispatched as their concrete type, so such a
	// subscription could never fire.
	ErrInterfaceKind = errors.New("event kind must be a concrete type")
)

// ListenerError is returned by Trigger if a listener failed.
// The remaining listeners of the failing slot have not been called.
type ListenerError struct {
	Kind     Kind
	ID       ID
	Instance any
	Scoped   bool
	Err      error
}

func (e *ListenerError) Error() string {
	if e.Scoped {
		return fmt.Sprintf("listener %d for %s (instance %v) failed: %s", e.ID, e.Kind, e.Instance, e.Err)
	}
	return fmt.Sprintf("listener %d for %s failed: %s", e.ID, e.Kind, e.Err)
}

func (e *ListenerError) Unwrap() error {
	return e.Err
}
