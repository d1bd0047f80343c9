package events

// Handler is the typed listener interface for events of kind E.
// Handlers with a comparable dynamic type (typically pointers) can also be
// removed by identity with Unsubscribe.
type Handler[E any] interface {
	HandleEvent(event E) error
}

// HandlerFunc adapts a function to a Handler.
type HandlerFunc[E any] func(event E) error

func (f HandlerFunc[E]) HandleEvent(event E) error {
	return f(event)
}

// Listener adapts a function that cannot fail to a Handler.
type Listener[E any] func(event E)

func (f Listener[E]) HandleEvent(event E) error {
	f(event)
	return nil
}
