package events

import (
	"reflect"

	"github.com/mandelsoft/eventcore/pkg/utils"
)

// Kind identifies the concrete payload type of an event.
// Two kinds are equal if and only if they denote the same Go type.
type Kind struct {
	typ reflect.Type
}

// KindOf returns the kind for payloads of type E.
func KindOf[E any]() Kind {
	return Kind{utils.TypeOf[E]()}
}

// KindFor returns the kind of the dynamic type of the given payload.
// A nil payload has no kind and yields the zero Kind.
func KindFor(event any) Kind {
	if event == nil {
		return Kind{}
	}
	return Kind{reflect.TypeOf(event)}
}

func (k Kind) Type() reflect.Type {
	return k.typ
}

func (k Kind) IsZero() bool {
	return k.typ == nil
}

func (k Kind) String() string {
	if k.typ == nil {
		return "<none>"
	}
	return k.typ.String()
}

func (k Kind) isInterface() bool {
	return k.typ != nil && k.typ.Kind() == reflect.Interface
}
