package recorder

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/mandelsoft/eventcore/pkg/events"
	"github.com/mandelsoft/eventcore/pkg/utils"
)

// Field is the snapshot of a single event field.
type Field struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// RecordedEvent is the snapshot of a triggered event.
type RecordedEvent struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	// Time is the time since the session start in seconds.
	Time       float64         `json:"time"`
	TimeString string          `json:"timeString"`
	Timestamp  utils.Timestamp `json:"timestamp"`
	Fields     []Field         `json:"fields,omitempty"`
	// Digest identifies the event content. It is empty for events
	// without a JSON representation.
	Digest string `json:"digest,omitempty"`
}

// NewRecordedEvent snapshots an event triggered at the given time.
func NewRecordedEvent(event any, session, now time.Time) RecordedEvent {
	t := now.Sub(session).Seconds()
	r := RecordedEvent{
		ID:         uuid.NewString(),
		Kind:       events.KindFor(event).String(),
		Time:       t,
		TimeString: fmt.Sprintf("%.2fs", t),
		Timestamp:  utils.NewTimestampFor(now),
		Fields:     Snapshot(event),
	}
	digest, err := utils.HashData(event)
	if err != nil {
		log.Trace("no digest for {{kind}}: {{error}}", "kind", r.Kind, "error", err.Error())
	} else {
		r.Digest = digest
	}
	return r
}

// Snapshot returns the values of the exported fields of a struct
// (or pointer to struct) in declaration order. Other values are
// reported as a single field named value.
func Snapshot(event any) []Field {
	if event == nil {
		return nil
	}
	v := reflect.ValueOf(event)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return []Field{{Name: "value", Type: v.Type().String(), Value: "<nil>"}}
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return []Field{{Name: "value", Type: v.Type().String(), Value: format(v)}}
	}

	t := v.Type()
	var fields []Field
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		fields = append(fields, Field{
			Name:  f.Name,
			Type:  f.Type.String(),
			Value: format(v.Field(i)),
		})
	}
	return fields
}

func format(v reflect.Value) string {
	if !v.CanInterface() {
		return "<unavailable>"
	}
	return fmt.Sprintf("%v", v.Interface())
}
