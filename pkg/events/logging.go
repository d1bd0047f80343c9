package events

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("eventcore/events", "typed event dispatch")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
