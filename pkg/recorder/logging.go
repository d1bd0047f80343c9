package recorder

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("eventcore/recorder", "diagnostic event recorder")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
