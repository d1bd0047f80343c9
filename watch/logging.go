package watch

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("eventcore/watch", "watch endpoint")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
