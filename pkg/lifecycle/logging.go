package lifecycle

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("eventcore/lifecycle", "host lifecycle loop")
