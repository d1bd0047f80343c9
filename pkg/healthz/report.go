package healthz

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mandelsoft/logging"

	"github.com/mandelsoft/eventcore/pkg/utils"
)

var REALM = logging.DefineRealm("eventcore/healthz", "health monitoring")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)

// Start registers a check. It is considered outdated if it is not
// ticked within three periods.
func Start(key string, period time.Duration) {
	lock.Lock()
	defer lock.Unlock()

	checks[key] = &check{time.Now(), 3 * period}
}

// Tick reports liveness for a started check.
// Ticks for unknown checks are ignored.
func Tick(key string) {
	lock.Lock()
	defer lock.Unlock()

	if c := checks[key]; c != nil {
		c.last = time.Now()
	}
}

func End(key string) {
	lock.Lock()
	defer lock.Unlock()

	delete(checks, key)
}

type check struct {
	last    time.Time
	timeout time.Duration
}

var (
	checks = map[string]*check{}
	lock   sync.Mutex
)

func IsHealthy() bool {
	ok, _ := HealthInfo()
	return ok
}

// HealthInfo reports the health state and a line per check
// with its last tick.
func HealthInfo() (bool, string) {
	lock.Lock()
	defer lock.Unlock()

	var info strings.Builder
	healthy := true
	now := time.Now()
	for _, key := range utils.MapKeys(checks, strings.Compare) {
		c := checks[key]
		delay := now.Sub(c.last)
		state := "ok"
		if delay > c.timeout {
			log.Warn("outdated health check {{key}}", "key", key, "delay", delay)
			healthy = false
			state = "outdated"
		}
		fmt.Fprintf(&info, "%s: %s (%s)\n", key, state, c.last.Format(time.RFC3339))
	}
	return healthy, info.String()
}
