package healthz

import (
	"io"
	"net/http"

	"github.com/mandelsoft/eventcore/pkg/server"
)

func init() {
	server.Register("/healthz", http.HandlerFunc(Healthz))
}

// Healthz is a HTTP handler for the /healthz endpoint which responds with
// 200 OK if all registered checks have been ticked in time,
// and with 500 Internal Server Error otherwise.
func Healthz(w http.ResponseWriter, r *http.Request) {
	ok, info := HealthInfo()
	if ok {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusInternalServerError)
	}
	io.WriteString(w, info)
}
