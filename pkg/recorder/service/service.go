package service

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mandelsoft/logging"

	"github.com/mandelsoft/eventcore/pkg/recorder"
	"github.com/mandelsoft/eventcore/pkg/server"
)

var REALM = logging.DefineRealm("eventcore/recorder/service", "recorder http access")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)

// RecorderAccess provides http access to a recorder:
//
//	GET  <prefix>events[?kind=<kind>]  recorded events
//	GET  <prefix>status                recorder status
//	POST <prefix>start                 start recording
//	POST <prefix>stop                  stop recording
//	POST <prefix>clear                 clear the history
type RecorderAccess struct {
	recorder *recorder.Recorder
	prefix   string
}

func New(rec *recorder.Recorder, prefix string) *RecorderAccess {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &RecorderAccess{
		recorder: rec,
		prefix:   prefix,
	}
}

func (a *RecorderAccess) RegisterHandler(srv *server.Server) {
	srv.Handle(a.prefix, a)
}

func (a *RecorderAccess) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var data []byte
	var err error
	status := http.StatusOK

	path := strings.TrimPrefix(req.URL.Path, a.prefix)
	log.Debug("{{method}} {{path}}", "method", req.Method, "path", path)

	switch path {
	case "events":
		if req.Method != http.MethodGet {
			status = http.StatusMethodNotAllowed
			break
		}
		list := a.recorder.History(req.URL.Query()["kind"]...)
		if list == nil {
			list = []recorder.RecordedEvent{}
		}
		data, err = json.Marshal(&Items{Items: list})
	case "status":
		if req.Method != http.MethodGet {
			status = http.StatusMethodNotAllowed
			break
		}
		data, err = json.Marshal(a.recorder.Status())
	case "start", "stop", "clear":
		if req.Method != http.MethodPost {
			status = http.StatusMethodNotAllowed
			break
		}
		switch path {
		case "start":
			err = a.recorder.Start()
		case "stop":
			err = a.recorder.Stop()
		default:
			a.recorder.Clear()
		}
		if err == nil {
			data, err = json.Marshal(a.recorder.Status())
		}
	default:
		status = http.StatusNotFound
		err = &Error{"unknown resource " + path}
	}

	if err != nil {
		e, ok := err.(*Error)
		if !ok {
			log.LogError(err, "{{method}} {{path}} failed", "method", req.Method, "path", path)
			e = &Error{err.Error()}
			status = http.StatusInternalServerError
		}
		data, _ = json.Marshal(e)
	}

	if data != nil {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(status)
	if data != nil {
		w.Write(data)
	}
}

type Error struct {
	Message string `json:"error"`
}

func (e *Error) Error() string {
	return e.Message
}

type Items struct {
	Items []recorder.RecordedEvent `json:"items"`
}
