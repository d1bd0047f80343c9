package recorder

import (
	"slices"
	"sync"
	"time"

	"github.com/mandelsoft/logging"
	"github.com/mandelsoft/vfs/pkg/vfs"

	"github.com/mandelsoft/eventcore/pkg/events"
	"github.com/mandelsoft/eventcore/pkg/utils"
	"github.com/mandelsoft/eventcore/watch"
)

// Request selects the recorded events streamed to a watch handler.
// An empty kind selects all events.
type Request struct {
	Kind string `json:"kind,omitempty"`
}

func (r Request) Matches(e *RecordedEvent) bool {
	return r.Kind == "" || r.Kind == e.Kind
}

type EventHandler = watch.EventHandler[RecordedEvent]

type registration struct {
	request Request
	handler EventHandler
}

// Status describes the recorder state.
type Status struct {
	Recording      bool `json:"recording"`
	ClearOnSession bool `json:"clearOnSession"`
	Count          int  `json:"count"`
}

// Recorder observes the events triggered on a registry and keeps
// a history of their snapshots. It is used as diagnostic observer of
// a registry and may be controlled from other goroutines.
type Recorder struct {
	lock  sync.Mutex
	log   logging.Logger
	clock func() time.Time
	limit int

	store    *preferenceStore
	prefs    Preferences
	session  time.Time
	history  []RecordedEvent
	handlers []*registration

	registry *events.Registry
}

var _ watch.Registry[Request, RecordedEvent] = (*Recorder)(nil)

type Option func(r *Recorder)

func WithLogger(lctx logging.Context) Option {
	return func(r *Recorder) {
		r.log = lctx.Logger(REALM)
	}
}

// WithPreferences persists the recording settings in the given file.
// Stored settings override WithRecording and WithClearOnSession.
func WithPreferences(fs vfs.FileSystem, path string) Option {
	return func(r *Recorder) {
		r.store = &preferenceStore{fs: fs, path: path}
	}
}

// WithRecording sets the initial recording state.
func WithRecording(b bool) Option {
	return func(r *Recorder) {
		r.prefs.Recording = utils.Pointer(b)
	}
}

func WithClearOnSession(b bool) Option {
	return func(r *Recorder) {
		r.prefs.ClearOnSession = utils.Pointer(b)
	}
}

// WithLimit restricts the history to the latest n events.
func WithLimit(n int) Option {
	return func(r *Recorder) {
		r.limit = n
	}
}

// WithClock replaces the time source.
func WithClock(clock func() time.Time) Option {
	return func(r *Recorder) {
		r.clock = clock
	}
}

func New(opts ...Option) (*Recorder, error) {
	r := &Recorder{
		log:   log,
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	stored, err := r.store.load()
	if err != nil {
		return nil, err
	}
	if stored.Recording != nil {
		r.prefs.Recording = stored.Recording
	}
	if stored.ClearOnSession != nil {
		r.prefs.ClearOnSession = stored.ClearOnSession
	}
	r.session = r.clock()
	return r, nil
}

// Attach installs the recorder as diagnostic observer of the registry
// and enables its diagnostics.
func (r *Recorder) Attach(reg *events.Registry) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if old := reg.SetObserver(r.observe); old != nil {
		r.log.Warn("replacing diagnostic observer")
	}
	reg.EnableDiagnostics(true)
	r.registry = reg
}

// Detach removes the recorder from the registry it is attached to.
func (r *Recorder) Detach() {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.registry != nil {
		r.registry.SetObserver(nil)
		r.registry.EnableDiagnostics(false)
		r.registry = nil
	}
}

func (r *Recorder) observe(event any) {
	r.lock.Lock()
	if !value(r.prefs.Recording) {
		r.lock.Unlock()
		return
	}
	e := NewRecordedEvent(event, r.session, r.clock())
	r.history = append(r.history, e)
	if r.limit > 0 && len(r.history) > r.limit {
		r.history = slices.Delete(r.history, 0, len(r.history)-r.limit)
	}
	handlers := slices.Clone(r.handlers)
	r.lock.Unlock()

	r.log.Trace("recorded {{kind}} at {{time}}", "kind", e.Kind, "time", e.TimeString)
	for _, h := range handlers {
		if h.request.Matches(&e) {
			h.handler.HandleEvent(e)
		}
	}
}

func (r *Recorder) IsRecording() bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	return value(r.prefs.Recording)
}

func (r *Recorder) Start() error {
	return r.SetRecording(true)
}

func (r *Recorder) Stop() error {
	return r.SetRecording(false)
}

// SetRecording switches recording and persists the setting.
func (r *Recorder) SetRecording(b bool) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.log.Info("recording {{state}}", "state", b)
	r.prefs.Recording = utils.Pointer(b)
	return r.store.save(&r.prefs)
}

func (r *Recorder) ClearOnSession() bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	return value(r.prefs.ClearOnSession)
}

// SetClearOnSession configures purging of the history on session start
// and persists the setting.
func (r *Recorder) SetClearOnSession(b bool) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.prefs.ClearOnSession = utils.Pointer(b)
	return r.store.save(&r.prefs)
}

// BeginSession restarts the session clock. The history is purged if
// clear-on-session is set.
func (r *Recorder) BeginSession() {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.session = r.clock()
	if value(r.prefs.ClearOnSession) {
		r.log.Debug("clearing {{count}} recorded events for new session", "count", len(r.history))
		r.history = nil
	}
}

func (r *Recorder) Clear() {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.history = nil
}

func (r *Recorder) Len() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.history)
}

// History returns a copy of the recorded events, optionally
// restricted to the given kinds.
func (r *Recorder) History(kinds ...string) []RecordedEvent {
	r.lock.Lock()
	defer r.lock.Unlock()
	if len(kinds) == 0 {
		return slices.Clone(r.history)
	}
	return utils.FilterSlice(r.history, func(e RecordedEvent) bool {
		return slices.Contains(kinds, e.Kind)
	})
}

func (r *Recorder) Status() Status {
	r.lock.Lock()
	defer r.lock.Unlock()
	return Status{
		Recording:      value(r.prefs.Recording),
		ClearOnSession: value(r.prefs.ClearOnSession),
		Count:          len(r.history),
	}
}

func (r *Recorder) RegisterWatchHandler(req Request, h EventHandler) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.log.Debug("registering watch handler for {{kind}}", "kind", req.Kind)
	r.handlers = append(r.handlers, &registration{request: req, handler: h})
}

func (r *Recorder) UnregisterWatchHandler(req Request, h EventHandler) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.handlers = utils.FilterSlice(r.handlers, func(reg *registration) bool {
		return reg.handler != h || reg.request != req
	})
}

func value(b *bool) bool {
	return b != nil && *b
}
