package watch

import (
	"encoding/json"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/mandelsoft/eventcore/pkg/utils"
)

type EventHandler[E any] interface {
	HandleEvent(e E)
}

// Registry is the source of watched events. Handlers are registered
// for a registration request R received from a watch client.
type Registry[R any, E any] interface {
	RegisterWatchHandler(r R, h EventHandler[E])
	UnregisterWatchHandler(r R, h EventHandler[E])
}

const (
	DEFAULT_QUEUE_SIZE    = 100
	DEFAULT_WRITE_TIMEOUT = 10 * time.Second
)

type options struct {
	queueSize    int
	writeTimeout time.Duration
}

type Option func(o *options)

// WithQueueSize sets the number of events buffered per connection.
// A connection whose buffer is full is closed.
func WithQueueSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

// WithWriteTimeout limits the time to send a single event.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.writeTimeout = d
		}
	}
}

// WatchHttpHandler provides a handler serving watch requests for the
// given registry. Events are passed to the connections without blocking
// the event source, slow clients are disconnected.
func WatchHttpHandler[R, E any](r Registry[R, E], opts ...Option) *RequestHandler[R, E] {
	h := &RequestHandler[R, E]{
		registry: r,
		options: options{
			queueSize:    DEFAULT_QUEUE_SIZE,
			writeTimeout: DEFAULT_WRITE_TIMEOUT,
		},
	}
	for _, opt := range opts {
		opt(&h.options)
	}
	return h
}

// RequestHandler upgrades requests to websocket connections. The first
// client message is the JSON encoded registration request. Afterwards,
// every event provided by the registry for this request is sent as JSON
// encoded text message.
type RequestHandler[R, E any] struct {
	lock        sync.Mutex
	registry    Registry[R, E]
	options     options
	connections []*handler[R, E]
}

var _ http.Handler = (*RequestHandler[any, any])(nil)

// Close closes all open watch connections.
func (h *RequestHandler[R, E]) Close() error {
	h.lock.Lock()
	conns := slices.Clone(h.connections)
	h.lock.Unlock()

	for _, c := range conns {
		c.Close()
	}
	return nil
}

// Connections returns the number of open watch connections.
func (h *RequestHandler[R, E]) Connections() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.connections)
}

func (h *RequestHandler[R, E]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log.Debug("new watch request from {{remote}}", "remote", r.RemoteAddr)
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		log.LogError(err, "upgrading watch request")
		return
	}

	msg, _, err := wsutil.ReadClientData(conn)
	if err != nil {
		log.LogError(err, "reading registration request")
		reject(conn, ws.StatusProtocolError, "registration request required")
		return
	}

	var registration R
	err = json.Unmarshal(msg, &registration)
	if err != nil {
		log.LogError(err, "decoding registration request")
		reject(conn, ws.StatusUnsupportedData, "invalid registration request: "+err.Error())
		return
	}

	c := newHandler[R, E](h, conn, registration)
	go c.listen()
}

// reject closes the connection with a close frame and waits a moment
// for the close reply of the client.
func reject(conn net.Conn, code ws.StatusCode, reason string) {
	defer conn.Close()
	err := wsutil.WriteServerMessage(conn, ws.OpClose, ws.NewCloseFrameBody(code, reason))
	if err != nil {
		return
	}
	conn.SetReadDeadline(time.Now().Add(time.Second))
	wsutil.ReadClientData(conn)
}

func (h *RequestHandler[R, E]) addHandler(c *handler[R, E]) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.connections = append(h.connections, c)
}

func (h *RequestHandler[R, E]) removeHandler(c *handler[R, E]) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.connections = utils.FilterSlice(h.connections, utils.NotFilter(utils.EqualsFilter(c)))
}

////////////////////////////////////////////////////////////////////////////////

type handler[R, E any] struct {
	lock     sync.Mutex
	hhandler *RequestHandler[R, E]
	conn     net.Conn
	req      R
	queue    chan []byte
	stop     chan struct{}
	closed   bool
}

func newHandler[R, E any](hh *RequestHandler[R, E], conn net.Conn, req R) *handler[R, E] {
	h := &handler[R, E]{
		hhandler: hh,
		conn:     conn,
		req:      req,
		queue:    make(chan []byte, hh.options.queueSize),
		stop:     make(chan struct{}),
	}
	go h.write()
	hh.addHandler(h)
	hh.registry.RegisterWatchHandler(req, h)
	log.Debug("registered watch handler for {{request}}", "request", req)
	return h
}

// listen consumes client messages until the connection is closed.
func (h *handler[R, E]) listen() {
	for {
		_, _, err := wsutil.ReadClientData(h.conn)
		if err != nil {
			if !IsErrClosed(err) {
				log.LogError(err, "watch connection failed")
			}
			h.Close()
			return
		}
	}
}

// write sends the queued events until the connection is closed.
func (h *handler[R, E]) write() {
	for {
		select {
		case <-h.stop:
			return
		case data := <-h.queue:
			h.conn.SetWriteDeadline(time.Now().Add(h.hhandler.options.writeTimeout))
			err := wsutil.WriteServerMessage(h.conn, ws.OpText, data)
			if err != nil {
				if !IsErrClosed(err) {
					log.LogError(err, "cannot send event, closing connection")
				}
				h.Close()
				return
			}
		}
	}
}

// HandleEvent queues the event for the connection. It never blocks,
// if the queue is full the client is too slow and gets disconnected.
func (h *handler[R, E]) HandleEvent(e E) {
	data, err := json.Marshal(e)
	if err != nil {
		log.LogError(err, "cannot marshal event")
		return
	}

	h.lock.Lock()
	if h.closed {
		h.lock.Unlock()
		return
	}
	select {
	case h.queue <- data:
		h.lock.Unlock()
	default:
		h.lock.Unlock()
		log.Warn("watch client for {{request}} too slow, closing connection", "request", h.req)
		h.Close()
	}
}

func (h *handler[R, E]) Close() error {
	h.lock.Lock()
	if h.closed {
		h.lock.Unlock()
		return nil
	}
	h.closed = true
	close(h.stop)
	h.lock.Unlock()

	log.Debug("closing watch connection for {{request}}", "request", h.req)
	h.hhandler.registry.UnregisterWatchHandler(h.req, h)
	h.hhandler.removeHandler(h)
	return h.conn.Close()
}
