package watch_test

import (
	"context"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	. "github.com/mandelsoft/eventcore/pkg/testutils"

	"github.com/mandelsoft/eventcore/pkg/ctxutil"
	me "github.com/mandelsoft/eventcore/watch"
)

type Request struct {
	Key string `json:"key"`
}

type Event struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}

type Handler = me.EventHandler[Event]

type registration struct {
	key     string
	handler Handler
}

type Registry struct {
	lock     sync.Mutex
	handlers []registration
}

func (r *Registry) RegisterWatchHandler(req Request, h Handler) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.handlers = append(r.handlers, registration{req.Key, h})
}

func (r *Registry) UnregisterWatchHandler(req Request, h Handler) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.handlers = slices.DeleteFunc(r.handlers, func(e registration) bool {
		return e.key == req.Key && e.handler == h
	})
}

func (r *Registry) Len() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.handlers)
}

func (r *Registry) Trigger(evt Event) {
	r.lock.Lock()
	list := slices.Clone(r.handlers)
	r.lock.Unlock()

	for _, h := range list {
		if h.key == evt.Key {
			h.handler.HandleEvent(evt)
		}
	}
}

type collector struct {
	lock   sync.Mutex
	events []Event
}

func (c *collector) HandleEvent(e Event) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.events = append(c.events, e)
}

func (c *collector) get() []Event {
	c.lock.Lock()
	defer c.lock.Unlock()
	return slices.Clone(c.events)
}

var _ = Describe("watch", func() {
	var ctx context.Context
	var registry *Registry
	var handler *me.RequestHandler[Request, Event]
	var srv *httptest.Server
	var url string

	BeforeEach(func() {
		ctx = ctxutil.TimeoutContext(context.Background(), 20*time.Second)
		registry = &Registry{}
		handler = me.WatchHttpHandler[Request, Event](registry, me.WithQueueSize(4), me.WithWriteTimeout(time.Second))
		srv = httptest.NewServer(handler)
		url = "ws://" + strings.TrimPrefix(srv.URL, "http://")
	})

	AfterEach(func() {
		handler.Close()
		srv.Close()
		ctxutil.Cancel(ctx)
	})

	It("streams registered events", func() {
		c := &collector{}
		client := me.NewClient[Request, Event](url)
		s := Must(client.Register(ctx, Request{Key: "test"}, c))
		Eventually(handler.Connections).Should(Equal(1))
		Expect(registry.Len()).To(Equal(1))

		registry.Trigger(Event{Key: "test", Message: "first"})
		registry.Trigger(Event{Key: "other", Message: "ignored"})
		registry.Trigger(Event{Key: "test", Message: "second"})

		Eventually(c.get).Should(Equal([]Event{
			{Key: "test", Message: "first"},
			{Key: "test", Message: "second"},
		}))

		ctxutil.Cancel(ctx)
		MustBeSuccessful(s.Wait())
		Eventually(handler.Connections).Should(Equal(0))
		Expect(registry.Len()).To(Equal(0))
	})

	It("unregisters on server close", func() {
		c := &collector{}
		client := me.NewClient[Request, Event](url)
		s := Must(client.Register(ctx, Request{Key: "test"}, c))
		Eventually(handler.Connections).Should(Equal(1))

		handler.Close()
		MustBeSuccessful(s.Wait())
		Expect(handler.Connections()).To(Equal(0))
		Expect(registry.Len()).To(Equal(0))
	})

	It("does not block the event source for clients which stop reading", func() {
		client := me.NewClient[Request, Event](url)
		w := Must(client.Watch(ctx, Request{Key: "test"}))
		defer w.Close()
		Eventually(handler.Connections).Should(Equal(1))

		large := strings.Repeat("x", 1<<20)
		triggered := make(chan struct{})
		go func() {
			defer close(triggered)
			for i := 0; i < 64; i++ {
				registry.Trigger(Event{Key: "test", Message: large})
			}
		}()
		Eventually(triggered, "5s").Should(BeClosed())
		Eventually(handler.Connections, "5s").Should(Equal(0))
		Expect(registry.Len()).To(Equal(0))
	})

	It("rejects invalid registrations", func() {
		conn, _, _, err := ws.Dial(ctx, url)
		MustBeSuccessful(err)
		defer conn.Close()

		MustBeSuccessful(wsutil.WriteClientMessage(conn, ws.OpText, []byte("no json")))
		_, _, err = wsutil.ReadServerData(conn)
		var closed wsutil.ClosedError
		Expect(err).To(BeAssignableToTypeOf(closed))
		closed = err.(wsutil.ClosedError)
		Expect(closed.Code).To(Equal(ws.StatusUnsupportedData))
		Expect(closed.Reason).To(HavePrefix("invalid registration request"))
		Expect(registry.Len()).To(Equal(0))
	})
})
