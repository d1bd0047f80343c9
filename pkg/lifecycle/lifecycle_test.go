package lifecycle_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	. "github.com/mandelsoft/eventcore/pkg/testutils"

	"github.com/mandelsoft/eventcore/pkg/ctxutil"
	"github.com/mandelsoft/eventcore/pkg/events"
	me "github.com/mandelsoft/eventcore/pkg/lifecycle"
)

// journal is written on the loop thread and read by the test.
type journal struct {
	lock    sync.Mutex
	entries []string
	deltas  []float64
}

func (j *journal) add(e string) {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.entries = append(j.entries, e)
}

func (j *journal) tick(dt float64) {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.deltas = append(j.deltas, dt)
}

func (j *journal) get() []string {
	j.lock.Lock()
	defer j.lock.Unlock()
	return append([]string(nil), j.entries...)
}

func (j *journal) ticks() int {
	j.lock.Lock()
	defer j.lock.Unlock()
	return len(j.deltas)
}

func listen(relay *me.Relay, j *journal) {
	relay.OnAwake(func() { j.add("awake") })
	relay.OnTick(j.tick)
	relay.OnFocusGained(func() { j.add("focus gained") })
	relay.OnFocusLost(func() { j.add("focus lost") })
	relay.OnQuitting(func() { j.add("quitting") })
}

var _ = Describe("lifecycle", func() {
	var registry *events.Registry
	var relay *me.Relay
	var j *journal

	BeforeEach(func() {
		registry = events.NewRegistry()
		relay = me.NewRelay(registry)
		j = &journal{}
		listen(relay, j)
	})

	Context("relay", func() {
		It("triggers lifecycle events", func() {
			MustBeSuccessful(relay.Awake())
			MustBeSuccessful(relay.Tick(0.5))
			MustBeSuccessful(relay.Focus(false))
			MustBeSuccessful(relay.Focus(true))
			MustBeSuccessful(relay.Quitting())

			Expect(j.get()).To(Equal([]string{"awake", "focus lost", "focus gained", "quitting"}))
			Expect(j.deltas).To(Equal([]float64{0.5}))
		})

		It("is a plain event producer", func() {
			var got []me.Tick
			events.Listen(registry, func(e me.Tick) { got = append(got, e) })
			MustBeSuccessful(relay.Tick(0.25))
			Expect(got).To(Equal([]me.Tick{{DeltaTime: 0.25}}))
		})

		It("unsubscribes", func() {
			n := 0
			s := relay.OnAwake(func() { n++ })
			s.Unsubscribe()
			MustBeSuccessful(relay.Awake())
			Expect(n).To(Equal(0))
		})
	})

	Context("loop", func() {
		var ctx context.Context
		var loop *me.Loop

		BeforeEach(func() {
			ctx = ctxutil.TimeoutContext(context.Background(), 10*time.Second)
			loop = me.NewLoop(relay, 5*time.Millisecond, me.WithName("test"))
		})

		AfterEach(func() {
			ctxutil.Cancel(ctx)
			loop.Wait()
		})

		It("drives the relay", func() {
			ready, done := Must2(loop.Start(ctx))
			MustBeSuccessful(ready.Wait())
			Expect(j.get()).To(Equal([]string{"awake"}))

			Eventually(j.ticks).Should(BeNumerically(">=", 3))
			loop.SetFocus(false)
			Eventually(j.get).Should(ContainElement("focus lost"))

			ctxutil.Cancel(ctx)
			MustBeSuccessful(done.Wait())
			Expect(j.get()).To(Equal([]string{"awake", "focus lost", "quitting"}))
			Expect(loop.Frames()).To(BeNumerically(">=", 3))
			for _, dt := range j.deltas {
				Expect(dt).To(BeNumerically(">", 0))
			}
		})

		It("runs posted work on the loop thread", func() {
			Must2(loop.Start(ctx))
			result := make(chan int, 1)
			loop.Post(func() error {
				result <- registry.Count(events.KindOf[me.Tick]())
				return nil
			})
			Eventually(result).Should(Receive(Equal(1)))
		})

		It("executes pending work before quitting", func() {
			ctxutil.Cancel(ctx)
			loop.Post(func() error {
				j.add("pending")
				return nil
			})
			_, done := Must2(loop.Start(ctx))
			MustBeSuccessful(done.Wait())
			Expect(j.get()).To(Equal([]string{"awake", "pending", "quitting"}))
		})

		It("stops on listener errors", func() {
			failure := errors.New("tick failed")
			events.SubscribeFunc(registry, func(me.Tick) error { return failure })

			_, done := Must2(loop.Start(ctx))
			err := done.Wait()
			Expect(err).To(MatchError(failure))
			var lerr *events.ListenerError
			Expect(errors.As(err, &lerr)).To(BeTrue())
			Expect(lerr.Kind).To(Equal(events.KindOf[me.Tick]()))
			Expect(j.get()).To(Equal([]string{"awake"}))
			Expect(loop.Frames()).To(Equal(uint64(1)))
		})

		It("stops on failing work", func() {
			_, done := Must2(loop.Start(ctx))
			loop.Post(func() error { return errors.New("work failed") })
			Expect(done.Wait()).To(MatchError("work failed"))
		})

		It("cannot be started twice", func() {
			Must2(loop.Start(ctx))
			_, _, err := loop.Start(ctx)
			Expect(err).To(MatchError("loop test already started"))
		})

		It("runs frames synchronously", func() {
			loop.Post(func() error {
				j.add("work")
				return nil
			})
			MustBeSuccessful(loop.Frame(0.1))
			Expect(j.get()).To(Equal([]string{"work"}))
			Expect(j.deltas).To(Equal([]float64{0.1}))
			Expect(loop.Frames()).To(Equal(uint64(1)))
		})
	})
})
