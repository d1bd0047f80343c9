package recorder_test

import (
	"time"

	"github.com/go-test/deep"
	"github.com/mandelsoft/vfs/pkg/vfs"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	. "github.com/mandelsoft/eventcore/pkg/testutils"

	"github.com/mandelsoft/eventcore/pkg/events"
	me "github.com/mandelsoft/eventcore/pkg/recorder"
	"github.com/mandelsoft/eventcore/pkg/utils"
)

type Damage struct {
	Amount int
	Source string
	target string
}

type Heal struct {
	Amount *int
}

type Level int

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time {
	return c.now
}

func (c *clock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type handler struct {
	events []me.RecordedEvent
}

func (h *handler) HandleEvent(e me.RecordedEvent) {
	h.events = append(h.events, e)
}

var _ = Describe("recorder", func() {
	var start = time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	var c *clock
	var r *events.Registry

	BeforeEach(func() {
		c = &clock{now: start}
		r = events.NewRegistry()
	})

	Context("snapshots", func() {
		It("captures exported fields in order", func() {
			Expect(deep.Equal(me.Snapshot(Damage{Amount: 5, Source: "trap", target: "x"}), []me.Field{
				{Name: "Amount", Type: "int", Value: "5"},
				{Name: "Source", Type: "string", Value: "trap"},
			})).To(BeNil())
		})

		It("follows pointers", func() {
			Expect(me.Snapshot(&Damage{Amount: 1})).To(HaveLen(2))
			Expect(me.Snapshot(Heal{Amount: utils.Pointer(3)})[0].Type).To(Equal("*int"))
			Expect(me.Snapshot((*Damage)(nil))).To(Equal([]me.Field{{Name: "value", Type: "*recorder_test.Damage", Value: "<nil>"}}))
		})

		It("captures plain values", func() {
			Expect(me.Snapshot(Level(3))).To(Equal([]me.Field{{Name: "value", Type: "recorder_test.Level", Value: "3"}}))
			Expect(me.Snapshot(struct{}{})).To(BeEmpty())
			Expect(me.Snapshot(nil)).To(BeNil())
		})

		It("describes the event", func() {
			e := me.NewRecordedEvent(Damage{Amount: 5}, start, start.Add(1234*time.Millisecond))
			Expect(e.ID).NotTo(BeEmpty())
			Expect(e.Kind).To(Equal("recorder_test.Damage"))
			Expect(e.Time).To(BeNumerically("~", 1.234, 1e-9))
			Expect(e.TimeString).To(Equal("1.23s"))
			Expect(e.Timestamp.Time()).To(BeTemporally("==", start.Add(1234*time.Millisecond)))
			Expect(e.Digest).To(Equal(me.NewRecordedEvent(Damage{Amount: 5}, start, start).Digest))
			Expect(e.Digest).NotTo(Equal(me.NewRecordedEvent(Damage{Amount: 6}, start, start).Digest))
		})

		It("omits the digest for events without JSON representation", func() {
			e := me.NewRecordedEvent(func() {}, start, start)
			Expect(e.Digest).To(BeEmpty())
			Expect(e.Fields).To(HaveLen(1))
		})
	})

	Context("recording", func() {
		var rec *me.Recorder

		BeforeEach(func() {
			rec = Must(me.New(me.WithClock(c.Now), me.WithRecording(true)))
			rec.Attach(r)
		})

		It("records triggered events", func() {
			Expect(r.DiagnosticsEnabled()).To(BeTrue())
			MustBeSuccessful(events.Trigger(r, Damage{Amount: 1}))
			c.advance(500 * time.Millisecond)
			MustBeSuccessful(events.Trigger(r, Level(2), &Damage{}))

			h := rec.History()
			Expect(h).To(HaveLen(2))
			Expect(h[0].Kind).To(Equal("recorder_test.Damage"))
			Expect(h[0].TimeString).To(Equal("0.00s"))
			Expect(h[1].Kind).To(Equal("recorder_test.Level"))
			Expect(h[1].TimeString).To(Equal("0.50s"))

			Expect(rec.History("recorder_test.Level")).To(HaveLen(1))
			Expect(rec.History("unknown")).To(BeEmpty())
		})

		It("records before listeners run", func() {
			n := -1
			events.Listen(r, func(Damage) { n = rec.Len() })
			MustBeSuccessful(events.Trigger(r, Damage{}))
			Expect(n).To(Equal(1))
		})

		It("records nothing when stopped", func() {
			MustBeSuccessful(rec.Stop())
			Expect(rec.IsRecording()).To(BeFalse())
			MustBeSuccessful(events.Trigger(r, Damage{}))
			Expect(rec.Len()).To(Equal(0))

			MustBeSuccessful(rec.Start())
			MustBeSuccessful(events.Trigger(r, Damage{}))
			Expect(rec.Len()).To(Equal(1))
		})

		It("returns history copies", func() {
			MustBeSuccessful(events.Trigger(r, Damage{Amount: 1}))
			h := rec.History()
			h[0].Kind = "modified"
			Expect(rec.History()[0].Kind).To(Equal("recorder_test.Damage"))
		})

		It("clears", func() {
			MustBeSuccessful(events.Trigger(r, Damage{}))
			rec.Clear()
			Expect(rec.Len()).To(Equal(0))
		})

		It("purges the history on session start if requested", func() {
			MustBeSuccessful(events.Trigger(r, Damage{}))
			rec.BeginSession()
			Expect(rec.Len()).To(Equal(1))

			MustBeSuccessful(rec.SetClearOnSession(true))
			c.advance(time.Minute)
			rec.BeginSession()
			Expect(rec.Len()).To(Equal(0))

			c.advance(time.Second)
			MustBeSuccessful(events.Trigger(r, Damage{}))
			Expect(rec.History()[0].TimeString).To(Equal("1.00s"))
		})

		It("stops observing when detached", func() {
			rec.Detach()
			Expect(r.DiagnosticsEnabled()).To(BeFalse())
			MustBeSuccessful(events.Trigger(r, Damage{}))
			Expect(rec.Len()).To(Equal(0))
		})

		It("reports the status", func() {
			MustBeSuccessful(events.Trigger(r, Damage{}))
			Expect(rec.Status()).To(Equal(me.Status{Recording: true, Count: 1}))
		})

		It("limits the history", func() {
			rec = Must(me.New(me.WithRecording(true), me.WithLimit(2)))
			rec.Attach(r)
			for i := 0; i < 5; i++ {
				MustBeSuccessful(events.Trigger(r, Level(i)))
			}
			h := rec.History()
			Expect(h).To(HaveLen(2))
			Expect(h[0].Fields[0].Value).To(Equal("3"))
			Expect(h[1].Fields[0].Value).To(Equal("4"))
		})

		It("notifies watch handlers", func() {
			all := &handler{}
			levels := &handler{}
			rec.RegisterWatchHandler(me.Request{}, all)
			rec.RegisterWatchHandler(me.Request{Kind: "recorder_test.Level"}, levels)

			MustBeSuccessful(events.Trigger(r, Damage{}))
			MustBeSuccessful(events.Trigger(r, Level(1)))
			Expect(all.events).To(HaveLen(2))
			Expect(levels.events).To(HaveLen(1))

			rec.UnregisterWatchHandler(me.Request{}, all)
			MustBeSuccessful(events.Trigger(r, Level(2)))
			Expect(all.events).To(HaveLen(2))
			Expect(levels.events).To(HaveLen(2))
		})
	})

	Context("preferences", func() {
		var fs vfs.FileSystem

		BeforeEach(func() {
			fs = Must(MemoryFileSystem())
		})

		It("defaults to not recording", func() {
			rec := Must(me.New(me.WithPreferences(fs, "/prefs/recorder.yaml")))
			Expect(rec.IsRecording()).To(BeFalse())
			Expect(rec.ClearOnSession()).To(BeFalse())
			Expect(vfs.Exists(fs, "/prefs/recorder.yaml")).To(BeFalse())
		})

		It("persists settings", func() {
			rec := Must(me.New(me.WithPreferences(fs, "/prefs/recorder.yaml")))
			MustBeSuccessful(rec.Start())
			MustBeSuccessful(rec.SetClearOnSession(true))
			Expect(string(Must(vfs.ReadFile(fs, "/prefs/recorder.yaml")))).To(Equal("clearOnSession: true\nrecording: true\n"))

			rec = Must(me.New(me.WithPreferences(fs, "/prefs/recorder.yaml"), me.WithRecording(false)))
			Expect(rec.IsRecording()).To(BeTrue())
			Expect(rec.ClearOnSession()).To(BeTrue())
		})

		It("rejects corrupted preferences", func() {
			MustBeSuccessful(vfs.WriteFile(fs, "/recorder.yaml", []byte("recording: maybe"), 0o600))
			_, err := me.New(me.WithPreferences(fs, "/recorder.yaml"))
			Expect(err).To(HaveOccurred())
		})
	})
})
