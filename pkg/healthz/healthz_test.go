package healthz_test

import (
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	me "github.com/mandelsoft/eventcore/pkg/healthz"
)

var _ = Describe("health checks", func() {
	AfterEach(func() {
		me.End("loop")
	})

	It("is healthy without checks", func() {
		Expect(me.IsHealthy()).To(BeTrue())
	})

	It("reports ticked checks", func() {
		me.Start("loop", time.Minute)
		me.Tick("loop")
		ok, info := me.HealthInfo()
		Expect(ok).To(BeTrue())
		Expect(info).To(HavePrefix("loop: ok ("))
	})

	It("detects outdated checks", func() {
		me.Start("loop", time.Millisecond)
		Eventually(me.IsHealthy).Should(BeFalse())

		w := httptest.NewRecorder()
		me.Healthz(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		Expect(w.Body.String()).To(ContainSubstring("loop: outdated"))

		me.Start("loop", time.Minute)
		Expect(me.IsHealthy()).To(BeTrue())
	})

	It("ignores unknown ticks", func() {
		me.Tick("unknown")
		Expect(me.IsHealthy()).To(BeTrue())
	})
})
