package server_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mandelsoft/vfs/pkg/vfs"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	. "github.com/mandelsoft/eventcore/pkg/testutils"

	"github.com/mandelsoft/eventcore/pkg/ctxutil"
	me "github.com/mandelsoft/eventcore/pkg/server"
	"github.com/mandelsoft/eventcore/pkg/service"

	_ "github.com/mandelsoft/eventcore/pkg/healthz"
)

func get(url string) string {
	resp := Must(http.Get(url))
	defer resp.Body.Close()
	ExpectWithOffset(1, resp.StatusCode).To(Equal(http.StatusOK))
	return string(Must(io.ReadAll(resp.Body)))
}

var _ = Describe("server", func() {
	var ctx context.Context
	var srv *me.Server
	var done service.Syncher
	var url string

	BeforeEach(func() {
		ctx = ctxutil.TimeoutContext(context.Background(), 20*time.Second)
		srv = me.NewServer(0, true, time.Second)
		srv.Handle("/test", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, "test handler\n")
		}))

		fs := Must(MemoryFileSystem("/static"))
		MustBeSuccessful(vfs.WriteFile(fs, "/static/index.txt", []byte("static"), 0o600))
		me.NewDirectoryHandler(fs, "/ui").RegisterHandler(srv)

		ready, d := Must2(srv.Start(ctx))
		MustBeSuccessful(ready.Wait())
		done = d
		url = "http://" + srv.Address()
	})

	AfterEach(func() {
		ctxutil.Cancel(ctx)
		MustBeSuccessful(done.Wait())
	})

	It("serves handlers", func() {
		Expect(get(url + "/test")).To(Equal("test handler\n"))
	})

	It("serves the default mux", func() {
		get(url + "/healthz")
	})

	It("serves directories", func() {
		Expect(get(url + "/ui/static/index.txt")).To(Equal("static"))
	})

	It("does not list directories", func() {
		resp := Must(http.Get(url + "/ui/static/"))
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
	})

	It("cannot be started twice", func() {
		_, _, err := srv.Start(ctx)
		Expect(err).To(MatchError("server already started"))
	})
})
