package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/mandelsoft/eventcore/pkg/service"
)

// Server is a http server usable as service.Service.
type Server struct {
	*http.Server
	*http.ServeMux

	shutdownTimeout time.Duration

	lock     sync.Mutex
	listener net.Listener
	done     service.Trigger
}

var _ service.Service = (*Server)(nil)

// NewServer creates a server for the given port. Port 0 chooses
// a free port, which can be queried with Address after Start.
// If def is set, the handlers registered with Register are served, too.
func NewServer(port int, def bool, shutdownTimeout time.Duration) *Server {
	mux := http.NewServeMux()
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	if def {
		mux.Handle("/", default_mux)
	}
	return &Server{
		Server:          server,
		ServeMux:        mux,
		shutdownTimeout: shutdownTimeout,
	}
}

// Address returns the listen address of a started server.
func (s *Server) Address() string {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.listener == nil {
		return s.Addr
	}
	return s.listener.Addr().String()
}

// Start listens on the configured address and serves until the
// context is canceled. The server is ready when the listener is bound.
func (s *Server) Start(ctx context.Context) (service.Syncher, service.Syncher, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.done != nil {
		return nil, nil, fmt.Errorf("server already started")
	}
	l, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return nil, nil, err
	}
	s.listener = l
	s.done = service.SyncTrigger()

	ready := service.SyncTrigger()
	ready.Trigger()

	go func() {
		log.Info("serving on {{address}}", "address", l.Addr().String())
		err := s.serve(ctx, l)
		if err != nil {
			log.LogError(err, "server on {{address}} failed", "address", l.Addr().String())
		}
		s.done.SetError(err)
		s.done.Trigger()
	}()
	return ready, s.done, nil
}

func (s *Server) Wait() error {
	s.lock.Lock()
	done := s.done
	s.lock.Unlock()
	if done == nil {
		return nil
	}
	return done.Wait()
}

func (s *Server) serve(ctx context.Context, l net.Listener) error {
	serverErr := make(chan error, 1)
	go func() {
		// Shutdown causes Serve to return http.ErrServerClosed.
		serverErr <- s.Serve(l)
	}()
	var err error
	select {
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		err = s.Shutdown(sctx)
	case err = <-serverErr:
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
