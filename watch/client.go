package watch

import (
	"context"
	"encoding/json"
	"net"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/mandelsoft/eventcore/pkg/utils"
)

// Client connects to a watch endpoint. R is the registration request
// and E the event type sent by the server.
type Client[R, E any] struct {
	dialer ws.Dialer
	url    string
}

func NewClient[R, E any](url string, dialer ...ws.Dialer) *Client[R, E] {
	return &Client[R, E]{
		dialer: utils.OptionalDefaulted(ws.DefaultDialer, dialer...),
		url:    url,
	}
}

func (c *Client[R, E]) Dial(ctx context.Context) (net.Conn, error) {
	conn, _, _, err := c.dialer.Dial(ctx, c.url)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// RequestWatch sends the registration request on an open connection.
func (c *Client[R, E]) RequestWatch(conn net.Conn, req R) (*Watch[E], error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	err = wsutil.WriteClientMessage(conn, ws.OpText, data)
	if err != nil {
		return nil, err
	}
	return &Watch[E]{conn: conn}, nil
}

func (c *Client[R, E]) Watch(ctx context.Context, req R) (*Watch[E], error) {
	conn, err := c.Dial(ctx)
	if err != nil {
		return nil, err
	}
	w, err := c.RequestWatch(conn, req)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return w, nil
}

// Register watches events and passes them to the given handler until the
// context is canceled or the server closes the connection.
func (c *Client[R, E]) Register(ctx context.Context, req R, h EventHandler[E]) (Syncher, error) {
	w, err := c.Watch(ctx, req)
	if err != nil {
		return nil, err
	}

	s := &syncher{}
	s.wait.Add(1)

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			w.Close()
		case <-stop:
		}
	}()

	go func() {
		defer s.wait.Done()
		defer close(stop)
		for {
			events, err := w.Receive()
			if err != nil {
				if ctx.Err() == nil && !IsErrClosed(err) {
					s.err = err
				}
				w.Close()
				return
			}
			for _, e := range events {
				h.HandleEvent(e)
			}
		}
	}()
	return s, nil
}

////////////////////////////////////////////////////////////////////////////////

type Syncher interface {
	Wait() error
}

type syncher struct {
	wait sync.WaitGroup
	err  error
}

func (s *syncher) Wait() error {
	s.wait.Wait()
	return s.err
}

////////////////////////////////////////////////////////////////////////////////

type Watch[E any] struct {
	conn net.Conn
}

// Receive reads the next events. A close frame of the server is returned
// as wsutil.ClosedError carrying the close reason.
func (w *Watch[E]) Receive() ([]E, error) {
	data, _, err := wsutil.ReadServerData(w.conn)
	if err != nil {
		return nil, err
	}

	var evt E
	err = json.Unmarshal(data, &evt)
	if err != nil {
		return nil, err
	}
	return []E{evt}, nil
}

func (w *Watch[E]) Close() error {
	return w.conn.Close()
}
