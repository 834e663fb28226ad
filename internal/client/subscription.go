package client

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"roomfeed/internal/rooms"
)

// Subscription is one live change stream: lazy, infinite and not
// restartable. Events are delivered in arrival order on Events; a stream
// failure is reported once on Errs, after which both channels go quiet.
type Subscription struct {
	conn   *websocket.Conn
	events chan rooms.ChangeEvent
	errs   chan error

	closeOnce sync.Once
	done      chan struct{}
}

// Subscribe dials the service's websocket endpoint and starts reading.
// The context only bounds the dial; the stream itself lives until Close.
func (c *Client) Subscribe(ctx context.Context) (*Subscription, error) {
	wsURL, err := wsEndpoint(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("subscribe: dial %s: %w", wsURL, err)
	}
	sub := &Subscription{
		conn:   conn,
		events: make(chan rooms.ChangeEvent, 16),
		errs:   make(chan error, 1),
		done:   make(chan struct{}),
	}
	go sub.read(c.log)
	return sub, nil
}

func wsEndpoint(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	return u.String(), nil
}

func (s *Subscription) read(log logrus.FieldLogger) {
	defer close(s.events)
	for {
		var ev rooms.ChangeEvent
		if err := s.conn.ReadJSON(&ev); err != nil {
			select {
			case <-s.done:
				// closed by us, not a stream failure
			default:
				log.WithError(err).Debug("room stream read failed")
				s.errs <- err
			}
			return
		}
		select {
		case s.events <- ev:
		case <-s.done:
			return
		}
	}
}

// Events yields change events in arrival order. Closed when the stream
// ends for any reason.
func (s *Subscription) Events() <-chan rooms.ChangeEvent { return s.events }

// Errs is the error side channel. At most one error is ever sent.
func (s *Subscription) Errs() <-chan error { return s.errs }

// Close releases the stream. Idempotent.
func (s *Subscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}
