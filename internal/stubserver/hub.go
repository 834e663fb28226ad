package stubserver

import (
	"encoding/json"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"roomfeed/internal/rooms"
)

// subscriber is one websocket connection listening for change events.
type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans room change events out to every connected subscriber.
type Hub struct {
	log logrus.FieldLogger

	register   chan *subscriber
	unregister chan *subscriber
	broadcast  chan rooms.ChangeEvent
	subs       map[*subscriber]bool
	count      atomic.Int32
}

func NewHub(log logrus.FieldLogger) *Hub {
	h := &Hub{
		log:        log,
		register:   make(chan *subscriber),
		unregister: make(chan *subscriber),
		broadcast:  make(chan rooms.ChangeEvent),
		subs:       make(map[*subscriber]bool),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case sub := <-h.register:
			h.subs[sub] = true
			h.count.Store(int32(len(h.subs)))
			h.log.WithField("subscribers", len(h.subs)).Debug("stream subscriber joined")
		case sub := <-h.unregister:
			if _, ok := h.subs[sub]; ok {
				delete(h.subs, sub)
				close(sub.send)
			}
			h.count.Store(int32(len(h.subs)))
			h.log.WithField("subscribers", len(h.subs)).Debug("stream subscriber left")
		case ev := <-h.broadcast:
			b, err := json.Marshal(ev)
			if err != nil {
				h.log.WithError(err).Error("marshal change event")
				continue
			}
			for sub := range h.subs {
				select {
				case sub.send <- b:
				default:
					// send buffer full, drop the connection
					delete(h.subs, sub)
					close(sub.send)
				}
			}
			h.count.Store(int32(len(h.subs)))
		}
	}
}

// Broadcast queues one change event for every subscriber.
func (h *Hub) Broadcast(ev rooms.ChangeEvent) {
	h.broadcast <- ev
}

// Subscribers reports how many stream connections are attached.
func (h *Hub) Subscribers() int {
	return int(h.count.Load())
}

func (s *subscriber) writeLoop() {
	defer s.conn.Close()
	for msg := range s.send {
		if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// readLoop drains the connection; subscribers never send anything we
// care about, the read only detects disconnects.
func (s *subscriber) readLoop(h *Hub) {
	defer func() {
		h.unregister <- s
		s.conn.Close()
	}()
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}
