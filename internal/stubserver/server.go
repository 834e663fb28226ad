// Package stubserver is an in-memory rooms service speaking the contracts
// the client consumes: full-list fetch, room creation, member changes and
// a websocket stream of change events. For demos and tests; nothing is
// persisted.
package stubserver

import (
	"encoding/json"
	"net/http"

	logger "github.com/chi-middleware/logrus-logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"roomfeed/internal/api"
	"roomfeed/internal/createroom"
	"roomfeed/internal/rooms"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Server struct {
	store *Store
	hub   *Hub
	log   *logrus.Logger
}

func New(log *logrus.Logger) *Server {
	return &Server{
		store: NewStore(),
		hub:   NewHub(log),
		log:   log,
	}
}

// Seed preloads rooms without emitting change events.
func (s *Server) Seed(rs ...rooms.Room) {
	for _, r := range rs {
		s.store.Put(r)
	}
}

func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(logger.Logger("router", s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	r.Route("/rooms", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/add", s.handleCreate)
		r.Post("/{id}/members", s.handleAddMember)
		r.Delete("/{id}", s.handleDelete)
	})

	r.Get("/ws", s.handleWS)
	return r
}

// handleList handles GET /rooms
func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	api.JSON(w, http.StatusOK, api.Response{Success: true, Message: "rooms fetched", Data: s.store.List()})
}

// handleCreate handles POST /rooms/add. The new room starts with one
// synthetic owner member so it passes the client's display filter, and a
// create event goes out on the stream; that event, not the creation
// response, is how the room becomes visible in caches.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in createroom.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		api.JSON(w, http.StatusBadRequest, api.Response{Success: false, Message: "invalid request body"})
		return
	}
	if ferrs := createroom.Validate(in); len(ferrs) > 0 {
		api.JSON(w, http.StatusBadRequest, api.Response{Success: false, Message: "validation failed", Data: ferrs})
		return
	}

	owner := rooms.Member{User: rooms.User{ID: uuid.NewString(), Username: "owner"}}
	room := s.store.Add(in.Name, []rooms.Member{owner})
	s.hub.Broadcast(rooms.ChangeEvent{Kind: rooms.EventCreate, RoomID: room.ID, Room: &room})

	api.JSON(w, http.StatusCreated, api.Response{
		Success: true,
		Message: "room created",
		Data:    rooms.CreatedRoom{ID: room.ID, Name: room.Name},
	})
}

// handleAddMember handles POST /rooms/{id}/members and emits an update
// event carrying the whole room.
func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	var m rooms.Member
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		api.JSON(w, http.StatusBadRequest, api.Response{Success: false, Message: "invalid request body"})
		return
	}
	if m.User.Username == "" {
		api.JSON(w, http.StatusBadRequest, api.Response{Success: false, Message: "username is required"})
		return
	}
	if m.User.ID == "" {
		m.User.ID = uuid.NewString()
	}

	room, ok := s.store.AddMember(roomID, m)
	if !ok {
		api.JSON(w, http.StatusNotFound, api.Response{Success: false, Message: "room not found"})
		return
	}
	s.hub.Broadcast(rooms.ChangeEvent{Kind: rooms.EventUpdate, RoomID: room.ID, Room: &room})

	api.JSON(w, http.StatusOK, api.Response{Success: true, Message: "member added", Data: room})
}

// handleDelete handles DELETE /rooms/{id}. The delete event carries only
// the id.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	if !s.store.Remove(roomID) {
		api.JSON(w, http.StatusNotFound, api.Response{Success: false, Message: "room not found"})
		return
	}
	s.hub.Broadcast(rooms.ChangeEvent{Kind: rooms.EventDelete, RoomID: roomID})

	api.JSON(w, http.StatusOK, api.Response{Success: true, Message: "room deleted"})
}

// handleWS upgrades GET /ws and attaches the connection to the hub.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	sub := &subscriber{conn: conn, send: make(chan []byte, 256)}
	s.hub.register <- sub
	go sub.writeLoop()
	go sub.readLoop(s.hub)
}

// Broadcast lets tests and demos push arbitrary change events.
func (s *Server) Broadcast(ev rooms.ChangeEvent) {
	s.hub.Broadcast(ev)
}

// Subscribers reports how many stream connections are attached.
func (s *Server) Subscribers() int {
	return s.hub.Subscribers()
}
