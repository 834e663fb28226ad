package stubserver

import (
	"sync"

	"github.com/google/uuid"

	"roomfeed/internal/rooms"
)

// Store is the in-memory room collection. Order is insertion order, which
// is the order the list endpoint reports.
type Store struct {
	mu    sync.Mutex
	rooms []rooms.Room
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) List() []rooms.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]rooms.Room, len(s.rooms))
	copy(out, s.rooms)
	return out
}

// Add mints a room with a fresh id and the given members.
func (s *Store) Add(name string, members []rooms.Member) rooms.Room {
	r := rooms.Room{ID: uuid.NewString(), Name: name, Members: members}
	s.mu.Lock()
	s.rooms = append(s.rooms, r)
	s.mu.Unlock()
	return r
}

// Put appends a room as given, for seeding.
func (s *Store) Put(r rooms.Room) {
	s.mu.Lock()
	s.rooms = append(s.rooms, r)
	s.mu.Unlock()
}

// AddMember appends a member to the room and returns the updated room.
func (s *Store) AddMember(roomID string, m rooms.Member) (rooms.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rooms {
		if s.rooms[i].ID == roomID {
			s.rooms[i].Members = append(s.rooms[i].Members, m)
			return s.rooms[i], true
		}
	}
	return rooms.Room{}, false
}

// Remove deletes the room, reporting whether it existed.
func (s *Store) Remove(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rooms {
		if s.rooms[i].ID == roomID {
			s.rooms = append(s.rooms[:i], s.rooms[i+1:]...)
			return true
		}
	}
	return false
}
