package roomlist

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"roomfeed/internal/rooms"
)

// Source is the rooms collaborator the screen consumes: a one-shot full
// fetch plus a long-lived change stream.
type Source interface {
	FetchRooms(ctx context.Context) ([]rooms.Room, error)
	Subscribe(ctx context.Context) (Stream, error)
}

// Stream is a lazy, infinite, non-restartable sequence of change events.
// Errors arrive on the side channel, never by closing Events early on
// purpose. Close must be safe to call more than once.
type Stream interface {
	Events() <-chan rooms.ChangeEvent
	Errs() <-chan error
	Close() error
}

// Phase is the screen's async state. There is no way back to PhaseLoading
// within one mount, and PhaseFailed is terminal for the mount.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseFailed
	PhaseReady
)

// View is what the phase plus the current cache resolve to at render
// time. PhaseReady splits into empty and populated depending on how many
// rooms survive the display filter.
type View int

const (
	ViewLoading View = iota
	ViewError
	ViewEmpty
	ViewPopulated
)

// Screen owns one Cache for the duration of a mount. Start performs the
// initial fetch and registers the single subscription; events are folded
// in strictly in arrival order on one goroutine, so Apply itself needs no
// locking. Close releases the subscription.
type Screen struct {
	src Source
	log logrus.FieldLogger

	mu      sync.RWMutex
	phase   Phase
	cache   Cache
	lastErr error

	stream  Stream
	started bool
	done    chan struct{}
	updates chan struct{}
}

func NewScreen(src Source, log logrus.FieldLogger) *Screen {
	return &Screen{
		src:     src,
		log:     log,
		done:    make(chan struct{}),
		updates: make(chan struct{}, 1),
	}
}

// Start fetches the room list and subscribes to the change stream. It is
// idempotent: a second call on the same screen is a no-op, so a remount
// race cannot register two subscriptions. A fetch or subscribe failure
// leaves the screen in PhaseFailed for good.
func (s *Screen) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	list, err := s.src.FetchRooms(ctx)
	if err != nil {
		s.fail(fmt.Errorf("fetch rooms: %w", err))
		return err
	}

	stream, err := s.src.Subscribe(ctx)
	if err != nil {
		s.fail(fmt.Errorf("subscribe: %w", err))
		return err
	}

	s.mu.Lock()
	s.stream = stream
	s.cache = Cache(list)
	s.phase = PhaseReady
	s.mu.Unlock()
	s.notify()

	s.log.WithField("rooms", len(list)).Debug("room list loaded")
	go s.loop()
	return nil
}

// loop is the only writer of the cache after Start, which gives the
// arrival-order guarantee for free.
func (s *Screen) loop() {
	for {
		select {
		case ev, ok := <-s.stream.Events():
			if !ok {
				// a failed stream reports its error before closing
				select {
				case err := <-s.stream.Errs():
					s.fail(fmt.Errorf("room stream: %w", err))
				default:
				}
				return
			}
			s.mu.Lock()
			s.cache = Apply(s.cache, ev)
			s.mu.Unlock()
			s.log.WithFields(logrus.Fields{
				"kind":    ev.Kind,
				"room_id": ev.RoomID,
			}).Debug("room change applied")
			s.notify()
		case err := <-s.stream.Errs():
			s.fail(fmt.Errorf("room stream: %w", err))
			return
		case <-s.done:
			return
		}
	}
}

func (s *Screen) fail(err error) {
	s.mu.Lock()
	s.phase = PhaseFailed
	s.lastErr = err
	s.mu.Unlock()
	s.log.WithError(err).Error("room list screen failed")
	s.notify()
}

func (s *Screen) notify() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}

// Close releases the subscription. Safe to call whether or not Start
// succeeded, and more than once.
func (s *Screen) Close() error {
	s.mu.Lock()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	stream := s.stream
	s.mu.Unlock()
	if stream != nil {
		return stream.Close()
	}
	return nil
}

// Updates signals that phase or cache changed since the last receive.
// Coalesced: a slow reader sees at least one signal, not one per event.
func (s *Screen) Updates() <-chan struct{} { return s.updates }

func (s *Screen) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

func (s *Screen) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Snapshot copies the current cache, display filter not applied.
func (s *Screen) Snapshot() Cache {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make(Cache, len(s.cache))
	copy(cp, s.cache)
	return cp
}

// Rooms returns the displayable rooms for rendering.
func (s *Screen) Rooms() []rooms.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Displayable(s.cache)
}

func (s *Screen) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch s.phase {
	case PhaseLoading:
		return ViewLoading
	case PhaseFailed:
		return ViewError
	}
	if len(Displayable(s.cache)) == 0 {
		return ViewEmpty
	}
	return ViewPopulated
}
