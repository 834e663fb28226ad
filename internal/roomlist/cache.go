// Package roomlist keeps a client-held copy of the room collection in
// step with a server-pushed stream of change events.
package roomlist

import "roomfeed/internal/rooms"

// Cache is the ordered room collection as last synced. It is treated as a
// value: Apply never mutates its input and returns a fresh slice whenever
// anything changed.
type Cache []rooms.Room

// Apply folds one change event into the cache.
//
// Create appends the event's room at the end without checking for an
// existing entry with the same id, matching the upstream behavior; a
// duplicate create therefore produces a duplicate entry. Delete removes
// the matching entry and is a no-op when nothing matches. Update replaces
// the matching entry in place, keeping its position, and silently drops
// the event when nothing matches. Any other kind leaves the cache as is.
//
// Create/update events carrying no room are ignored rather than trusted,
// so Apply stays total against a misbehaving stream.
func Apply(cache Cache, ev rooms.ChangeEvent) Cache {
	switch ev.Kind {
	case rooms.EventCreate:
		if ev.Room == nil {
			return cache
		}
		next := make(Cache, len(cache), len(cache)+1)
		copy(next, cache)
		return append(next, *ev.Room)

	case rooms.EventDelete:
		for i, r := range cache {
			if r.ID == ev.RoomID {
				next := make(Cache, 0, len(cache)-1)
				next = append(next, cache[:i]...)
				return append(next, cache[i+1:]...)
			}
		}
		return cache

	case rooms.EventUpdate:
		if ev.Room == nil {
			return cache
		}
		for i, r := range cache {
			if r.ID == ev.Room.ID {
				next := make(Cache, len(cache))
				copy(next, cache)
				next[i] = *ev.Room
				return next
			}
		}
		return cache
	}
	return cache
}

// Displayable returns the rooms that should be rendered: entries with an
// empty member list are filtered out but stay in the cache, where further
// events can still reach them.
func Displayable(cache Cache) []rooms.Room {
	out := make([]rooms.Room, 0, len(cache))
	for _, r := range cache {
		if len(r.Members) > 0 {
			out = append(out, r)
		}
	}
	return out
}
