// Package rooms holds the wire-level data model shared by the client,
// the sync layer and the stub service.
package rooms

type User struct {
	ID        string `json:"id"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Username  string `json:"username"`
}

type Member struct {
	User User `json:"user"`
}

// Room is one entry of the room collection. ID is the unique key; member
// order is whatever the server sent and carries no meaning.
type Room struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Members []Member `json:"members"`
}

// EventKind discriminates room change events. Kinds outside the three
// known values decode fine and are ignored downstream.
type EventKind string

const (
	EventCreate EventKind = "create"
	EventUpdate EventKind = "update"
	EventDelete EventKind = "delete"
)

// ChangeEvent is a notification that one room was created, updated or
// deleted. Room is set for create/update; for delete only RoomID matters.
type ChangeEvent struct {
	Kind   EventKind `json:"type"`
	RoomID string    `json:"room_id"`
	Room   *Room     `json:"room,omitempty"`
}

// CreatedRoom is the creation endpoint's success payload.
type CreatedRoom struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
