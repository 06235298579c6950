package events

// EventType tags an event on the wire.
type EventType string

const (
	EventTypeChat       EventType = "chat"
	EventTypeUserJoined EventType = "user_joined"
	EventTypeUserLeft   EventType = "user_left"
)

// Event is a single occurrence pushed to clients over their websocket.
// It is immutable once built; construct one through the New*Event helpers
// so the payload keys stay stable. Payload values must be plain strings so
// marshalling never fails.
type Event struct {
	Type    EventType      `json:"type"`
	Payload map[string]any `json:"payload"`
}

// NewChatEvent builds a chat event. The sender fields come from the
// verified caller identity, never from client input.
func NewChatEvent(from, name, email, content string) *Event {
	return &Event{
		Type: EventTypeChat,
		Payload: map[string]any{
			"from":    from,
			"name":    name,
			"email":   email,
			"content": content,
		},
	}
}

// NewUserJoinedEvent builds a presence event announcing that a user connected.
func NewUserJoinedEvent(userID, name, email string) *Event {
	return &Event{
		Type: EventTypeUserJoined,
		Payload: map[string]any{
			"user_id": userID,
			"name":    name,
			"email":   email,
		},
	}
}

// NewUserLeftEvent builds a presence event announcing that a user disconnected.
func NewUserLeftEvent(userID, name, email string) *Event {
	return &Event{
		Type: EventTypeUserLeft,
		Payload: map[string]any{
			"user_id": userID,
			"name":    name,
			"email":   email,
		},
	}
}
