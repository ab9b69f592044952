package events

import "context"

// Stream names
const (
	StreamUsernames = "events:usernames"
)

// Event types
const (
	EventUsernameResolved = "username_resolved"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
