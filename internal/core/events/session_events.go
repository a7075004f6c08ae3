package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeSessionStarted   = "session.started"
	EventTypeSessionRefreshed = "session.refreshed"
	// EventTypeSessionExpired tells the presentation layer to send the user
	// back to the login screen.
	EventTypeSessionExpired = "session.expired"
	EventTypeSessionEnded   = "session.ended"
)

type SessionEvent struct {
	BaseEvent
	Username string `json:"username,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

func NewSessionEvent(eventType, username, reason string) *SessionEvent {
	data := map[string]interface{}{}
	if username != "" {
		data["username"] = username
	}
	if reason != "" {
		data["reason"] = reason
	}
	return &SessionEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data:      data,
		},
		Username: username,
		Reason:   reason,
	}
}
