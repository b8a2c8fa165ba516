package events

import "time"

// Event defines the contract for all assistant events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "turn_completed").
	EventType() string

	// SessionID returns the conversation the event belongs to.
	SessionID() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

const (
	TypeRiskFlagged     = "risk_flagged"
	TypeTurnCompleted   = "turn_completed"
	TypeTurnFailed      = "turn_failed"
	TypeSettingsChanged = "settings_changed"
)

// BaseEvent is the only Event implementation; it is also the wire shape.
type BaseEvent struct {
	Type       string                 `json:"type"`
	Session    string                 `json:"session_id"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func New(eventType, sessionID string, data map[string]interface{}) BaseEvent {
	if data == nil {
		data = map[string]interface{}{}
	}
	return BaseEvent{
		Type:       eventType,
		Session:    sessionID,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) SessionID() string {
	return e.Session
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
