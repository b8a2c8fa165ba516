package store

import (
	"time"

	"finance-qa-be/pkg/assistant/conversation"
)

// Settings are the UI-controlled knobs of a session that live outside the
// conversation log.
type Settings struct {
	Temperature  float64 `json:"temperature"`
	IncludeNotes bool    `json:"include_notes"`
}

// Session represents one assistant session as held by a session repository
type Session struct {
	ID           string                `json:"id"`
	Settings     Settings              `json:"settings"`
	Conversation conversation.Snapshot `json:"conversation"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// Clone returns a deep copy so callers never share the turn slice with a store.
func (s *Session) Clone() *Session {
	c := *s
	c.Conversation.Turns = make([]conversation.Turn, len(s.Conversation.Turns))
	copy(c.Conversation.Turns, s.Conversation.Turns)
	return &c
}
