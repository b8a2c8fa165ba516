package conversation

import (
	"fmt"

	"finance-qa-be/pkg/assistant"
	"finance-qa-be/pkg/assistant/prompt"
)

// Snapshot is the serializable form of a State, used by session stores.
type Snapshot struct {
	Mode  prompt.Mode `json:"mode"`
	Notes string      `json:"notes"`
	Turns []Turn      `json:"turns"`
}

func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Mode:  s.mode,
		Notes: s.notes,
		Turns: s.History(),
	}
}

// Restore rebuilds a State from a snapshot, rejecting unknown modes and roles.
func Restore(snap Snapshot) (*State, error) {
	if !snap.Mode.Valid() {
		return nil, &assistant.ConfigError{Field: "mode", Value: string(snap.Mode)}
	}
	for i, t := range snap.Turns {
		if !t.Role.Valid() {
			return nil, &assistant.ConfigError{Field: fmt.Sprintf("turns[%d].role", i), Value: string(t.Role)}
		}
	}

	turns := make([]Turn, len(snap.Turns))
	copy(turns, snap.Turns)

	return &State{
		mode:  snap.Mode,
		notes: snap.Notes,
		turns: turns,
	}, nil
}
