package conversation

import (
	"strings"

	"finance-qa-be/pkg/assistant"
	"finance-qa-be/pkg/assistant/prompt"
)

// Role tags a turn in the conversation log.
type Role string

const (
	RoleInstruction Role = "instruction"
	RoleUser        Role = "user"
	RoleAssistant   Role = "assistant"
)

func (r Role) Valid() bool {
	switch r {
	case RoleInstruction, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Turn is a single entry in the log. Turns are never modified once appended.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// State is the conversation of one session: the append-only turn log plus
// the active mode and the stored notes blob. A State is owned by exactly one
// session and is not safe for concurrent use.
type State struct {
	mode  prompt.Mode
	notes string
	turns []Turn
}

// New creates a State seeded with one instruction turn built from
// defaultMode and initialNotes with notes included.
func New(defaultMode prompt.Mode, initialNotes string) (*State, error) {
	instruction, err := prompt.Build(defaultMode, initialNotes, true)
	if err != nil {
		return nil, err
	}

	return &State{
		mode:  defaultMode,
		notes: initialNotes,
		turns: []Turn{{Role: RoleInstruction, Content: instruction}},
	}, nil
}

func (s *State) Mode() prompt.Mode {
	return s.mode
}

func (s *State) Notes() string {
	return s.notes
}

// SetMode switches the active mode. It does not append a turn; the next
// SyncInstruction carries the change.
func (s *State) SetMode(mode prompt.Mode) error {
	if !mode.Valid() {
		return &assistant.ConfigError{Field: "mode", Value: string(mode)}
	}
	s.mode = mode
	return nil
}

// SetNotes replaces the stored notes. The stored value is never truncated.
func (s *State) SetNotes(text string) {
	s.notes = text
}

func (s *State) ClearNotes() {
	s.notes = ""
}

// ActiveInstruction computes the instruction the model should currently see.
func (s *State) ActiveInstruction(includeNotes bool) (string, error) {
	return prompt.Build(s.mode, s.notes, includeNotes)
}

// SyncInstruction appends a fresh instruction turn unless the newest turn is
// already an instruction with identical content. It reports whether a turn
// was appended.
func (s *State) SyncInstruction(includeNotes bool) (bool, error) {
	current, err := s.ActiveInstruction(includeNotes)
	if err != nil {
		return false, err
	}

	if n := len(s.turns); n > 0 {
		last := s.turns[n-1]
		if last.Role == RoleInstruction && last.Content == current {
			return false, nil
		}
	}

	s.turns = append(s.turns, Turn{Role: RoleInstruction, Content: current})
	return true, nil
}

// ValidateUserText rejects empty or whitespace-only submissions.
func ValidateUserText(text string) error {
	if strings.TrimSpace(text) == "" {
		return &assistant.ValidationError{Field: "message", Reason: "must not be empty"}
	}
	return nil
}

func (s *State) AppendUser(text string) error {
	if err := ValidateUserText(text); err != nil {
		return err
	}
	s.turns = append(s.turns, Turn{Role: RoleUser, Content: text})
	return nil
}

func (s *State) AppendAssistant(text string) {
	s.turns = append(s.turns, Turn{Role: RoleAssistant, Content: text})
}

// History returns a copy of the log in insertion order.
func (s *State) History() []Turn {
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

func (s *State) Len() int {
	return len(s.turns)
}
