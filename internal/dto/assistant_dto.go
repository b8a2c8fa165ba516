package dto

import "time"

type ModeDTO struct {
	Name     string `json:"name"`
	Guidance string `json:"guidance"`
}

type SampleDTO struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Prompt string `json:"prompt"`
}

// CatalogResponse carries the mode list plus the fixed texts clients render.
type CatalogResponse struct {
	Modes              []ModeDTO `json:"modes"`
	DefaultMode        string    `json:"default_mode"`
	DefaultTemperature float64   `json:"default_temperature"`
	Caption            string    `json:"caption"`
	Disclaimer         string    `json:"disclaimer"`
	Advisory           string    `json:"advisory"`
	InputPlaceholder   string    `json:"input_placeholder"`
}

type TurnDTO struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type CreateSessionRequest struct {
	Mode         string   `json:"mode"`
	Notes        string   `json:"notes"`
	Temperature  *float64 `json:"temperature" validate:"omitempty,gte=0,lte=1"`
	IncludeNotes *bool    `json:"include_notes"`
}

type SessionResponse struct {
	Id                string    `json:"id"`
	Mode              string    `json:"mode"`
	Notes             string    `json:"notes"`
	Temperature       float64   `json:"temperature"`
	IncludeNotes      bool      `json:"include_notes"`
	ActiveInstruction string    `json:"active_instruction"`
	History           []TurnDTO `json:"history"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type SetModeRequest struct {
	Mode string `json:"mode" validate:"required"`
}

type SetTemperatureRequest struct {
	Temperature *float64 `json:"temperature" validate:"required,gte=0,lte=1"`
}

type SetNotesRequest struct {
	Notes string `json:"notes"`
}

type SetIncludeNotesRequest struct {
	IncludeNotes *bool `json:"include_notes" validate:"required"`
}

// SendChatRequest is a chat submission. An empty message is accepted and ignored.
type SendChatRequest struct {
	Message string `json:"message" validate:"max=8000"`
}

type SendChatResponse struct {
	SessionId            string    `json:"session_id"`
	Submitted            bool      `json:"submitted"`
	Reply                string    `json:"reply,omitempty"`
	RiskFlagged          bool      `json:"risk_flagged"`
	RiskFlags            []string  `json:"risk_flags,omitempty"`
	Advisory             string    `json:"advisory,omitempty"`
	InstructionRefreshed bool      `json:"instruction_refreshed"`
	History              []TurnDTO `json:"history"`
}
