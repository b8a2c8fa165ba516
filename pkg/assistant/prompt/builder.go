package prompt

import (
	"strings"
	"unicode/utf8"
)

const (
	// NotesLimit caps the notes included in an instruction, in characters.
	NotesLimit = 2000

	// TruncationMarker is appended to notes cut at NotesLimit.
	TruncationMarker = "\n...[truncated]"

	notesHeader = "User's Market Notes (unverified, for context only):\n"
	modeHeader  = "Mode:\n"
)

const basePolicy = `You are a careful, neutral Finance Q&A assistant for the public (2025).
- You do NOT provide investment, legal, tax, or accounting advice.
- You do NOT recommend specific securities, allocations, or trades.
- Explain concepts with short paragraphs and bullet points.
- Avoid guarantees or predictions.
- If asked for personalized advice, decline and suggest consulting a licensed professional.
- When relevant, add a 'What to double-check' checklist (fees, risks, horizon, taxes, liquidity).
- Define jargon simply (beta, drawdown, Sharpe, duration, yield curve).`

// Build assembles the instruction text for a mode, optionally grounded on the
// user's notes. It is pure: the same inputs always produce the same string.
func Build(mode Mode, notes string, includeNotes bool) (string, error) {
	guidance, err := mode.Guidance()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(basePolicy)
	b.WriteString("\n\n")
	b.WriteString(modeHeader)
	b.WriteString(guidance)

	if includeNotes && strings.TrimSpace(notes) != "" {
		b.WriteString("\n\n")
		b.WriteString(notesHeader)
		b.WriteString(Truncate(notes, NotesLimit))
	}

	return b.String(), nil
}

// Truncate keeps the first limit characters of text and appends TruncationMarker
// when anything was dropped. The cut is not word aware.
func Truncate(text string, limit int) string {
	if text == "" {
		return ""
	}
	if utf8.RuneCountInString(text) <= limit {
		return text
	}

	n := 0
	for i := range text {
		if n == limit {
			return text[:i] + TruncationMarker
		}
		n++
	}
	return text
}
