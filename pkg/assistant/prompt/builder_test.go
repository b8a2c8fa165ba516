package prompt

import (
	"strings"
	"testing"

	"finance-qa-be/pkg/assistant"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildIsDeterministic(t *testing.T) {
	notesStates := []struct {
		notes   string
		include bool
	}{
		{"", true},
		{"", false},
		{"   \n\t", true},
		{"CPI Thu 8:30am", true},
		{"CPI Thu 8:30am", false},
		{strings.Repeat("n", 2500), true},
	}

	for _, mode := range Modes() {
		for _, ns := range notesStates {
			first, err := Build(mode, ns.notes, ns.include)
			require.NoError(t, err)
			second, err := Build(mode, ns.notes, ns.include)
			require.NoError(t, err)
			assert.Equal(t, first, second, "mode %q", mode)
		}
	}
}

func TestBuildLayout(t *testing.T) {
	got, err := Build(ModeInvesting101, "", true)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "You are a careful, neutral Finance Q&A assistant for the public (2025)."))
	assert.True(t, strings.HasSuffix(got, "\n\nMode:\nExplain stocks, bonds, ETFs, diversification, compounding, rebalancing, and fee awareness."))
	assert.NotContains(t, got, "User's Market Notes")
}

func TestBuildEachModeUsesItsGuidance(t *testing.T) {
	seen := make(map[string]Mode)
	for _, mode := range Modes() {
		got, err := Build(mode, "", false)
		require.NoError(t, err)

		guidance, err := mode.Guidance()
		require.NoError(t, err)
		assert.Contains(t, got, guidance)

		prev, dup := seen[got]
		assert.False(t, dup, "modes %q and %q built identical instructions", prev, mode)
		seen[got] = mode
	}
	assert.Len(t, seen, 6)
}

func TestBuildRejectsUnknownMode(t *testing.T) {
	_, err := Build(Mode("Day Trading Signals"), "notes", true)
	require.Error(t, err)
	assert.True(t, assistant.IsConfigError(err))
}

func TestBuildNotesSection(t *testing.T) {
	tests := []struct {
		name        string
		notes       string
		include     bool
		wantSection bool
		wantMarker  bool
		wantBody    string
	}{
		{
			name:        "include disabled",
			notes:       "Fed Chair Fri 10:00",
			include:     false,
			wantSection: false,
		},
		{
			name:        "whitespace only notes",
			notes:       "  \n  ",
			include:     true,
			wantSection: false,
		},
		{
			name:        "short notes verbatim",
			notes:       strings.Repeat("a", 1500),
			include:     true,
			wantSection: true,
			wantBody:    strings.Repeat("a", 1500),
		},
		{
			name:        "exactly at limit",
			notes:       strings.Repeat("b", NotesLimit),
			include:     true,
			wantSection: true,
			wantBody:    strings.Repeat("b", NotesLimit),
		},
		{
			name:        "long notes truncated",
			notes:       strings.Repeat("c", 2000) + strings.Repeat("d", 500),
			include:     true,
			wantSection: true,
			wantMarker:  true,
			wantBody:    strings.Repeat("c", 2000) + TruncationMarker,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Build(ModeMarketsMacro, tt.notes, tt.include)
			require.NoError(t, err)

			idx := strings.Index(got, notesHeader)
			if !tt.wantSection {
				assert.Equal(t, -1, idx)
				return
			}
			require.NotEqual(t, -1, idx)

			body := got[idx+len(notesHeader):]
			assert.Equal(t, tt.wantBody, body)
			assert.Equal(t, tt.wantMarker, strings.HasSuffix(got, TruncationMarker))
		})
	}
}

func TestBuildKeepsNotesUntrimmed(t *testing.T) {
	got, err := Build(ModeRiskPortfolio, "  - VIX ~14\n", true)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(got, notesHeader+"  - VIX ~14\n"))
}

func TestTruncateCountsCharacters(t *testing.T) {
	assert.Equal(t, "", Truncate("", 5))
	assert.Equal(t, "héllo", Truncate("héllo", 5))
	assert.Equal(t, "hé"+TruncationMarker, Truncate("héllo", 2))
	assert.Equal(t, "€€€"+TruncationMarker, Truncate("€€€€", 3))
}
