package prompt

import (
	"testing"

	"finance-qa-be/pkg/assistant"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModesOrder(t *testing.T) {
	modes := Modes()
	require.Len(t, modes, 6)
	assert.Equal(t, DefaultMode, modes[0])
	assert.Equal(t, ModeCryptoBasics, modes[5])

	// callers must not be able to reorder the shared list
	modes[0] = ModeCryptoBasics
	assert.Equal(t, ModeMarketsMacro, Modes()[0])
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		raw     string
		want    Mode
		wantErr bool
	}{
		{raw: "Risk & Portfolio Concepts", want: ModeRiskPortfolio},
		{raw: "  Crypto Basics (Education) ", want: ModeCryptoBasics},
		{raw: "crypto basics (education)", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseMode(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, assistant.IsConfigError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
