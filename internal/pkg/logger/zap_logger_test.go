package logger

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolatedLoggerWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assistant.log")
	l := NewIsolatedLogger(path)

	l.Debug("Test", "dropped below info", nil)
	l.Info("AssistantService", "session created", map[string]interface{}{"session_id": "s-1"})
	l.Error("TurnController", "completion failed", map[string]interface{}{"error": errors.New("boom")})
	_ = l.Sync()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		lines = append(lines, entry)
	}
	require.Len(t, lines, 2)

	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "session created", lines[0]["message"])
	assert.Equal(t, "AssistantService", lines[0]["module"])
	assert.Equal(t, "s-1", lines[0]["details"].(map[string]interface{})["session_id"])

	assert.Equal(t, "ERROR", lines[1]["level"])
	assert.Equal(t, "boom", lines[1]["error"])
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Warn("Test", "ignored", nil)
	assert.NoError(t, l.Sync())
}
