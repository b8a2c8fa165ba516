package nats

import (
	"context"
	"sync"
	"testing"
	"time"

	"finance-qa-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logEntry struct {
	level   string
	message string
	details map[string]interface{}
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (r *recordingLogger) record(level, message string, details map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, logEntry{level: level, message: message, details: details})
}

func (r *recordingLogger) Debug(_, message string, details map[string]interface{}) {
	r.record("debug", message, details)
}

func (r *recordingLogger) Info(_, message string, details map[string]interface{}) {
	r.record("info", message, details)
}

func (r *recordingLogger) Warn(_, message string, details map[string]interface{}) {
	r.record("warn", message, details)
}

func (r *recordingLogger) Error(_, message string, details map[string]interface{}) {
	r.record("error", message, details)
}

func (r *recordingLogger) Sync() error { return nil }

func TestSubject(t *testing.T) {
	tests := []struct {
		eventType string
		want      string
	}{
		{events.TypeRiskFlagged, "assistant.events.risk_flagged"},
		{events.TypeTurnCompleted, "assistant.events.turn_completed"},
		{events.TypeTurnFailed, "assistant.events.turn_failed"},
		{events.TypeSettingsChanged, "assistant.events.settings_changed"},
	}

	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			assert.Equal(t, tt.want, Subject(events.New(tt.eventType, "s-1", nil)))
		})
	}
}

func TestPublisherWithoutServer(t *testing.T) {
	prev := streamSetupTimeout
	streamSetupTimeout = 100 * time.Millisecond
	t.Cleanup(func() { streamSetupTimeout = prev })

	log := &recordingLogger{}

	// the connection retries in the background, so construction still succeeds
	pub, err := NewPublisher("nats://127.0.0.1:1", log)
	require.NoError(t, err)
	t.Cleanup(pub.Close)

	log.mu.Lock()
	require.NotEmpty(t, log.entries)
	assert.Equal(t, "warn", log.entries[0].level)
	assert.Equal(t, StreamName, log.entries[0].details["stream"])
	log.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err = pub.Publish(ctx, events.New(events.TypeTurnCompleted, "s-1", nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assistant.events.turn_completed")
}
