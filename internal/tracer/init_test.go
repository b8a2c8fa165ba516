package tracer

import (
	"context"
	"testing"

	"finance-qa-be/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestInitTracerDisabled(t *testing.T) {
	shutdown := InitTracer(config.TelemetryConfig{Enabled: false})
	assert.NoError(t, shutdown(context.Background()))
}
