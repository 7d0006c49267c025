package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		level string
	}{
		{"debug level", "debug"},
		{"info level", "info"},
		{"warn level", "warn"},
		{"error level", "error"},
		{"mixed case", "WARN"},
		{"unknown defaults to info", "verbose"},
		{"empty defaults to info", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.level)
			require.NotNil(t, logger)
			assert.NotNil(t, logger.Logger)
		})
	}
}

func TestComponent(t *testing.T) {
	logger := Default()
	child := logger.Component("conversation")
	require.NotNil(t, child)
	assert.NotSame(t, logger.Logger, child.Logger)
}
