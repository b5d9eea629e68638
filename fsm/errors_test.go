package fsm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvalidTransitionError(t *testing.T) {
	err := NewInvalidTransition("Idle", "Pause")
	assert.Equal(t, "invalid transition from Idle with event Pause", err.Error())
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	wrapped := fmt.Errorf("apply: %w", err)
	assert.True(t, errors.Is(wrapped, ErrInvalidTransition))

	var target *InvalidTransitionError
	require.True(t, errors.As(wrapped, &target))
	assert.Equal(t, "Idle", target.From)
	assert.Equal(t, "Pause", target.Event)
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		level  LogLevel
		name   string
		logrus logrus.Level
	}{
		{LogLevelDebug, "debug", logrus.DebugLevel},
		{LogLevelInfo, "info", logrus.InfoLevel},
		{LogLevelWarn, "warn", logrus.WarnLevel},
		{LogLevelError, "error", logrus.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.level.String())
			assert.Equal(t, tt.logrus, tt.level.Logrus())

			text, err := tt.level.MarshalText()
			require.NoError(t, err)

			var decoded LogLevel
			require.NoError(t, decoded.UnmarshalText(text))
			assert.Equal(t, tt.level, decoded)
		})
	}

	var l LogLevel
	assert.Error(t, l.UnmarshalText([]byte("loud")))
	assert.Equal(t, "LogLevel(9)", LogLevel(9).String())
}
