package fsm

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// LogLevel is the severity attached to a LogTimeline action.
type LogLevel uint8

const (
	// LogLevelDebug is used for high-frequency steps such as heartbeats.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is used for regular lifecycle steps.
	LogLevelInfo
	// LogLevelWarn is used for recoverable faults that trigger a retry.
	LogLevelWarn
	// LogLevelError is used for permanent failures.
	LogLevelError
)

// String returns the lowercase level name.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "debug"
	case LogLevelInfo:
		return "info"
	case LogLevelWarn:
		return "warn"
	case LogLevelError:
		return "error"
	default:
		return fmt.Sprintf("LogLevel(%d)", uint8(l))
	}
}

// Logrus maps the level onto the matching logrus level.
func (l LogLevel) Logrus() logrus.Level {
	switch l {
	case LogLevelDebug:
		return logrus.DebugLevel
	case LogLevelWarn:
		return logrus.WarnLevel
	case LogLevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// MarshalText encodes the level as its name.
func (l LogLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText decodes a level name.
func (l *LogLevel) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "debug":
		*l = LogLevelDebug
	case "info":
		*l = LogLevelInfo
	case "warn", "warning":
		*l = LogLevelWarn
	case "error":
		*l = LogLevelError
	default:
		return fmt.Errorf("unknown log level %q", text)
	}
	return nil
}
