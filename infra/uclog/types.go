package uclog

import (
	"context"
	"strings"

	"github.com/sunsided/go-oidcserver/infra/ucerr"
)

// LogLevel orders log verbosity from the quietest (Error) to the loudest
// (Verbose). A transport only receives events at or below its configured
// MaxLogLevel.
type LogLevel int

// Supported log levels, in increasing order of verbosity.
const (
	// LogLevelNonMessage is used for counter-only events that carry no
	// human-readable message.
	LogLevelNonMessage LogLevel = iota
	LogLevelError
	LogLevelWarning
	LogLevelInfo
	LogLevelDebug
	LogLevelVerbose
)

// GetLogLevel parses a level name (as might come from an environment
// variable or config file) into a LogLevel, defaulting to LogLevelInfo for
// an empty string.
func GetLogLevel(name string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return LogLevelInfo, nil
	case "error":
		return LogLevelError, nil
	case "warning", "warn":
		return LogLevelWarning, nil
	case "info":
		return LogLevelInfo, nil
	case "debug":
		return LogLevelDebug, nil
	case "verbose":
		return LogLevelVerbose, nil
	default:
		return LogLevelNonMessage, ucerr.Errorf("unknown log level %q", name)
	}
}

// LogEvent is a single unit of log output: either a formatted message, or a
// named counter increment (or both).
type LogEvent struct {
	LogLevel LogLevel
	Name     string
	Message  string
	Payload  string
	Count    int
}

// TransportConfig is the subset of configuration common to every transport.
type TransportConfig struct {
	Required    bool     `yaml:"required" json:"required"`
	MaxLogLevel LogLevel `yaml:"max_log_level" json:"max_log_level"`
}

// LogTransportStats reports basic operational counters for a transport.
type LogTransportStats struct {
	Name              string `json:"name"`
	SentEventCount    int    `json:"sent_event_count"`
	DroppedEventCount int    `json:"dropped_event_count"`
}

// Transport is a sink for log events. Implementations must be safe for
// concurrent use; Log() may be called from many goroutines handling
// concurrent token requests.
type Transport interface {
	Init() (*TransportConfig, error)
	WriteMessage(ctx context.Context, message string, level LogLevel)
	GetName() string
	GetStats() LogTransportStats
	Close()
}
