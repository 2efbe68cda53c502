package testlogtransport

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/sunsided/go-oidcserver/infra/assert"
	"github.com/sunsided/go-oidcserver/infra/uclog"
)

// InitLoggerAndTransportsForTests configures logging to capture into `go test` output.
func InitLoggerAndTransportsForTests(t *testing.T) *TransportTest {
	logLevel, err := uclog.GetLogLevel(os.Getenv("TEST_LOG_LEVEL"))
	if err != nil {
		logLevel = uclog.LogLevelDebug
	}
	return InitLoggerAndTransportsForTestsWithLevel(t, logLevel)
}

// InitLoggerAndTransportsForTestsWithLevel configures logging to use golang test logging with a specific log level
func InitLoggerAndTransportsForTestsWithLevel(t *testing.T, logLevel uclog.LogLevel) *TransportTest {
	ttc := uclog.TransportConfig{
		Required:    true,
		MaxLogLevel: logLevel,
	}
	tt := TransportTest{
		t:      t,
		config: ttc,
	}
	transports := []uclog.Transport{&tt}
	uclog.PreInit(transports)
	t.Cleanup(tt.Close)
	return &tt
}

// TransportTest is a test log transport that records messages by level and
// lets a test assert on what the core actually logged.
type TransportTest struct {
	t           *testing.T
	config      uclog.TransportConfig
	logMutex    sync.Mutex
	LogMessages map[uclog.LogLevel][]string
	testEnded   bool
}

// Init initializes the test transport
func (tt *TransportTest) Init() (*uclog.TransportConfig, error) {
	tt.LogMessages = make(map[uclog.LogLevel][]string)
	return &tt.config, nil
}

// WriteMessage implements uclog.Transport.
func (tt *TransportTest) WriteMessage(_ context.Context, message string, level uclog.LogLevel) {
	tt.t.Helper()

	tt.logMutex.Lock()
	defer tt.logMutex.Unlock()
	if tt.testEnded || message == "" {
		return
	}
	tt.LogMessages[level] = append(tt.LogMessages[level], message)
	tt.t.Log(message)
}

// GetLogMessagesByLevel returns log messages by level
func (tt *TransportTest) GetLogMessagesByLevel(level uclog.LogLevel) []string {
	tt.logMutex.Lock()
	defer tt.logMutex.Unlock()
	return tt.LogMessages[level]
}

// AssertMessagesByLogLevel asserts that the number of messages logged at a particular level is as expected
func (tt *TransportTest) AssertMessagesByLogLevel(level uclog.LogLevel, expected int, opts ...assert.Option) {
	tt.t.Helper()
	got := len(tt.GetLogMessagesByLevel(level))
	opts = append(opts, assert.Errorf("Expected %d messages at level %v, got %d", expected, level, got))
	assert.Equal(tt.t, got, expected, opts...)
}

// LogsContainString returns whether any of the logged messages contain the given string
func (tt *TransportTest) LogsContainString(s string) bool {
	tt.logMutex.Lock()
	defer tt.logMutex.Unlock()
	for level := range tt.LogMessages {
		for _, m := range tt.LogMessages[level] {
			if strings.Contains(m, s) {
				return true
			}
		}
	}
	return false
}

// ClearMessages clears all logged messages
func (tt *TransportTest) ClearMessages() {
	tt.logMutex.Lock()
	defer tt.logMutex.Unlock()
	tt.LogMessages = make(map[uclog.LogLevel][]string)
}

// GetStats returns stats
func (tt *TransportTest) GetStats() uclog.LogTransportStats {
	return uclog.LogTransportStats{Name: tt.GetName()}
}

// GetName returns transport name
func (tt *TransportTest) GetName() string {
	return "TestTransport"
}

// Close prevents writing to the transport after a test ends
// see https://github.com/golang/go/issues/40343
func (tt *TransportTest) Close() {
	tt.logMutex.Lock()
	defer tt.logMutex.Unlock()
	tt.testEnded = true
}
