package logtransports

import (
	"context"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sunsided/go-oidcserver/infra/ucerr"
	"github.com/sunsided/go-oidcserver/infra/uclog"
)

const (
	ansiEscape  = "\x1b["
	ansiReset   = "\x1b[0m"
	ansiRed     = "31m"
	ansiYellow  = "33m"
	consoleName = "console"
)

func init() {
	registerDecoder(TransportTypeConsole, func(value *yaml.Node) (TransportConfig, error) {
		var c ConsoleTransportConfig
		// Decode and check Type explicitly: yaml.v3 happily fills an empty
		// struct from an unrelated node, so a zero Type is a non-match.
		if err := value.Decode(&c); err == nil && c.Type == TransportTypeConsole {
			return c, nil
		}
		return nil, ucerr.New("logtransports: not a console transport config")
	})
}

type consoleTransport struct {
	config ConsoleTransportConfig
}

func newConsoleTransport(c ConsoleTransportConfig) *consoleTransport {
	return &consoleTransport{config: c}
}

// Init implements uclog.Transport.
func (t *consoleTransport) Init() (*uclog.TransportConfig, error) {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags)
	return &uclog.TransportConfig{Required: t.config.Required, MaxLogLevel: t.config.MaxLogLevel}, nil
}

// WriteMessage implements uclog.Transport.
func (t *consoleTransport) WriteMessage(_ context.Context, message string, level uclog.LogLevel) {
	if !t.config.SupportsColor {
		log.Println(message)
		return
	}
	switch level {
	case uclog.LogLevelError:
		log.Println(ansiEscape + ansiRed + message + ansiReset)
	case uclog.LogLevelWarning:
		log.Println(ansiEscape + ansiYellow + message + ansiReset)
	default:
		log.Println(message)
	}
}

// GetName implements uclog.Transport.
func (t *consoleTransport) GetName() string { return consoleName }

// GetStats implements uclog.Transport.
func (t *consoleTransport) GetStats() uclog.LogTransportStats {
	return uclog.LogTransportStats{Name: consoleName}
}

// Close implements uclog.Transport.
func (t *consoleTransport) Close() {}
