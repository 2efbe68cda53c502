package logtransports

import (
	"bufio"
	"context"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/sunsided/go-oidcserver/infra/ucerr"
	"github.com/sunsided/go-oidcserver/infra/uclog"
)

const fileTransportName = "file"

func init() {
	registerDecoder(TransportTypeFile, func(value *yaml.Node) (TransportConfig, error) {
		var c FileTransportConfig
		if err := value.Decode(&c); err == nil && c.Type == TransportTypeFile {
			return c, nil
		}
		return nil, ucerr.New("logtransports: not a file transport config")
	})
}

type fileTransport struct {
	config FileTransportConfig

	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	sent   int
}

func newFileTransport(c FileTransportConfig) *fileTransport {
	return &fileTransport{config: c}
}

// Init implements uclog.Transport.
func (t *fileTransport) Init() (*uclog.TransportConfig, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if t.config.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(t.config.Filename, flags, 0o644)
	if err != nil {
		return nil, ucerr.Wrap(err)
	}
	t.file = f
	t.writer = bufio.NewWriter(f)
	return &uclog.TransportConfig{Required: t.config.Required, MaxLogLevel: t.config.MaxLogLevel}, nil
}

// WriteMessage implements uclog.Transport.
func (t *fileTransport) WriteMessage(_ context.Context, message string, _ uclog.LogLevel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.writer == nil {
		return
	}
	if _, err := t.writer.WriteString(message + "\n"); err == nil {
		t.sent++
		_ = t.writer.Flush()
	}
}

// GetName implements uclog.Transport.
func (t *fileTransport) GetName() string { return fileTransportName }

// GetStats implements uclog.Transport.
func (t *fileTransport) GetStats() uclog.LogTransportStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return uclog.LogTransportStats{Name: fileTransportName, SentEventCount: t.sent}
}

// Close implements uclog.Transport.
func (t *fileTransport) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.writer != nil {
		_ = t.writer.Flush()
	}
	if t.file != nil {
		_ = t.file.Close()
	}
}
