package uclog

import (
	"context"
	"log"
	"sync"

	"github.com/sunsided/go-oidcserver/infra/request"
	"github.com/sunsided/go-oidcserver/infra/ucerr"
)

type loggerStatus int

const (
	loggerNotInitialized loggerStatus = iota
	loggerPreInitialized
	loggerInitialized
	loggerShuttingDown
)

type loggerData struct {
	mu         sync.RWMutex
	transports []Transport
	configs    []TransportConfig
	state      loggerStatus
}

var inst = loggerData{state: loggerNotInitialized}

// PreInit wires transports before full configuration (e.g. package-level
// bootstrap code, or `go test` setup) has been read.
func PreInit(transports []Transport) {
	initialize(loggerPreInitialized, transports)
}

// Init configures logging for a long-running server process.
func Init(transports []Transport) {
	initialize(loggerInitialized, transports)
}

func initialize(state loggerStatus, transports []Transport) {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	inst.state = state
	inst.transports = inst.transports[:0]
	inst.configs = inst.configs[:0]

	for _, t := range transports {
		c, err := t.Init()
		if err != nil {
			if c != nil && c.Required {
				log.Fatalf("uclog: required transport %s failed to initialize: %v", t.GetName(), err)
			}
			continue
		}
		inst.transports = append(inst.transports, t)
		inst.configs = append(inst.configs, *c)
	}
}

// AddTransport registers an additional transport after initialization.
func AddTransport(t Transport) error {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	if inst.state == loggerNotInitialized || inst.state == loggerShuttingDown {
		return ucerr.New("uclog: logger is not in a valid state to add a transport")
	}
	c, err := t.Init()
	if err != nil {
		return ucerr.Wrap(err)
	}
	inst.transports = append(inst.transports, t)
	inst.configs = append(inst.configs, *c)
	return nil
}

// GetStats returns per-transport operational counters.
func GetStats() []LogTransportStats {
	inst.mu.RLock()
	defer inst.mu.RUnlock()

	stats := make([]LogTransportStats, 0, len(inst.transports))
	for _, t := range inst.transports {
		stats = append(stats, t.GetStats())
	}
	return stats
}

// Close shuts down every registered transport.
func Close() {
	inst.mu.Lock()
	inst.state = loggerShuttingDown
	transports := inst.transports
	inst.mu.Unlock()

	for _, t := range transports {
		t.Close()
	}
}

// Log dispatches an event to every transport whose MaxLogLevel admits it.
func Log(ctx context.Context, event LogEvent) {
	inst.mu.RLock()
	defer inst.mu.RUnlock()

	if inst.state != loggerPreInitialized && inst.state != loggerInitialized {
		return
	}
	if event.Message == "" {
		return
	}

	if id := request.GetRequestID(ctx); !id.IsNil() {
		event.Message = id.String() + ": " + event.Message
	}

	for i, t := range inst.transports {
		if event.LogLevel <= inst.configs[i].MaxLogLevel {
			t.WriteMessage(ctx, event.Message, event.LogLevel)
		}
	}
}
