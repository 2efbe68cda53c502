// Package logtransports wires uclog.Transport implementations from
// declarative YAML configuration, the way a host process assembles its
// logging pipeline once at startup.
package logtransports

import (
	"gopkg.in/yaml.v3"

	"github.com/sunsided/go-oidcserver/infra/ucerr"
	"github.com/sunsided/go-oidcserver/infra/uclog"
)

// TransportType identifies which concrete transport a Config entry builds.
type TransportType string

// Supported transport types.
const (
	TransportTypeConsole TransportType = "console"
	TransportTypeFile    TransportType = "file"
)

// Config is the top-level logging configuration for a host process.
type Config struct {
	Transports TransportConfigs `yaml:"transports" json:"transports"`
}

// TransportConfig builds a concrete uclog.Transport from configuration.
type TransportConfig interface {
	GetType() TransportType
	GetTransport() uclog.Transport
}

// TransportConfigs is a named slice of TransportConfig so it can implement
// yaml.Unmarshaler: TransportConfig is an interface, and yaml.v3 cannot
// construct a concrete value from a bare interface slice on its own.
type TransportConfigs []TransportConfig

// UnmarshalYAML implements yaml.Unmarshaler, decoding each sequence entry
// through the registered decoders until one claims it.
func (t *TransportConfigs) UnmarshalYAML(value *yaml.Node) error {
	var entries []intermediateConfig
	if err := value.Decode(&entries); err != nil {
		return ucerr.Wrap(err)
	}

	if *t == nil {
		*t = make(TransportConfigs, 0, len(entries))
	}
	for _, e := range entries {
		*t = append(*t, e.c)
	}
	return nil
}

// intermediateConfig defers deciding a transport's concrete type until its
// decoders have had a chance to claim the YAML node.
type intermediateConfig struct {
	c TransportConfig
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (i *intermediateConfig) UnmarshalYAML(value *yaml.Node) error {
	for _, d := range decoders {
		if c, err := d(value); err == nil {
			i.c = c
			return nil
		}
	}
	return ucerr.New("logtransports: unknown transport config type")
}

// decoders lets each transport file register itself without config.go
// needing to know about every concrete TransportConfig.
var decoders = make(map[TransportType]func(*yaml.Node) (TransportConfig, error))

// registerDecoder is called from each transport's init().
func registerDecoder(name TransportType, f func(*yaml.Node) (TransportConfig, error)) {
	decoders[name] = f
}

// ConsoleTransportConfig configures the standard-out transport.
type ConsoleTransportConfig struct {
	Type                  TransportType `yaml:"type" json:"type"`
	uclog.TransportConfig `yaml:",inline" json:",inline"`
	SupportsColor         bool `yaml:"supports_color" json:"supports_color"`
}

// GetType implements TransportConfig.
func (c ConsoleTransportConfig) GetType() TransportType { return TransportTypeConsole }

// GetTransport implements TransportConfig.
func (c ConsoleTransportConfig) GetTransport() uclog.Transport {
	return newConsoleTransport(c)
}

// FileTransportConfig configures the file transport (one file, truncated or
// appended to; no rotation).
type FileTransportConfig struct {
	Type                  TransportType `yaml:"type" json:"type"`
	uclog.TransportConfig `yaml:",inline" json:",inline"`
	Filename              string `yaml:"filename" json:"filename"`
	Append                bool   `yaml:"append" json:"append"`
}

// GetType implements TransportConfig.
func (c FileTransportConfig) GetType() TransportType { return TransportTypeFile }

// GetTransport implements TransportConfig.
func (c FileTransportConfig) GetTransport() uclog.Transport {
	return newFileTransport(c)
}

// Init builds and registers every transport described by cfg. It is the
// logtransports equivalent of the teacher's InitLoggerAndTransportsForService.
func Init(cfg Config) {
	transports := make([]uclog.Transport, 0, len(cfg.Transports))
	for _, tc := range cfg.Transports {
		transports = append(transports, tc.GetTransport())
	}
	uclog.Init(transports)
}
