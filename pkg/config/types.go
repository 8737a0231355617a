package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/getmockd/mockapi/pkg/logging"
	"github.com/getmockd/mockapi/pkg/store"
)

// Defaults.
const (
	DefaultPort                  = 4280
	DefaultPrefix                = "/api/v1"
	DefaultReadTimeout           = 30
	DefaultWriteTimeout          = 30
	DefaultShutdownTimeout       = 10
	DefaultDependentTimeout      = 10
	DefaultMaxDependentDepth     = 4
	DefaultWebhookTimeout        = 5
	DefaultMaxBodySize       int = 10 << 20
)

// ServerConfiguration is the complete runtime configuration.
type ServerConfiguration struct {
	Server   ServerSettings   `json:"server" yaml:"server"`
	Logging  LoggingSettings  `json:"logging" yaml:"logging"`
	Dispatch DispatchSettings `json:"dispatch" yaml:"dispatch"`
	Store    store.Config     `json:"store" yaml:"store"`
	Catalog  CatalogSettings  `json:"catalog" yaml:"catalog"`
}

// ServerSettings configures the HTTP listener.
type ServerSettings struct {
	Port int `json:"port" yaml:"port"`
	// Host is the bind address; empty binds all interfaces.
	Host string `json:"host,omitempty" yaml:"host,omitempty"`
	// Prefix is where the dispatcher is mounted.
	Prefix string `json:"prefix" yaml:"prefix"`
	// Timeouts are in seconds.
	ReadTimeout     int `json:"readTimeout,omitempty" yaml:"readTimeout,omitempty"`
	WriteTimeout    int `json:"writeTimeout,omitempty" yaml:"writeTimeout,omitempty"`
	ShutdownTimeout int `json:"shutdownTimeout,omitempty" yaml:"shutdownTimeout,omitempty"`
}

// LoggingSettings configures the operational logger.
type LoggingSettings struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// DispatchSettings tunes the dispatcher.
type DispatchSettings struct {
	// DependentTimeout bounds one dependent evaluation, in seconds.
	DependentTimeout int `json:"dependentTimeout,omitempty" yaml:"dependentTimeout,omitempty"`
	// DependentBaseURL sends dependent calls over HTTP instead of in process.
	DependentBaseURL  string `json:"dependentBaseUrl,omitempty" yaml:"dependentBaseUrl,omitempty"`
	MaxDependentDepth int    `json:"maxDependentDepth,omitempty" yaml:"maxDependentDepth,omitempty"`
	// WebhookTimeout bounds one webhook delivery, in seconds.
	WebhookTimeout  int  `json:"webhookTimeout,omitempty" yaml:"webhookTimeout,omitempty"`
	SerializeWrites bool `json:"serializeWrites,omitempty" yaml:"serializeWrites,omitempty"`
	MaxBodySize     int  `json:"maxBodySize,omitempty" yaml:"maxBodySize,omitempty"`
}

// CatalogSettings lists catalog file patterns.
type CatalogSettings struct {
	Files []string `json:"files,omitempty" yaml:"files,omitempty"`
}

// DefaultServerConfiguration returns a ServerConfiguration with defaults applied.
func DefaultServerConfiguration() *ServerConfiguration {
	return &ServerConfiguration{
		Server: ServerSettings{
			Port:            DefaultPort,
			Prefix:          DefaultPrefix,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Logging: LoggingSettings{
			Level:  "info",
			Format: string(logging.FormatText),
		},
		Dispatch: DispatchSettings{
			DependentTimeout:  DefaultDependentTimeout,
			MaxDependentDepth: DefaultMaxDependentDepth,
			WebhookTimeout:    DefaultWebhookTimeout,
			MaxBodySize:       DefaultMaxBodySize,
		},
		Store: store.DefaultConfig(),
	}
}

// Addr returns the listen address.
func (s ServerSettings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Seconds converts a seconds setting to a duration.
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// Validate reports every invalid setting.
func (c *ServerConfiguration) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port: %d out of range", c.Server.Port))
	}
	if !strings.HasPrefix(c.Server.Prefix, "/") {
		errs = append(errs, fmt.Errorf("server.prefix: %q must start with /", c.Server.Prefix))
	}
	if strings.HasPrefix(c.Server.Prefix, "/__mockapi") {
		errs = append(errs, fmt.Errorf("server.prefix: %q is reserved", c.Server.Prefix))
	}
	for name, v := range map[string]int{
		"server.readTimeout":         c.Server.ReadTimeout,
		"server.writeTimeout":        c.Server.WriteTimeout,
		"server.shutdownTimeout":     c.Server.ShutdownTimeout,
		"dispatch.dependentTimeout":  c.Dispatch.DependentTimeout,
		"dispatch.maxDependentDepth": c.Dispatch.MaxDependentDepth,
		"dispatch.webhookTimeout":    c.Dispatch.WebhookTimeout,
		"dispatch.maxBodySize":       c.Dispatch.MaxBodySize,
	} {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s: must not be negative", name))
		}
	}
	switch c.Store.Backend {
	case store.BackendMemory, store.BackendFile:
	case store.BackendMongo:
		if c.Store.MongoURI == "" {
			errs = append(errs, errors.New("store.mongoUri: required for the mongo backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend: unknown backend %q", c.Store.Backend))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", string(logging.FormatText), string(logging.FormatJSON):
	default:
		errs = append(errs, fmt.Errorf("logging.format: unknown format %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

// LoggerConfig converts the settings for logging.New.
func (l LoggingSettings) LoggerConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(l.Level)
	cfg.Format = logging.ParseFormat(l.Format)
	return cfg
}
