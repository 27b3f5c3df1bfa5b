package intake

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/caarlos0/env/v11"
	"github.com/tailored-agentic-units/intake/audit"
	"github.com/tailored-agentic-units/intake/engine"
	"github.com/tailored-agentic-units/intake/observability"
	"github.com/tailored-agentic-units/intake/store"
	"github.com/tailored-agentic-units/intake/workflow"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ORTHO_CLINICAL_"

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `json:"host,omitempty" env:"HOST"`
	Port int    `json:"port,omitempty" env:"PORT"`
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Config holds initialization parameters for every subsystem.
// Each section delegates to that subsystem's config-driven constructor.
type Config struct {
	Service         string                      `json:"service,omitempty" env:"SERVICE"`
	Server          ServerConfig                `json:"server"`
	DemoClinicianID string                      `json:"demo_clinician_id,omitempty" env:"DEMO_CLINICIAN_ID"`
	Workflow        workflow.Config             `json:"workflow"`
	Store           store.Config                `json:"store" envPrefix:"STORE_"`
	Engine          engine.Config               `json:"engine" envPrefix:"ENGINE_"`
	Audit           audit.Config                `json:"audit" envPrefix:"KAFKA_"`
	Tracing         observability.TracingConfig `json:"tracing" envPrefix:"OTEL_"`
	Observers       string                      `json:"observers,omitempty" env:"OBSERVERS"` // comma-separated registry names
}

// DefaultConfig returns a Config with defaults for all subsystems. The
// engine defaults to the built-in scripted flow.
func DefaultConfig() Config {
	eng := engine.DefaultConfig()
	eng.Kind = engine.KindScripted

	return Config{
		Service:         "ortho-clinical",
		Server:          ServerConfig{Host: "0.0.0.0", Port: 8000},
		DemoClinicianID: "demo_clinician",
		Workflow:        workflow.DefaultConfig(),
		Store:           store.DefaultConfig(),
		Engine:          eng,
		Audit:           audit.DefaultConfig(),
		Observers:       "slog",
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	c.Workflow.Merge(&source.Workflow)
	c.Store.Merge(&source.Store)
	c.Engine.Merge(&source.Engine)
	c.Audit.Merge(&source.Audit)
	c.Tracing.Merge(&source.Tracing)

	if source.Service != "" {
		c.Service = source.Service
	}
	if source.Server.Host != "" {
		c.Server.Host = source.Server.Host
	}
	if source.Server.Port > 0 {
		c.Server.Port = source.Server.Port
	}
	if source.DemoClinicianID != "" {
		c.DemoClinicianID = source.DemoClinicianID
	}
	if source.Observers != "" {
		c.Observers = source.Observers
	}
}

// ApplyEnv overrides c with any ORTHO_CLINICAL_* environment variables that
// are set. Unset variables leave the current values in place.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadConfig merges the JSON config file, if any, over defaults and then
// applies environment overrides.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		var loaded Config
		if err := json.Unmarshal(data, &loaded); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		cfg.Merge(&loaded)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
