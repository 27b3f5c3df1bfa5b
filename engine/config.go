package engine

import (
	"fmt"
	"net/http"
)

// Engine kinds accepted by Config.Kind.
const (
	KindScripted = "scripted"
	KindRemote   = "remote"
)

// Config holds assessment engine initialization parameters.
type Config struct {
	Kind       string `json:"kind,omitempty" env:"KIND"`
	ScriptPath string `json:"script_path,omitempty" env:"SCRIPT_PATH"` // scripted flow document; empty uses DefaultScript
	URL        string `json:"url,omitempty" env:"URL"`                 // remote engine base URL
	Version    string `json:"version,omitempty" env:"VERSION"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		Kind:    KindRemote,
		Version: "1.0.0",
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Kind != "" {
		c.Kind = source.Kind
	}
	if source.ScriptPath != "" {
		c.ScriptPath = source.ScriptPath
	}
	if source.URL != "" {
		c.URL = source.URL
	}
	if source.Version != "" {
		c.Version = source.Version
	}
}

// New creates an Engine from configuration.
func New(cfg *Config, httpClient *http.Client) (Engine, error) {
	switch cfg.Kind {
	case KindScripted:
		script, err := DefaultScript()
		if cfg.ScriptPath != "" {
			script, err = LoadScript(cfg.ScriptPath)
		}
		if err != nil {
			return nil, err
		}
		return NewScripted(script)
	case KindRemote:
		if cfg.URL == "" {
			return nil, fmt.Errorf("remote engine requires url")
		}
		if httpClient == nil {
			httpClient = http.DefaultClient
		}
		return NewRemote(httpClient, cfg.URL, cfg.Version), nil
	default:
		return nil, fmt.Errorf("unknown engine kind: %s", cfg.Kind)
	}
}
