package workflow

import (
	"encoding/json"
	"fmt"
	"time"
)

const defaultEngineTimeout = 10 * time.Second

// Duration is a time.Duration written as a Go duration string ("5s") in
// JSON and environment variables.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// UnmarshalJSON also accepts a bare number of nanoseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*d = Duration(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid duration: %s", data)
	}
	return d.UnmarshalText([]byte(s))
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds workflow initialization parameters.
type Config struct {
	// EngineTimeout bounds every assessment engine call.
	EngineTimeout Duration `json:"engine_timeout,omitempty" env:"ENGINE_TIMEOUT"`
}

// DefaultConfig returns the default workflow configuration.
func DefaultConfig() Config {
	return Config{EngineTimeout: Duration(defaultEngineTimeout)}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.EngineTimeout > 0 {
		c.EngineTimeout = source.EngineTimeout
	}
}
