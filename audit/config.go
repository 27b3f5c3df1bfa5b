package audit

import "time"

const defaultWriteTimeout = 10 * time.Second

// Config holds audit sink initialization parameters. With no brokers the
// sink discards records.
type Config struct {
	Brokers []string `json:"brokers,omitempty" env:"BROKERS" envSeparator:","`
	Topic   string   `json:"topic,omitempty" env:"TOPIC"`
}

// DefaultConfig returns the default audit configuration.
func DefaultConfig() Config {
	return Config{Topic: "clinical.review.decisions"}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if len(source.Brokers) > 0 {
		c.Brokers = source.Brokers
	}
	if source.Topic != "" {
		c.Topic = source.Topic
	}
}

// New creates a Sink from configuration.
func New(cfg *Config) Sink {
	if len(cfg.Brokers) == 0 {
		return NoOp{}
	}
	return NewKafkaSink(NewKafkaWriter(cfg.Brokers, cfg.Topic, defaultWriteTimeout))
}
