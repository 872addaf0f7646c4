package kafka

import "time"

type Config struct {
	Brokers      []string
	BatchTimeout time.Duration
	MaxAttempts  int
	RequireAcks  int
	Async        bool
}

func (c *Config) applyDefaults() {
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = 100 * time.Millisecond
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
}
