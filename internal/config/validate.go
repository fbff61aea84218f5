package config

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format)
	}
	if c.Probe.DumpFrames < 0 {
		return fmt.Errorf("probe.dump_frames must be >= 0, got %d", c.Probe.DumpFrames)
	}
	if c.Probe.BufferSize <= 0 {
		return fmt.Errorf("probe.buffer_size must be > 0, got %d", c.Probe.BufferSize)
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr required when metrics are enabled")
	}
	return nil
}
