package logger

import "fmt"

// Config defines the application log output.
type Config struct {
	// Level is a zerolog level name: debug, info, warn or error.
	Level string `json:"level"`
	// Format is "json" or "console". Empty selects console when APP_ENV=dev.
	Format string `json:"format"`
	// File redirects logs to a rotated file. The interactive view sets it so
	// log lines do not corrupt the terminal.
	File       string `json:"file"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 10
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = 3
	}
}

// Validate checks the output format.
func (c Config) Validate() error {
	switch c.Format {
	case "", "json", "console":
		return nil
	}
	return fmt.Errorf("unknown log format %q", c.Format)
}
