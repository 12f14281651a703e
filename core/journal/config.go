package journal

import (
	"fmt"

	"github.com/kilianp07/xcharge/core/events"
)

// Backends accepted by Config.Backend.
const (
	BackendJSONL  = "jsonl"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config defines settings for journal storage and rotation.
type Config struct {
	// Enabled turns journaling on.
	Enabled bool `json:"enabled"`
	// Backend selects the store type: "jsonl", "sqlite" or "memory".
	Backend string `json:"backend"`
	// Path is the file location of the store.
	Path string `json:"path"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
	// Counters also journals the battery, load, trivia and countdown ticks.
	Counters bool `json:"counters"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendJSONL
	}
	if c.Path == "" {
		switch c.Backend {
		case BackendSQLite:
			c.Path = "xcharge-journal.db"
		default:
			c.Path = "xcharge-journal.jsonl"
		}
	}
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 10
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendJSONL, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("unknown journal backend %s", c.Backend)
	}
	if c.Backend != BackendMemory && c.Path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}

// Types returns the event types the journal keeps.
func (c Config) Types() []string {
	t := []string{events.TypeStage, events.TypeOverlay, events.TypeArrival, events.TypeRejected}
	if c.Counters {
		t = append(t, events.TypeCounter)
	}
	return t
}

// Open creates the store selected by cfg.
func Open(cfg Config) (Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case BackendSQLite:
		return NewSQLiteStore(cfg.Path)
	case BackendMemory:
		return NewMemoryStore(10000), nil
	default:
		return NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	}
}
