package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/xcharge/core/dispatch"
	"github.com/kilianp07/xcharge/core/journal"
	"github.com/kilianp07/xcharge/core/metrics"
	"github.com/kilianp07/xcharge/infra/logger"
	"github.com/kilianp07/xcharge/infra/mapview"
	"github.com/kilianp07/xcharge/infra/mqtt"
)

// EnvPrefix is the prefix of environment overrides. XC_DISPATCH__SKIP_PAYMENT=true
// sets dispatch.skip_payment.
const EnvPrefix = "XC_"

type Config struct {
	Dispatch dispatch.Config `json:"dispatch"`
	Catalog  CatalogConfig   `json:"catalog"`
	Metrics  metrics.Config  `json:"metrics"`
	Journal  journal.Config  `json:"journal"`
	MQTT     mqtt.Config     `json:"mqtt"`
	Sentry   SentryConfig    `json:"sentry"`
	HTTP     HTTPConfig      `json:"http"`
	Logging  logger.Config   `json:"logging"`
	Map      mapview.Config  `json:"map"`
}

// CatalogConfig points at an optional pod catalog file replacing the
// embedded one.
type CatalogConfig struct {
	Path string `json:"path"`
}

// HTTPConfig configures the API served by `xcharge serve`.
type HTTPConfig struct {
	Addr string `json:"addr"`
	// Token, when set, must be sent as a bearer token on mutating and
	// journal requests.
	Token string `json:"token"`
}

func (c *HTTPConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}

// Default returns a configuration with every section defaulted.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// Load reads path, applies XC_ environment overrides, then defaults and
// validation. An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if Exists(path) {
			if err := k.Load(file.Provider(path), parser); err != nil {
				return nil, err
			}
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
}

func envKey(s string) string {
	s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Exists reports whether a config file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (c *Config) SetDefaults() {
	c.Dispatch.SetDefaults()
	c.Journal.SetDefaults()
	c.MQTT.SetDefaults()
	c.HTTP.SetDefaults()
	c.Logging.SetDefaults()
	c.Map.SetDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Dispatch.Validate(); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	if c.Journal.Enabled {
		if err := c.Journal.Validate(); err != nil {
			return fmt.Errorf("journal: %w", err)
		}
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Map.Validate(); err != nil {
		return fmt.Errorf("map: %w", err)
	}
	if c.Sentry.TracesSampleRate < 0 || c.Sentry.TracesSampleRate > 1 {
		return fmt.Errorf("sentry: traces_sample_rate must be within 0..1")
	}
	return nil
}
