package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `dispatch:
  preset: rapid
  welcome_delay_ms: -1
  skip_payment: true
catalog:
  path: pods.yaml
metrics:
  sinks:
    - type: "prometheus"
  prometheus_addr: ":2112"
journal:
  enabled: true
  backend: sqlite
mqtt:
  broker: "tcp://localhost:1883"
  client_id: "cli"
  topic_prefix: "fleet/"
http:
  addr: ":9000"
  token: "t0k"
logging:
  level: debug
  file: out.log
map:
  query: "cyber city"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"preset", cfg.Dispatch.Preset, "rapid"},
		{"welcome_delay_ms", cfg.Dispatch.WelcomeDelayMS, -1},
		{"skip_payment", cfg.Dispatch.SkipPayment, true},
		{"battery_start default", cfg.Dispatch.BatteryStart, 7},
		{"catalog", cfg.Catalog.Path, "pods.yaml"},
		{"metrics_sink", cfg.Metrics.HasSink("prometheus"), true},
		{"prometheus_addr", cfg.Metrics.PrometheusAddr, ":2112"},
		{"journal backend", cfg.Journal.Backend, "sqlite"},
		{"journal path default", cfg.Journal.Path, "xcharge-journal.db"},
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"client_id", cfg.MQTT.ClientID, "cli"},
		{"topic_prefix", cfg.MQTT.TopicPrefix, "fleet"},
		{"lwt", cfg.MQTT.LWTTopic, "fleet/status"},
		{"http", cfg.HTTP.Addr, ":9000"},
		{"token", cfg.HTTP.Token, "t0k"},
		{"log level", cfg.Logging.Level, "debug"},
		{"log file", cfg.Logging.File, "out.log"},
		{"map query", cfg.Map.Query, "cyber city"},
		{"map zoom default", cfg.Map.Zoom, 14},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 1600, cfg.Dispatch.WelcomeDelayMS)
	assert.Equal(t, 3, cfg.Dispatch.BatteryFloor)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "gurugram", cfg.Map.Query)
	assert.False(t, cfg.MQTT.Enabled())
	assert.False(t, cfg.Journal.Enabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("XC_DISPATCH__SKIP_PAYMENT", "true")
	t.Setenv("XC_DISPATCH__BATTERY_START", "9")
	t.Setenv("XC_HTTP__ADDR", ":7000")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Dispatch.SkipPayment)
	assert.Equal(t, 9, cfg.Dispatch.BatteryStart)
	assert.Equal(t, ":7000", cfg.HTTP.Addr)
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"dispatch":{"battery_start":12}}`), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Dispatch.BatteryStart)
}

func TestLoadRejects(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "config.toml"))
	assert.Error(t, err)

	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dispatch:\n  preset: warp\n"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "dispatch")

	require.NoError(t, os.WriteFile(path, []byte("map:\n  zoom: 40\n"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "map")
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "info", cfg.Logging.Level)
}
