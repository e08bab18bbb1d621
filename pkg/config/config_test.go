package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ezo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoad_Overlay(t *testing.T) {
	path := writeConfig(t, `
transport: periph
devices:
  - {name: rtd, address: 102}
  - {name: ec, address: 100}
timeouts:
  long: 900ms
history: /tmp/all.csv
plot:
  listen: ":8080"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, TransportPeriph, cfg.Transport)
	assert.Equal(t, 1, cfg.Bus)
	assert.Equal(t, []DeviceConfig{{Name: "rtd", Address: 102}, {Name: "ec", Address: 100}}, cfg.Devices)
	assert.Equal(t, 900*time.Millisecond, cfg.Timeouts.Long)
	assert.Equal(t, 500*time.Millisecond, cfg.Timeouts.Short)
	assert.Equal(t, "/tmp/all.csv", cfg.History)
	assert.Equal(t, "/home/public/data_one.csv", cfg.Snapshot)
	assert.Equal(t, ":8080", cfg.Plot.Listen)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_UnknownField(t *testing.T) {
	_, err := Load(writeConfig(t, "adress: 100\n"))
	assert.Error(t, err)
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"transport", func(c *Config) { c.Transport = "spi" }},
		{"one device", func(c *Config) { c.Devices = c.Devices[:1] }},
		{"same address", func(c *Config) { c.Devices[1].Address = c.Devices[0].Address }},
		{"address range", func(c *Config) { c.Devices[0].Address = 0x80 }},
		{"zero timeout", func(c *Config) { c.Timeouts.Short = 0 }},
		{"inverted timeouts", func(c *Config) { c.Timeouts.Long = 100 * time.Millisecond }},
		{"no history", func(c *Config) { c.History = "" }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			cfg.Devices = append([]DeviceConfig(nil), cfg.Devices...)
			test.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
