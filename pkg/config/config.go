// Package config holds the runtime configuration of the poller.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mklimuk/ezo/atlas"
)

// Version is injected at build time.
var Version = "dev"

const (
	TransportDev     = "dev"
	TransportPeriph  = "periph"
	TransportNanoPi  = "nanopi"
	TransportMCP2221 = "mcp2221"
)

type Config struct {
	Transport string         `yaml:"transport"`
	Bus       int            `yaml:"bus"`
	Devices   []DeviceConfig `yaml:"devices"`
	Timeouts  TimeoutConfig  `yaml:"timeouts"`
	History   string         `yaml:"history"`
	Snapshot  string         `yaml:"snapshot"`
	Plot      PlotConfig     `yaml:"plot"`
	Launcher  LauncherConfig `yaml:"launcher"`
}

type DeviceConfig struct {
	Name    string `yaml:"name"`
	Address uint8  `yaml:"address"`
}

type TimeoutConfig struct {
	Long  time.Duration `yaml:"long"`
	Short time.Duration `yaml:"short"`
}

// PlotConfig enables the websocket display when Listen is set (e.g. ":8080").
type PlotConfig struct {
	Listen string `yaml:"listen"`
}

type LauncherConfig struct {
	Button    string        `yaml:"button"`
	Indicator string        `yaml:"indicator"`
	Interval  time.Duration `yaml:"interval"`
	// Duration bounds each triggered run; zero runs until interrupted.
	Duration time.Duration `yaml:"duration"`
	// Expander selects MCP23017 pins (address, e.g. 0x20) instead of native GPIO.
	Expander uint8 `yaml:"expander"`
}

func Default() Config {
	return Config{
		Transport: TransportDev,
		Bus:       1,
		Devices: []DeviceConfig{
			{Name: "t0", Address: 100},
			{Name: "t1", Address: 102},
		},
		Timeouts: TimeoutConfig{
			Long:  atlas.DefaultLongTimeout,
			Short: atlas.DefaultShortTimeout,
		},
		History:  "/home/public/data_all.csv",
		Snapshot: "/home/public/data_one.csv",
		Launcher: LauncherConfig{
			Button:    "GPIO17",
			Indicator: "GPIO4",
			Interval:  60 * time.Second,
		},
	}
}

// Load overlays the YAML file at path on the defaults. An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("could not open config: %w", err)
	}
	defer func() { _ = f.Close() }()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("could not decode config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	switch c.Transport {
	case TransportDev, TransportPeriph, TransportNanoPi, TransportMCP2221:
	default:
		errs = append(errs, fmt.Errorf("unknown transport %q", c.Transport))
	}
	if c.Bus < 0 {
		errs = append(errs, fmt.Errorf("bus must be >= 0, got %d", c.Bus))
	}
	if len(c.Devices) != 2 {
		errs = append(errs, fmt.Errorf("exactly 2 devices required, got %d", len(c.Devices)))
	}
	seen := map[uint8]bool{}
	for i, d := range c.Devices {
		if d.Address == 0 || d.Address > 0x7F {
			errs = append(errs, fmt.Errorf("device %d: address %d is not a 7-bit address", i, d.Address))
		}
		if seen[d.Address] {
			errs = append(errs, fmt.Errorf("device %d: address %d used twice", i, d.Address))
		}
		seen[d.Address] = true
	}
	if c.Timeouts.Short <= 0 || c.Timeouts.Long <= 0 {
		errs = append(errs, errors.New("timeouts must be > 0"))
	} else if c.Timeouts.Long < c.Timeouts.Short {
		errs = append(errs, errors.New("long timeout must not be shorter than short timeout"))
	}
	if c.History == "" || c.Snapshot == "" {
		errs = append(errs, errors.New("history and snapshot paths are required"))
	}
	if c.Launcher.Duration < 0 {
		errs = append(errs, errors.New("launcher duration must be >= 0"))
	}
	return errors.Join(errs...)
}

// SessionTimeouts converts the configured waits for atlas sessions.
func (c Config) SessionTimeouts() atlas.Timeouts {
	return atlas.Timeouts{Long: c.Timeouts.Long, Short: c.Timeouts.Short}
}
