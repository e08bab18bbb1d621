package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/ezo/busctx"
	"github.com/mklimuk/ezo/cmd/ezo/console"
	"github.com/mklimuk/ezo/gpio"
	"github.com/mklimuk/ezo/launch"
	"github.com/mklimuk/ezo/pkg/config"
)

var launchCmd = cli.Command{
	Name:  "launch",
	Usage: "start a polling run every time the button is pressed",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return console.Exit(console.CodeUsage, "invalid configuration: %s", console.Red(err))
		}
		ctx, stop := signal.NotifyContext(busctx.WithTrace(c.Context, c.Bool("verbose")), os.Interrupt, syscall.SIGTERM)
		defer stop()
		button, indicator, closeFn, err := openPins(ctx, cfg, c.Int("index"))
		if err != nil {
			return console.Exit(console.CodeFailure, "could not open pins: %s", console.Red(err))
		}
		defer closeFn()
		launcher := &launch.Launcher{
			Button:    button,
			Indicator: indicator,
			Duration:  cfg.Launcher.Duration,
		}
		slog.Info("waiting for button", "button", cfg.Launcher.Button, "indicator", cfg.Launcher.Indicator, "interval", cfg.Launcher.Interval)
		err = launcher.Run(ctx, func(ctx context.Context) error {
			return runPolling(ctx, cfg, c.Int("index"), cfg.Launcher.Interval)
		})
		if err != nil {
			return console.Exit(console.CodeFailure, "launcher failed: %s", console.Red(err))
		}
		return nil
	},
}

// openPins resolves the button and indicator, either native SoC pins
// ("GPIO17") or expander pins ("A0", "B7") when an expander address is set.
func openPins(ctx context.Context, cfg config.Config, index int) (gpio.Input, gpio.Output, func(), error) {
	if cfg.Launcher.Expander == 0 {
		button, err := gpio.OpenInput(cfg.Launcher.Button)
		if err != nil {
			return nil, nil, nil, err
		}
		indicator, err := gpio.OpenOutput(cfg.Launcher.Indicator)
		if err != nil {
			return nil, nil, nil, err
		}
		return button, indicator, func() {}, nil
	}
	bus, err := openBus(cfg, index)
	if err != nil {
		return nil, nil, nil, err
	}
	closeFn := func() {
		if c, ok := bus.(io.Closer); ok {
			_ = c.Close()
		}
	}
	expander := gpio.NewMCP23017(bus, cfg.Launcher.Expander)
	bPort, bPin, err := parseExpanderPin(cfg.Launcher.Button)
	if err != nil {
		closeFn()
		return nil, nil, nil, err
	}
	iPort, iPin, err := parseExpanderPin(cfg.Launcher.Indicator)
	if err != nil {
		closeFn()
		return nil, nil, nil, err
	}
	if err := expander.ConfigurePin(ctx, bPort, bPin, true, false); err != nil {
		closeFn()
		return nil, nil, nil, err
	}
	if err := expander.ConfigurePin(ctx, iPort, iPin, false, false); err != nil {
		closeFn()
		return nil, nil, nil, err
	}
	return expander.Input(bPort, bPin), expander.Output(iPort, iPin), closeFn, nil
}

func parseExpanderPin(name string) (gpio.Port, uint8, error) {
	if len(name) != 2 {
		return 0, 0, fmt.Errorf("expander pin %q must look like A0..B7", name)
	}
	var port gpio.Port
	switch name[0] {
	case 'A', 'a':
		port = gpio.PortA
	case 'B', 'b':
		port = gpio.PortB
	default:
		return 0, 0, fmt.Errorf("unknown expander port in %q", name)
	}
	pin, err := strconv.Atoi(name[1:])
	if err != nil || pin > 7 {
		return 0, 0, fmt.Errorf("expander pin %q must look like A0..B7", name)
	}
	return port, uint8(pin), nil
}
