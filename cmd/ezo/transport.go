package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/ezo"
	"github.com/mklimuk/ezo/adapter"
	"github.com/mklimuk/ezo/i2c"
	"github.com/mklimuk/ezo/pkg/config"
)

// openTransport opens the bus both probes are attached to.
func openTransport(cfg config.Config, index int) (ezo.Transport, error) {
	switch cfg.Transport {
	case config.TransportDev:
		dev, err := i2c.OpenDev(cfg.Bus)
		if err != nil {
			return nil, err
		}
		return dev, nil
	case config.TransportPeriph, config.TransportMCP2221:
		bus, err := openBus(cfg, index)
		if err != nil {
			return nil, err
		}
		return i2c.NewBusTransport(bus), nil
	case config.TransportNanoPi:
		npi := nanopi.NewNeoAdaptor()
		if err := npi.I2cBusAdaptor.Connect(); err != nil {
			return nil, fmt.Errorf("%w: adaptor connect error: %w", ezo.ErrTransportOpen, err)
		}
		return &nanopiTransport{
			GobotTransport: i2c.NewGobotTransport(npi, cfg.Bus),
			finalize:       npi.I2cBusAdaptor.Finalize,
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown transport %q", ezo.ErrTransportOpen, cfg.Transport)
}

// openBus opens an addressable bus, used by transports and by the port expander.
func openBus(cfg config.Config, index int) (ezo.I2CBus, error) {
	if cfg.Transport == config.TransportMCP2221 {
		bridge := adapter.NewMCP2221(index)
		if err := bridge.Init(); err != nil {
			return nil, fmt.Errorf("%w: %w", ezo.ErrTransportOpen, err)
		}
		return bridge, nil
	}
	bus, err := i2c.NewGenericBus(strconv.Itoa(cfg.Bus))
	if err != nil {
		return nil, err
	}
	// EZO circuits misbehave above standard mode with long bus wiring
	if err := bus.SetSpeed(100 * physic.KiloHertz); err != nil {
		slog.Warn("could not set bus speed, keeping default", "error", err)
	}
	return bus, nil
}

// nanopiTransport releases the board adaptor together with the connections.
type nanopiTransport struct {
	*i2c.GobotTransport
	finalize func() error
}

func (t *nanopiTransport) Close() error {
	return errors.Join(t.GobotTransport.Close(), t.finalize())
}
