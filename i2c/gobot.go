package i2c

import (
	"context"
	"errors"
	"fmt"

	gobot "gobot.io/x/gobot/v2/drivers/i2c"

	"github.com/mklimuk/ezo"
	"github.com/mklimuk/ezo/busctx"
)

var _ ezo.Transport = &GobotTransport{}

// GobotTransport drives the bus through a gobot adaptor (e.g. NanoPi NEO).
// Gobot connections are bound to one address, so one is kept per device.
type GobotTransport struct {
	connector gobot.Connector
	bus       int
	conns     map[byte]gobot.Connection
	current   gobot.Connection
	address   byte
}

func NewGobotTransport(connector gobot.Connector, bus int) *GobotTransport {
	return &GobotTransport{
		connector: connector,
		bus:       bus,
		conns:     make(map[byte]gobot.Connection),
	}
}

func (t *GobotTransport) BindAddress(ctx context.Context, address byte) error {
	if address == 0 || address > maxAddress {
		return fmt.Errorf("%w: %#x is not a 7-bit slave address", ezo.ErrAddressBind, address)
	}
	conn, ok := t.conns[address]
	if !ok {
		var err error
		conn, err = t.connector.GetI2cConnection(int(address), t.bus)
		if err != nil {
			t.current = nil
			return fmt.Errorf("%w: bus %d address %#x: %w", ezo.ErrAddressBind, t.bus, address, err)
		}
		t.conns[address] = conn
	}
	t.current = conn
	t.address = address
	return nil
}

func (t *GobotTransport) WriteRaw(ctx context.Context, p []byte) error {
	if t.current == nil {
		return errNotBound
	}
	busctx.Dump(ctx, "gobot write", t.address, p)
	n, err := t.current.Write(p)
	if err != nil {
		return fmt.Errorf("could not write to address %#x: %w", t.address, err)
	}
	if n != len(p) {
		return fmt.Errorf("short write to address %#x: %d of %d bytes", t.address, n, len(p))
	}
	return nil
}

func (t *GobotTransport) ReadRaw(ctx context.Context, n int) ([]byte, error) {
	if t.current == nil {
		return nil, errNotBound
	}
	buf := make([]byte, n)
	k, err := t.current.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("could not read from address %#x: %w", t.address, err)
	}
	busctx.Dump(ctx, "gobot read", t.address, buf[:k])
	return buf[:k], nil
}

func (t *GobotTransport) Close() error {
	var errs []error
	for addr, conn := range t.conns {
		if err := conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("address %#x: %w", addr, err))
		}
	}
	t.conns = make(map[byte]gobot.Connection)
	t.current = nil
	return errors.Join(errs...)
}
