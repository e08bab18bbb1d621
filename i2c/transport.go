package i2c

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mklimuk/ezo"
)

var errNotBound = errors.New("transport has no bound address")

// maxAddress is the highest 7-bit slave address.
const maxAddress = 0x7F

var _ ezo.Transport = &BusTransport{}

// BusTransport turns an addressable bus into a Transport. The bound address
// is remembered and attached to every following transaction.
type BusTransport struct {
	bus     ezo.I2CBus
	address byte
	bound   bool
}

func NewBusTransport(bus ezo.I2CBus) *BusTransport {
	return &BusTransport{bus: bus}
}

func (t *BusTransport) BindAddress(ctx context.Context, address byte) error {
	t.bound = false
	if address == 0 || address > maxAddress {
		return fmt.Errorf("%w: %#x is not a 7-bit slave address", ezo.ErrAddressBind, address)
	}
	t.address = address
	t.bound = true
	return nil
}

func (t *BusTransport) WriteRaw(ctx context.Context, p []byte) error {
	if !t.bound {
		return errNotBound
	}
	return t.bus.WriteToAddr(ctx, t.address, p)
}

func (t *BusTransport) ReadRaw(ctx context.Context, n int) ([]byte, error) {
	if !t.bound {
		return nil, errNotBound
	}
	buf := make([]byte, n)
	if err := t.bus.ReadFromAddr(ctx, t.address, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (t *BusTransport) Close() error {
	if c, ok := t.bus.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
