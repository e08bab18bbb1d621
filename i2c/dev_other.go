//go:build !linux

package i2c

import (
	"context"
	"fmt"

	"github.com/mklimuk/ezo"
)

// DevTransport is only available on linux, where i2c-dev exists.
type DevTransport struct{}

func OpenDev(bus int) (*DevTransport, error) {
	return nil, fmt.Errorf("%w: i2c-dev is only supported on linux", ezo.ErrTransportOpen)
}

func (t *DevTransport) BindAddress(ctx context.Context, address byte) error {
	return ezo.ErrAddressBind
}

func (t *DevTransport) WriteRaw(ctx context.Context, p []byte) error {
	return errNotBound
}

func (t *DevTransport) ReadRaw(ctx context.Context, n int) ([]byte, error) {
	return nil, errNotBound
}

func (t *DevTransport) Close() error {
	return nil
}
