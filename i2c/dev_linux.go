//go:build linux

package i2c

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/mklimuk/ezo"
	"github.com/mklimuk/ezo/busctx"
)

// i2cSlave is the I2C_SLAVE request from linux/i2c-dev.h.
const i2cSlave = 0x0703

var _ ezo.Transport = &DevTransport{}

// DevTransport talks to /dev/i2c-N through one read-only and one write-only
// descriptor. Both descriptors are retargeted together on every bind.
type DevTransport struct {
	path    string
	read    *os.File
	write   *os.File
	address byte
	bound   bool
}

// OpenDev opens the i2c-dev node of the given bus.
func OpenDev(bus int) (*DevTransport, error) {
	path := fmt.Sprintf("/dev/i2c-%d", bus)
	r, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ezo.ErrTransportOpen, err)
	}
	w, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("%w: %w", ezo.ErrTransportOpen, err)
	}
	return &DevTransport{path: path, read: r, write: w}, nil
}

func (t *DevTransport) BindAddress(ctx context.Context, address byte) error {
	if address == 0 || address > maxAddress {
		return fmt.Errorf("%w: %#x is not a 7-bit slave address", ezo.ErrAddressBind, address)
	}
	for _, f := range []*os.File{t.read, t.write} {
		if err := unix.IoctlSetInt(int(f.Fd()), i2cSlave, int(address)); err != nil {
			t.bound = false
			return fmt.Errorf("%w: %s address %#x: %w", ezo.ErrAddressBind, t.path, address, err)
		}
	}
	t.address = address
	t.bound = true
	return nil
}

func (t *DevTransport) WriteRaw(ctx context.Context, p []byte) error {
	if !t.bound {
		return errNotBound
	}
	busctx.Dump(ctx, "i2c-dev write", t.address, p)
	n, err := t.write.Write(p)
	if err != nil {
		return fmt.Errorf("could not write to %s address %#x: %w", t.path, t.address, err)
	}
	if n != len(p) {
		return fmt.Errorf("short write to %s address %#x: %d of %d bytes", t.path, t.address, n, len(p))
	}
	return nil
}

func (t *DevTransport) ReadRaw(ctx context.Context, n int) ([]byte, error) {
	if !t.bound {
		return nil, errNotBound
	}
	buf := make([]byte, n)
	k, err := t.read.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("could not read from %s address %#x: %w", t.path, t.address, err)
	}
	busctx.Dump(ctx, "i2c-dev read", t.address, buf[:k])
	return buf[:k], nil
}

func (t *DevTransport) Close() error {
	rerr := t.read.Close()
	werr := t.write.Close()
	if rerr != nil {
		return rerr
	}
	return werr
}
