package ezo

import (
	"context"
	"errors"
)

var (
	// ErrTransportOpen is returned when the bus node cannot be opened. It is fatal for a run.
	ErrTransportOpen = errors.New("could not open bus transport")
	// ErrAddressBind is returned when the bus rejects a slave address selection. It is fatal for a run.
	ErrAddressBind = errors.New("could not bind slave address")
	// ErrBusBusy is reported by bridges whose I2C engine has not completed the previous command.
	ErrBusBusy = errors.New("I2C engine is busy (command not completed)")
)

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// I2CBus is a bus where every transaction carries its target address.
type I2CBus interface {
	AddressableReader
	AddressableWriter
}

// Transport is a raw byte channel to a bus node that is retargeted to one
// slave address at a time. A write or read always goes to the address given
// to the most recent successful BindAddress call.
type Transport interface {
	// BindAddress retargets the channel. Errors wrap ErrAddressBind.
	BindAddress(ctx context.Context, address byte) error
	// WriteRaw writes exactly p. Callers append any terminator themselves.
	WriteRaw(ctx context.Context, p []byte) error
	// ReadRaw does a single read of at most n bytes. Fewer bytes may be returned.
	ReadRaw(ctx context.Context, n int) ([]byte, error)
	Close() error
}
