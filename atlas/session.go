package atlas

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mklimuk/ezo"
)

// SleepResponse is returned for SLEEP commands. The device is not read after
// the command is written, so this is not an acknowledgment.
const SleepResponse = "sleep mode"

const (
	DefaultLongTimeout  = 1500 * time.Millisecond
	DefaultShortTimeout = 500 * time.Millisecond
)

// Timeouts are the processing waits between a write and the following read.
type Timeouts struct {
	// Long applies to readings and calibrations.
	Long time.Duration
	// Short applies to every other command.
	Short time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{Long: DefaultLongTimeout, Short: DefaultShortTimeout}
}

type SessionOpts struct {
	Timeouts Timeouts
	Sleep    func(time.Duration)
}

type SessionOpt func(*SessionOpts)

func WithTimeouts(t Timeouts) SessionOpt {
	return func(o *SessionOpts) {
		o.Timeouts = t
	}
}

// WithSleep replaces the blocking wait used between write and read.
func WithSleep(sleep func(time.Duration)) SessionOpt {
	return func(o *SessionOpts) {
		o.Sleep = sleep
	}
}

// Session runs queries against one device address. Several sessions may
// share a transport; a session is not safe for concurrent use and sessions
// sharing a transport must be queried one after another.
type Session struct {
	config    SessionOpts
	transport ezo.Transport
	address   byte
}

func NewSession(transport ezo.Transport, address byte, opts ...SessionOpt) *Session {
	config := SessionOpts{
		Timeouts: DefaultTimeouts(),
		Sleep:    time.Sleep,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &Session{
		config:    config,
		transport: transport,
		address:   address,
	}
}

func (s *Session) Address() byte {
	return s.address
}

func (s *Session) Timeouts() Timeouts {
	return s.config.Timeouts
}

// Query writes command to the device, waits the processing time of its kind
// and decodes the response. The waits ignore ctx: once started, a query runs
// to completion so the device is never left mid-command.
//
// Errors wrapping ezo.ErrAddressBind mean the bus is unusable. Device status
// errors come back as *DeviceError and empty reads as ErrEmptyResponse.
func (s *Session) Query(ctx context.Context, command string) (string, error) {
	if err := s.transport.BindAddress(ctx, s.address); err != nil {
		return "", err
	}
	out := make([]byte, 0, len(command)+1)
	out = append(out, command...)
	out = append(out, 0x00)
	if err := s.transport.WriteRaw(ctx, out); err != nil {
		return "", fmt.Errorf("atlas %d: could not write %q: %w", s.address, command, err)
	}

	kind := Classify(command)
	switch kind {
	case KindRead, KindCalibration:
		s.config.Sleep(s.config.Timeouts.Long)
	case KindSleep:
		return SleepResponse, nil
	default:
		s.config.Sleep(s.config.Timeouts.Short)
	}

	raw, err := s.transport.ReadRaw(ctx, ResponseSize)
	if err != nil {
		return "", fmt.Errorf("atlas %d: could not read response to %q: %w", s.address, command, err)
	}
	resp, err := Decode(raw)
	if err != nil {
		slog.Debug("atlas query failed", "address", s.address, "command", command, "kind", kind, "error", err)
		return "", err
	}
	return resp, nil
}
