package gpio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mklimuk/ezo"
)

const DefaultMCP23017Address = 0x20

// Port selects one of the two 8-bit ports of the expander.
type Port byte

const (
	PortA Port = 0
	PortB Port = 1
)

// Register addresses for IOCON.BANK = 0, where port B follows port A.
const (
	regIODIR byte = 0x00
	regGPPU  byte = 0x0C
	regGPIO  byte = 0x12
	regOLAT  byte = 0x14
)

// pollInterval is how often expander inputs are sampled while waiting for an edge.
const pollInterval = 20 * time.Millisecond

// MCP23017 is a 16-bit I2C port expander. Pin directions are kept in a local
// copy so single pins can be reconfigured without reading back IODIR.
type MCP23017 struct {
	mx         sync.Mutex
	transport  ezo.I2CBus
	address    byte
	retryLimit int
	iodir      [2]byte
	olat       [2]byte
}

func NewMCP23017(bus ezo.I2CBus, address byte) *MCP23017 {
	return &MCP23017{
		retryLimit: 2,
		transport:  bus,
		address:    address,
		iodir:      [2]byte{0xFF, 0xFF},
	}
}

func (m *MCP23017) writeRegister(ctx context.Context, reg byte, value byte) error {
	return m.retry(ctx, func() error {
		return m.transport.WriteToAddr(ctx, m.address, []byte{reg, value})
	})
}

func (m *MCP23017) readRegister(ctx context.Context, reg byte) (byte, error) {
	buf := make([]byte, 1)
	err := m.retry(ctx, func() error {
		if err := m.transport.WriteToAddr(ctx, m.address, []byte{reg}); err != nil {
			return err
		}
		return m.transport.ReadFromAddr(ctx, m.address, buf)
	})
	return buf[0], err
}

// retry repeats op while the bridge reports a busy engine, releasing the bus in between.
func (m *MCP23017) retry(ctx context.Context, op func() error) error {
	var err error
	for range m.retryLimit {
		err = op()
		if err == nil || !errors.Is(err, ezo.ErrBusBusy) {
			return err
		}
		_ = m.transport.Release(ctx)
	}
	return fmt.Errorf("retry limit reached: %w", err)
}

// ConfigurePin sets one pin as input (with optional pull-up) or output.
func (m *MCP23017) ConfigurePin(ctx context.Context, port Port, pin uint8, input, pullUp bool) error {
	if pin > 7 {
		return fmt.Errorf("pin %d out of range", pin)
	}
	m.mx.Lock()
	defer m.mx.Unlock()
	mask := byte(1) << pin
	dir := m.iodir[port] &^ mask
	if input {
		dir |= mask
	}
	if err := m.writeRegister(ctx, regIODIR+byte(port), dir); err != nil {
		return fmt.Errorf("could not set direction of port %d: %w", port, err)
	}
	m.iodir[port] = dir
	if input && pullUp {
		pu, err := m.readRegister(ctx, regGPPU+byte(port))
		if err != nil {
			return fmt.Errorf("could not read pull-up of port %d: %w", port, err)
		}
		if err := m.writeRegister(ctx, regGPPU+byte(port), pu|mask); err != nil {
			return fmt.Errorf("could not set pull-up of port %d: %w", port, err)
		}
	}
	return nil
}

func (m *MCP23017) ReadPort(ctx context.Context, port Port) (byte, error) {
	m.mx.Lock()
	defer m.mx.Unlock()
	v, err := m.readRegister(ctx, regGPIO+byte(port))
	if err != nil {
		return 0, fmt.Errorf("could not read port %d: %w", port, err)
	}
	return v, nil
}

// SetPin drives one output pin through the output latch.
func (m *MCP23017) SetPin(ctx context.Context, port Port, pin uint8, on bool) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	mask := byte(1) << pin
	latch := m.olat[port] &^ mask
	if on {
		latch |= mask
	}
	if err := m.writeRegister(ctx, regOLAT+byte(port), latch); err != nil {
		return fmt.Errorf("could not write latch of port %d: %w", port, err)
	}
	m.olat[port] = latch
	return nil
}

// Input returns pin as a polled edge input. The pin must be configured first.
func (m *MCP23017) Input(port Port, pin uint8) *ExpanderInput {
	return &ExpanderInput{dev: m, port: port, mask: 1 << pin}
}

func (m *MCP23017) Output(port Port, pin uint8) *ExpanderOutput {
	return &ExpanderOutput{dev: m, port: port, pin: pin}
}

var (
	_ Input  = &ExpanderInput{}
	_ Output = &ExpanderOutput{}
)

type ExpanderInput struct {
	dev   *MCP23017
	port  Port
	mask  byte
	level bool
	known bool
}

// WaitForEdge samples the pin until it goes from low to high. The first
// sample only establishes the starting level.
func (p *ExpanderInput) WaitForEdge(ctx context.Context, timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		v, err := p.dev.ReadPort(ctx, p.port)
		if err != nil {
			return false, err
		}
		level := v&p.mask != 0
		rising := p.known && !p.level && level
		p.level, p.known = level, true
		if rising {
			return true, nil
		}
		if !time.Now().Before(deadline) {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}

type ExpanderOutput struct {
	dev  *MCP23017
	port Port
	pin  uint8
}

func (p *ExpanderOutput) Set(ctx context.Context, on bool) error {
	return p.dev.SetPin(ctx, p.port, p.pin, on)
}
