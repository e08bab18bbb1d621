package gpio

import (
	"context"
	"fmt"
	"time"

	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

var (
	_ Input  = &NativeInput{}
	_ Output = &NativeOutput{}
)

// NativeInput is a SoC pin configured with a pull-down and rising edge detection.
type NativeInput struct {
	pin pgpio.PinIO
}

func OpenInput(name string) (*NativeInput, error) {
	pin, err := lookup(name)
	if err != nil {
		return nil, err
	}
	if err := pin.In(pgpio.PullDown, pgpio.RisingEdge); err != nil {
		return nil, fmt.Errorf("could not configure %s as input: %w", name, err)
	}
	return &NativeInput{pin: pin}, nil
}

func (p *NativeInput) WaitForEdge(ctx context.Context, timeout time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return p.pin.WaitForEdge(timeout), nil
}

// NativeOutput is a SoC pin driven low at open.
type NativeOutput struct {
	pin pgpio.PinIO
}

func OpenOutput(name string) (*NativeOutput, error) {
	pin, err := lookup(name)
	if err != nil {
		return nil, err
	}
	if err := pin.Out(pgpio.Low); err != nil {
		return nil, fmt.Errorf("could not configure %s as output: %w", name, err)
	}
	return &NativeOutput{pin: pin}, nil
}

func (p *NativeOutput) Set(ctx context.Context, on bool) error {
	return p.pin.Out(pgpio.Level(on))
}

func lookup(name string) (pgpio.PinIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("no gpio pin named %s", name)
	}
	return pin, nil
}
