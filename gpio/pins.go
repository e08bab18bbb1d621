// Package gpio provides the button input and indicator output used by the
// launcher, either on native SoC pins or on an I2C port expander.
package gpio

import (
	"context"
	"time"
)

// Input is a digital input that reports rising edges.
type Input interface {
	// WaitForEdge blocks until a rising edge or until timeout elapses.
	WaitForEdge(ctx context.Context, timeout time.Duration) (bool, error)
}

// Output is a digital output driving an indicator.
type Output interface {
	Set(ctx context.Context, on bool) error
}
