package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/ezo/cmd/ezo/console"
	"github.com/mklimuk/ezo/gpio"
	"github.com/mklimuk/ezo/pkg/config"
)

func TestParseExpanderPin(t *testing.T) {
	tests := []struct {
		name string
		port gpio.Port
		pin  uint8
		err  bool
	}{
		{name: "A0", port: gpio.PortA, pin: 0},
		{name: "b7", port: gpio.PortB, pin: 7},
		{name: "A8", err: true},
		{name: "C1", err: true},
		{name: "GPIO17", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port, pin, err := parseExpanderPin(tt.name)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.port, port)
			assert.Equal(t, tt.pin, pin)
		})
	}
}

func TestProbeAddress(t *testing.T) {
	cfg := config.Default()
	addr, err := probeAddress(cfg, 0)
	require.NoError(t, err)
	assert.Equal(t, byte(100), addr)

	addr, err = probeAddress(cfg, 102)
	require.NoError(t, err)
	assert.Equal(t, byte(102), addr)

	_, err = probeAddress(cfg, 0x80)
	assert.Error(t, err)
}

func TestRun_IntervalArgument(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
		help bool
	}{
		{name: "missing interval prints usage", args: []string{"ezo"}, code: 0, help: true},
		{name: "non numeric interval", args: []string{"ezo", "abc"}, code: console.CodeUsage},
		{name: "zero interval", args: []string{"ezo", "0"}, code: console.CodeUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			code := run(tt.args, &out)
			assert.Equal(t, tt.code, code)
			if tt.help {
				assert.Contains(t, out.String(), "USAGE:")
				assert.Contains(t, out.String(), "<interval seconds>")
			} else {
				assert.Empty(t, out.String())
			}
		})
	}
}
