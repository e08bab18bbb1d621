package i2c

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gobot "gobot.io/x/gobot/v2/drivers/i2c"

	"github.com/mklimuk/ezo"
)

type fakeConn struct {
	gobot.Connection
	address int
	written [][]byte
	toRead  []byte
	closed  bool
}

func (c *fakeConn) Write(p []byte) (int, error) {
	c.written = append(c.written, append([]byte(nil), p...))
	return len(p), nil
}

func (c *fakeConn) Read(p []byte) (int, error) {
	return copy(p, c.toRead), nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

type fakeConnector struct {
	gobot.Connector
	conns  map[int]*fakeConn
	opened int
	fail   bool
}

func (f *fakeConnector) GetI2cConnection(address int, busNr int) (gobot.Connection, error) {
	if f.fail {
		return nil, errors.New("no such bus")
	}
	f.opened++
	c := &fakeConn{address: address}
	f.conns[address] = c
	return c, nil
}

func TestGobotTransport_ConnectionPerAddress(t *testing.T) {
	connector := &fakeConnector{conns: map[int]*fakeConn{}}
	tr := NewGobotTransport(connector, 0)
	ctx := context.Background()

	require.NoError(t, tr.BindAddress(ctx, 100))
	require.NoError(t, tr.WriteRaw(ctx, []byte("R\x00")))
	require.NoError(t, tr.BindAddress(ctx, 102))
	require.NoError(t, tr.WriteRaw(ctx, []byte("R\x00")))
	require.NoError(t, tr.BindAddress(ctx, 100))
	connector.conns[100].toRead = []byte{1, '9'}
	data, err := tr.ReadRaw(ctx, 31)
	require.NoError(t, err)

	assert.Equal(t, []byte{1, '9'}, data)
	assert.Equal(t, 2, connector.opened)
	assert.Len(t, connector.conns[100].written, 1)
	assert.Len(t, connector.conns[102].written, 1)

	require.NoError(t, tr.Close())
	assert.True(t, connector.conns[100].closed)
	assert.True(t, connector.conns[102].closed)
}

func TestGobotTransport_BindFailure(t *testing.T) {
	tr := NewGobotTransport(&fakeConnector{conns: map[int]*fakeConn{}, fail: true}, 3)
	err := tr.BindAddress(context.Background(), 100)
	assert.ErrorIs(t, err, ezo.ErrAddressBind)
	assert.ErrorIs(t, tr.WriteRaw(context.Background(), []byte{0}), errNotBound)
}
