package i2c

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/ezo"
)

// MockI2CBus is a mock implementation of ezo.I2CBus using testify/mock
type MockI2CBus struct {
	mock.Mock
}

func (m *MockI2CBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	return args.Error(0)
}

func (m *MockI2CBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	if data, ok := args.Get(0).([]byte); ok && len(data) <= len(buffer) {
		copy(buffer, data)
	}
	return args.Error(1)
}

func (m *MockI2CBus) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestBusTransport_Unbound(t *testing.T) {
	tr := NewBusTransport(new(MockI2CBus))
	err := tr.WriteRaw(context.Background(), []byte("R\x00"))
	assert.ErrorIs(t, err, errNotBound)
	_, err = tr.ReadRaw(context.Background(), 31)
	assert.ErrorIs(t, err, errNotBound)
}

func TestBusTransport_BindRejectsInvalidAddress(t *testing.T) {
	tr := NewBusTransport(new(MockI2CBus))
	for _, addr := range []byte{0x00, 0x80, 0xFF} {
		err := tr.BindAddress(context.Background(), addr)
		assert.ErrorIs(t, err, ezo.ErrAddressBind, "address %#x", addr)
	}
}

func TestBusTransport_FailedBindDropsPreviousAddress(t *testing.T) {
	bus := new(MockI2CBus)
	tr := NewBusTransport(bus)
	ctx := context.Background()

	require.NoError(t, tr.BindAddress(ctx, 100))
	require.ErrorIs(t, tr.BindAddress(ctx, 0x80), ezo.ErrAddressBind)

	assert.ErrorIs(t, tr.WriteRaw(ctx, []byte("R\x00")), errNotBound)
	_, err := tr.ReadRaw(ctx, 31)
	assert.ErrorIs(t, err, errNotBound)
	bus.AssertNotCalled(t, "WriteToAddr", mock.Anything, mock.Anything, mock.Anything)
	bus.AssertNotCalled(t, "ReadFromAddr", mock.Anything, mock.Anything, mock.Anything)
}

func TestBusTransport_RetargetsTransactions(t *testing.T) {
	bus := new(MockI2CBus)
	tr := NewBusTransport(bus)
	ctx := context.Background()

	bus.On("WriteToAddr", mock.Anything, byte(100), []byte("R\x00")).Return(nil).Once()
	bus.On("ReadFromAddr", mock.Anything, byte(100), mock.Anything).Return([]byte{1, '2', '1'}, nil).Once()
	bus.On("WriteToAddr", mock.Anything, byte(102), []byte("I\x00")).Return(nil).Once()

	require.NoError(t, tr.BindAddress(ctx, 100))
	require.NoError(t, tr.WriteRaw(ctx, []byte("R\x00")))
	data, err := tr.ReadRaw(ctx, 31)
	require.NoError(t, err)
	assert.Len(t, data, 31)
	assert.Equal(t, []byte{1, '2', '1'}, data[:3])

	require.NoError(t, tr.BindAddress(ctx, 102))
	require.NoError(t, tr.WriteRaw(ctx, []byte("I\x00")))
	bus.AssertExpectations(t)
}

func TestBusTransport_ReadError(t *testing.T) {
	bus := new(MockI2CBus)
	tr := NewBusTransport(bus)
	ctx := context.Background()
	bus.On("ReadFromAddr", mock.Anything, byte(100), mock.Anything).Return(nil, errors.New("nack")).Once()

	require.NoError(t, tr.BindAddress(ctx, 100))
	_, err := tr.ReadRaw(ctx, 31)
	assert.EqualError(t, err, "nack")
}
