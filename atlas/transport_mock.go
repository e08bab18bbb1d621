package atlas

import (
	"context"
	"sync"

	"github.com/mklimuk/ezo"
)

// ReadBehaviorFunc produces the raw bytes returned for a read of at most n
// bytes from the bound address.
type ReadBehaviorFunc func(ctx context.Context, address byte, n int) ([]byte, error)

// BindBehaviorFunc decides whether an address bind succeeds.
type BindBehaviorFunc func(ctx context.Context, address byte) error

// MockWrite is one recorded WriteRaw call.
type MockWrite struct {
	Address byte
	Data    []byte
}

// MockTransport simulates a bus without hardware. Reads are produced by a
// behavior function; binds, writes and reads are recorded in call order.
//
// Example usage:
//
//	tr := NewMockTransport(func(ctx context.Context, addr byte, n int) ([]byte, error) {
//		return []byte{1, '2', '5', '.', '1', 0, 0}, nil
//	})
type MockTransport struct {
	mx     sync.Mutex
	read   ReadBehaviorFunc
	bind   BindBehaviorFunc
	bound  byte
	Binds  []byte
	Writes []MockWrite
	Reads  []byte
	Closed bool
}

var _ ezo.Transport = &MockTransport{}

func NewMockTransport(read ReadBehaviorFunc) *MockTransport {
	return &MockTransport{read: read}
}

// OnBind installs a bind behavior; by default every bind succeeds.
func (m *MockTransport) OnBind(bind BindBehaviorFunc) *MockTransport {
	m.bind = bind
	return m
}

func (m *MockTransport) BindAddress(ctx context.Context, address byte) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	if m.bind != nil {
		if err := m.bind(ctx, address); err != nil {
			return err
		}
	}
	m.bound = address
	m.Binds = append(m.Binds, address)
	return nil
}

func (m *MockTransport) WriteRaw(ctx context.Context, p []byte) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.Writes = append(m.Writes, MockWrite{Address: m.bound, Data: append([]byte(nil), p...)})
	return nil
}

func (m *MockTransport) ReadRaw(ctx context.Context, n int) ([]byte, error) {
	m.mx.Lock()
	addr := m.bound
	m.Reads = append(m.Reads, addr)
	m.mx.Unlock()
	data, err := m.read(ctx, addr, n)
	if len(data) > n {
		data = data[:n]
	}
	return data, err
}

func (m *MockTransport) Close() error {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.Closed = true
	return nil
}

// PaddedResponse builds a full response buffer: status, payload with bit 7
// set the way the bus delivers it, then null padding.
func PaddedResponse(status byte, payload string) []byte {
	buf := make([]byte, ResponseSize)
	buf[0] = status
	for i := 0; i < len(payload) && i+1 < ResponseSize; i++ {
		buf[i+1] = payload[i] | 0x80
	}
	return buf
}
