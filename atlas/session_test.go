package atlas

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/ezo"
)

type sleepRecorder struct {
	waits []time.Duration
}

func (r *sleepRecorder) sleep(d time.Duration) {
	r.waits = append(r.waits, d)
}

func staticRead(resp []byte) ReadBehaviorFunc {
	return func(ctx context.Context, address byte, n int) ([]byte, error) {
		return resp, nil
	}
}

func TestSession_WaitPolicy(t *testing.T) {
	tests := []struct {
		command  string
		expected []time.Duration
		reads    int
	}{
		{"R", []time.Duration{DefaultLongTimeout}, 1},
		{"r", []time.Duration{DefaultLongTimeout}, 1},
		{"RT,20.5", []time.Duration{DefaultLongTimeout}, 1},
		{"CAL,mid,7.00", []time.Duration{DefaultLongTimeout}, 1},
		{"cal,clear", []time.Duration{DefaultLongTimeout}, 1},
		{"I", []time.Duration{DefaultShortTimeout}, 1},
		{"Status", []time.Duration{DefaultShortTimeout}, 1},
		{"Find", []time.Duration{DefaultShortTimeout}, 1},
		{"SLEEP", nil, 0},
		{"sleep", nil, 0},
	}
	for _, test := range tests {
		t.Run(test.command, func(t *testing.T) {
			rec := &sleepRecorder{}
			tr := NewMockTransport(staticRead(PaddedResponse(1, "1")))
			s := NewSession(tr, 100, WithSleep(rec.sleep))

			_, err := s.Query(context.Background(), test.command)
			require.NoError(t, err)
			assert.Equal(t, test.expected, rec.waits)
			assert.Len(t, tr.Reads, test.reads)
		})
	}
}

func TestSession_CustomTimeouts(t *testing.T) {
	rec := &sleepRecorder{}
	tr := NewMockTransport(staticRead(PaddedResponse(1, "ok")))
	s := NewSession(tr, 100, WithSleep(rec.sleep), WithTimeouts(Timeouts{Long: 900 * time.Millisecond, Short: 300 * time.Millisecond}))

	_, err := s.Query(context.Background(), "R")
	require.NoError(t, err)
	_, err = s.Query(context.Background(), "L,1")
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{900 * time.Millisecond, 300 * time.Millisecond}, rec.waits)
}

func TestSession_SleepSkipsRead(t *testing.T) {
	tr := NewMockTransport(func(ctx context.Context, address byte, n int) ([]byte, error) {
		t.Fatal("read must not be issued for SLEEP")
		return nil, nil
	})
	s := NewSession(tr, 102, WithSleep(func(time.Duration) {}))

	resp, err := s.Query(context.Background(), "Sleep")
	require.NoError(t, err)
	assert.Equal(t, SleepResponse, resp)
	require.Len(t, tr.Writes, 1)
	assert.Equal(t, []byte("Sleep\x00"), tr.Writes[0].Data)
	assert.Empty(t, tr.Reads)
}

func TestSession_SingleTerminator(t *testing.T) {
	commands := []string{"R", "I", "", "Cal,mid,7.00", "SLEEP", "name,probe\x00"}
	for _, command := range commands {
		tr := NewMockTransport(staticRead(PaddedResponse(1, "")))
		s := NewSession(tr, 100, WithSleep(func(time.Duration) {}))
		_, err := s.Query(context.Background(), command)
		require.NoError(t, err)
		require.Len(t, tr.Writes, 1)
		data := tr.Writes[0].Data
		assert.Equal(t, len(command)+1, len(data), "command %q", command)
		assert.Equal(t, byte(0x00), data[len(data)-1])
		assert.Equal(t, command, string(data[:len(data)-1]))
	}
}

func TestSession_BindsBeforeEveryWrite(t *testing.T) {
	tr := NewMockTransport(staticRead(PaddedResponse(1, "1")))
	first := NewSession(tr, 100, WithSleep(func(time.Duration) {}))
	second := NewSession(tr, 102, WithSleep(func(time.Duration) {}))
	ctx := context.Background()

	for range 2 {
		_, err := first.Query(ctx, "R")
		require.NoError(t, err)
		_, err = second.Query(ctx, "R")
		require.NoError(t, err)
	}
	assert.Equal(t, []byte{100, 102, 100, 102}, tr.Binds)
	for i, w := range tr.Writes {
		assert.Equal(t, tr.Binds[i], w.Address)
	}
	assert.Equal(t, []byte{100, 102, 100, 102}, tr.Reads)
}

func TestSession_DecodesHighBitPayload(t *testing.T) {
	tr := NewMockTransport(staticRead([]byte{0x01, 0x81, 0x82, 0x00, 0x00}))
	s := NewSession(tr, 100, WithSleep(func(time.Duration) {}))

	resp, err := s.Query(context.Background(), "R")
	require.NoError(t, err)
	assert.Equal(t, string([]byte{0x01, 0x02}), resp)
}

func TestSession_DeviceError(t *testing.T) {
	tr := NewMockTransport(staticRead(PaddedResponse(2, "")))
	s := NewSession(tr, 100, WithSleep(func(time.Duration) {}))

	_, err := s.Query(context.Background(), "R")
	var devErr *DeviceError
	require.ErrorAs(t, err, &devErr)
	assert.Equal(t, byte(2), devErr.Code)
	assert.Equal(t, "Error 2", FormatValue("", err))
}

func TestSession_EmptyAndShortReads(t *testing.T) {
	tr := NewMockTransport(staticRead(make([]byte, ResponseSize)))
	s := NewSession(tr, 100, WithSleep(func(time.Duration) {}))
	_, err := s.Query(context.Background(), "R")
	assert.ErrorIs(t, err, ErrEmptyResponse)

	tr = NewMockTransport(staticRead([]byte{}))
	s = NewSession(tr, 100, WithSleep(func(time.Duration) {}))
	_, err = s.Query(context.Background(), "R")
	assert.ErrorIs(t, err, ErrEmptyResponse)

	tr = NewMockTransport(staticRead([]byte{1, 0xB4}))
	s = NewSession(tr, 100, WithSleep(func(time.Duration) {}))
	resp, err := s.Query(context.Background(), "R")
	require.NoError(t, err)
	assert.Equal(t, "4", resp)
}

func TestSession_BindFailureStopsQuery(t *testing.T) {
	tr := NewMockTransport(staticRead(PaddedResponse(1, "1"))).
		OnBind(func(ctx context.Context, address byte) error {
			return ezo.ErrAddressBind
		})
	s := NewSession(tr, 100, WithSleep(func(time.Duration) {}))

	_, err := s.Query(context.Background(), "R")
	assert.ErrorIs(t, err, ezo.ErrAddressBind)
	assert.Empty(t, tr.Writes)
	assert.Empty(t, tr.Reads)
}

func TestSession_ReadError(t *testing.T) {
	tr := NewMockTransport(func(ctx context.Context, address byte, n int) ([]byte, error) {
		return nil, errors.New("remote I/O error")
	})
	s := NewSession(tr, 100, WithSleep(func(time.Duration) {}))

	_, err := s.Query(context.Background(), "R")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ezo.ErrAddressBind)
	assert.Equal(t, "Error io", FormatValue("", err))
}

func TestSession_QueryIgnoresCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rec := &sleepRecorder{}
	tr := NewMockTransport(staticRead(PaddedResponse(1, "19.5")))
	s := NewSession(tr, 100, WithSleep(func(d time.Duration) {
		cancel()
		rec.sleep(d)
	}))

	resp, err := s.Query(ctx, "R")
	require.NoError(t, err)
	assert.Equal(t, "19.5", resp)
	assert.Len(t, tr.Reads, 1)
}
