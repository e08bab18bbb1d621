package atlas

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		given    []byte
		expected string
		err      error
	}{
		{[]byte{0x01, 0x81, 0x82}, "\x01\x02", nil},
		{[]byte{0x01, 0xB2, 0xB5, 0xAE, 0xB1, 0x00, 0x00}, "25.1", nil},
		{[]byte{0x00, 0x01, 0x00, 0xB7, 0x00}, "7", nil},
		{[]byte{0x01, '3', '.', '5'}, "3.5", nil},
		{[]byte{0x01}, "", nil},
		{[]byte{0x02, 0x00, 0x00}, "", &DeviceError{Code: 2}},
		{[]byte{0xFE}, "", &DeviceError{Code: 254}},
		{[]byte{0xFF, 0xB1}, "", &DeviceError{Code: 255}},
		{[]byte{0x00, 0x00, 0x00}, "", ErrEmptyResponse},
		{[]byte{}, "", ErrEmptyResponse},
	}
	for _, test := range tests {
		t.Run(hex.EncodeToString(test.given), func(t *testing.T) {
			resp, err := Decode(test.given)
			assert.Equal(t, test.err, err)
			assert.Equal(t, test.expected, resp)
		})
	}
}

func TestDecode_DoesNotMutateInput(t *testing.T) {
	raw := []byte{0x01, 0xB1}
	_, err := Decode(raw)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0xB1}, raw)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "21.4", FormatValue("21.4", nil))
	assert.Equal(t, "Error 2", FormatValue("", &DeviceError{Code: 2}))
	assert.Equal(t, "Error no data", FormatValue("", ErrEmptyResponse))
	assert.Equal(t, "Error io", FormatValue("", errors.New("remote I/O error")))
}

func TestParseInfo(t *testing.T) {
	info, err := ParseInfo("?I,RTD,2.01")
	assert.NoError(t, err)
	assert.Equal(t, Info{Type: "RTD", Firmware: "2.01"}, info)

	info, err = ParseInfo("?i,EC")
	assert.NoError(t, err)
	assert.Equal(t, Info{Type: "EC"}, info)

	_, err = ParseInfo("25.1")
	assert.Error(t, err)
}
