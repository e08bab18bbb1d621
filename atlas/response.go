package atlas

import (
	"errors"
	"fmt"
)

// ResponseSize is the capacity of the EZO response buffer.
const ResponseSize = 31

const statusSuccess = 1

// ErrEmptyResponse means nothing but padding came back from the device.
var ErrEmptyResponse = errors.New("empty response")

// DeviceError carries a non-success status byte. Codes are reported verbatim.
type DeviceError struct {
	Code byte
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("Error %d", e.Code)
}

// Decode strips null padding and interprets the first byte as the status.
// On success the payload bytes are returned with bit 7 cleared, since the
// bus delivers them with the high bit set.
func Decode(raw []byte) (string, error) {
	data := make([]byte, 0, len(raw))
	for _, b := range raw {
		if b != 0x00 {
			data = append(data, b)
		}
	}
	if len(data) == 0 {
		return "", ErrEmptyResponse
	}
	if data[0] != statusSuccess {
		return "", &DeviceError{Code: data[0]}
	}
	payload := data[1:]
	for i := range payload {
		payload[i] &^= 0x80
	}
	return string(payload), nil
}

// FormatValue renders a query outcome as a record field: the decoded text,
// "Error <code>" for device status errors, "Error no data" for empty
// responses and "Error io" for any other failure.
func FormatValue(text string, err error) string {
	if err == nil {
		return text
	}
	var devErr *DeviceError
	switch {
	case errors.As(err, &devErr):
		return devErr.Error()
	case errors.Is(err, ErrEmptyResponse):
		return "Error no data"
	default:
		return "Error io"
	}
}
