// Package atlas implements the text command/response protocol spoken by
// Atlas Scientific EZO circuits in I2C mode.
//
// A query is a write of the command text terminated by a single null byte,
// a fixed processing wait that depends on the command, and one read of the
// response buffer. Typical usage:
//
//	s := atlas.NewSession(transport, 100)
//	v, err := s.Query(ctx, "R")
package atlas

import "strings"

// Kind selects the processing wait of a command.
type Kind int

const (
	KindOther Kind = iota
	KindRead
	KindCalibration
	KindSleep
)

func (k Kind) String() string {
	switch k {
	case KindRead:
		return "read"
	case KindCalibration:
		return "calibration"
	case KindSleep:
		return "sleep"
	default:
		return "other"
	}
}

// Classify matches the command prefix case-insensitively. Anything starting
// with "R" is a read, so "RT,25" and "Reset" are reads as well.
func Classify(command string) Kind {
	upper := strings.ToUpper(command)
	switch {
	case strings.HasPrefix(upper, "R"):
		return KindRead
	case strings.HasPrefix(upper, "CAL"):
		return KindCalibration
	case strings.HasPrefix(upper, "SLEEP"):
		return KindSleep
	default:
		return KindOther
	}
}
