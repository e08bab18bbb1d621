package atlas

import (
	"fmt"
	"strings"
)

// Info is the identity reported by the "I" command, e.g. "?I,RTD,2.01".
type Info struct {
	Type     string
	Firmware string
}

func ParseInfo(resp string) (Info, error) {
	fields := strings.Split(resp, ",")
	if len(fields) < 2 || !strings.EqualFold(fields[0], "?I") {
		return Info{}, fmt.Errorf("unexpected info response %q", resp)
	}
	info := Info{Type: fields[1]}
	if len(fields) > 2 {
		info.Firmware = fields[2]
	}
	return info, nil
}
