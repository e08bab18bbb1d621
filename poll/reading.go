package poll

import (
	"fmt"
	"strings"
	"time"

	"github.com/mklimuk/ezo/atlas"
)

// Value is the outcome of one device read.
type Value struct {
	Text string
	Err  error
}

// String renders the value as stored: the decoded text or an "Error ..." literal.
func (v Value) String() string {
	return atlas.FormatValue(v.Text, v.Err)
}

// Reading is one acquisition cycle over both devices. It is never modified
// after it has been handed to the recorder and sinks.
type Reading struct {
	Time   time.Time
	Values [2]Value
}

// FormatTime renders day-month-year hour:minute:second without zero padding.
func FormatTime(t time.Time) string {
	return fmt.Sprintf("%d-%d-%d %d:%d:%d", t.Day(), int(t.Month()), t.Year(), t.Hour(), t.Minute(), t.Second())
}

// Fields returns the record columns: timestamp, device 0, device 1.
func (r Reading) Fields() []string {
	return []string{FormatTime(r.Time), r.Values[0].String(), r.Values[1].String()}
}

// Line is the semicolon separated record without a trailing newline.
func (r Reading) Line() string {
	return strings.Join(r.Fields(), ";")
}
