package poll

import (
	"context"
	"fmt"
	"io"
)

// Recorder persists readings. A failing Record is logged and the loop goes on.
type Recorder interface {
	Record(ctx context.Context, r Reading) error
}

// Sink receives every reading after it has been recorded, e.g. for display.
type Sink interface {
	Publish(ctx context.Context, r Reading) error
}

// WriterSink prints each reading line to w.
type WriterSink struct {
	w io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Publish(ctx context.Context, r Reading) error {
	_, err := fmt.Fprintln(s.w, r.Line())
	return err
}
