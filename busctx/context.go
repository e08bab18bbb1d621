// Package busctx carries per-call bus tracing settings on a context.
package busctx

import (
	"context"
	"encoding/hex"
	"log/slog"
)

type ctxKey int

const ctxKeyTrace ctxKey = iota

// WithTrace enables hex dumps of raw bus traffic for calls made with the returned context.
func WithTrace(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, ctxKeyTrace, enabled)
}

func Tracing(ctx context.Context) bool {
	val, ok := ctx.Value(ctxKeyTrace).(bool)
	return ok && val
}

// Dump logs buf at debug level when tracing is enabled on ctx.
func Dump(ctx context.Context, msg string, address byte, buf []byte) {
	if !Tracing(ctx) {
		return
	}
	slog.Debug(msg, "address", address, "len", len(buf), "data", "\n"+hex.Dump(buf))
}
