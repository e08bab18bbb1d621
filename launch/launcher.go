// Package launch starts polling runs from a push button and lights an
// indicator while a run is active.
package launch

import (
	"context"
	"log/slog"
	"time"

	"github.com/mklimuk/ezo/gpio"
)

const edgeTimeout = time.Second

// RunFunc performs one polling run and returns when ctx is done or the run ends.
type RunFunc func(ctx context.Context) error

type Launcher struct {
	Button    gpio.Input
	Indicator gpio.Output
	// Duration bounds every run; zero lets a run last until the launcher stops.
	Duration time.Duration
}

// Run waits for button presses until ctx is done. Runs do not overlap:
// presses during a run are ignored.
func (l *Launcher) Run(ctx context.Context, start RunFunc) error {
	if err := l.Indicator.Set(ctx, false); err != nil {
		return err
	}
	for ctx.Err() == nil {
		pressed, err := l.Button.WaitForEdge(ctx, edgeTimeout)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			return err
		}
		if !pressed {
			continue
		}
		l.runOnce(ctx, start)
	}
	return nil
}

func (l *Launcher) runOnce(ctx context.Context, start RunFunc) {
	runCtx := ctx
	if l.Duration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, l.Duration)
		defer cancel()
	}
	slog.Info("button pressed, starting run", "duration", l.Duration)
	if err := l.Indicator.Set(ctx, true); err != nil {
		slog.Warn("could not light indicator", "error", err)
	}
	// the indicator must go off even when the launcher itself is stopping
	defer func() {
		if err := l.Indicator.Set(context.WithoutCancel(ctx), false); err != nil {
			slog.Warn("could not clear indicator", "error", err)
		}
	}()
	if err := start(runCtx); err != nil {
		slog.Error("run failed", "error", err)
		return
	}
	slog.Info("run finished")
}
