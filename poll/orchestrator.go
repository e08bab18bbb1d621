// Package poll drives two EZO sessions over a shared bus at a bounded cadence.
package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mklimuk/ezo"
	"github.com/mklimuk/ezo/atlas"
)

const (
	cmdInfo = "I"
	cmdRead = "R"
)

type Opts struct {
	Now      func() time.Time
	Pace     func(ctx context.Context, d time.Duration) error
	Recorder Recorder
	Sinks    []Sink
}

type Opt func(*Opts)

// WithClock sets the time source used for reading timestamps.
func WithClock(now func() time.Time) Opt {
	return func(o *Opts) {
		o.Now = now
	}
}

// WithPacer replaces the wait between two cycles. The pacer must return
// early with an error when ctx is done.
func WithPacer(pace func(ctx context.Context, d time.Duration) error) Opt {
	return func(o *Opts) {
		o.Pace = pace
	}
}

func WithRecorder(r Recorder) Opt {
	return func(o *Opts) {
		o.Recorder = r
	}
}

func WithSinks(sinks ...Sink) Opt {
	return func(o *Opts) {
		o.Sinks = append(o.Sinks, sinks...)
	}
}

// Summary describes a finished run.
type Summary struct {
	Cycles  int
	Started time.Time
	Stopped time.Time
}

// Orchestrator polls two devices strictly one after the other. It is not
// safe for concurrent use.
type Orchestrator struct {
	config   Opts
	devices  [2]*atlas.Session
	interval time.Duration
	long     time.Duration
}

// New builds an orchestrator. A requested interval shorter than the long
// timeout cannot be honored by the protocol and is raised to it.
func New(dev0, dev1 *atlas.Session, requested time.Duration, opts ...Opt) *Orchestrator {
	config := Opts{
		Now:  time.Now,
		Pace: sleepContext,
	}
	for _, opt := range opts {
		opt(&config)
	}
	long := max(dev0.Timeouts().Long, dev1.Timeouts().Long)
	interval := requested
	if interval < long {
		slog.Warn("polling time is shorter than timeout, raising it", "requested", requested, "interval", long)
		interval = long
	}
	return &Orchestrator{
		config:   config,
		devices:  [2]*atlas.Session{dev0, dev1},
		interval: interval,
		long:     long,
	}
}

// Interval is the effective polling interval.
func (o *Orchestrator) Interval() time.Duration {
	return o.interval
}

// Pause is the wait inserted after every cycle.
func (o *Orchestrator) Pause() time.Duration {
	return max(o.interval-o.long, 0)
}

// Run polls until ctx is cancelled. Cancellation is observed between cycles
// and during the pause; a started cycle is always completed and recorded.
// Cancellation is a normal stop and yields a nil error. An address bind
// failure aborts the run.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	summary := Summary{Started: o.config.Now()}
	defer func() {
		slog.Info("continuous polling stopped", "cycles", summary.Cycles)
	}()
	for ctx.Err() == nil {
		if err := o.identify(ctx); err != nil {
			summary.Stopped = o.config.Now()
			return summary, err
		}
		for ctx.Err() == nil {
			reading, err := o.acquire(ctx)
			if err != nil {
				summary.Stopped = o.config.Now()
				return summary, err
			}
			o.dispatch(ctx, reading)
			summary.Cycles++
			if err := o.config.Pace(ctx, o.Pause()); err != nil {
				break
			}
		}
	}
	summary.Stopped = o.config.Now()
	return summary, nil
}

// identify logs who is answering at each address. Only a bind failure is returned.
func (o *Orchestrator) identify(ctx context.Context) error {
	for i, dev := range o.devices {
		resp, err := dev.Query(ctx, cmdInfo)
		if errors.Is(err, ezo.ErrAddressBind) {
			return fmt.Errorf("device %d: %w", i, err)
		}
		if err != nil {
			slog.Warn("could not read device info", "device", i, "address", dev.Address(), "error", err)
			continue
		}
		info, err := atlas.ParseInfo(resp)
		if err != nil {
			slog.Warn("unrecognized device info", "device", i, "address", dev.Address(), "error", err)
			continue
		}
		slog.Info("device identified", "device", i, "address", dev.Address(), "type", info.Type, "firmware", info.Firmware)
	}
	return nil
}

func (o *Orchestrator) acquire(ctx context.Context) (Reading, error) {
	reading := Reading{Time: o.config.Now()}
	for i, dev := range o.devices {
		text, err := dev.Query(ctx, cmdRead)
		if errors.Is(err, ezo.ErrAddressBind) {
			return Reading{}, fmt.Errorf("device %d: %w", i, err)
		}
		if err != nil {
			slog.Warn("read failed", "device", i, "address", dev.Address(), "error", err)
		}
		reading.Values[i] = Value{Text: text, Err: err}
	}
	return reading, nil
}

func (o *Orchestrator) dispatch(ctx context.Context, reading Reading) {
	if o.config.Recorder != nil {
		if err := o.config.Recorder.Record(ctx, reading); err != nil {
			slog.Error("could not record reading", "error", err)
		}
	}
	for _, sink := range o.config.Sinks {
		if err := sink.Publish(ctx, reading); err != nil {
			slog.Warn("could not publish reading", "error", err)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
