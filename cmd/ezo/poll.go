package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/mklimuk/ezo"
	"github.com/mklimuk/ezo/atlas"
	"github.com/mklimuk/ezo/busctx"
	"github.com/mklimuk/ezo/cmd/ezo/console"
	"github.com/mklimuk/ezo/pkg/config"
	"github.com/mklimuk/ezo/plot"
	"github.com/mklimuk/ezo/poll"
	"github.com/mklimuk/ezo/storage"
)

func pollAction(c *cli.Context) error {
	if c.NArg() == 0 {
		// a bare invocation only explains itself
		return cli.ShowAppHelp(c)
	}
	seconds, err := strconv.ParseFloat(c.Args().First(), 64)
	if err != nil || seconds <= 0 {
		return console.Exit(console.CodeUsage, "interval must be a positive number of seconds, got %s", console.Red(c.Args().First()))
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return console.Exit(console.CodeUsage, "invalid configuration: %s", console.Red(err))
	}
	ctx, stop := signal.NotifyContext(busctx.WithTrace(c.Context, c.Bool("verbose")), os.Interrupt, syscall.SIGTERM)
	defer stop()
	interval := time.Duration(seconds * float64(time.Second))
	if err := runPolling(ctx, cfg, c.Int("index"), interval); err != nil {
		return console.Exit(console.CodeFailure, "polling failed: %s", console.Red(err))
	}
	return nil
}

// runPolling opens the transport and polls both probes until ctx is done.
func runPolling(ctx context.Context, cfg config.Config, index int, interval time.Duration) error {
	transport, err := openTransport(cfg, index)
	if err != nil {
		return err
	}
	defer func() {
		if err := transport.Close(); err != nil {
			slog.Warn("could not close transport", "error", err)
		}
	}()
	opts := []atlas.SessionOpt{atlas.WithTimeouts(cfg.SessionTimeouts())}
	dev0 := atlas.NewSession(transport, cfg.Devices[0].Address, opts...)
	dev1 := atlas.NewSession(transport, cfg.Devices[1].Address, opts...)

	sinks := []poll.Sink{poll.NewWriterSink(os.Stdout)}
	g, gctx := errgroup.WithContext(ctx)
	if cfg.Plot.Listen != "" {
		room := plot.NewRoom()
		sinks = append(sinks, room)
		g.Go(func() error {
			room.Run(gctx)
			return nil
		})
		g.Go(func() error {
			return plot.Serve(gctx, cfg.Plot.Listen, room)
		})
	}
	orchestrator := poll.New(dev0, dev1, interval,
		poll.WithRecorder(storage.NewFiles(cfg.History, cfg.Snapshot)),
		poll.WithSinks(sinks...),
	)
	slog.Info("starting continuous polling",
		"interval", orchestrator.Interval(),
		cfg.Devices[0].Name, cfg.Devices[0].Address,
		cfg.Devices[1].Name, cfg.Devices[1].Address,
	)
	g.Go(func() error {
		summary, err := orchestrator.Run(gctx)
		slog.Info("polling summary", "cycles", summary.Cycles, "duration", summary.Stopped.Sub(summary.Started).Round(time.Second))
		if err != nil {
			return err
		}
		// the plot server has nothing left to show
		return errStopped
	})
	err = g.Wait()
	if errors.Is(err, errStopped) {
		return nil
	}
	if errors.Is(err, ezo.ErrAddressBind) {
		return fmt.Errorf("bus rejected a probe address: %w", err)
	}
	return err
}

var errStopped = errors.New("polling stopped")
