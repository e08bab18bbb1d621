package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/ezo"
	"github.com/mklimuk/ezo/atlas"
	"github.com/mklimuk/ezo/busctx"
	"github.com/mklimuk/ezo/cmd/ezo/console"
	"github.com/mklimuk/ezo/pkg/config"
)

var addressFlag = &cli.UintFlag{
	Name:    "address",
	Aliases: []string{"a"},
	Usage:   "probe address (defaults to the first configured device)",
}

var queryCmd = cli.Command{
	Name:      "query",
	Usage:     "send one command to a probe and print its answer",
	ArgsUsage: "<command>",
	Flags: []cli.Flag{
		addressFlag,
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "do not ask before calibration commands",
		},
	},
	Action: func(c *cli.Context) error {
		command := strings.Join(c.Args().Slice(), " ")
		if command == "" {
			return console.Exit(console.CodeUsage, "command is required, e.g. %s", console.White("ezo query R"))
		}
		if atlas.Classify(command) == atlas.KindCalibration && !c.Bool("yes") {
			answer, err := console.YesOrNo(fmt.Sprintf("%s changes the probe calibration, continue?", console.Bold(command)), console.No)
			if err != nil || answer != console.Yes {
				return nil
			}
		}
		return withSession(c, func(ctx context.Context, session *atlas.Session) error {
			resp, err := session.Query(ctx, command)
			return printResponse(session, command, resp, err)
		})
	},
}

var shellCmd = cli.Command{
	Name:  "shell",
	Usage: "interactive query prompt for one probe",
	Flags: []cli.Flag{
		addressFlag,
	},
	Action: func(c *cli.Context) error {
		return withSession(c, func(ctx context.Context, session *atlas.Session) error {
			console.Infof("connected to probe %s, type %s to leave", console.White(fmt.Sprintf("%#x", session.Address())), console.Bold("exit"))
			history := filepath.Join(os.TempDir(), "ezo-shell.history")
			var fatal error
			err := console.Shell(fmt.Sprintf("ezo(%d)> ", session.Address()), history, func(line string) bool {
				if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
					return false
				}
				resp, err := session.Query(ctx, line)
				if err := printResponse(session, line, resp, err); err != nil {
					fatal = err
					return false
				}
				return ctx.Err() == nil
			})
			return errors.Join(err, fatal)
		})
	},
}

// withSession opens the configured transport and runs fn against one probe.
func withSession(c *cli.Context, fn func(ctx context.Context, session *atlas.Session) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return console.Exit(console.CodeUsage, "invalid configuration: %s", console.Red(err))
	}
	address, err := probeAddress(cfg, c.Uint("address"))
	if err != nil {
		return console.Exit(console.CodeUsage, "%s", err)
	}
	transport, err := openTransport(cfg, c.Int("index"))
	if err != nil {
		return console.Exit(console.CodeFailure, "could not open bus: %s", console.Red(err))
	}
	defer func() { _ = transport.Close() }()
	ctx := busctx.WithTrace(c.Context, c.Bool("verbose"))
	session := atlas.NewSession(transport, address, atlas.WithTimeouts(cfg.SessionTimeouts()))
	if err := fn(ctx, session); err != nil {
		return console.Exit(console.CodeFailure, "%s", console.Red(err))
	}
	return nil
}

func probeAddress(cfg config.Config, requested uint) (byte, error) {
	if requested == 0 {
		return cfg.Devices[0].Address, nil
	}
	if requested > 0x7F {
		return 0, fmt.Errorf("%#x is not a 7-bit address", requested)
	}
	return byte(requested), nil
}

// printResponse shows a query outcome. Only a bind failure is returned as an error.
func printResponse(session *atlas.Session, command, resp string, err error) error {
	if errors.Is(err, ezo.ErrAddressBind) {
		return err
	}
	prefix := fmt.Sprintf("%s %s", console.Cyan(fmt.Sprintf("%#x", session.Address())), command)
	var devErr *atlas.DeviceError
	switch {
	case err == nil:
		console.Printf("%s: %s\n", prefix, console.Green(resp))
	case errors.As(err, &devErr), errors.Is(err, atlas.ErrEmptyResponse):
		console.Printf("%s: %s\n", prefix, console.Yellow(atlas.FormatValue(resp, err)))
	default:
		console.Errorf("%s: %v", prefix, err)
	}
	return nil
}
