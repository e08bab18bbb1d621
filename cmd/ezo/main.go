package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	chlog "github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/ezo/pkg/config"
)

var commit string
var date string

func main() {
	os.Exit(run(os.Args, os.Stdout))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout io.Writer) int {
	app := cli.NewApp()
	app.Name = "ezo"
	app.Writer = stdout
	// exit codes are mapped below instead of cli exiting the process
	app.ExitErrHandler = func(*cli.Context, error) {}
	app.EnableBashCompletion = true
	app.Version = fmt.Sprintf("%s-%s-%s", config.Version, date, commit)
	app.Usage = "poll two Atlas Scientific EZO probes over I2C"
	app.ArgsUsage = "<interval seconds>"
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable verbose logging and bus traffic dumps",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML configuration file",
			EnvVars: []string{"EZO_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "transport",
			Usage: "bus transport: dev, periph, nanopi or mcp2221 (overrides config)",
		},
		&cli.IntFlag{
			Name:  "bus",
			Usage: "I2C bus number (overrides config)",
			Value: -1,
		},
		&cli.IntFlag{
			Name:  "index",
			Usage: "MCP2221 bridge index when several are attached",
		},
		&cli.StringFlag{
			Name:  "plot",
			Usage: "serve live readings over websocket on this address, e.g. :8080 (overrides config)",
		},
	}
	app.Before = func(ctx *cli.Context) error {
		charm := chlog.NewWithOptions(os.Stderr, chlog.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.DateTime,
		})
		charm.SetColorProfile(termenv.TrueColor)
		charm.SetLevel(chlog.InfoLevel)
		if ctx.Bool("verbose") {
			charm.SetLevel(chlog.DebugLevel)
		}
		slog.SetDefault(slog.New(charm))
		return nil
	}
	app.Action = pollAction
	app.Commands = cli.Commands{
		&queryCmd,
		&shellCmd,
		&launchCmd,
		&usbCmd,
		&mcp2221Cmd,
	}
	err := app.Run(args)
	if err != nil {
		var exerr cli.ExitCoder
		if errors.As(err, &exerr) {
			log.Printf("unexpected error: %v", err)
			return exerr.ExitCode()
		}
		log.Printf("unexpected error: %v", err)
		return 1
	}
	return 0
}

// loadConfig reads the configuration file and applies the global flag overrides.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, err
	}
	if t := c.String("transport"); t != "" {
		cfg.Transport = t
	}
	if b := c.Int("bus"); b >= 0 {
		cfg.Bus = b
	}
	if p := c.String("plot"); p != "" {
		cfg.Plot.Listen = p
	}
	return cfg, cfg.Validate()
}
