package main

import (
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/lox/probabilitylab/internal/config"
	"github.com/lox/probabilitylab/internal/scheduler"
	"github.com/lox/probabilitylab/internal/simulator"
)

// version is set by ldflags during build
var version = "dev"

// Globals are shared by every command
type Globals struct {
	Config    string  `short:"c" help:"Experiment file (.hcl, .yaml or .yml)" default:"experiment.hcl" type:"path" env:"PROBLAB_CONFIG"`
	Seed      *string `help:"Override the experiment seed"`
	LogLevel  string  `help:"Log level" default:"warn" enum:"debug,info,warn,error" env:"PROBLAB_LOG_LEVEL"`
	LogFormat string  `help:"Log format" default:"text" enum:"text,json,logfmt"`
	NoColor   bool    `help:"Disable coloured output"`
}

// Output streams, replaced in tests
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

type CLI struct {
	Globals

	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Run      RunCmd           `cmd:"" help:"Run a bounded number of trials and print frequencies"`
	Auto     AutoCmd          `cmd:"" help:"Run trials continuously until interrupted"`
	Sweep    SweepCmd         `cmd:"" help:"Run the experiment once per seed in parallel"`
	History  HistoryCmd       `cmd:"" help:"Run the experiment and print a window of recorded trials"`
	Describe DescribeCmd      `cmd:"" help:"Print the probability model of each device"`
	Lab      LabCmd           `cmd:"" help:"Open the interactive lab"`
	Serve    ServeCmd         `cmd:"" help:"Run continuously and stream progress to websocket subscribers"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("problab"),
		kong.Description("Probability lab: seeded coin, die, spinner and custom device experiments"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	if cli.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}

// load reads the experiment file, applies the seed override and converts
// it for the simulator
func (g *Globals) load() (*config.Config, simulator.Config, error) {
	file, err := config.Load(g.Config)
	if err != nil {
		return nil, simulator.Config{}, err
	}
	if g.Seed != nil {
		file.Experiment.Seed = *g.Seed
		file.Experiment.Randomize = false
	}
	simCfg, err := file.Simulation()
	if err != nil {
		return nil, simulator.Config{}, err
	}
	return file, simCfg, nil
}

func (g *Globals) options(file *config.Config, logger *log.Logger, callbacks scheduler.Callbacks) simulator.Options {
	return simulator.Options{
		Logger:    logger,
		ChunkSize: file.Experiment.ChunkSize,
		AutoBatch: file.Experiment.AutoBatch,
		Callbacks: callbacks,
	}
}
