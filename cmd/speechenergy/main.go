package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/linuxmatters/speechenergy/internal/cli"
	"github.com/linuxmatters/speechenergy/internal/config"
	"github.com/linuxmatters/speechenergy/internal/logger"
	"github.com/linuxmatters/speechenergy/internal/ui"
)

var (
	version = "0.0.1"
)

// CLI defines the command-line interface
type CLI struct {
	Version bool   `short:"v" help:"Show version information"`
	Config  string `short:"c" type:"path" help:"Path to YAML config file (optional)"`
	Method  string `short:"m" help:"Counting method: peaks, threshold or speech"`
	Channel string `help:"Channel to count: left, right, mix or an index"`

	Interval   *int     `help:"Extrema interval size in samples"`
	Growth     *float64 `help:"Growth angle in degrees"`
	Abate      *float64 `help:"Abate angle in degrees"`
	Smoothness *int     `help:"Minimum intervals between same-kind extremes"`
	Threshold  *float64 `help:"Gate for the threshold method, linear amplitude (0 uses the analysed threshold)"`
	Jobs       *int     `short:"j" help:"Files counted concurrently"`

	Logs     bool   `help:"Save a word count report next to each input"`
	Dump     bool   `help:"Write every pre-filter stage as WAV next to the input"`
	Plain    bool   `help:"Print one line per file instead of the interactive UI"`
	LogLevel string `help:"Log level: debug, info, warn or error"`
	LogFile  string `type:"path" help:"Write logs to this file"`
	Env      string `default:".env" type:"path" help:"Environment file holding OPENAI_API_KEY"`

	Files []string `arg:"" name:"files" help:"Audio files to count" type:"existingfile" optional:""`
}

func main() {
	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("speechenergy"),
		kong.Description("Spoken word counter from speech energy"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	// Handle version flag
	if cliArgs.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	// Validate input
	if len(cliArgs.Files) == 0 {
		cli.PrintError("No input files specified")
		ctx.PrintUsage(false)
		os.Exit(1)
	}

	if err := config.LoadEnv(cliArgs.Env); err != nil {
		cli.PrintWarning(err.Error())
	}

	cfg, err := buildConfig(cliArgs)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	if err := setupLogging(cfg.LogLevel, cliArgs.LogFile, !cliArgs.Plain); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
	defer logger.CloseLogFile()

	c, err := newCounter(cfg, cliArgs.Logs, cliArgs.Dump)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var failed int
	if cliArgs.Plain {
		failed = runPlain(runCtx, c, cliArgs.Files, cfg.Concurrency)
	} else {
		failed, err = runTUI(runCtx, c, cliArgs.Files, cfg.Concurrency)
		if err != nil {
			cli.PrintError(fmt.Sprintf("UI error: %v", err))
			os.Exit(1)
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}

// buildConfig loads the config file, if any, and applies flag overrides.
func buildConfig(args *CLI) (*config.Config, error) {
	cfg := config.Default()
	if args.Config != "" {
		loaded, err := config.Load(args.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if args.Method != "" {
		cfg.Detection.Method = strings.ToLower(args.Method)
	}
	if args.Channel != "" {
		cfg.Detection.Channel = args.Channel
	}
	if args.Interval != nil {
		cfg.Detection.IntervalSize = *args.Interval
	}
	if args.Growth != nil {
		cfg.Detection.GrowthAngle = *args.Growth
	}
	if args.Abate != nil {
		cfg.Detection.AbateAngle = *args.Abate
	}
	if args.Smoothness != nil {
		cfg.Detection.Smoothness = *args.Smoothness
	}
	if args.Threshold != nil {
		cfg.Detection.ThresholdGate = *args.Threshold
	}
	if args.Jobs != nil {
		cfg.Concurrency = *args.Jobs
	}
	if args.LogLevel != "" {
		cfg.LogLevel = args.LogLevel
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogging routes logs away from the terminal while the TUI owns it.
func setupLogging(level, logFile string, tui bool) error {
	logger.SetLevel(level)
	switch {
	case logFile != "":
		return logger.SetOutputFile(logFile)
	case tui:
		logger.SetOutput(io.Discard)
	}
	return nil
}

// runPlain counts the files and prints one line per file in input order.
func runPlain(ctx context.Context, c *counter, files []string, limit int) int {
	results := runBatch(ctx, files, limit, c.count, nil)

	total, failed := 0, 0
	for _, r := range results {
		cli.PrintFileLine(os.Stdout, r.line())
		if r.Err != nil {
			failed++
			continue
		}
		total += r.Words()
	}
	if len(files) > 1 {
		cli.PrintTotal(os.Stdout, total, len(files)-failed, failed)
	}
	return failed
}

// runTUI counts the files while the Bubbletea UI shows progress.
func runTUI(ctx context.Context, c *counter, files []string, limit int) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := ui.NewModel(files)
	p := tea.NewProgram(model, tea.WithAltScreen())

	done := make(chan []fileResult, 1)
	go func() {
		results := runBatch(ctx, files, limit, c.count, p.Send)
		p.Send(ui.AllCompleteMsg{})
		done <- results
	}()

	final, err := p.Run()
	if err != nil {
		return 0, err
	}

	// Quitting early cancels the remaining files
	if m, ok := final.(ui.Model); !ok || !m.Done {
		cancel()
	}
	results := <-done

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	return failed, nil
}
