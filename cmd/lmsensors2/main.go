package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"codeberg.org/mutker/lmsensors2/internal/agent"
	"codeberg.org/mutker/lmsensors2/internal/check"
	"codeberg.org/mutker/lmsensors2/internal/config"
	"codeberg.org/mutker/lmsensors2/internal/errors"
	"codeberg.org/mutker/lmsensors2/internal/logger"
	"codeberg.org/mutker/lmsensors2/internal/metrics"
	"codeberg.org/mutker/lmsensors2/internal/sensors"
	"codeberg.org/mutker/lmsensors2/internal/sink"
	jsoniter "github.com/json-iterator/go"
)

const (
	exitUsage = int(check.Unknown)

	summaryVanished = "Item not found in monitoring data"
	journalLimit    = 20
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if stderrors.Is(err, config.ErrHelp) {
			usage(os.Stderr)
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(exitUsage)
	}

	level, _ := logger.ParseLevel(cfg.LogLevel)
	logger.Init(level, logger.IsService())
	logger.Debug().Strs("args", cfg.Args).Msg("Config loaded")

	ctx, cancel := context.WithCancel(context.Background())
	go handleSignals(cancel)

	code := run(ctx, cfg, os.Stdin, os.Stdout)
	cancel()
	os.Exit(code)
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: lmsensors2 <discover|check|parse|journal> [flags]\n\nFlags:\n")
	fmt.Fprint(w, config.NewFlagSet(w).FlagUsages())
}

// run executes the subcommand named in cfg.Args and returns the exit code.
func run(ctx context.Context, cfg *config.Config, stdin io.Reader, stdout io.Writer) int {
	if len(cfg.Args) != 1 {
		usage(os.Stderr)
		return exitUsage
	}

	var err error
	code := 0
	cmd := cfg.Args[0]
	switch cmd {
	case "discover":
		err = runDiscover(cfg, stdin, stdout)
	case "check":
		code, err = runCheck(ctx, cfg, stdin, stdout)
	case "parse":
		err = runParse(cfg, stdin, stdout)
	case "journal":
		err = runJournal(ctx, cfg, stdout)
	default:
		err = errors.New().WithData(errors.ErrInvalidArgument, struct {
			Command string
		}{
			Command: cmd,
		})
	}

	if err != nil {
		var appErr errors.Error
		if errors.As(err, &appErr) {
			logger.ErrorWithContext(appErr, "cli", cmd).Msg("Command failed")
		} else {
			logger.Error().Err(err).Msg("Command failed")
		}
		return exitUsage
	}
	return code
}

// readSection reads agent output and parses the configured section. A
// section missing from the output yields an empty model.
func readSection(cfg *config.Config, stdin io.Reader) (sensors.Section, error) {
	r := stdin
	if cfg.Input != "" && cfg.Input != "-" {
		f, err := os.Open(cfg.Input)
		if err != nil {
			return nil, errors.New().Wrap(errors.ErrReadInput, err)
		}
		defer f.Close()
		r = f
	}

	lines, err := agent.Tokenize(r)
	if err != nil {
		return nil, err
	}

	body, found := agent.Section(lines, cfg.Section)
	if !found {
		logger.Debug().Str("section", cfg.Section).Msg("Section not present in agent output")
		return nil, nil
	}
	return sensors.ParseTokens(body)
}

func selectedPlugins(cfg *config.Config) ([]*check.Plugin, error) {
	if cfg.Plugin == "" {
		return check.Plugins(), nil
	}
	p, err := check.Lookup(cfg.Plugin)
	if err != nil {
		return nil, err
	}
	return []*check.Plugin{p}, nil
}

// paramsFor returns the --params override if given, else the configured rule.
func paramsFor(cfg *config.Config, p *check.Plugin) (check.Params, error) {
	if cfg.Params == "" {
		return cfg.RulesFor(p.Name), nil
	}

	var params check.Params
	if err := json.UnmarshalFromString(cfg.Params, &params); err != nil {
		return nil, errors.New().WithData(errors.ErrInvalidArgument, struct {
			Flag  string
			Error string
		}{
			Flag:  "params",
			Error: err.Error(),
		})
	}
	return params, nil
}

func runDiscover(cfg *config.Config, stdin io.Reader, stdout io.Writer) error {
	plugins, err := selectedPlugins(cfg)
	if err != nil {
		return err
	}
	section, err := readSection(cfg, stdin)
	if err != nil {
		return err
	}

	for _, p := range plugins {
		for item := range p.Discover(section) {
			if _, err := fmt.Fprintf(stdout, "%s\t%s\n", p.Name, item); err != nil {
				return errors.New().Wrap(errors.ErrEmit, err)
			}
		}
	}
	return nil
}

func newSink(cfg *config.Config, stdout io.Writer) (sink.Sink, error) {
	var out sink.Sink = sink.NewTextWriter(stdout)
	if cfg.Format == config.FormatJSON {
		out = sink.NewJSONWriter(stdout)
	}

	journal, err := metrics.NewSink(cfg.Journal, logger.Default())
	if err != nil {
		return nil, err
	}
	return sink.Multi(out, journal), nil
}

// runCheck checks the selected item, or every discovered item, and returns
// the worst state as exit code.
func runCheck(ctx context.Context, cfg *config.Config, stdin io.Reader, stdout io.Writer) (int, error) {
	if cfg.Item != "" && cfg.Plugin == "" {
		return 0, errors.New().WithMessage(errors.ErrInvalidArgument, "--item requires --plugin")
	}

	plugins, err := selectedPlugins(cfg)
	if err != nil {
		return 0, err
	}
	section, err := readSection(cfg, stdin)
	if err != nil {
		return 0, err
	}

	out, err := newSink(cfg, stdout)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := out.Close(); err != nil {
			var appErr errors.Error
			if errors.As(err, &appErr) {
				logger.ErrorWithCode(appErr).Msg("Failed to close sinks")
				return
			}
			logger.Error().Err(err).Msg("Failed to close sinks")
		}
	}()

	var states []check.State
	for _, p := range plugins {
		params, err := paramsFor(cfg, p)
		if err != nil {
			return 0, err
		}

		items := []string{cfg.Item}
		if cfg.Item == "" {
			items = slices.Collect(p.Discover(section))
		}

		for _, item := range items {
			outcome := checkItem(p, section, item, params)
			states = append(states, outcome.Result.State)

			if err := out.Emit(ctx, sink.NewRecord(p, item, outcome)); err != nil {
				return 0, err
			}
		}
	}

	return int(check.Worst(states...)), nil
}

// checkItem runs one check. Errors and vanished items become UNKNOWN
// results so that every requested service reports something.
func checkItem(p *check.Plugin, section sensors.Section, item string, params check.Params) check.Outcome {
	outcome, ok, err := p.Check(section, item, params)
	switch {
	case err != nil:
		logger.Warn().Err(err).Str("plugin", p.Name).Str("item", item).Msg("Check failed")
		return check.Outcome{Result: check.Result{State: check.Unknown, Summary: err.Error()}}
	case !ok:
		return check.Outcome{Result: check.Result{State: check.Unknown, Summary: summaryVanished}}
	default:
		return outcome
	}
}

type dumpSensor struct {
	Name  string   `json:"name"`
	Kind  string   `json:"kind"`
	Value *float64 `json:"value"`
	Warn  *float64 `json:"warn"`
	Crit  *float64 `json:"crit"`
}

type dumpChip struct {
	Name    string       `json:"name"`
	Adapter string       `json:"adapter"`
	Sensors []dumpSensor `json:"sensors"`
}

func runParse(cfg *config.Config, stdin io.Reader, stdout io.Writer) error {
	section, err := readSection(cfg, stdin)
	if err != nil {
		return err
	}

	chips := make([]dumpChip, 0, len(section))
	for _, c := range section {
		chip := dumpChip{Name: c.Name, Adapter: c.Adapter, Sensors: make([]dumpSensor, 0, len(c.Sensors))}
		for _, s := range c.Sensors {
			chip.Sensors = append(chip.Sensors, dumpSensor{
				Name:  s.Name,
				Kind:  s.Kind.String(),
				Value: s.Value,
				Warn:  s.Warn,
				Crit:  s.Crit,
			})
		}
		chips = append(chips, chip)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(chips); err != nil {
		return errors.New().Wrap(errors.ErrEmit, err)
	}
	return nil
}

// runJournal prints the latest journal entries, newest first, limited to
// one service when both --plugin and --item are given.
func runJournal(ctx context.Context, cfg *config.Config, stdout io.Writer) error {
	var service string
	if cfg.Plugin != "" && cfg.Item != "" {
		p, err := check.Lookup(cfg.Plugin)
		if err != nil {
			return err
		}
		service = p.Description(cfg.Item)
	}

	journalCfg := cfg.Journal
	journalCfg.Enabled = true
	j, err := metrics.Open(journalCfg, logger.Default())
	if err != nil {
		return err
	}
	defer j.Close()

	entries, err := j.Recent(ctx, service, journalLimit)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if _, err := fmt.Fprintf(stdout, "%s %-7s %q %s\n",
			e.RecordedAt.Format(time.RFC3339), e.State, e.Service, e.Summary); err != nil {
			return errors.New().Wrap(errors.ErrEmit, err)
		}
	}
	return nil
}
