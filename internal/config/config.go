// Package config loads lmsensors2 settings from file, environment and flags.
//
// Precedence, highest first: command line flags, LMSENSORS2_* environment
// variables, the config file, built-in defaults. Per-plugin rule params live
// in [params.<plugin>] tables of the config file.
package config

import (
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"codeberg.org/mutker/lmsensors2/internal/agent"
	"codeberg.org/mutker/lmsensors2/internal/check"
	"codeberg.org/mutker/lmsensors2/internal/errors"
	"codeberg.org/mutker/lmsensors2/internal/logger"
	"codeberg.org/mutker/lmsensors2/internal/metrics"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultEnvPrefix = "LMSENSORS2"
	DefaultConfigDir = "/etc/lmsensors2"
	DefaultLogLevel  = "info"
	DefaultFormat    = FormatText

	FormatText = "text"
	FormatJSON = "json"

	configName = "lmsensors2"
)

// ErrHelp is returned by Load when -h or --help was requested.
var ErrHelp = pflag.ErrHelp

type Config struct {
	LogLevel string
	Input    string
	Section  string
	Format   string
	Plugin   string
	Item     string
	Params   string // JSON rule params given on the command line
	Journal  metrics.Config

	// Rules maps full plugin names to their configured params.
	Rules map[string]check.Params
	// Args are the positional arguments left after flag parsing.
	Args []string
}

// RulesFor returns the configured params for plugin, nil if there are none.
func (c *Config) RulesFor(plugin string) check.Params {
	return c.Rules[plugin]
}

// Load parses args (without the program name) and merges them with the
// environment and the config file.
func Load(args []string, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	fs := NewFlagSet(io.Discard)
	if err := fs.Parse(args); err != nil {
		if stderrors.Is(err, pflag.ErrHelp) {
			return nil, ErrHelp
		}
		return nil, errFactory.Wrap(errors.ErrInvalidArgument, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := bindFlags(v, fs); err != nil {
		return nil, err
	}

	if err := readConfigFile(v, o, fs); err != nil {
		return nil, err
	}

	cfg := &Config{
		LogLevel: v.GetString("log_level"),
		Input:    v.GetString("input"),
		Section:  v.GetString("section"),
		Format:   strings.ToLower(v.GetString("format")),
		Plugin:   v.GetString("plugin"),
		Item:     v.GetString("item"),
		Params:   v.GetString("params_json"),
		Journal: metrics.Config{
			DBPath:    v.GetString("journal.path"),
			BatchSize: v.GetInt("journal.batch_size"),
			Enabled:   v.GetBool("journal.enabled"),
		},
		Args: fs.Args(),
	}

	rules, err := loadRules(v)
	if err != nil {
		return nil, err
	}
	cfg.Rules = rules

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewFlagSet returns the command line flags understood by Load. Usage goes
// to out.
func NewFlagSet(out io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("lmsensors2", pflag.ContinueOnError)
	fs.SetOutput(out)
	fs.SortFlags = false

	fs.String("config", "", "Path to the configuration file")
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	fs.String("input", "", "Read agent output from `file` instead of stdin")
	fs.String("section", agent.DefaultSection, "Agent section holding the sensors output; empty if the input is the bare section")
	fs.String("format", DefaultFormat, "Output format (text, json)")
	fs.String("plugin", "", "Restrict to one check plugin (temp, fan, volt)")
	fs.String("item", "", "Check only this item")
	fs.String("params", "", "Rule params as a JSON object, replacing configured params")
	fs.String("journal", "", "Record results in the SQLite journal at `path`")
	fs.Int("journal-batch", 0, "Journal entries written per transaction")

	return fs
}

func setDefaults(v *viper.Viper) {
	defaults := metrics.DefaultConfig()

	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("section", agent.DefaultSection)
	v.SetDefault("format", DefaultFormat)
	v.SetDefault("journal.enabled", defaults.Enabled)
	v.SetDefault("journal.path", defaults.DBPath)
	v.SetDefault("journal.batch_size", defaults.BatchSize)
}

var flagKeys = map[string]string{
	"log-level":     "log_level",
	"input":         "input",
	"section":       "section",
	"format":        "format",
	"plugin":        "plugin",
	"item":          "item",
	"params":        "params_json",
	"journal":       "journal.path",
	"journal-batch": "journal.batch_size",
}

// bindFlags binds only flags that were set, so their defaults do not hide
// file and environment values.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		if !fs.Changed(name) {
			continue
		}
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return errors.New().WithData(errors.ErrBindFlags, struct {
				Flag  string
				Error string
			}{
				Flag:  name,
				Error: err.Error(),
			})
		}
	}

	if fs.Changed("journal") {
		v.Set("journal.enabled", true)
	}
	return nil
}

func readConfigFile(v *viper.Viper, o *options, fs *pflag.FlagSet) error {
	path := o.configPath
	if flagPath, _ := fs.GetString("config"); flagPath != "" {
		path = flagPath
	}
	if path == "" {
		path = v.GetString("config")
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		for _, dir := range o.searchPaths {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && stderrors.As(err, &notFound) {
			logger.Debug().Msg("No config file found, using defaults")
			return nil
		}
		return errors.New().WithData(errors.ErrReadConfig, struct {
			Path  string
			Error string
		}{
			Path:  path,
			Error: err.Error(),
		})
	}

	logger.Debug().Str("path", v.ConfigFileUsed()).Msg("Loaded config file")
	return nil
}

// loadRules reads the [params.<plugin>] tables. Short plugin names are
// accepted and stored under the full name.
func loadRules(v *viper.Viper) (map[string]check.Params, error) {
	errFactory := errors.New()

	raw := v.GetStringMap("params")
	rules := make(map[string]check.Params, len(raw))
	for name, value := range raw {
		p, err := check.Lookup(name)
		if err != nil {
			return nil, err
		}

		table, ok := value.(map[string]any)
		if !ok {
			return nil, errFactory.WithMessage(errors.ErrInvalidConfig,
				fmt.Sprintf("params.%s must be a table, got %T", name, value))
		}
		rules[p.Name] = check.Params(table)
	}
	return rules, nil
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}

	switch c.Format {
	case FormatText, FormatJSON:
	default:
		return errFactory.WithData(errors.ErrInvalidConfig, struct {
			Field string
			Value string
		}{
			Field: "format",
			Value: c.Format,
		})
	}

	if c.Plugin != "" {
		if _, err := check.Lookup(c.Plugin); err != nil {
			return err
		}
	}

	if err := c.Journal.Validate(); err != nil {
		return errFactory.Wrap(errors.ErrInvalidConfig, err)
	}
	return nil
}
