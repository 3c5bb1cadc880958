// Package config is the configuration surface shared by the commands:
// defaults, an optional YAML file, MARKOV_* environment overrides and
// command-line flags, in increasing precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/markov/internal/chain"
	"github.com/danielpatrickdp/markov/internal/errs"
	"github.com/danielpatrickdp/markov/internal/logging"
	"github.com/danielpatrickdp/markov/internal/persist"
	"github.com/danielpatrickdp/markov/internal/pipeline"
	"github.com/danielpatrickdp/markov/internal/sequencer"
	"github.com/danielpatrickdp/markov/internal/tokens"
)

// Environment overrides.
const (
	EnvDB       = "MARKOV_DB"
	EnvAddr     = "MARKOV_ADDR"
	EnvLogLevel = "MARKOV_LOG_LEVEL"
)

// #region config

// Config holds every knob of a collect and produce run.
type Config struct {
	File string `yaml:"-"`

	// chain
	Domain    string `yaml:"domain"`
	Order     int    `yaml:"order"`
	Precision int    `yaml:"precision"`
	Text      string `yaml:"text"`
	Source    string `yaml:"source"`
	Chain     string `yaml:"chain"`    // chain file to load instead of collecting
	Save      string `yaml:"save"`     // chain file to write after collecting
	Counts    bool   `yaml:"counts"`   // also write the counts table next to Save
	Display   string `yaml:"display"`  // print the chain to stdout in this format
	PerPart   bool   `yaml:"per_part"` // music domains: one chain per score part

	// store
	DB   string `yaml:"db"`
	Name string `yaml:"name"`

	// adapter
	IgnoreCase      bool     `yaml:"ignore_case"`
	RemoveStopWords bool     `yaml:"remove_stop_words"`
	MaxLines        int      `yaml:"max_lines"`
	Parts           []string `yaml:"parts"`
	Transpose       int      `yaml:"transpose"`
	PostProcess     string   `yaml:"post_process"`

	// production
	Seed        string `yaml:"seed"`
	RandSeed    int64  `yaml:"rand_seed"`
	Min         int    `yaml:"min"`
	Max         int    `yaml:"max"`
	Num         int    `yaml:"num"`
	Recycle     int    `yaml:"recycle"`
	Initial     bool   `yaml:"initial"`
	MaxAttempts int    `yaml:"max_attempts"`
	Unique      bool   `yaml:"unique"`

	// service
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	Addr        string `yaml:"addr"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	sc := sequencer.DefaultConfig()
	return &Config{
		Domain:      tokens.DomainWords,
		Order:       2,
		Precision:   chain.DefaultPrecision,
		Min:         sc.MinLength,
		Max:         sc.MaxLength,
		Num:         sc.Count,
		Recycle:     sc.RecycleThreshold,
		MaxAttempts: sc.MaxAttempts,
		LogLevel:    "info",
		LogFormat:   "text",
		Addr:        "localhost:50061",
		MetricsAddr: ":9464",
	}
}

// #endregion config

// #region sources

// LoadFile merges a YAML file into c. Keys absent from the file keep their
// current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errs.Input("load config", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return errs.Parameter("load config", fmt.Errorf("parse %s: %w", path, err))
	}
	c.File = path
	return nil
}

// ApplyEnv applies the MARKOV_* overrides.
func (c *Config) ApplyEnv() {
	c.DB = envOr(EnvDB, c.DB)
	c.Addr = envOr(EnvAddr, c.Addr)
	c.LogLevel = envOr(EnvLogLevel, c.LogLevel)
}

// BindFlags registers every field on fs with the current values as defaults.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.File, "config", c.File, "YAML configuration file")

	fs.StringVar(&c.Domain, "domain", c.Domain, "token domain: "+strings.Join(tokens.Domains(), ", "))
	fs.IntVar(&c.Order, "order", c.Order, fmt.Sprintf("chain order 1..%d (0 infers it from -chain)", chain.MaxOrder))
	fs.IntVar(&c.Precision, "precision", c.Precision, "decimal places of stored probabilities")
	fs.StringVar(&c.Text, "text", c.Text, "inline training text")
	fs.StringVar(&c.Source, "source", c.Source, "training file")
	fs.StringVar(&c.Chain, "chain", c.Chain, "load a saved chain (.csv, .json, .yaml) instead of collecting")
	fs.StringVar(&c.Save, "save", c.Save, "write the collected chain to this file")
	fs.BoolVar(&c.Counts, "counts", c.Counts, "also write the counts table next to -save")
	fs.StringVar(&c.Display, "display", c.Display, "print the chain: csv, json or yaml")
	fs.BoolVar(&c.PerPart, "per-part", c.PerPart, "music domains: train and produce one chain per part")

	fs.StringVar(&c.DB, "db", c.DB, "SQLite chain store (env "+EnvDB+")")
	fs.StringVar(&c.Name, "name", c.Name, "chain name in the store")

	fs.BoolVar(&c.IgnoreCase, "ignore-case", c.IgnoreCase, "fold case while collecting")
	fs.BoolVar(&c.RemoveStopWords, "remove-stop-words", c.RemoveStopWords, "drop English stop words (words domain)")
	fs.IntVar(&c.MaxLines, "max-lines", c.MaxLines, "read at most this many lines (0 = all)")
	fs.Func("parts", "comma separated part names or numbers (music domains)", func(s string) error {
		c.Parts = splitList(s)
		return nil
	})
	fs.IntVar(&c.Transpose, "transpose", c.Transpose, "semitones to transpose (notes domain)")
	fs.StringVar(&c.PostProcess, "pp", c.PostProcess, "post-processing: TC, UC or LC (words domain)")

	fs.StringVar(&c.Seed, "seed", c.Seed, "explicit seed key in chain file encoding")
	fs.Int64Var(&c.RandSeed, "rand-seed", c.RandSeed, "random seed (0 = default)")
	fs.IntVar(&c.Min, "min", c.Min, "minimum sequence length")
	fs.IntVar(&c.Max, "max", c.Max, "maximum sequence length")
	fs.IntVar(&c.Num, "num", c.Num, "sequences to produce (0 = collect only)")
	fs.IntVar(&c.Recycle, "recycle", c.Recycle, "sequences per seed before a fresh draw")
	fs.BoolVar(&c.Initial, "initial", c.Initial, "seed only from unit-opening windows")
	fs.BoolVar(&c.Unique, "unique", c.Unique, "drop repeated outputs")
	fs.IntVar(&c.MaxAttempts, "max-attempts", c.MaxAttempts, "draws allowed per requested sequence")

	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error (env "+EnvLogLevel+")")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "text or json")
	fs.StringVar(&c.Addr, "addr", c.Addr, "gRPC address (env "+EnvAddr+")")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "Prometheus /metrics listen address")
}

// Parse builds a Config from args. A -config file is applied first, then
// the environment, then the remaining flags.
func Parse(name string, args []string) (*Config, error) {
	probe := Default()
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	probe.BindFlags(fs)
	if err := fs.Parse(args); err != nil && !errors.Is(err, flag.ErrHelp) {
		return nil, errs.Parameter("parse flags", err)
	}

	c := Default()
	if probe.File != "" {
		if err := c.LoadFile(probe.File); err != nil {
			return nil, err
		}
	}
	c.ApplyEnv()

	fs = flag.NewFlagSet(name, flag.ContinueOnError)
	c.BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, errs.Parameter("parse flags", err)
	}
	return c, nil
}

// #endregion sources

// #region validate

// Validate reports the first unusable setting before any collection work.
func (c *Config) Validate() error {
	if !tokens.Known(c.Domain) {
		return errs.Parameter("validate", fmt.Errorf("unknown domain %q (known: %v)", c.Domain, tokens.Domains()))
	}
	minOrder := 1
	if c.Chain != "" {
		minOrder = 0
	}
	if c.Order < minOrder || c.Order > chain.MaxOrder {
		return errs.Parameter("validate", fmt.Errorf("%w: %d", errs.ErrInvalidOrder, c.Order))
	}
	if c.Precision < 1 || c.Precision > 15 {
		return errs.Parameter("validate", fmt.Errorf("precision %d not in [1,15]", c.Precision))
	}
	if c.Text == "" && c.Source == "" && c.Chain == "" && (c.DB == "" || c.Name == "") {
		return errs.Input("validate", errs.ErrNoSource)
	}
	if c.Text == "" && c.Source != "" {
		if _, err := os.Stat(c.Source); err != nil {
			return errs.Input("validate", err)
		}
	}
	if c.Chain != "" {
		if _, err := persist.FormatFromPath(c.Chain); err != nil {
			return err
		}
	}
	if c.PerPart && !tokens.IsMusic(c.Domain) {
		return errs.Parameter("validate", fmt.Errorf("-per-part needs a music domain, got %q", c.Domain))
	}
	if c.Save != "" {
		if _, err := persist.FormatFromPath(c.Save); err != nil {
			return err
		}
	}
	if c.Display != "" {
		if _, err := persist.ParseFormat(c.Display); err != nil {
			return err
		}
	}
	switch strings.ToUpper(c.PostProcess) {
	case "", tokens.PostTitle, tokens.PostUpper, tokens.PostLower:
	default:
		return errs.Parameter("validate", fmt.Errorf("post-processing %q not one of TC, UC, LC", c.PostProcess))
	}
	if err := c.SequencerConfig().Validate(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return errs.Parameter("validate", err)
	}
	return nil
}

// #endregion validate

// #region conversions

// Options returns the adapter options.
func (c *Config) Options() tokens.Options {
	return tokens.Options{
		IgnoreCase:      c.IgnoreCase,
		RemoveStopWords: c.RemoveStopWords,
		MaxLines:        c.MaxLines,
		Parts:           c.Parts,
		Transpose:       c.Transpose,
		PostProcess:     strings.ToUpper(c.PostProcess),
	}
}

// Settings returns the pipeline settings for the configured domain.
func (c *Config) Settings() pipeline.Settings {
	return pipeline.Settings{Domain: c.Domain, Order: c.Order, Precision: c.Precision, Options: c.Options()}
}

// SourceSpec returns the training source.
func (c *Config) SourceSpec() tokens.Source {
	return tokens.Source{Text: c.Text, Path: c.Source}
}

// SequencerConfig returns the production knobs.
func (c *Config) SequencerConfig() sequencer.Config {
	return sequencer.Config{
		MaxLength:        c.Max,
		MinLength:        c.Min,
		Count:            c.Num,
		RecycleThreshold: c.Recycle,
		InitialOnly:      c.Initial,
		MaxAttempts:      c.MaxAttempts,
	}
}

// Request returns a production request.
func (c *Config) Request() pipeline.Request {
	return pipeline.Request{Config: c.SequencerConfig(), RandSeed: c.RandSeed, Seed: c.Seed, Unique: c.Unique}
}

// RunConfig returns the knobs recorded in the run log. order is the order
// of the chain actually used, which may have been inferred.
func (c *Config) RunConfig(order int) logging.RunConfig {
	return logging.RunConfig{
		Order:            order,
		MaxLength:        c.Max,
		MinLength:        c.Min,
		Count:            c.Num,
		RecycleThreshold: c.Recycle,
		InitialOnly:      c.Initial,
		MaxAttempts:      c.MaxAttempts,
		Unique:           c.Unique,
		PostProcess:      strings.ToUpper(c.PostProcess),
		Parts:            c.Parts,
		Transpose:        c.Transpose,
	}
}

// #endregion conversions

// #region helpers

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// #endregion helpers
