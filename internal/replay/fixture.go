package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/markov/internal/logging"
	"github.com/danielpatrickdp/markov/internal/persist"
	"github.com/danielpatrickdp/markov/internal/pipeline"
	"github.com/danielpatrickdp/markov/internal/sequencer"
	"github.com/danielpatrickdp/markov/internal/tokens"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture. The chain
// comes from Text (collected) or Rows (rehydrated, as exported from the
// store); Rows wins when both are set.
type Fixture struct {
	Description string         `json:"description"`
	Domain      string         `json:"domain"`
	Order       int            `json:"order"`
	Precision   int            `json:"precision,omitempty"`
	Text        string         `json:"text,omitempty"`
	Rows        []FixtureRow   `json:"rows,omitempty"`
	Options     FixtureOptions `json:"options"`
	Config      FixtureConfig  `json:"config"`
	RandSeed    int64          `json:"rand_seed"`
	Seed        string         `json:"seed,omitempty"`
	Expected    []string       `json:"expected"`
}

// FixtureRow mirrors persist.Row with JSON tags.
type FixtureRow struct {
	Key         string  `json:"key"`
	Next        string  `json:"next"`
	Count       int     `json:"count,omitempty"`
	Probability float64 `json:"probability"`
}

// FixtureOptions mirrors tokens.Options with JSON tags.
type FixtureOptions struct {
	IgnoreCase      bool     `json:"ignore_case,omitempty"`
	RemoveStopWords bool     `json:"remove_stop_words,omitempty"`
	MaxLines        int      `json:"max_lines,omitempty"`
	Parts           []string `json:"parts,omitempty"`
	Transpose       int      `json:"transpose,omitempty"`
	PostProcess     string   `json:"post_process,omitempty"`
}

// FixtureConfig mirrors sequencer.Config with JSON tags.
type FixtureConfig struct {
	MaxLength        int  `json:"max_length"`
	MinLength        int  `json:"min_length"`
	Count            int  `json:"count"`
	RecycleThreshold int  `json:"recycle_threshold"`
	InitialOnly      bool `json:"initial_only"`
	MaxAttempts      int  `json:"max_attempts"`
	Unique           bool `json:"unique,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// WriteFixture writes f as indented JSON.
func WriteFixture(path string, f *Fixture) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// ToSettings converts the fixture's chain description to pipeline settings.
func (f *Fixture) ToSettings() pipeline.Settings {
	return pipeline.Settings{
		Domain:    f.Domain,
		Order:     f.Order,
		Precision: f.Precision,
		Options: tokens.Options{
			IgnoreCase:      f.Options.IgnoreCase,
			RemoveStopWords: f.Options.RemoveStopWords,
			MaxLines:        f.Options.MaxLines,
			Parts:           f.Options.Parts,
			Transpose:       f.Options.Transpose,
			PostProcess:     f.Options.PostProcess,
		},
	}
}

// ToRequest converts the fixture's production knobs to a pipeline request.
func (f *Fixture) ToRequest() pipeline.Request {
	return pipeline.Request{
		Config:   f.Config.ToSequencerConfig(),
		RandSeed: f.RandSeed,
		Seed:     f.Seed,
		Unique:   f.Config.Unique,
	}
}

// ToSequencerConfig converts a FixtureConfig to a sequencer.Config.
func (fc FixtureConfig) ToSequencerConfig() sequencer.Config {
	return sequencer.Config{
		MaxLength:        fc.MaxLength,
		MinLength:        fc.MinLength,
		Count:            fc.Count,
		RecycleThreshold: fc.RecycleThreshold,
		InitialOnly:      fc.InitialOnly,
		MaxAttempts:      fc.MaxAttempts,
	}
}

// ToRows converts the fixture rows to persist rows.
func (f *Fixture) ToRows() []persist.Row {
	rows := make([]persist.Row, len(f.Rows))
	for i, r := range f.Rows {
		rows[i] = persist.Row{Key: r.Key, Next: r.Next, Count: r.Count, Probability: r.Probability}
	}
	return rows
}

// #endregion fixture-loader

// #region fixture-export

// FromRun builds a fixture from a logged run and the rows of the chain it
// used. The logged outputs become the expected results.
func FromRun(entry logging.RunEntry, rows []persist.Row, precision int, description string) (*Fixture, error) {
	cfg, outputs, err := entry.Decode()
	if err != nil {
		return nil, err
	}
	f := &Fixture{
		Description: description,
		Domain:      entry.Domain,
		Order:       cfg.Order,
		Precision:   precision,
		Options: FixtureOptions{
			Parts:       cfg.Parts,
			Transpose:   cfg.Transpose,
			PostProcess: cfg.PostProcess,
		},
		Config:   ConfigFromRun(cfg),
		RandSeed: entry.RandSeed,
		Seed:     entry.SeedText,
		Expected: outputs,
	}
	f.Rows = make([]FixtureRow, len(rows))
	for i, r := range rows {
		f.Rows[i] = FixtureRow{Key: r.Key, Next: r.Next, Count: r.Count, Probability: r.Probability}
	}
	return f, nil
}

// ConfigFromRun converts logged production knobs to a FixtureConfig.
func ConfigFromRun(rc logging.RunConfig) FixtureConfig {
	return FixtureConfig{
		MaxLength:        rc.MaxLength,
		MinLength:        rc.MinLength,
		Count:            rc.Count,
		RecycleThreshold: rc.RecycleThreshold,
		InitialOnly:      rc.InitialOnly,
		MaxAttempts:      rc.MaxAttempts,
		Unique:           rc.Unique,
	}
}

// #endregion fixture-export
