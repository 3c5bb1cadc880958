package tokens

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	musicInitial  = "^"
	musicTerminal = "$"
	musicSep      = ","
)

// scoreParts reads and filters the parts of a score source.
func scoreParts(src Source, domain string, opts Options) ([]Part, error) {
	content, err := readUnits(src, domain)
	if err != nil {
		return nil, err
	}
	parts, err := ParseScore(content, opts.MaxLines)
	if err != nil {
		return nil, fmt.Errorf("%s units: %w", domain, err)
	}
	return SelectParts(parts, opts.Parts), nil
}

func joinFormatted[T any](tokens []T, format func(T) string, sep string) string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = format(t)
	}
	return strings.Join(out, sep)
}

// #region intervals

// Intervals tokenizes each part into the semitone steps between
// consecutive pitched events. Unison (0) is an ordinary token.
type Intervals struct {
	opts Options
}

// NewIntervals returns the interval adapter.
func NewIntervals(opts Options) *Intervals {
	return &Intervals{opts: opts}
}

func (a *Intervals) Domain() string { return DomainIntervals }

func (a *Intervals) Units(src Source) ([][]int, error) {
	parts, err := scoreParts(src, DomainIntervals, a.opts)
	if err != nil {
		return nil, err
	}
	var units [][]int
	for _, p := range parts {
		var unit []int
		prev, started := Pitch(0), false
		for _, ev := range p.Events {
			if ev.Rest {
				continue
			}
			if started {
				unit = append(unit, int(ev.Pitch-prev))
			}
			prev, started = ev.Pitch, true
		}
		if len(unit) > 0 {
			units = append(units, unit)
		}
	}
	return units, nil
}

func (a *Intervals) Codec() Codec[int] {
	return Codec[int]{
		Format:   strconv.Itoa,
		Parse:    strconv.Atoi,
		Sep:      musicSep,
		Initial:  musicInitial,
		Terminal: musicTerminal,
	}
}

// Render joins the intervals with commas.
func (a *Intervals) Render(tokens []int) string {
	return joinFormatted(tokens, strconv.Itoa, musicSep)
}

// #endregion intervals

// #region notes

// Notes tokenizes each part into its pitches, transposed by Options.Transpose.
type Notes struct {
	opts Options
}

// NewNotes returns the note adapter.
func NewNotes(opts Options) *Notes {
	return &Notes{opts: opts}
}

func (a *Notes) Domain() string { return DomainNotes }

func (a *Notes) Units(src Source) ([][]Pitch, error) {
	parts, err := scoreParts(src, DomainNotes, a.opts)
	if err != nil {
		return nil, err
	}
	var units [][]Pitch
	for _, p := range parts {
		var unit []Pitch
		for _, ev := range p.Events {
			if !ev.Rest {
				unit = append(unit, ev.Pitch+Pitch(a.opts.Transpose))
			}
		}
		if len(unit) > 0 {
			units = append(units, unit)
		}
	}
	return units, nil
}

func (a *Notes) Codec() Codec[Pitch] {
	return Codec[Pitch]{
		Format:   Pitch.String,
		Parse:    ParsePitch,
		Sep:      musicSep,
		Initial:  musicInitial,
		Terminal: musicTerminal,
	}
}

// Render joins note names with spaces.
func (a *Notes) Render(tokens []Pitch) string {
	return joinFormatted(tokens, Pitch.String, " ")
}

// #endregion notes

// #region durations

// Durations tokenizes each part into the quarter lengths of its notes.
type Durations struct {
	opts Options
}

// NewDurations returns the duration adapter.
func NewDurations(opts Options) *Durations {
	return &Durations{opts: opts}
}

func (a *Durations) Domain() string { return DomainDurations }

func (a *Durations) Units(src Source) ([][]float64, error) {
	parts, err := scoreParts(src, DomainDurations, a.opts)
	if err != nil {
		return nil, err
	}
	var units [][]float64
	for _, p := range parts {
		var unit []float64
		for _, ev := range p.Events {
			if !ev.Rest {
				unit = append(unit, ev.Duration)
			}
		}
		if len(unit) > 0 {
			units = append(units, unit)
		}
	}
	return units, nil
}

func (a *Durations) Codec() Codec[float64] {
	return Codec[float64]{
		Format:   formatDuration,
		Parse:    parseDuration,
		Sep:      musicSep,
		Initial:  musicInitial,
		Terminal: musicTerminal,
	}
}

// Render joins the quarter lengths with commas.
func (a *Durations) Render(tokens []float64) string {
	return joinFormatted(tokens, formatDuration, musicSep)
}

func formatDuration(d float64) string {
	return strconv.FormatFloat(d, 'g', -1, 64)
}

// #endregion durations
