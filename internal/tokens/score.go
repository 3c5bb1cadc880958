package tokens

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/danielpatrickdp/markov/internal/errs"
)

// #region pitch

// Pitch is a MIDI note number; middle C (C4) is 60.
type Pitch int

var pitchNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var pitchClass = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// String renders the pitch with sharps, e.g. "C#4".
func (p Pitch) String() string {
	n := int(p)
	pc := ((n % 12) + 12) % 12
	octave := (n-pc)/12 - 1
	return pitchNames[pc] + strconv.Itoa(octave)
}

// ParsePitch accepts a MIDI number or a name: letter, any number of '#' or
// 'b' accidentals, then an optional signed octave (default 4).
func ParsePitch(s string) (Pitch, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return Pitch(n), nil
	}
	if s == "" {
		return 0, fmt.Errorf("empty pitch")
	}
	pc, ok := pitchClass[s[0]]
	if !ok {
		return 0, fmt.Errorf("bad pitch letter in %q", s)
	}
	i := 1
accidentals:
	for ; i < len(s); i++ {
		switch s[i] {
		case '#':
			pc++
		case 'b':
			pc--
		default:
			break accidentals
		}
	}
	oct := 4
	if i < len(s) {
		n, err := strconv.Atoi(s[i:])
		if err != nil {
			return 0, fmt.Errorf("bad octave in %q", s)
		}
		oct = n
	}
	return Pitch((oct+1)*12 + pc), nil
}

// #endregion pitch

// #region score

// Event is one note or rest with its length in quarter notes.
type Event struct {
	Pitch    Pitch
	Rest     bool
	Duration float64
}

// Part is one line of a score.
type Part struct {
	Name   string
	Number int
	Events []Event
}

// ParseScore reads a plain-text score: one part per line, an optional
// "Name:" prefix, then events "<pitch>[/<quarterLength>]" separated by
// spaces or commas. "R" is a rest. Blank lines and '#' comments are skipped.
func ParseScore(content string, maxLines int) ([]Part, error) {
	var parts []Part
	for lineNo, line := range lines(content, maxLines) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		p := Part{Number: len(parts) + 1}
		if name, rest, ok := strings.Cut(line, ":"); ok {
			p.Name, line = strings.TrimSpace(name), rest
		} else {
			p.Name = fmt.Sprintf("Part %d", p.Number)
		}
		for _, f := range strings.FieldsFunc(line, func(r rune) bool { return unicode.IsSpace(r) || r == ',' }) {
			ev, err := parseEvent(f)
			if err != nil {
				return nil, errs.Input("parse score", fmt.Errorf("line %d: %w", lineNo+1, err))
			}
			p.Events = append(p.Events, ev)
		}
		parts = append(parts, p)
	}
	return parts, nil
}

func parseEvent(s string) (Event, error) {
	head, dur, hasDur := strings.Cut(s, "/")
	ev := Event{Duration: 1}
	if hasDur {
		d, err := parseDuration(dur)
		if err != nil {
			return ev, fmt.Errorf("event %q: %w", s, err)
		}
		ev.Duration = d
	}
	if head == "R" || head == "r" {
		ev.Rest = true
		return ev, nil
	}
	p, err := ParsePitch(head)
	if err != nil {
		return ev, fmt.Errorf("event %q: %w", s, err)
	}
	ev.Pitch = p
	return ev, nil
}

func parseDuration(s string) (float64, error) {
	d, err := strconv.ParseFloat(s, 64)
	if err != nil || !(d > 0) || d > 1e6 {
		return 0, fmt.Errorf("bad quarter length %q", s)
	}
	return d, nil
}

// SelectParts applies a filter of part names or 1-based numbers.
func SelectParts(parts []Part, filter []string) []Part {
	if len(filter) == 0 {
		return parts
	}
	var out []Part
	for _, p := range parts {
		for _, f := range filter {
			f = strings.TrimSpace(f)
			if n, err := strconv.Atoi(f); err == nil && n == p.Number || strings.EqualFold(f, p.Name) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// #endregion score
