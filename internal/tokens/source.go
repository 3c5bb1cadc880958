// Package tokens turns raw sources into token units for chain collection
// and renders produced token sequences back into text.
package tokens

import (
	"cmp"
	"fmt"
	"os"
	"strings"

	"github.com/danielpatrickdp/markov/internal/errs"
)

// #region source

// Source is inline text or a file path. Inline text wins when both are set.
type Source struct {
	Text string
	Path string
}

// Read returns the source content. Missing input and unreadable files are
// input errors; empty content is not.
func (s Source) Read() (string, error) {
	if s.Text != "" {
		return s.Text, nil
	}
	if s.Path == "" {
		return "", errs.Input("read source", errs.ErrNoSource)
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return "", errs.Input("read source", err)
	}
	return strings.ReplaceAll(string(data), "\t", " "), nil
}

func (s Source) String() string {
	if s.Text != "" {
		return "inline text"
	}
	return s.Path
}

// #endregion source

// #region options

// Options are the adapter knobs exposed on the configuration surface. Each
// adapter reads only the fields that apply to its domain.
type Options struct {
	IgnoreCase      bool
	RemoveStopWords bool
	MaxLines        int      // 0 reads every line
	Parts           []string // part names or 1-based numbers; empty keeps all
	Transpose       int      // semitones, notes domain only
	PostProcess     string   // TC, UC, LC or empty, words domain only
}

// #endregion options

// #region adapter

// Adapter is a domain's tokenizer. Units must be restartable: reading the
// same source twice yields identical units.
type Adapter[T cmp.Ordered] interface {
	Domain() string
	Units(src Source) ([][]T, error)
	Codec() Codec[T]
	Render(tokens []T) string
}

// #endregion adapter

// lines splits content into lines, honoring a max line count.
func lines(content string, max int) []string {
	out := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

func readUnits(src Source, domain string) (string, error) {
	content, err := src.Read()
	if err != nil {
		return "", fmt.Errorf("%s units: %w", domain, err)
	}
	return content, nil
}
