package tokens

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// #region characters

// Characters tokenizes text into runes. Every whitespace-delimited word is
// one unit. The terminal glyph is also treated as a delimiter so it can
// never occur as a natural token.
type Characters struct {
	opts Options
}

// NewCharacters returns the character adapter.
func NewCharacters(opts Options) *Characters {
	return &Characters{opts: opts}
}

func (a *Characters) Domain() string { return DomainChars }

// Units returns one rune slice per word.
func (a *Characters) Units(src Source) ([][]rune, error) {
	content, err := readUnits(src, DomainChars)
	if err != nil {
		return nil, err
	}
	var units [][]rune
	for _, line := range lines(content, a.opts.MaxLines) {
		if a.opts.IgnoreCase {
			line = toLower(line)
		}
		for _, w := range strings.FieldsFunc(line, isCharDelimiter) {
			units = append(units, []rune(w))
		}
	}
	return units, nil
}

func (a *Characters) Codec() Codec[rune] {
	return Codec[rune]{
		Format:   func(r rune) string { return string(r) },
		Parse:    parseRune,
		Sep:      "",
		Initial:  " ",
		Terminal: "~",
	}
}

// Render concatenates the runes.
func (a *Characters) Render(tokens []rune) string {
	return string(tokens)
}

func isCharDelimiter(r rune) bool {
	return unicode.IsSpace(r) || r == '~'
}

func parseRune(s string) (rune, error) {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != len(s) || isCharDelimiter(r) {
		return 0, fmt.Errorf("not a single character: %q", s)
	}
	return r, nil
}

// #endregion characters
