package tokens

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Casers are stateful, so each call builds its own.
func toLower(s string) string { return cases.Lower(language.English).String(s) }
func toUpper(s string) string { return cases.Upper(language.English).String(s) }
func toTitle(s string) string { return cases.Title(language.English, cases.NoLower).String(s) }

// Sentence post-processing modes.
const (
	PostTitle = "TC"
	PostUpper = "UC"
	PostLower = "LC"
)

// #region words

// Words tokenizes text into sentences of words. A sentence ends at '.', '?'
// or '!' and the terminator is kept as its own token. Quotes and other
// punctuation are stripped; apostrophes and hyphens stay inside words.
type Words struct {
	opts Options
}

// NewWords returns the word adapter.
func NewWords(opts Options) *Words {
	return &Words{opts: opts}
}

func (a *Words) Domain() string { return DomainWords }

// Units returns one word slice per sentence.
func (a *Words) Units(src Source) ([][]string, error) {
	content, err := readUnits(src, DomainWords)
	if err != nil {
		return nil, err
	}
	var units [][]string
	for _, line := range lines(content, a.opts.MaxLines) {
		for _, s := range splitSentences(line) {
			if u := a.words(s); len(u) > 0 {
				units = append(units, u)
			}
		}
	}
	return units, nil
}

func (a *Words) words(sentence string) []string {
	body, term := sentence, ""
	if n := len(sentence); n > 0 && isTerminator(rune(sentence[n-1])) {
		body, term = sentence[:n-1], sentence[n-1:]
	}
	var out []string
	for _, f := range strings.FieldsFunc(body, isWordDelimiter) {
		w := strings.Map(dropPunct, f)
		if w == "" {
			continue
		}
		if a.opts.IgnoreCase {
			w = toLower(w)
		}
		if a.opts.RemoveStopWords && IsStopWord(w) {
			continue
		}
		out = append(out, w)
	}
	if len(out) == 0 {
		return nil
	}
	if term != "" {
		out = append(out, term)
	}
	return out
}

func (a *Words) Codec() Codec[string] {
	return Codec[string]{
		Format:   func(w string) string { return w },
		Parse:    parseWord,
		Sep:      " ",
		Initial:  "<s>",
		Terminal: "</s>",
	}
}

// Render joins words with spaces, attaches terminators to the preceding
// word and applies the configured post-processing.
func (a *Words) Render(tokens []string) string {
	var b strings.Builder
	for i, w := range tokens {
		if i > 0 && !(len(w) == 1 && isTerminator(rune(w[0]))) {
			b.WriteByte(' ')
		}
		b.WriteString(w)
	}
	return PostProcess(b.String(), a.opts.PostProcess)
}

// PostProcess applies TC (first word title cased), UC or LC to a sentence.
// Any other mode returns s unchanged.
func PostProcess(s, mode string) string {
	switch strings.ToUpper(mode) {
	case PostTitle:
		first, rest, found := strings.Cut(s, " ")
		if !found {
			return toTitle(s)
		}
		return toTitle(first) + " " + rest
	case PostUpper:
		return toUpper(s)
	case PostLower:
		return toLower(s)
	default:
		return s
	}
}

// splitSentences cuts a line after each run of terminators. Trailing text
// without a terminator is returned as a final sentence.
func splitSentences(line string) []string {
	var out []string
	start := 0
	rs := []rune(line)
	for i := 0; i < len(rs); i++ {
		if !isTerminator(rs[i]) {
			continue
		}
		out = append(out, strings.TrimSpace(string(rs[start:i+1])))
		for i+1 < len(rs) && isTerminator(rs[i+1]) {
			i++
		}
		start = i + 1
	}
	if tail := strings.TrimSpace(string(rs[start:])); tail != "" {
		out = append(out, tail)
	}
	return out
}

func isTerminator(r rune) bool {
	return r == '.' || r == '?' || r == '!'
}

func isWordDelimiter(r rune) bool {
	return unicode.IsSpace(r) || r == ',' || r == ';'
}

// dropPunct removes punctuation except apostrophes and hyphens.
func dropPunct(r rune) rune {
	if r == '\'' || r == '-' {
		return r
	}
	if unicode.IsPunct(r) || unicode.IsSymbol(r) {
		return -1
	}
	return r
}

func parseWord(s string) (string, error) {
	if s == "" || strings.ContainsFunc(s, isWordDelimiter) {
		return "", fmt.Errorf("not a single word: %q", s)
	}
	return s, nil
}

// #endregion words
