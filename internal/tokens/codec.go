package tokens

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/danielpatrickdp/markov/internal/chain"
	"github.com/danielpatrickdp/markov/internal/errs"
)

// #region codec

// Codec is a domain's string encoding at the format boundary. The glyphs
// stand in for the sentinels and must never be a valid Format result.
type Codec[T cmp.Ordered] struct {
	Format   func(T) string
	Parse    func(string) (T, error)
	Sep      string // joins the symbols of a window key
	Initial  string
	Terminal string
}

// FormatSymbol encodes one symbol.
func (c Codec[T]) FormatSymbol(s chain.Symbol[T]) string {
	switch {
	case s.IsInitial():
		return c.Initial
	case s.IsTerminal():
		return c.Terminal
	default:
		return c.Format(s.Value())
	}
}

// ParseSymbol decodes one symbol, recognizing the sentinel glyphs.
func (c Codec[T]) ParseSymbol(text string) (chain.Symbol[T], error) {
	switch text {
	case c.Initial:
		return chain.InitialSymbol[T](), nil
	case c.Terminal:
		return chain.TerminalSymbol[T](), nil
	}
	v, err := c.Parse(text)
	if err != nil {
		return chain.Symbol[T]{}, fmt.Errorf("parse symbol %q: %w", text, err)
	}
	return chain.Token(v), nil
}

// FormatKey joins the encoded symbols of k with the separator.
func (c Codec[T]) FormatKey(k chain.Key[T]) string {
	parts := make([]string, k.Len())
	for i := range parts {
		parts[i] = c.FormatSymbol(k.At(i))
	}
	return strings.Join(parts, c.Sep)
}

// ParseKey decodes a key that must hold exactly order symbols. Errors wrap
// errs.ErrSeedArity or errs.ErrMalformedSeed; callers classify them.
func (c Codec[T]) ParseKey(text string, order int) (chain.Key[T], error) {
	parts := strings.Split(text, c.Sep)
	if text == "" {
		parts = nil
	}
	if len(parts) != order {
		return chain.Key[T]{}, fmt.Errorf("%w: %q has %d symbols, want %d", errs.ErrSeedArity, text, len(parts), order)
	}
	syms := make([]chain.Symbol[T], len(parts))
	for i, p := range parts {
		s, err := c.ParseSymbol(p)
		if err != nil {
			return chain.Key[T]{}, fmt.Errorf("%w: %w", errs.ErrMalformedSeed, err)
		}
		syms[i] = s
	}
	k, err := chain.NewKey(syms...)
	if err != nil {
		return chain.Key[T]{}, fmt.Errorf("%w: %w", errs.ErrMalformedSeed, err)
	}
	return k, nil
}

// #endregion codec
