package chain

import (
	"cmp"
	"fmt"
)

// #region kind

// Kind tells natural tokens apart from the two unit sentinels.
type Kind uint8

const (
	Natural Kind = iota
	Initial
	Terminal
)

func (k Kind) String() string {
	switch k {
	case Natural:
		return "natural"
	case Initial:
		return "initial"
	case Terminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// rank orders kinds: Initial < Natural < Terminal.
func (k Kind) rank() int {
	switch k {
	case Initial:
		return 0
	case Natural:
		return 1
	default:
		return 2
	}
}

// #endregion kind

// #region symbol

// Symbol is a chain state element: a natural domain token or a sentinel.
// Sentinels carry the zero value of T and differ from every natural token
// by their kind.
type Symbol[T cmp.Ordered] struct {
	kind  Kind
	value T
}

// Token wraps a natural domain value.
func Token[T cmp.Ordered](v T) Symbol[T] {
	return Symbol[T]{kind: Natural, value: v}
}

// InitialSymbol returns the unit-start sentinel.
func InitialSymbol[T cmp.Ordered]() Symbol[T] {
	return Symbol[T]{kind: Initial}
}

// TerminalSymbol returns the unit-end sentinel.
func TerminalSymbol[T cmp.Ordered]() Symbol[T] {
	return Symbol[T]{kind: Terminal}
}

// Tokens wraps each natural value in a Symbol.
func Tokens[T cmp.Ordered](vals ...T) []Symbol[T] {
	out := make([]Symbol[T], len(vals))
	for i, v := range vals {
		out[i] = Token(v)
	}
	return out
}

func (s Symbol[T]) Kind() Kind      { return s.kind }
func (s Symbol[T]) Value() T        { return s.value }
func (s Symbol[T]) IsNatural() bool { return s.kind == Natural }
func (s Symbol[T]) IsInitial() bool { return s.kind == Initial }
func (s Symbol[T]) IsTerminal() bool {
	return s.kind == Terminal
}

// Compare orders Initial first, naturals by value, Terminal last.
func (s Symbol[T]) Compare(o Symbol[T]) int {
	if c := cmp.Compare(s.kind.rank(), o.kind.rank()); c != 0 {
		return c
	}
	if s.kind != Natural {
		return 0
	}
	return cmp.Compare(s.value, o.value)
}

func (s Symbol[T]) String() string {
	switch s.kind {
	case Initial:
		return "<initial>"
	case Terminal:
		return "<terminal>"
	default:
		return fmt.Sprint(s.value)
	}
}

// #endregion symbol

// #region key

// MaxOrder is the largest supported chain order.
const MaxOrder = 5

// Key is an ordered window of exactly Len() symbols. It is comparable and is
// used as a map key directly.
type Key[T cmp.Ordered] struct {
	n uint8
	s [MaxOrder]Symbol[T]
}

// NewKey builds a key from 1..MaxOrder symbols.
func NewKey[T cmp.Ordered](syms ...Symbol[T]) (Key[T], error) {
	var k Key[T]
	if len(syms) < 1 || len(syms) > MaxOrder {
		return k, fmt.Errorf("key length %d outside [1,%d]", len(syms), MaxOrder)
	}
	k.n = uint8(len(syms))
	copy(k.s[:], syms)
	return k, nil
}

// MustKey is NewKey that panics on a bad length.
func MustKey[T cmp.Ordered](syms ...Symbol[T]) Key[T] {
	k, err := NewKey(syms...)
	if err != nil {
		panic(err)
	}
	return k
}

// KeyOf builds a key of natural tokens.
func KeyOf[T cmp.Ordered](vals ...T) Key[T] {
	return MustKey(Tokens(vals...)...)
}

// StartKey is the all-Initial window every unit begins with.
func StartKey[T cmp.Ordered](order int) Key[T] {
	syms := make([]Symbol[T], order)
	for i := range syms {
		syms[i] = InitialSymbol[T]()
	}
	return MustKey(syms...)
}

func (k Key[T]) Len() int { return int(k.n) }

func (k Key[T]) At(i int) Symbol[T] { return k.s[i] }

// Symbols returns a copy of the window contents.
func (k Key[T]) Symbols() []Symbol[T] {
	out := make([]Symbol[T], k.n)
	copy(out, k.s[:k.n])
	return out
}

// Naturals returns the natural token values of the window, in order.
func (k Key[T]) Naturals() []T {
	var out []T
	for _, s := range k.s[:k.n] {
		if s.IsNatural() {
			out = append(out, s.value)
		}
	}
	return out
}

// Shift drops the oldest symbol and appends next.
func (k Key[T]) Shift(next Symbol[T]) Key[T] {
	if k.n == 0 {
		return k
	}
	copy(k.s[:k.n-1], k.s[1:k.n])
	k.s[k.n-1] = next
	return k
}

// StartsUnit reports whether the window opens a unit.
func (k Key[T]) StartsUnit() bool {
	return k.n > 0 && k.s[0].IsInitial()
}

// Compare orders keys lexicographically by symbol, shorter first on a tie.
func (k Key[T]) Compare(o Key[T]) int {
	n := min(k.n, o.n)
	for i := uint8(0); i < n; i++ {
		if c := k.s[i].Compare(o.s[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(k.n, o.n)
}

func (k Key[T]) String() string {
	return fmt.Sprint(k.Symbols())
}

// #endregion key
