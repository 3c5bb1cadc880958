package chain

import (
	"math"
	"testing"

	"github.com/danielpatrickdp/markov/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runes(words ...string) [][]rune {
	out := make([][]rune, len(words))
	for i, w := range words {
		out[i] = []rune(w)
	}
	return out
}

func sentences() [][]string {
	return [][]string{{"I", "run", "."}, {"I", "walk", "."}}
}

func TestBuildCharacterChain(t *testing.T) {
	c, err := Build(runes("cat", "cat", "cat"), 2)
	require.NoError(t, err)

	d, ok := c.Probabilities(KeyOf('c', 'a'))
	require.True(t, ok)
	require.Len(t, d, 1)
	assert.Equal(t, Token('t'), d[0].Symbol)
	assert.Equal(t, 1.0, d[0].P)

	first, ok := c.Probabilities(MustKey(InitialSymbol[rune](), Token('c')))
	require.True(t, ok)
	assert.Equal(t, 1.0, first.P(Token('a')))

	end, ok := c.Probabilities(KeyOf('a', 't'))
	require.True(t, ok)
	assert.Equal(t, 1.0, end.P(TerminalSymbol[rune]()))

	assert.Equal(t, 4, c.Len())
	assert.Len(t, c.InitialKeys(), 2)
}

func TestBuildWordChain(t *testing.T) {
	c, err := Build(sentences(), 1)
	require.NoError(t, err)

	d, ok := c.Probabilities(KeyOf("I"))
	require.True(t, ok)
	assert.Equal(t, 0.5, d.P(Token("run")))
	assert.Equal(t, 0.5, d.P(Token("walk")))
	assert.Equal(t, Token("run"), d[0].Symbol, "outcomes are in ascending order")
	assert.Equal(t, 2, c.Counts().Count(StartKey[string](1), Token("I")))
}

func TestSampleInverseCDF(t *testing.T) {
	c, err := Build(sentences(), 1)
	require.NoError(t, err)
	d, _ := c.Probabilities(KeyOf("I"))

	assert.Equal(t, Token("walk"), d.Sample(0.999999))
	assert.Equal(t, Token("run"), d.Sample(0))
	assert.Equal(t, Token("run"), d.Sample(0.4999))
	assert.Equal(t, Token("walk"), d.Sample(0.5), "cumulative must strictly exceed r")
}

func TestSampleFallsBackToLast(t *testing.T) {
	d := Distribution[string]{
		{Symbol: Token("a"), P: 0.333333},
		{Symbol: Token("b"), P: 0.333333},
		{Symbol: Token("c"), P: 0.333333},
	}
	assert.Equal(t, Token("c"), d.Sample(0.9999995))
}

func TestNormalizationAndNoSmoothing(t *testing.T) {
	units := [][]string{{"a", "b"}, {"a", "c"}, {"a", "c"}}
	c, err := Build(units, 1)
	require.NoError(t, err)

	d, ok := c.Probabilities(KeyOf("a"))
	require.True(t, ok)
	assert.Equal(t, 0.333333, d.P(Token("b")))
	assert.Equal(t, 0.666667, d.P(Token("c")))
	assert.Zero(t, d.P(Token("a")), "unseen transitions stay absent")

	for _, k := range c.Keys() {
		row, _ := c.Probabilities(k)
		var sum float64
		for _, o := range row {
			sum += o.P
		}
		assert.InDelta(t, 1.0, sum, 1e-6, "row %v", k)
	}
}

func TestRoundingFloor(t *testing.T) {
	units := [][]string{{"a", "b"}}
	for range 29 {
		units = append(units, []string{"a", "c"})
	}
	c, err := Build(units, 1, WithPrecision(1))
	require.NoError(t, err)
	d, _ := c.Probabilities(KeyOf("a"))
	assert.Equal(t, 0.1, d.P(Token("b")))
	assert.Equal(t, 1, c.Precision())
}

func TestEmptyInputHasNoKeys(t *testing.T) {
	c, err := Build[string](nil, 2)
	require.NoError(t, err)
	assert.True(t, c.Empty())
	assert.Zero(t, c.Len())

	c, err = Build([][]string{{}, {}}, 1)
	require.NoError(t, err)
	assert.True(t, c.Empty())
}

func TestInvalidOrder(t *testing.T) {
	_, err := NewBuilder[string](0)
	require.Error(t, err)
	assert.True(t, errs.IsParameter(err))

	_, err = Build([][]string{{"a"}}, MaxOrder+1)
	assert.True(t, errs.IsParameter(err))
}

func TestFromProbabilities(t *testing.T) {
	built, err := Build(sentences(), 1)
	require.NoError(t, err)

	rows := make(map[Key[string]]map[Symbol[string]]float64)
	for _, k := range built.Keys() {
		d, _ := built.Probabilities(k)
		row := map[Symbol[string]]float64{Token("zzz"): 0}
		for _, o := range d {
			row[o.Symbol] = o.P
		}
		rows[k] = row
	}
	got, err := FromProbabilities(1, DefaultPrecision, rows)
	require.NoError(t, err)
	assert.Nil(t, got.Counts())
	assert.Equal(t, built.Keys(), got.Keys())
	for _, k := range built.Keys() {
		want, _ := built.Probabilities(k)
		have, _ := got.Probabilities(k)
		assert.Equal(t, want, have, "key %v", k)
	}
}

func TestFromProbabilitiesRejectsBadRows(t *testing.T) {
	_, err := FromProbabilities(2, 6, map[Key[string]]map[Symbol[string]]float64{
		KeyOf("a"): {Token("b"): 1},
	})
	assert.True(t, errs.IsFormat(err))

	_, err = FromProbabilities(1, 6, map[Key[string]]map[Symbol[string]]float64{
		KeyOf("a"): {Token("b"): math.NaN()},
	})
	assert.True(t, errs.IsFormat(err))

	_, err = FromProbabilities(1, 6, map[Key[string]]map[Symbol[string]]float64{
		KeyOf("a"): {Token("b"): 0},
	})
	assert.True(t, errs.IsFormat(err))
}

func TestStats(t *testing.T) {
	c, err := Build(sentences(), 1)
	require.NoError(t, err)
	s := c.Stats()
	assert.Equal(t, 1, s.Order)
	// [<initial>], [I], [run], [walk], [.]
	assert.Equal(t, 5, s.Keys)
	assert.Equal(t, 1, s.InitialKeys)
	assert.InDelta(t, 1.0, s.MaxEntropy, 1e-9)
	assert.InDelta(t, 0.2, s.MeanEntropy, 1e-9)
	assert.Zero(t, s.MaxRowError)

	empty, _ := Build[string](nil, 1)
	assert.Zero(t, empty.Stats().Keys)
}

func TestBuiltChainCountsDetachedFromBuilder(t *testing.T) {
	b, err := NewBuilder[string](1)
	require.NoError(t, err)
	b.AddUnit([]string{"a", "b"})
	c := b.Build()

	b.AddUnit([]string{"a", "c"})
	b.AddUnit([]string{"z"})

	counts := c.Counts()
	require.NotNil(t, counts)
	assert.Equal(t, 1, counts.Count(KeyOf("a"), Token("b")))
	assert.Zero(t, counts.Count(KeyOf("a"), Token("c")))
	assert.Equal(t, 3, counts.Len())
	assert.Equal(t, 2, b.Counts().Count(StartKey[string](1), Token("a")))
}
