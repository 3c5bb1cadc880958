package persist

import (
	"bytes"
	"cmp"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/markov/internal/chain"
	"github.com/danielpatrickdp/markov/internal/errs"
	"github.com/danielpatrickdp/markov/internal/tokens"
)

func wordChain(t *testing.T, text string, order int) (*chain.Chain[string], tokens.Codec[string]) {
	t.Helper()
	a := tokens.NewWords(tokens.Options{})
	units, err := a.Units(tokens.Source{Text: text})
	require.NoError(t, err)
	c, err := chain.Build(units, order)
	require.NoError(t, err)
	return c, a.Codec()
}

func assertSameChain[T cmp.Ordered](t *testing.T, want, got *chain.Chain[T]) {
	t.Helper()
	require.Equal(t, want.Order(), got.Order())
	require.Equal(t, want.Keys(), got.Keys())
	for _, k := range want.Keys() {
		w, _ := want.Probabilities(k)
		g, ok := got.Probabilities(k)
		require.True(t, ok, "key %v", k)
		assert.Equal(t, w, g, "key %v", k)
	}
}

func TestFormatFromPath(t *testing.T) {
	for path, want := range map[string]Format{"a.csv": CSV, "b.JSON": JSON, "c.yml": YAML, "d.yaml": YAML} {
		got, err := FormatFromPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got)
	}
	for _, path := range []string{"chain.xlsx", "chain", "chain.txt"} {
		_, err := FormatFromPath(path)
		assert.True(t, errs.IsFormat(err), path)
		assert.ErrorIs(t, err, errs.ErrUnsupportedFormat)
	}
}

func TestCSVLayout(t *testing.T) {
	c, codec := wordChain(t, "I run. I walk.", 1)
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, CSV, c, codec))
	want := strings.Join([]string{
		"KEY,.,I,run,walk,</s>",
		"<s>,0,1,0,0,0",
		".,0,0,0,0,1",
		"I,0,0,0.5,0.5,0",
		"run,1,0,0,0,0",
		"walk,1,0,0,0,0",
	}, "\n") + "\n"
	assert.Equal(t, want, buf.String())
}

func TestRoundTripAllFormats(t *testing.T) {
	c, codec := wordChain(t, "The cat sat. The cat ran! A dog sat? The dog ran.", 2)
	for _, f := range Formats() {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, f, c, codec))
			got, err := Decode(&buf, f, 2, chain.DefaultPrecision, codec)
			require.NoError(t, err)
			assertSameChain(t, c, got)
			assert.Nil(t, got.Counts())
		})
	}
}

func TestRoundTripCharacters(t *testing.T) {
	a := tokens.NewCharacters(tokens.Options{})
	units, err := a.Units(tokens.Source{Text: " cat cot coat "})
	require.NoError(t, err)
	c, err := chain.Build(units, 2)
	require.NoError(t, err)

	dir := t.TempDir()
	for _, f := range Formats() {
		path := filepath.Join(dir, "chars"+f.Ext())
		require.NoError(t, Save(path, c, a.Codec()))
		got, err := Load(path, 2, chain.DefaultPrecision, a.Codec())
		require.NoError(t, err, f)
		assertSameChain(t, c, got)

		inferred, err := Load(path, 0, 0, a.Codec())
		require.NoError(t, err, f)
		assert.Equal(t, 2, inferred.Order())
	}
}

func TestRoundTripDurations(t *testing.T) {
	a := tokens.NewDurations(tokens.Options{})
	units, err := a.Units(tokens.Source{Text: "P: C4/1 D4/0.5 E4/0.5 F4/1.5 G4/0.25"})
	require.NoError(t, err)
	c, err := chain.Build(units, 1)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "durations.yaml")
	require.NoError(t, Save(path, c, a.Codec()))
	got, err := Load(path, 1, 0, a.Codec())
	require.NoError(t, err)
	assertSameChain(t, c, got)
}

func TestDecodeDropsZeroCells(t *testing.T) {
	_, codec := wordChain(t, "x.", 1)
	in := "KEY,a,b,</s>\n<s>,1,0,0\na,0,0.25,0.75\nb,0,0,1\n"
	c, err := Decode(strings.NewReader(in), CSV, 1, 0, codec)
	require.NoError(t, err)
	d, ok := c.Probabilities(chain.KeyOf("a"))
	require.True(t, ok)
	assert.Len(t, d, 2)
	assert.Zero(t, d.P(chain.Token("a")))
}

func TestDecodeRejectsCorruptInput(t *testing.T) {
	_, codec := wordChain(t, "x.", 1)
	cases := map[string]struct {
		f  Format
		in string
	}{
		"csv header":   {CSV, "NAME,a\nx,1\n"},
		"csv cell":     {CSV, "KEY,a\nx,abc\n"},
		"csv nan":      {CSV, "KEY,a\nx,NaN\n"},
		"csv negative": {CSV, "KEY,a,b\nx,-0.5,1.5\n"},
		"csv ragged":   {CSV, "KEY,a,b\nx,1\n"},
		"csv empty":    {CSV, ""},
		"csv dup":      {CSV, "KEY,a\nx,1\nx,1\n"},
		"csv all zero": {CSV, "KEY,a\nx,0\n"},
		"json arity":   {JSON, `{"a b": {"c": 1}}`},
		"json syntax":  {JSON, `{"a": `},
		"yaml syntax":  {YAML, "a: [1\n"},
		"initial next": {JSON, `{"a": {"<s>": 1}}`},
	}
	for name, tc := range cases {
		_, err := Decode(strings.NewReader(tc.in), tc.f, 1, 0, codec)
		require.Error(t, err, name)
		assert.True(t, errs.IsFormat(err), "%s: %v", name, err)
	}
}

func TestLoadErrors(t *testing.T) {
	codec := tokens.NewWords(tokens.Options{}).Codec()

	_, err := Load(filepath.Join(t.TempDir(), "chain.xlsx"), 1, 0, codec)
	assert.True(t, errs.IsFormat(err))

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"), 1, 0, codec)
	assert.True(t, errs.IsInput(err))
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	c, codec := wordChain(t, "I run. I walk.", 1)
	dir := t.TempDir()
	path := filepath.Join(dir, "words.json")
	require.NoError(t, Save(path, c, codec))
	require.NoError(t, SaveCounts(CountsPath(path), c.Counts(), codec))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"words.json", "words_counts.json"}, names)

	assert.Error(t, Save(filepath.Join(dir, "words.xlsx"), c, codec))
	_, err = os.Stat(filepath.Join(dir, "words.xlsx"))
	assert.True(t, os.IsNotExist(err))
}

func TestCountsTable(t *testing.T) {
	c, codec := wordChain(t, "I run. I walk.", 1)
	var buf bytes.Buffer
	require.NoError(t, EncodeCounts(&buf, CSV, c.Counts(), codec))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "<s>,0,2,0,0,0", lines[1])
	assert.Equal(t, "I,0,0,1,1,0", lines[3])
}

func TestRowsRoundTrip(t *testing.T) {
	c, codec := wordChain(t, "I run. I walk. I run.", 1)
	rows := Rows(c, codec)
	require.NotEmpty(t, rows)

	var runRow Row
	for _, r := range rows {
		if r.Key == "I" && r.Next == "run" {
			runRow = r
		}
	}
	assert.Equal(t, 2, runRow.Count)
	assert.Equal(t, 0.666667, runRow.Probability)

	got, err := FromRows(rows, 1, 4, codec)
	require.NoError(t, err)
	assertSameChain(t, c, got)
	assert.Equal(t, 4, got.Precision())
}

func TestLoadKeepsPrecision(t *testing.T) {
	a := tokens.NewWords(tokens.Options{})
	units, err := a.Units(tokens.Source{Text: "I run. I walk. I sit."})
	require.NoError(t, err)
	c, err := chain.Build(units, 1, chain.WithPrecision(3))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "story.csv")
	require.NoError(t, Save(path, c, a.Codec()))

	got, err := Load(path, 1, 3, a.Codec())
	require.NoError(t, err)
	assert.Equal(t, 3, got.Precision())

	inferred, err := Load(path, 1, 0, a.Codec())
	require.NoError(t, err)
	assert.Equal(t, 3, inferred.Precision(), "1/3 rounds to 0.333")
}

func TestDecodeInfersPrecision(t *testing.T) {
	_, codec := wordChain(t, "x.", 1)
	in := "KEY,a,b,</s>\n<s>,1,0,0\na,0,0.25,0.75\nb,0,0,1\n"
	c, err := Decode(strings.NewReader(in), CSV, 1, 0, codec)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Precision())
}
