package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/markov/internal/errs"
	"github.com/danielpatrickdp/markov/internal/tokens"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValidWithText(t *testing.T) {
	c := Default()
	c.Text = "I run. I walk."
	require.NoError(t, c.Validate())
	assert.Equal(t, tokens.DomainWords, c.Domain)
	assert.Equal(t, 1, c.SequencerConfig().RecycleThreshold)
}

func TestPrecedence(t *testing.T) {
	path := writeFile(t, "markov.yaml", "domain: chars\norder: 3\nnum: 4\ndb: file.db\nparts: [Soprano, \"2\"]\n")
	t.Setenv(EnvDB, "env.db")
	t.Setenv(EnvLogLevel, "debug")

	c, err := Parse("markov", []string{"-config", path, "-num", "7", "-text", "abc"})
	require.NoError(t, err)

	assert.Equal(t, path, c.File)
	assert.Equal(t, "chars", c.Domain, "file overrides default")
	assert.Equal(t, 3, c.Order)
	assert.Equal(t, "env.db", c.DB, "env overrides file")
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, 7, c.Num, "flag overrides file")
	assert.Equal(t, []string{"Soprano", "2"}, c.Parts)
}

func TestParseFlagsOnly(t *testing.T) {
	c, err := Parse("markov", []string{"-domain", "notes", "-parts", "alto, 3", "-pp", "tc", "-rand-seed", "9"})
	require.NoError(t, err)
	assert.Equal(t, []string{"alto", "3"}, c.Parts)
	assert.Equal(t, "TC", c.Options().PostProcess)
	assert.Equal(t, int64(9), c.Request().RandSeed)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("markov", []string{"-bogus"})
	assert.True(t, errs.IsParameter(err))

	_, err = Parse("markov", []string{"-config", filepath.Join(t.TempDir(), "missing.yaml")})
	assert.True(t, errs.IsInput(err))

	bad := writeFile(t, "bad.yaml", "order: [")
	_, err = Parse("markov", []string{"-config", bad})
	assert.True(t, errs.IsParameter(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Config)
		check func(error) bool
	}{
		{"no source", func(c *Config) { c.Text = "" }, errs.IsInput},
		{"missing file", func(c *Config) { c.Text = ""; c.Source = "/does/not/exist.txt" }, errs.IsInput},
		{"unknown domain", func(c *Config) { c.Domain = "pixels" }, errs.IsParameter},
		{"order zero", func(c *Config) { c.Order = 0 }, errs.IsParameter},
		{"order too large", func(c *Config) { c.Order = 6 }, errs.IsParameter},
		{"min over max", func(c *Config) { c.Min, c.Max = 10, 5 }, errs.IsParameter},
		{"recycle zero", func(c *Config) { c.Recycle = 0 }, errs.IsParameter},
		{"xlsx save", func(c *Config) { c.Save = "chain.xlsx" }, errs.IsFormat},
		{"display format", func(c *Config) { c.Display = "xml" }, errs.IsFormat},
		{"post processing", func(c *Config) { c.PostProcess = "XX" }, errs.IsParameter},
		{"log level", func(c *Config) { c.LogLevel = "loud" }, errs.IsParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			c.Text = "I run."
			tt.edit(c)
			err := c.Validate()
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error kind: %v", err)
		})
	}
}

func TestValidateLoadPaths(t *testing.T) {
	c := Default()
	c.Chain = "story.json"
	c.Order = 0
	assert.NoError(t, c.Validate(), "order may be inferred from a chain file")

	c = Default()
	c.DB, c.Name = "markov.db", "story"
	assert.NoError(t, c.Validate(), "a named chain in the store is a source")
}

func TestRunConfig(t *testing.T) {
	c := Default()
	c.PostProcess = "uc"
	c.Initial = true
	rc := c.RunConfig(3)
	assert.Equal(t, 3, rc.Order)
	assert.Equal(t, "UC", rc.PostProcess)
	assert.True(t, rc.InitialOnly)
	assert.Equal(t, c.Num, rc.Count)
}

func TestUniqueFlag(t *testing.T) {
	c, err := Parse("markov", []string{"-text", "a b.", "-unique"})
	require.NoError(t, err)
	assert.True(t, c.Request().Unique)
	assert.True(t, c.RunConfig(2).Unique)

	c, err = Parse("markov", []string{"-text", "a b."})
	require.NoError(t, err)
	assert.False(t, c.Request().Unique)
}
