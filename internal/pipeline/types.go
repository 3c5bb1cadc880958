package pipeline

import (
	"github.com/danielpatrickdp/markov/internal/sequencer"
	"github.com/danielpatrickdp/markov/internal/tokens"
)

// #region settings

// Settings selects a domain and how its chain is collected.
type Settings struct {
	Domain    string
	Order     int
	Precision int // 0 means chain.DefaultPrecision
	Options   tokens.Options
}

// #endregion settings

// #region production

// Request describes one production run against a loaded engine.
type Request struct {
	Config   sequencer.Config
	RandSeed int64  // 0 means sequencer.DefaultSeed
	Seed     string // optional explicit seed key in codec encoding
	Unique   bool   // drop outputs whose text repeats an earlier one
}

// Output is one produced sequence in rendered form.
type Output struct {
	Text   string
	Seed   string
	Reason string
	Length int
}

// Texts returns the rendered text of every output.
func Texts(outs []Output) []string {
	texts := make([]string, len(outs))
	for i, o := range outs {
		texts[i] = o.Text
	}
	return texts
}

// Transition is one entry of a key's distribution in codec encoding.
type Transition struct {
	Next string
	P    float64
}

// #endregion production
