package pipeline

import (
	"fmt"

	"github.com/danielpatrickdp/markov/internal/errs"
	"github.com/danielpatrickdp/markov/internal/tokens"
)

// #region registry

// New returns the engine for s.Domain. The set of domains is closed; an
// unknown id is a parameter error.
func New(s Settings) (Engine, error) {
	switch s.Domain {
	case tokens.DomainChars:
		return newEngine(tokens.NewCharacters(s.Options), s), nil
	case tokens.DomainWords:
		return newEngine(tokens.NewWords(s.Options), s), nil
	case tokens.DomainIntervals:
		return newEngine(tokens.NewIntervals(s.Options), s), nil
	case tokens.DomainNotes:
		return newEngine(tokens.NewNotes(s.Options), s), nil
	case tokens.DomainDurations:
		return newEngine(tokens.NewDurations(s.Options), s), nil
	}
	return nil, errs.Parameter("new engine", fmt.Errorf("unknown domain %q (known: %v)", s.Domain, tokens.Domains()))
}

// #endregion registry
