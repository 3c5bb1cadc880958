package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/markov/internal/errs"
	"github.com/danielpatrickdp/markov/internal/sequencer"
	"github.com/danielpatrickdp/markov/internal/tokens"
)

// #region parts

// PartOutput is the production of one score part.
type PartOutput struct {
	Part    string
	Outputs []Output
}

// ProduceParts trains one chain per selected score part and produces from
// each in parallel. Part i draws from DeriveSeed(req.RandSeed, i) so the
// result does not depend on scheduling.
func ProduceParts(ctx context.Context, s Settings, src tokens.Source, req Request, opts ...sequencer.Option) ([]PartOutput, error) {
	if !tokens.IsMusic(s.Domain) {
		return nil, errs.Parameter("produce parts", fmt.Errorf("domain %q has no parts", s.Domain))
	}
	content, err := src.Read()
	if err != nil {
		return nil, err
	}
	parts, err := tokens.ParseScore(content, s.Options.MaxLines)
	if err != nil {
		return nil, err
	}
	parts = tokens.SelectParts(parts, s.Options.Parts)

	out := make([]PartOutput, len(parts))
	g, ctx := errgroup.WithContext(ctx)
	for i, p := range parts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ps := s
			ps.Options.Parts = []string{fmt.Sprint(p.Number)}
			e, err := New(ps)
			if err != nil {
				return err
			}
			if err := e.Collect(tokens.Source{Text: content}); err != nil {
				return fmt.Errorf("part %s: %w", p.Name, err)
			}
			if e.Empty() {
				out[i] = PartOutput{Part: p.Name}
				return nil
			}
			preq := req
			preq.RandSeed = sequencer.DeriveSeed(req.RandSeed, uint64(i))
			outs, err := e.Produce(preq, opts...)
			if err != nil {
				return fmt.Errorf("part %s: %w", p.Name, err)
			}
			out[i] = PartOutput{Part: p.Name, Outputs: outs}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// #endregion parts
