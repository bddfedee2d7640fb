package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/meenmo/actus/observer"
	"github.com/meenmo/actus/terms"
)

// SimulatePortfolio simulates independent contracts concurrently with at most
// Config.PortfolioWorkers in flight. Results follow the order of portfolio.
// Cancellation is checked between contracts; the first error stops the run.
func (e *Engine) SimulatePortfolio(ctx context.Context, reg *Registry, portfolio []terms.ContractTerms, obs observer.RiskFactor, opts ...SimOption) ([]*History, error) {
	out := make([]*History, len(portfolio))
	g, ctx := errgroup.WithContext(ctx)
	workers := e.cfg.PortfolioWorkers
	if workers <= 0 {
		workers = 1
	}
	g.SetLimit(workers)
	for i, t := range portfolio {
		i, t := i, t
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c, err := reg.New(t)
			if err != nil {
				return fmt.Errorf("SimulatePortfolio: contract %d: %w", i, err)
			}
			h, err := e.Simulate(c, obs, opts...)
			if err != nil {
				return err
			}
			out[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
