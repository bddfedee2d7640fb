// Package kernel is the array-mode implementation of the PAM lifecycle.
//
// A contract is first precomputed into fixed-length numeric arrays (op
// indices, year fractions, risk-factor and FX observations, a mask) plus a
// parameter record. A Program then folds those arrays through a dispatch
// table indexed by op, one step per array slot. The fold is generic over a
// Field, so the same program runs in single precision or on dual numbers for
// derivatives, and replays across a batch of equally shaped contracts.
package kernel

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/meenmo/actus/observability"
)

// Program folds precomputed inputs over the field T. It is immutable and
// safe for concurrent use.
type Program[T any] struct {
	field   Field[T]
	steps   [NumOps]step[T]
	logger  *slog.Logger
	metrics *observability.Metrics
}

type options struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// Option configures a Program.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// NewProgram builds the program for field f.
func NewProgram[T any](f Field[T], opts ...Option) *Program[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return &Program[T]{
		field:   f,
		steps:   table[T](),
		logger:  o.logger.With("component", "kernel"),
		metrics: o.metrics,
	}
}

// Field returns the program's arithmetic.
func (pr *Program[T]) Field() Field[T] { return pr.field }

// Result is the outcome of folding one contract.
type Result[T any] struct {
	ContractID string
	// Payoffs holds one signed, settled payoff per step; padding steps are zero.
	Payoffs []T
	Final   State[T]
	// Total is the masked sum of Payoffs.
	Total T
}

// Values converts xs to float64.
func (pr *Program[T]) Values(xs []T) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = pr.field.Value(x)
	}
	return out
}

// lane is one contract's inputs lifted into the field.
type lane[T any] struct {
	id   string
	ops  []Op
	yf   []T
	rf   []T
	fx   []T
	mask []T
	p    params[T]
}

func (pr *Program[T]) load(in *Inputs) lane[T] {
	f := pr.field
	lift1 := func(xs []float64) []T {
		out := make([]T, len(xs))
		for i, x := range xs {
			out[i] = f.Const(x)
		}
		return out
	}
	return lane[T]{
		id:   in.ContractID,
		ops:  in.Ops,
		yf:   lift1(in.YearFractions),
		rf:   lift1(in.RiskFactors),
		fx:   lift1(in.FX),
		mask: lift1(in.Mask),
		p:    lift(f, in.Params),
	}
}

// cursor is the running fold of one lane.
type cursor[T any] struct {
	l   *lane[T]
	res Result[T]
}

func (pr *Program[T]) start(l *lane[T]) *cursor[T] {
	return &cursor[T]{
		l: l,
		res: Result[T]{
			ContractID: l.id,
			Payoffs:    make([]T, len(l.ops)),
			Final:      initial(pr.field, &l.p),
			Total:      pr.field.Const(0),
		},
	}
}

// advance evaluates step i of the lane.
func (pr *Program[T]) advance(c *cursor[T], i int) {
	f, l := pr.field, c.l
	core, next := pr.steps[l.ops[i]](f, &l.p, c.res.Final, l.yf[i], l.rf[i])
	pay := f.Mul(f.Mul(l.p.sign, core), l.fx[i])
	c.res.Payoffs[i] = pay
	c.res.Total = f.Add(c.res.Total, f.Mul(l.mask[i], pay))
	c.res.Final = next
}

func (pr *Program[T]) fold(l *lane[T]) Result[T] {
	c := pr.start(l)
	for i := range l.ops {
		pr.advance(c, i)
	}
	return c.res
}

// Run folds a single contract.
func (pr *Program[T]) Run(in *Inputs) Result[T] {
	l := pr.load(in)
	return pr.fold(&l)
}

// BatchResult holds per-lane results and the portfolio total.
type BatchResult[T any] struct {
	Lanes []Result[T]
	Total T
}

// RunBatch folds every lane of b step by step, splitting the lanes across
// workers goroutines. The context is checked before each worker starts; a
// started fold always runs to the end.
func (pr *Program[T]) RunBatch(ctx context.Context, b *Batch, workers int) (*BatchResult[T], error) {
	began := time.Now()
	n := len(b.Lanes)
	if n == 0 {
		return &BatchResult[T]{Total: pr.field.Const(0)}, nil
	}
	lanes := make([]lane[T], n)
	for i, in := range b.Lanes {
		lanes[i] = pr.load(in)
	}

	workers = min(max(workers, 1), n)
	chunk := (n + workers - 1) / workers
	cursors := make([]*cursor[T], n)
	g, ctx := errgroup.WithContext(ctx)
	for lo := 0; lo < n; lo += chunk {
		lo := lo
		hi := min(lo+chunk, n)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := lo; i < hi; i++ {
				cursors[i] = pr.start(&lanes[i])
			}
			for step := 0; step < b.Length; step++ {
				for i := lo; i < hi; i++ {
					pr.advance(cursors[i], step)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &BatchResult[T]{Lanes: make([]Result[T], n), Total: pr.field.Const(0)}
	for i, c := range cursors {
		out.Lanes[i] = c.res
		out.Total = pr.field.Add(out.Total, c.res.Total)
	}
	d := time.Since(began)
	pr.metrics.ObserveBatch(n, d)
	pr.logger.Debug("batch complete", "contracts", n, "steps", b.Length, "duration", d)
	return out, nil
}
