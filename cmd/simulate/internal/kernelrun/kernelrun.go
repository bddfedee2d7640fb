// Package kernelrun implements `simulate kernel`: array-mode PAM batches,
// optionally with gradients and an engine cross-check.
package kernelrun

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"

	"github.com/meenmo/actus/cmd/simulate/internal/app"
	"github.com/meenmo/actus/kernel"
)

// Lane is the output of one contract.
type Lane struct {
	ContractID string             `json:"contract_id"`
	Total      float64            `json:"total_payoff"`
	Gradient   map[string]float64 `json:"gradient,omitempty"`
	EngineGap  *float64           `json:"engine_gap,omitempty"`
}

// Output is the JSON document written to stdout.
type Output struct {
	Steps int     `json:"steps,omitempty"`
	Total float64 `json:"total_payoff"`
	Lanes []Lane  `json:"lanes,omitempty"`
	Error string  `json:"error,omitempty"`
}

func Run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("kernel", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var f app.Flags
	f.Register(fs)
	single := fs.Bool("float32", false, "fold in single precision")
	gradient := fs.Bool("gradient", false, "differentiate each total by notional, nominal rate and rate spread")
	check := fs.Bool("check", false, "compare totals with the event-driven engine")
	help := fs.Bool("h", false, "Show help")
	fs.BoolVar(help, "help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *help {
		usage(stderr)
		fs.PrintDefaults()
		return 0
	}

	ctx := context.Background()
	env, err := app.Setup(ctx, f, stderr)
	if err != nil {
		return writeError(stdout, err)
	}
	defer env.Close()

	cs, err := env.ContractsOf()
	if err != nil {
		return writeError(stdout, err)
	}
	batch, err := kernel.Compile(env.Engine, cs, env.Observer, env.Config.KernelLength)
	if err != nil {
		return writeError(stdout, err)
	}

	var totals []float64
	if *single {
		totals, err = fold[float32](ctx, env, kernel.Float32{}, batch)
	} else {
		totals, err = fold[float64](ctx, env, kernel.Float64{}, batch)
	}
	if err != nil {
		return writeError(stdout, err)
	}

	out := Output{Steps: batch.Length, Lanes: make([]Lane, len(batch.Lanes))}
	for i, in := range batch.Lanes {
		out.Lanes[i] = Lane{ContractID: in.ContractID, Total: totals[i]}
		out.Total += totals[i]
	}

	if *gradient {
		vars := []kernel.Var{kernel.Notional, kernel.NominalRate, kernel.RateSpread}
		for i, in := range batch.Lanes {
			_, grad, err := kernel.Gradient(in, vars...)
			if err != nil {
				return writeError(stdout, err)
			}
			out.Lanes[i].Gradient = make(map[string]float64, len(vars))
			for k, v := range vars {
				out.Lanes[i].Gradient[v.String()] = grad[k]
			}
		}
	}

	if *check {
		hs, err := env.Simulate(ctx, f)
		if err != nil {
			return writeError(stdout, err)
		}
		for i, h := range hs {
			gap := math.Abs(h.TotalPayoff() - out.Lanes[i].Total)
			out.Lanes[i].EngineGap = &gap
			if gap > env.Config.EquivalenceTolerance {
				env.Logger.Warn("kernel diverges from engine",
					"contract_id", h.ContractID, "gap", gap, "tolerance", env.Config.EquivalenceTolerance)
			}
		}
	}

	b, _ := json.Marshal(out)
	fmt.Fprintln(stdout, string(b))
	return 0
}

func fold[T any](ctx context.Context, env *app.Env, f kernel.Field[T], b *kernel.Batch) ([]float64, error) {
	pr := kernel.NewProgram[T](f, kernel.WithLogger(env.Logger), kernel.WithMetrics(env.Metrics))
	res, err := pr.RunBatch(ctx, b, env.Config.KernelWorkers)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(res.Lanes))
	for i, l := range res.Lanes {
		out[i] = f.Value(l.Total)
	}
	return out, nil
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  simulate kernel -terms pam.yaml [-market market.yaml] [-gradient] [-check]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Fold PAM contracts in array mode, output JSON to stdout.")
}

func writeError(stdout io.Writer, err error) int {
	b, _ := json.Marshal(Output{Error: err.Error()})
	fmt.Fprintln(stdout, string(b))
	return 1
}
