// Package report implements `simulate report`: cash flows as CSV.
package report

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/meenmo/actus/cmd/simulate/internal/app"
	"github.com/meenmo/actus/report"
)

func Run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var f app.Flags
	f.Register(fs)
	totals := fs.Bool("totals", false, "write per-currency totals instead of cash-flow rows")
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
		fmt.Fprintf(stderr, "report: %v\n", err)
		return 1
	}
	defer env.Close()

	hs, err := env.Simulate(ctx, f)
	if err != nil {
		env.Logger.Error("simulation failed", "error", err)
		return 1
	}

	cfs := report.FromHistories(hs)
	if *totals {
		err = report.WriteTotalsCSV(stdout, report.Summarize(cfs))
	} else {
		err = report.WriteCSV(stdout, cfs)
	}
	if err != nil {
		env.Logger.Error("write report failed", "error", err)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  simulate report -terms contracts.yaml [-market market.yaml] [-totals]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Simulate each contract and write its cash flows as CSV to stdout.")
}
