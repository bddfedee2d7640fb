// Package run implements `simulate run`: the event-driven engine over a portfolio.
package run

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/meenmo/actus/cmd/simulate/internal/app"
	"github.com/meenmo/actus/engine"
	"github.com/meenmo/actus/observability"
)

// Event is one evaluated event in the output.
type Event struct {
	Sequence int     `json:"seq"`
	Type     string  `json:"type"`
	Date     string  `json:"date"`
	Currency string  `json:"currency"`
	Payoff   float64 `json:"payoff"`
	Notional float64 `json:"notional"`
	Injected bool    `json:"injected,omitempty"`
}

// Contract is the output of one simulated contract.
type Contract struct {
	ContractID string   `json:"contract_id"`
	Total      float64  `json:"total_payoff"`
	Unhandled  []string `json:"unhandled,omitempty"`
	Events     []Event  `json:"events,omitempty"`
}

// Output is the JSON document written to stdout.
type Output struct {
	Contracts []Contract `json:"contracts,omitempty"`
	Error     string     `json:"error,omitempty"`
}

func Run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var f app.Flags
	f.Register(fs)
	summary := fs.Bool("summary", false, "omit per-event rows")
	metricsAddr := fs.String("metrics-addr", "", "serve Prometheus metrics on this address after the run until interrupted")
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env, err := app.Setup(ctx, f, stderr)
	if err != nil {
		return writeError(stdout, err)
	}
	defer env.Close()

	hs, err := env.Simulate(ctx, f)
	if err != nil {
		env.Logger.Error("simulation failed", "error", err)
		return writeError(stdout, err)
	}

	out := Output{Contracts: make([]Contract, 0, len(hs))}
	for _, h := range hs {
		out.Contracts = append(out.Contracts, contractOf(h, *summary))
	}
	b, _ := json.Marshal(out)
	fmt.Fprintln(stdout, string(b))

	if *metricsAddr != "" {
		return serve(ctx, env, *metricsAddr)
	}
	return 0
}

func contractOf(h *engine.History, summary bool) Contract {
	c := Contract{ContractID: h.ContractID, Total: h.TotalPayoff()}
	for _, t := range h.Unhandled {
		c.Unhandled = append(c.Unhandled, t.String())
	}
	if summary {
		return c
	}
	for _, ev := range h.Events {
		row := Event{
			Sequence: ev.Sequence,
			Type:     ev.Type.String(),
			Date:     ev.Time.Format(time.DateOnly),
			Currency: ev.Currency,
			Payoff:   ev.Payoff,
			Injected: ev.Injected,
		}
		if ev.StatePost != nil {
			row.Notional = ev.StatePost.Notional
		}
		c.Events = append(c.Events, row)
	}
	return c
}

func serve(ctx context.Context, env *app.Env, addr string) int {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler(env.Registry))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	env.Logger.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		env.Logger.Error("metrics server failed", "error", err)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  simulate run -terms contracts.yaml [-market market.yaml] [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Simulate each contract with the event-driven engine, output JSON to stdout.")
}

func writeError(stdout io.Writer, err error) int {
	b, _ := json.Marshal(Output{Error: err.Error()})
	fmt.Fprintln(stdout, string(b))
	return 1
}
