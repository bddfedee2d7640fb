// Package app holds the setup shared by the simulate subcommands: flags,
// configuration, logging, inputs and the optional history store.
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"

	"github.com/meenmo/actus/config"
	"github.com/meenmo/actus/contracts"
	"github.com/meenmo/actus/engine"
	"github.com/meenmo/actus/observability"
	"github.com/meenmo/actus/observer"
	"github.com/meenmo/actus/store"
	"github.com/meenmo/actus/store/postgres"
	"github.com/meenmo/actus/terms"
)

// Flags are the options every subcommand accepts.
type Flags struct {
	Config  string
	Terms   string
	Market  string
	Series  string
	Save    bool
	Analyze string
}

// Register adds the common flags to fs.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.Config, "config", "", "YAML config path (optional)")
	fs.StringVar(&f.Terms, "terms", "", "YAML/JSON contract terms path (one contract or a list)")
	fs.StringVar(&f.Market, "market", "", "YAML market data path (optional)")
	fs.StringVar(&f.Series, "series", "", "comma-separated series ids to load from the database (optional)")
	fs.BoolVar(&f.Save, "save", false, "store histories in the database")
	fs.StringVar(&f.Analyze, "analysis-dates", "", "comma-separated YYYY-MM-DD analysis dates (optional)")
}

// Env is the wired runtime of one invocation.
type Env struct {
	Config    config.Config
	Logger    *slog.Logger
	Registry  *prometheus.Registry
	Metrics   *observability.Metrics
	Contracts *engine.Registry
	Engine    *engine.Engine
	Portfolio []terms.ContractTerms
	Observer  observer.RiskFactor
	Histories store.HistoryStore

	pool *postgres.Pool
}

// Setup loads configuration and inputs and wires the engine.
func Setup(ctx context.Context, f Flags, stderr io.Writer) (*Env, error) {
	cfg, err := config.Load(f.Config)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level(cfg.LogLevel)}))

	if strings.TrimSpace(f.Terms) == "" {
		return nil, errors.New("missing -terms")
	}
	portfolio, err := terms.Load(f.Terms)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg, "actus")
	env := &Env{
		Config:    cfg,
		Logger:    logger,
		Registry:  reg,
		Metrics:   metrics,
		Contracts: contracts.NewRegistry(),
		Portfolio: portfolio,
	}
	env.Engine = engine.New(
		engine.WithConfig(cfg),
		engine.WithLogger(logger),
		engine.WithMetrics(metrics),
	)

	var chain observer.Chain
	if cfg.DatabaseURL != "" && (f.Save || f.Series != "") {
		env.pool, err = postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, env.pool); err != nil {
			env.Close()
			return nil, err
		}
		env.Histories = postgres.NewHistoryStore(env.pool, metrics)
		if ids := splitList(f.Series); len(ids) > 0 {
			ts, err := postgres.NewSeriesStore(env.pool, metrics).LoadSeries(ctx, observer.Step, ids...)
			if err != nil {
				env.Close()
				return nil, err
			}
			chain = append(chain, ts)
		}
	} else if f.Save || f.Series != "" {
		return nil, errors.New("-save and -series need database_url")
	}

	if f.Market != "" {
		obs, err := LoadMarket(f.Market)
		if err != nil {
			env.Close()
			return nil, err
		}
		chain = append(chain, obs...)
	}
	env.Observer = chain
	return env, nil
}

// Close releases the database pool, if any.
func (e *Env) Close() {
	if e.pool != nil {
		e.pool.Close()
	}
}

// ContractsOf instantiates every contract of the portfolio.
func (e *Env) ContractsOf() ([]engine.Contract, error) {
	out := make([]engine.Contract, 0, len(e.Portfolio))
	for _, t := range e.Portfolio {
		c, err := e.Contracts.New(t)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Simulate runs the portfolio through the engine and stores the histories
// when save is set.
func (e *Env) Simulate(ctx context.Context, f Flags) ([]*engine.History, error) {
	var opts []engine.SimOption
	dates, err := ParseDates(f.Analyze)
	if err != nil {
		return nil, err
	}
	if len(dates) > 0 {
		opts = append(opts, engine.WithAnalysisDates(dates...))
	}
	hs, err := e.Engine.SimulatePortfolio(ctx, e.Contracts, e.Portfolio, e.Observer, opts...)
	if err != nil {
		return nil, err
	}
	if f.Save && e.Histories != nil {
		for _, h := range hs {
			if err := e.Histories.SaveHistory(ctx, h); err != nil {
				return nil, fmt.Errorf("save %s: %w", h.ContractID, err)
			}
		}
		e.Logger.Info("histories stored", "contracts", len(hs))
	}
	return hs, nil
}

// Market is the YAML layout of a market data file.
type Market struct {
	Interpolation string                   `yaml:"interpolation"`
	Constants     map[string]float64       `yaml:"constants"`
	Series        map[string][]MarketPoint `yaml:"series"`
}

// MarketPoint is one dated observation.
type MarketPoint struct {
	Date  string  `yaml:"date"`
	Value float64 `yaml:"value"`
}

// LoadMarket reads a market data file. Series take precedence over constants.
func LoadMarket(path string) (observer.Chain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read market data: %w", err)
	}
	return ParseMarket(data)
}

// ParseMarket decodes a market data document.
func ParseMarket(data []byte) (observer.Chain, error) {
	var m Market
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse market data: %w", err)
	}
	interp := observer.Step
	switch strings.ToLower(m.Interpolation) {
	case "", "step":
	case "linear":
		interp = observer.Linear
	default:
		return nil, fmt.Errorf("unknown interpolation %q", m.Interpolation)
	}

	series := make(map[string][]observer.Point, len(m.Series))
	for id, pts := range m.Series {
		for _, p := range pts {
			t, err := time.Parse(time.DateOnly, p.Date)
			if err != nil {
				return nil, fmt.Errorf("series %s: %w", id, err)
			}
			series[id] = append(series[id], observer.Point{Time: t, Value: p.Value})
		}
	}
	chain := observer.Chain{observer.NewTimeSeries(interp, series)}
	if len(m.Constants) > 0 {
		chain = append(chain, observer.Constant(m.Constants))
	}
	return chain, nil
}

// ParseDates parses a comma-separated list of YYYY-MM-DD dates.
func ParseDates(s string) ([]time.Time, error) {
	var out []time.Time
	for _, part := range splitList(s) {
		t, err := time.Parse(time.DateOnly, part)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", part, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func level(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
