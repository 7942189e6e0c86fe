// Command footiq runs the metric engine from the command line.
//
// Usage:
//
//	footiq analyze "How is Saka doing?" --entity Saka --mode replay
//	footiq analyze "Why is Haaland's xG so high?" --entity Haaland --season 2025_2026
//	footiq route "Compare Saka vs Palmer"
//	footiq metrics --depth L2
//	footiq baselines show --league premier_league
//	footiq baselines import --file config/baselines.json
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/footiq/internal/aggregate"
	"github.com/albapepper/footiq/internal/app"
	"github.com/albapepper/footiq/internal/baseline"
	"github.com/albapepper/footiq/internal/config"
	"github.com/albapepper/footiq/internal/db"
	"github.com/albapepper/footiq/internal/engine"
	"github.com/albapepper/footiq/internal/metric"
	"github.com/albapepper/footiq/internal/router"
	"github.com/albapepper/footiq/internal/seed"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:           "footiq",
		Short:         "FootIQ metric engine CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	var verbose bool
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at info level")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if verbose {
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
		}
	}

	root.AddCommand(analyzeCmd())
	root.AddCommand(routeCmd())
	root.AddCommand(metricsCmd())
	root.AddCommand(baselinesCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// Request flags
// --------------------------------------------------------------------------

type requestFlags struct {
	entity    string
	athleteID int
	maxDepth  string
	mode      string
	noLive    bool
	last      int
	season    string
	from, to  string
	league    string
	position  string
	metrics   []string
	form      string
	format    string
}

func (f *requestFlags) bindRoute(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.maxDepth, "max-depth", router.DepthAuto, "auto, L1 or L2")
	cmd.Flags().StringVar(&f.mode, "mode", "", "live or replay (default DATA_MODE)")
	cmd.Flags().BoolVar(&f.noLive, "no-live", false, "serve network tools from cache only")
	cmd.Flags().StringVar(&f.format, "format", "table", "table or json")
}

func (f *requestFlags) bindAnalyze(cmd *cobra.Command) {
	f.bindRoute(cmd)
	cmd.Flags().StringVar(&f.entity, "entity", "", "player name to search for (default: the query)")
	cmd.Flags().IntVar(&f.athleteID, "athlete-id", 0, "skip search and use this athlete")
	cmd.Flags().IntVar(&f.last, "last", aggregate.DefaultLastN, "last N games window")
	cmd.Flags().StringVar(&f.season, "season", "", "season window, e.g. 2025_2026")
	cmd.Flags().StringVar(&f.from, "from", "", "date range start, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.to, "to", "", "date range end, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.league, "league", "", "baseline league (default DEFAULT_LEAGUE)")
	cmd.Flags().StringVar(&f.position, "position", "", "baseline position group (default DEFAULT_POSITION)")
	cmd.Flags().StringSliceVar(&f.metrics, "metrics", nil, "only report these metric keys")
	cmd.Flags().StringVar(&f.form, "form-metric", "", "metric for the form series (default goals)")
}

func (f *requestFlags) request(query string) engine.Request {
	req := engine.Request{
		Query:     query,
		Entity:    f.entity,
		AthleteID: f.athleteID,
		Constraints: router.Constraints{
			MaxDepth: f.maxDepth,
			DataMode: f.mode,
		},
		League:     f.league,
		Position:   f.position,
		FormMetric: metric.Key(f.form),
	}
	if f.noLive {
		no := false
		req.Constraints.AllowLiveFetch = &no
	}
	switch {
	case f.season != "":
		req.Window = aggregate.Window{Kind: aggregate.Season, Season: f.season}
		req.Season = f.season
	case f.from != "" || f.to != "":
		req.Window = aggregate.Window{Kind: aggregate.DateRange, From: f.from, To: f.to}
	default:
		req.Window = aggregate.Window{Kind: aggregate.LastN, N: f.last}
	}
	for _, m := range f.metrics {
		req.Metrics = append(req.Metrics, metric.Key(strings.TrimSpace(m)))
	}
	return req
}

// --------------------------------------------------------------------------
// analyze / route / metrics
// --------------------------------------------------------------------------

func analyzeCmd() *cobra.Command {
	var f requestFlags
	cmd := &cobra.Command{
		Use:   "analyze QUERY",
		Short: "Route a query and compute its metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, cfg *config.Config, a *app.App) error {
				start := time.Now()
				rep, err := a.Engine.Analyze(ctx, f.request(args[0]))
				if err != nil {
					return renderError(cmd.OutOrStdout(), err, f.format)
				}
				logger.Info("Analyze finished", "duration", time.Since(start).Round(time.Millisecond))
				return renderReport(cmd.OutOrStdout(), rep, f.format)
			})
		},
	}
	f.bindAnalyze(cmd)
	return cmd
}

func routeCmd() *cobra.Command {
	var f requestFlags
	cmd := &cobra.Command{
		Use:   "route QUERY",
		Short: "Show the router decision for a query without fetching",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			e := engine.New(engine.Options{DefaultDataMode: cfg.DataMode, Logger: logger})
			d, err := e.Route(f.request(args[0]))
			if err != nil {
				return renderError(cmd.OutOrStdout(), err, f.format)
			}
			return renderDecision(cmd.OutOrStdout(), d, f.format)
		},
	}
	f.bindRoute(cmd)
	return cmd
}

func metricsCmd() *cobra.Command {
	var depth, format string
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "List the metric registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			defs := metric.All()
			switch metric.Depth(depth) {
			case "":
			case metric.L1, metric.L2:
				defs = metric.ByDepth(metric.Depth(depth))
			default:
				return fmt.Errorf("--depth must be L1 or L2")
			}
			return renderDefinitions(cmd.OutOrStdout(), defs, format)
		},
	}
	cmd.Flags().StringVar(&depth, "depth", "", "only raw metrics available at L1 or L2")
	cmd.Flags().StringVar(&format, "format", "table", "table or json")
	return cmd
}

// --------------------------------------------------------------------------
// baselines
// --------------------------------------------------------------------------

func baselinesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baselines",
		Short: "Inspect and import league baselines",
	}
	cmd.AddCommand(baselinesShowCmd())
	cmd.AddCommand(baselinesImportCmd())
	return cmd
}

func baselinesShowCmd() *cobra.Command {
	var league, season, position, format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the baselines the engine would load",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, cfg *config.Config, a *app.App) error {
				t := a.Engine.Baselines()
				var rows []baseline.Entry
				for _, e := range t.Entries() {
					if (league == "" || e.League == league) &&
						(season == "" || e.Season == season) &&
						(position == "" || e.Position == position) {
						rows = append(rows, e)
					}
				}
				return renderBaselines(cmd.OutOrStdout(), t.Source(), rows, format)
			})
		},
	}
	cmd.Flags().StringVar(&league, "league", "", "filter by league")
	cmd.Flags().StringVar(&season, "season", "", "filter by season")
	cmd.Flags().StringVar(&position, "position", "", "filter by position group")
	cmd.Flags().StringVar(&format, "format", "table", "table or json")
	return cmd
}

func baselinesImportCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Upsert a baselines file into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}
			if path == "" {
				path = cfg.BaselinesPath
			}
			t, err := baseline.LoadFile(path)
			if err != nil {
				return err
			}

			pool, err := db.New(ctx, cfg)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer pool.Close()

			start := time.Now()
			result := seed.ImportBaselines(ctx, pool, t, logger)
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", result.Summary(), time.Since(start).Round(time.Millisecond))
			for _, e := range result.Errors {
				fmt.Fprintln(cmd.ErrOrStderr(), "  ", e)
			}
			if result.BaselinesUpserted == 0 && len(result.Errors) > 0 {
				return fmt.Errorf("import failed")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "file", "", "baselines file (default BASELINES_PATH)")
	return cmd
}

// withApp loads config, wires the engine and runs fn under an interrupt-aware
// context.
func withApp(fn func(ctx context.Context, cfg *config.Config, a *app.App) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, cfg, a)
}
