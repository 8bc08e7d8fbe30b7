package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/gookit/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fooddesert/tract-agent/internal/agent"
	"github.com/fooddesert/tract-agent/internal/clock"
	"github.com/fooddesert/tract-agent/internal/collector"
	"github.com/fooddesert/tract-agent/internal/config"
	"github.com/fooddesert/tract-agent/internal/id/uuid"
	"github.com/fooddesert/tract-agent/internal/logging"
	"github.com/fooddesert/tract-agent/internal/metrics"
	"github.com/fooddesert/tract-agent/internal/pacing"
	"github.com/fooddesert/tract-agent/internal/quality"
	"github.com/fooddesert/tract-agent/internal/report"
	"github.com/fooddesert/tract-agent/internal/stats"
)

// newCollectCmd creates and configures the 'collect' subcommand, which
// runs one full collection pass and generates all reports.
func newCollectCmd() *cobra.Command {
	var seed int64
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Runs one data collection pass",
		Long: `Collects demographic data for the configured number of sample census
tracts, either from the Census ACS5 API (when an API key is configured)
or from the synthetic generator, then writes raw data and reports.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCollect(cmd.Context(), seed)
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 0,
		"random seed for the synthetic source and jitter (0 seeds from the clock)")
	return cmd
}

func runCollect(ctx context.Context, seed int64) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development, cfg.DataPaths.Logs)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	metrics.Init()
	if cfg.Server.MetricsPort > 0 {
		srv := metrics.StartServer(fmt.Sprintf(":%d", cfg.Server.MetricsPort), logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info("metrics listener started", zap.Int("port", cfg.Server.MetricsPort))
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	clk := clock.System{}
	st := stats.New(clk.Now())

	ag := buildAgent(cfg, rng, clk, st, logger)
	if err := ag.Run(ctx); err != nil {
		return fmt.Errorf("run collection: %w", err)
	}

	runID, err := uuid.New().NewID()
	if err != nil {
		return fmt.Errorf("generate run id: %w", err)
	}

	reporter := report.New(cfg.DataPaths, cfg.Quality.RequiredFields,
		cfg.Collection.TargetCensusTracts, clk, logger)
	out, err := reporter.GenerateAll(ag.Summary(runID))
	if err != nil {
		return fmt.Errorf("generate reports: %w", err)
	}

	color.Green.Println("Collection complete.")
	fmt.Print(out.SummaryText)
	return nil
}

// buildAgent assembles the run-loop collaborators. The source is chosen
// here: a missing or placeholder API key selects the synthetic generator.
func buildAgent(cfg config.Config, rng *rand.Rand, clk clock.Clock, st *stats.RunStats, logger *zap.Logger) *agent.Agent {
	var source collector.Source
	if cfg.APIs.Census.HasAPIKey() {
		source = collector.NewCensusSource(collector.CensusConfig{
			BaseURL:   cfg.APIs.Census.BaseURL,
			APIKey:    cfg.APIs.Census.APIKey,
			Timeout:   cfg.APIs.Census.Timeout(),
			Variables: cfg.CensusVariables,
		}, st, clk, collector.NewStoreGenerator(rng), logger)
	} else {
		logger.Warn("census api key not configured, using synthetic data")
		source = collector.NewSyntheticSource(rng, clk)
	}

	assessor := quality.New(cfg.Quality.RequiredFields, toRanges(cfg.Quality.ValidRanges))
	pacer := pacing.New(cfg.Collection.MinDelaySeconds, rng)

	return agent.New(cfg, source, assessor, pacer, st, logger)
}

func toRanges(raw map[string][]float64) map[string]quality.Range {
	out := make(map[string]quality.Range, len(raw))
	for field, bounds := range raw {
		if len(bounds) != 2 {
			continue
		}
		out[field] = quality.Range{Min: bounds[0], Max: bounds[1]}
	}
	return out
}
