// Package agent orchestrates a collection run: fetch, score, accumulate,
// adapt pacing, sleep, repeat, then hand the accumulated state to the
// reporter. The loop is strictly sequential; the pacing sleep is the only
// suspension point and runs once per unit regardless of outcome.
package agent

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fooddesert/tract-agent/internal/collector"
	"github.com/fooddesert/tract-agent/internal/config"
	"github.com/fooddesert/tract-agent/internal/metrics"
	"github.com/fooddesert/tract-agent/internal/pacing"
	"github.com/fooddesert/tract-agent/internal/quality"
	"github.com/fooddesert/tract-agent/internal/report"
	"github.com/fooddesert/tract-agent/internal/stats"
	"github.com/fooddesert/tract-agent/internal/tract"
)

// Agent runs one collection pass over the configured sampling units.
type Agent struct {
	cfg      config.Config
	source   collector.Source
	assessor *quality.Assessor
	pacer    *pacing.Pacer
	stats    *stats.RunStats
	logger   *zap.Logger

	records []tract.Record
	failed  []tract.SamplingUnit
}

// New wires an Agent from its collaborators. The Source decides whether
// records come from the real API or the synthetic generator.
func New(
	cfg config.Config,
	source collector.Source,
	assessor *quality.Assessor,
	pacer *pacing.Pacer,
	st *stats.RunStats,
	logger *zap.Logger,
) *Agent {
	return &Agent{
		cfg:      cfg,
		source:   source,
		assessor: assessor,
		pacer:    pacer,
		stats:    st,
		logger:   logger,
	}
}

// Run executes the collection loop over the sample tract list. Transport
// and quality failures are recovered per unit; only context cancellation
// aborts the remaining units. Accumulated records survive an abort and
// can still be reported via Summary.
func (a *Agent) Run(ctx context.Context) error {
	units := tract.SampleTracts(a.cfg.Collection.TargetCensusTracts)
	a.logger.Info("starting collection run", zap.Int("target_tracts", len(units)))

	for i, unit := range units {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("collection aborted: %w", err)
		}
		a.logger.Info("processing tract",
			zap.Int("index", i+1),
			zap.Int("total", len(units)),
			zap.String("name", unit.Name))

		a.processUnit(ctx, unit)

		a.pacer.Adapt(a.stats)
		metrics.SetPacingDelay(a.pacer.Delay())

		waited := a.pacer.Wait(ctx)
		a.logger.Debug("paced before next tract", zap.Duration("waited", waited))
	}

	a.logger.Info("collection run finished",
		zap.Int("collected", len(a.records)),
		zap.Int("failed", len(a.failed)))
	return nil
}

// processUnit handles one sampling unit end to end.
func (a *Agent) processUnit(ctx context.Context, unit tract.SamplingUnit) {
	rec, err := a.source.FetchDemographics(ctx, unit)
	if err != nil {
		a.logger.Warn("demographics fetch failed",
			zap.String("tract", unit.Name),
			zap.Error(err))
		metrics.APIRequest("failed")
		metrics.TractProcessed("failed")

		if collector.IsRateLimited(err) {
			metrics.RateLimitHit()
			a.pacer.OnRateLimit()
			a.logger.Warn("rate limited, increasing delay",
				zap.Float64("delay_seconds", a.pacer.Delay()))
			a.pacer.Cooldown(ctx, a.rateLimitCooldown())
		}

		a.failed = append(a.failed, unit)
		return
	}
	metrics.APIRequest("success")

	score := a.assessor.Score(rec)
	a.stats.RecordQuality(score)
	metrics.ObserveQuality(score)
	rec["quality_score"] = score

	if score < a.cfg.Collection.MinQualityThreshold {
		a.logger.Warn("quality too low, skipping tract",
			zap.String("tract", unit.Name),
			zap.Float64("score", score))
		metrics.TractProcessed("rejected")
		a.failed = append(a.failed, unit)
		return
	}

	stores, err := a.source.FetchStores(ctx, unit)
	if err != nil {
		// Store data enriches the record but never blocks it.
		a.logger.Warn("store fetch failed", zap.String("tract", unit.Name), zap.Error(err))
		stores = nil
	}
	rec["nearby_stores"] = stores

	a.records = append(a.records, rec)
	a.stats.SuccessfulRequests++
	metrics.TractProcessed("collected")
	a.logger.Info("collected tract data",
		zap.String("tract", unit.Name),
		zap.Float64("quality", score))
}

// Summary snapshots the accumulated state for the reporter.
func (a *Agent) Summary(runID string) report.RunSummary {
	return report.RunSummary{
		RunID:             runID,
		Records:           a.records,
		Failed:            a.failed,
		Stats:             a.stats,
		FinalDelaySeconds: a.pacer.Delay(),
	}
}

func (a *Agent) rateLimitCooldown() time.Duration {
	return time.Duration(a.cfg.Collection.RateLimitCooldownSeconds) * time.Second
}
