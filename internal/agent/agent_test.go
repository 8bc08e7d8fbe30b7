package agent

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fooddesert/tract-agent/internal/clock"
	"github.com/fooddesert/tract-agent/internal/collector"
	"github.com/fooddesert/tract-agent/internal/config"
	"github.com/fooddesert/tract-agent/internal/pacing"
	"github.com/fooddesert/tract-agent/internal/quality"
	"github.com/fooddesert/tract-agent/internal/report"
	"github.com/fooddesert/tract-agent/internal/stats"
	"github.com/fooddesert/tract-agent/internal/tract"
)

// scriptedSource returns canned records per GEOID, mimicking either
// Source implementation deterministically.
type scriptedSource struct {
	records map[string]tract.Record
	err     error
}

func (s *scriptedSource) FetchDemographics(_ context.Context, unit tract.SamplingUnit) (tract.Record, error) {
	if s.err != nil {
		return nil, s.err
	}
	rec, ok := s.records[unit.GEOID()]
	if !ok {
		return nil, collector.ErrNoData
	}
	// Copy so the agent's mutations do not leak back into the script.
	out := make(tract.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out, nil
}

func (s *scriptedSource) FetchStores(_ context.Context, _ tract.SamplingUnit) ([]tract.Store, error) {
	return []tract.Store{{Type: "grocery", DistanceMiles: 0.8, Name: "Store 1"}}, nil
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	root := t.TempDir()
	return config.Config{
		Collection: config.CollectionConfig{
			MinDelaySeconds:     0,
			MinQualityThreshold: 0.7,
			TargetCensusTracts:  3,
		},
		Quality: config.QualityConfig{
			RequiredFields: []string{"median_income", "poverty_rate", "total_population"},
			ValidRanges: map[string][]float64{
				"median_income":    {0, 500000},
				"poverty_rate":     {0, 100},
				"total_population": {0, 50000},
			},
		},
		DataPaths: config.DataPathsConfig{
			Logs:     filepath.Join(root, "logs"),
			RawData:  filepath.Join(root, "raw"),
			Metadata: filepath.Join(root, "meta"),
			Reports:  filepath.Join(root, "reports"),
		},
	}
}

func goodRecord(unit tract.SamplingUnit) tract.Record {
	return tract.Record{
		"tract_id":         unit.GEOID(),
		"location":         unit.Name,
		"median_income":    52000.0,
		"poverty_rate":     12.5,
		"total_population": 4200.0,
	}
}

func newTestAgent(t *testing.T, cfg config.Config, source collector.Source) (*Agent, *stats.RunStats) {
	t.Helper()
	st := stats.New(time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC))
	assessor := quality.New(cfg.Quality.RequiredFields, map[string]quality.Range{
		"median_income":    {Min: 0, Max: 500000},
		"poverty_rate":     {Min: 0, Max: 100},
		"total_population": {Min: 0, Max: 50000},
	})
	pacer := pacing.New(cfg.Collection.MinDelaySeconds, rand.New(rand.NewSource(1)))
	return New(cfg, source, assessor, pacer, st, zap.NewNop()), st
}

func TestRunThresholdGating(t *testing.T) {
	cfg := testConfig(t)
	units := tract.SampleTracts(3)

	// Units 1 and 2 are perfect; unit 3 is missing two required fields
	// and scores 0.6, below the 0.7 threshold.
	degraded := goodRecord(units[2])
	delete(degraded, "median_income")
	delete(degraded, "poverty_rate")

	source := &scriptedSource{records: map[string]tract.Record{
		units[0].GEOID(): goodRecord(units[0]),
		units[1].GEOID(): goodRecord(units[1]),
		units[2].GEOID(): degraded,
	}}

	ag, st := newTestAgent(t, cfg, source)
	require.NoError(t, ag.Run(context.Background()))

	require.Len(t, ag.records, 2)
	require.Len(t, ag.failed, 1)
	require.Equal(t, units[2].Name, ag.failed[0].Name)
	require.Equal(t, 2, st.SuccessfulRequests)
	require.Equal(t, []float64{1.0, 1.0, 0.6}, st.QualityScores)

	// Accepted records carry their score and the store list.
	require.Equal(t, 1.0, ag.records[0]["quality_score"])
	require.Len(t, ag.records[0]["nearby_stores"], 1)
}

func TestRunEndToEndSummaryListsFailedTract(t *testing.T) {
	cfg := testConfig(t)
	units := tract.SampleTracts(3)

	degraded := goodRecord(units[2])
	delete(degraded, "median_income")
	delete(degraded, "poverty_rate")

	source := &scriptedSource{records: map[string]tract.Record{
		units[0].GEOID(): goodRecord(units[0]),
		units[1].GEOID(): goodRecord(units[1]),
		units[2].GEOID(): degraded,
	}}

	ag, _ := newTestAgent(t, cfg, source)
	require.NoError(t, ag.Run(context.Background()))

	clk := clock.Fixed{T: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	reporter := report.New(cfg.DataPaths, cfg.Quality.RequiredFields,
		cfg.Collection.TargetCensusTracts, clk, zap.NewNop())

	out, err := reporter.GenerateAll(ag.Summary("run-test"))
	require.NoError(t, err)

	require.Contains(t, out.SummaryText, "Total Records: 2")
	require.Contains(t, out.SummaryText, "Failed Tracts: 1")
	require.Contains(t, out.SummaryText, "- "+units[2].Name)
}

func TestRunRecoversFromFetchFailures(t *testing.T) {
	cfg := testConfig(t)

	// Every fetch fails; the loop must still visit all units.
	source := &scriptedSource{records: map[string]tract.Record{}}
	ag, st := newTestAgent(t, cfg, source)

	require.NoError(t, ag.Run(context.Background()))
	require.Empty(t, ag.records)
	require.Len(t, ag.failed, 3)
	require.Empty(t, st.QualityScores, "failed fetches are never scored")
}

type recordingPauser struct {
	paused []time.Duration
}

func (r *recordingPauser) Pause(_ context.Context, d time.Duration) {
	r.paused = append(r.paused, d)
}

func TestRunRateLimitDoublesDelayAndCoolsDown(t *testing.T) {
	cfg := testConfig(t)
	cfg.Collection.TargetCensusTracts = 1
	cfg.Collection.MinDelaySeconds = 2
	cfg.Collection.RateLimitCooldownSeconds = 60

	source := &scriptedSource{err: &collector.APIError{
		StatusCode: 429,
		URL:        "https://api.census.gov/data",
	}}

	st := stats.New(time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC))
	assessor := quality.New(cfg.Quality.RequiredFields, nil)
	rec := &recordingPauser{}
	pacer := pacing.NewWithPauser(cfg.Collection.MinDelaySeconds,
		rand.New(rand.NewSource(1)), rec)
	ag := New(cfg, source, assessor, pacer, st, zap.NewNop())

	require.NoError(t, ag.Run(context.Background()))
	require.Len(t, ag.failed, 1)
	require.Empty(t, ag.records)

	// Throttling doubles the delay (2 -> 4) before the cooldown; the
	// post-unit adaptation then applies the speedup rule (4 -> 3.6).
	require.InDelta(t, 3.6, pacer.Delay(), 1e-9)

	// First pause is the fixed cooldown, second the jittered unit wait.
	require.Len(t, rec.paused, 2)
	require.Equal(t, 60*time.Second, rec.paused[0])
}

func TestRunStopsOnCanceledContext(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ag, _ := newTestAgent(t, cfg, &scriptedSource{})
	require.Error(t, ag.Run(ctx))
	require.Empty(t, ag.records)
}
