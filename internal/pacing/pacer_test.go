package pacing

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fooddesert/tract-agent/internal/stats"
)

type recordingPauser struct {
	paused []time.Duration
}

func (r *recordingPauser) Pause(_ context.Context, d time.Duration) {
	r.paused = append(r.paused, d)
}

func newTestPacer(delay float64) (*Pacer, *recordingPauser) {
	rec := &recordingPauser{}
	return NewWithPauser(delay, rand.New(rand.NewSource(1)), rec), rec
}

func statsWithScores(scores ...float64) *stats.RunStats {
	s := stats.New(time.Now())
	for _, v := range scores {
		s.RecordQuality(v)
	}
	return s
}

func TestAdaptSlowsDownOnLowQuality(t *testing.T) {
	p, _ := newTestPacer(2)
	s := statsWithScores(0.5, 0.5, 0.5)
	s.TotalRequests = 10
	s.SuccessfulRequests = 10

	p.Adapt(s)
	require.InDelta(t, 3.0, p.Delay(), 1e-9)
}

func TestAdaptQualityCapAtTen(t *testing.T) {
	p, _ := newTestPacer(9)
	s := statsWithScores(0.1)
	s.TotalRequests = 1
	s.SuccessfulRequests = 1

	p.Adapt(s)
	require.Equal(t, 10.0, p.Delay())
}

func TestAdaptSpeedsUpOnHighQuality(t *testing.T) {
	p, _ := newTestPacer(5)
	s := statsWithScores(0.95, 0.95, 0.95)
	s.TotalRequests = 3
	s.SuccessfulRequests = 3

	p.Adapt(s)
	require.InDelta(t, 4.5, p.Delay(), 1e-9)
}

func TestAdaptSpeedupFlooredAtOne(t *testing.T) {
	p, _ := newTestPacer(1.05)
	s := statsWithScores(1.0)
	s.TotalRequests = 1
	s.SuccessfulRequests = 1

	p.Adapt(s)
	require.Equal(t, 1.0, p.Delay())

	// At the floor the speed-up rule no longer applies.
	p.Adapt(s)
	require.Equal(t, 1.0, p.Delay())
}

func TestAdaptDoublesOnLowSuccessRate(t *testing.T) {
	p, _ := newTestPacer(4)
	s := statsWithScores(0.8) // neither quality rule fires
	s.TotalRequests = 10
	s.SuccessfulRequests = 3

	p.Adapt(s)
	require.Equal(t, 8.0, p.Delay())
}

func TestAdaptSuccessRateCapAtFifteen(t *testing.T) {
	p, _ := newTestPacer(9)
	s := statsWithScores(0.8)
	s.TotalRequests = 10
	s.SuccessfulRequests = 1

	p.Adapt(s)
	require.Equal(t, 15.0, p.Delay())
}

func TestAdaptRulesCompound(t *testing.T) {
	// Low quality then low success rate in the same call: 2 * 1.5 = 3,
	// then 3 * 2 = 6.
	p, _ := newTestPacer(2)
	s := statsWithScores(0.2, 0.2)
	s.TotalRequests = 10
	s.SuccessfulRequests = 2

	p.Adapt(s)
	require.InDelta(t, 6.0, p.Delay(), 1e-9)
}

func TestAdaptUsesRecentWindow(t *testing.T) {
	// Old low scores outside the 5-score window must not slow us down.
	p, _ := newTestPacer(2)
	s := statsWithScores(0.1, 0.1, 0.95, 0.95, 0.95, 0.95, 0.95)
	s.TotalRequests = 7
	s.SuccessfulRequests = 7

	p.Adapt(s)
	require.InDelta(t, 1.8, p.Delay(), 1e-9)
}

func TestAdaptEmptyRunKeepsDelay(t *testing.T) {
	// No scores and no attempts: quality mean defaults to 1.0 but the
	// delay is not above the floor, success rate defaults to 1.0.
	p, _ := newTestPacer(1)
	p.Adapt(stats.New(time.Now()))
	require.Equal(t, 1.0, p.Delay())
}

func TestOnRateLimitDoublesUncapped(t *testing.T) {
	p, _ := newTestPacer(12)
	p.OnRateLimit()
	require.Equal(t, 24.0, p.Delay())
}

func TestWaitAppliesJitterWithinBounds(t *testing.T) {
	p, rec := newTestPacer(2)
	for i := 0; i < 50; i++ {
		d := p.Wait(context.Background())
		require.GreaterOrEqual(t, d, time.Duration(2*jitterLow*float64(time.Second)))
		require.LessOrEqual(t, d, time.Duration(2*jitterHigh*float64(time.Second)))
	}
	require.Len(t, rec.paused, 50)
}

func TestWaitDeterministicWithSeed(t *testing.T) {
	p1, _ := newTestPacer(3)
	p2, _ := newTestPacer(3)
	for i := 0; i < 10; i++ {
		require.Equal(t, p1.Wait(context.Background()), p2.Wait(context.Background()))
	}
}

func TestTimerPauserHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	timerPauser{}.Pause(ctx, 5*time.Second)
	require.Less(t, time.Since(start), time.Second, "pause should exit immediately when context is done")
}
