// Package pacing implements the adaptive delay between sampling units.
// The delay is tuned from recent quality scores and the cumulative success
// rate, and applied with multiplicative jitter to avoid synchronized
// request bursts.
package pacing

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/fooddesert/tract-agent/internal/stats"
)

// Tuning constants for the adaptation rules. The quality rule and the
// success-rate rule are cumulative within one Adapt call.
const (
	qualityWindow       = 5
	lowQualityMean      = 0.6
	highQualityMean     = 0.9
	slowdownFactor      = 1.5
	speedupFactor       = 0.9
	qualityDelayCap     = 10.0
	speedupDelayFloor   = 1.0
	lowSuccessRate      = 0.7
	successRateFactor   = 2.0
	successRateDelayCap = 15.0

	jitterLow  = 0.8
	jitterHigh = 1.2
)

// Pauser abstracts the blocking sleep so tests can run without waiting.
type Pauser interface {
	Pause(ctx context.Context, delay time.Duration)
}

type timerPauser struct{}

func (timerPauser) Pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Pacer owns the scalar delay between units. Not safe for concurrent use;
// the collection loop is strictly sequential.
type Pacer struct {
	delay float64 // seconds
	rng   *rand.Rand
	pause Pauser
}

// New builds a Pacer starting at the configured minimum delay. The RNG is
// injected so jitter can be made deterministic in tests.
func New(minDelaySeconds float64, rng *rand.Rand) *Pacer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Pacer{
		delay: minDelaySeconds,
		rng:   rng,
		pause: timerPauser{},
	}
}

// NewWithPauser is New with the sleep implementation injected.
func NewWithPauser(minDelaySeconds float64, rng *rand.Rand, pause Pauser) *Pacer {
	p := New(minDelaySeconds, rng)
	if pause != nil {
		p.pause = pause
	}
	return p
}

// Delay returns the current delay in seconds.
func (p *Pacer) Delay() float64 {
	return p.delay
}

// Adapt retunes the delay from the run so far. Rules, in order:
//  1. mean of the last 5 quality scores below 0.6 slows down (x1.5, cap 10s)
//  2. mean above 0.9 with delay above 1s speeds up (x0.9, floor 1s)
//  3. success rate below 0.7 doubles the delay (cap 15s), compounding on
//     top of whichever quality rule fired.
func (p *Pacer) Adapt(s *stats.RunStats) {
	avgQuality := s.RecentMeanQuality(qualityWindow)
	switch {
	case avgQuality < lowQualityMean:
		p.delay = math.Min(p.delay*slowdownFactor, qualityDelayCap)
	case avgQuality > highQualityMean && p.delay > speedupDelayFloor:
		p.delay = math.Max(p.delay*speedupFactor, speedupDelayFloor)
	}

	successRate := 1.0
	if s.TotalRequests > 0 {
		successRate = s.SuccessRate()
	}
	if successRate < lowSuccessRate {
		p.delay = math.Min(p.delay*successRateFactor, successRateDelayCap)
	}
}

// OnRateLimit doubles the delay in response to a throttling signal from
// the upstream API. Uncapped: repeated throttling keeps widening the gap.
func (p *Pacer) OnRateLimit() {
	p.delay *= 2
}

// Wait sleeps for the current delay perturbed by a uniform jitter factor
// in [0.8, 1.2] and returns the duration actually requested. The sleep is
// cut short when the context is canceled.
func (p *Pacer) Wait(ctx context.Context) time.Duration {
	jitter := jitterLow + p.rng.Float64()*(jitterHigh-jitterLow)
	d := time.Duration(p.delay * jitter * float64(time.Second))
	p.pause.Pause(ctx, d)
	return d
}

// Cooldown blocks for a fixed duration, context-aware. Used for the forced
// pause after a rate-limit response.
func (p *Pacer) Cooldown(ctx context.Context, d time.Duration) {
	p.pause.Pause(ctx, d)
}
