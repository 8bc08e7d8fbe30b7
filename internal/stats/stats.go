// Package stats tracks the mutable aggregate state of a single collection
// run. The struct is passed explicitly into the components that read it so
// the scoring and pacing logic stay free of ambient state.
package stats

import "time"

// RunStats accumulates counters, quality scores and response latencies for
// one run. It is written by exactly one goroutine; no locking.
type RunStats struct {
	StartTime          time.Time
	TotalRequests      int
	SuccessfulRequests int
	FailedRequests     int
	QualityScores      []float64
	ResponseTimes      []time.Duration
}

// New returns a RunStats anchored at the given start time.
func New(start time.Time) *RunStats {
	return &RunStats{StartTime: start}
}

// RecordLatency appends one response-time sample.
func (s *RunStats) RecordLatency(d time.Duration) {
	s.ResponseTimes = append(s.ResponseTimes, d)
}

// RecordQuality appends one quality score.
func (s *RunStats) RecordQuality(score float64) {
	s.QualityScores = append(s.QualityScores, score)
}

// SuccessRate returns accepted records over attempted requests, or 0 when
// nothing has been attempted. Callers that want an optimistic default for
// an empty run (the pacing rules do) must check TotalRequests themselves.
func (s *RunStats) SuccessRate() float64 {
	if s.TotalRequests == 0 {
		return 0
	}
	return float64(s.SuccessfulRequests) / float64(s.TotalRequests)
}

// RecentMeanQuality returns the mean of the last n quality scores, or 1.0
// when no scores have been collected yet.
func (s *RunStats) RecentMeanQuality(n int) float64 {
	if len(s.QualityScores) == 0 {
		return 1.0
	}
	scores := s.QualityScores
	if n > 0 && len(scores) > n {
		scores = scores[len(scores)-n:]
	}
	return mean(scores)
}

// MeanQuality returns the mean of all quality scores, 0 when empty.
func (s *RunStats) MeanQuality() float64 {
	if len(s.QualityScores) == 0 {
		return 0
	}
	return mean(s.QualityScores)
}

// MinQuality returns the lowest quality score seen, 0 when empty.
func (s *RunStats) MinQuality() float64 {
	if len(s.QualityScores) == 0 {
		return 0
	}
	min := s.QualityScores[0]
	for _, v := range s.QualityScores[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

// MaxQuality returns the highest quality score seen, 0 when empty.
func (s *RunStats) MaxQuality() float64 {
	if len(s.QualityScores) == 0 {
		return 0
	}
	max := s.QualityScores[0]
	for _, v := range s.QualityScores[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// MeanResponseTime returns the mean API latency, 0 when no calls were made.
func (s *RunStats) MeanResponseTime() time.Duration {
	if len(s.ResponseTimes) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range s.ResponseTimes {
		total += d
	}
	return total / time.Duration(len(s.ResponseTimes))
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
