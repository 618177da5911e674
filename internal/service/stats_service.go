// Package service contains application services.
package service

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Sentinel-Gate/awaymail/internal/domain/gate"
)

// StatsService tracks gate decisions using lock-free atomic counters.
// All counter operations are safe for concurrent access from multiple goroutines.
type StatsService struct {
	evaluated   atomic.Int64
	forwarded   atomic.Int64
	passthrough atomic.Int64
	failures    atomic.Int64

	// Per-reason counters (mutex-protected map).
	mu           sync.Mutex
	reasonCounts map[gate.Reason]int64
}

// NewStatsService creates a new StatsService with all counters initialized to zero.
func NewStatsService() *StatsService {
	return &StatsService{
		reasonCounts: make(map[gate.Reason]int64),
	}
}

// RecordDecision counts one gate decision.
func (s *StatsService) RecordDecision(d gate.Decision, _ time.Duration) {
	s.evaluated.Add(1)
	if d.Forwarded() {
		s.forwarded.Add(1)
	} else {
		s.passthrough.Add(1)
	}

	switch d.Reason {
	case gate.ReasonMailFailed, gate.ReasonRouteFailed, gate.ReasonInternalError, gate.ReasonLookupFailed, gate.ReasonFilterError:
		s.failures.Add(1)
	case "":
		return
	}

	s.mu.Lock()
	s.reasonCounts[d.Reason]++
	s.mu.Unlock()
}

// Stats holds a snapshot of all counters at a point in time.
type Stats struct {
	Evaluated    int64            `json:"evaluated"`
	Forwarded    int64            `json:"forwarded"`
	Passthrough  int64            `json:"passthrough"`
	Failures     int64            `json:"failures"`
	ReasonCounts map[string]int64 `json:"reason_counts"`
}

// GetStats returns a snapshot of all counters.
// The snapshot is consistent per-counter but not atomically across all counters.
func (s *StatsService) GetStats() Stats {
	s.mu.Lock()
	rc := make(map[string]int64, len(s.reasonCounts))
	for k, v := range s.reasonCounts {
		rc[string(k)] = v
	}
	s.mu.Unlock()

	return Stats{
		Evaluated:    s.evaluated.Load(),
		Forwarded:    s.forwarded.Load(),
		Passthrough:  s.passthrough.Load(),
		Failures:     s.failures.Load(),
		ReasonCounts: rc,
	}
}

// Compile-time check that StatsService implements gate.Recorder.
var _ gate.Recorder = (*StatsService)(nil)
