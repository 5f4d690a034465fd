// Package usage accumulates best-effort usage and cost events emitted
// after each search. Recording never fails and never influences the
// pipeline result.
package usage

import (
	"sync"

	"github.com/google/uuid"

	"github.com/civica-cloud/agendex/internal/metrics"
)

// Event is one post-hoc usage record for a completed search.
type Event struct {
	ID               string
	QueryLen         int
	AnalyzerFallback bool
	HintRejected     bool
	ChunksFetched    int
	EmbeddingModel   string
	EmbeddingTokens  int
	AnalyzerModel    string
	AnalyzerTokens   int
}

// NewEvent creates an event with a fresh id.
func NewEvent() Event {
	return Event{ID: uuid.NewString()}
}

// Recorder receives usage events.
type Recorder interface {
	Record(event Event)
}

// Summary is a point-in-time snapshot of accumulated usage.
type Summary struct {
	Searches         int     `json:"searches"`
	RejectedSearches int     `json:"rejectedSearches"`
	AnalyzerFallback int     `json:"analyzerFallbacks"`
	ChunksFetched    int     `json:"chunksFetched"`
	EmbeddingTokens  int     `json:"embeddingTokens"`
	AnalyzerTokens   int     `json:"analyzerTokens"`
	TotalCostUSD     float64 `json:"totalCostUsd"`
}

// Service accumulates events in memory and prices embedding and
// analyzer token usage.
type Service struct {
	mu      sync.Mutex
	summary Summary
}

var _ Recorder = (*Service)(nil)

// New creates a usage service.
func New() *Service {
	return &Service{}
}

// Record folds an event into the running totals and bumps the
// corresponding prometheus counters.
func (s *Service) Record(event Event) {
	outcome := "ok"
	if event.HintRejected {
		outcome = "rejected"
	}
	metrics.SearchRequestsTotal.WithLabelValues(outcome).Inc()
	metrics.SearchChunksFetched.Observe(float64(event.ChunksFetched))
	if event.AnalyzerFallback {
		metrics.SearchAnalyzerFallbackTotal.Inc()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.summary.Searches++
	if event.HintRejected {
		s.summary.RejectedSearches++
	}
	if event.AnalyzerFallback {
		s.summary.AnalyzerFallback++
	}
	s.summary.ChunksFetched += event.ChunksFetched
	s.summary.EmbeddingTokens += event.EmbeddingTokens
	s.summary.AnalyzerTokens += event.AnalyzerTokens
	s.summary.TotalCostUSD += tokenCost(event.EmbeddingModel, event.EmbeddingTokens) +
		tokenCost(event.AnalyzerModel, event.AnalyzerTokens)
}

// Summary returns a copy of the accumulated totals.
func (s *Service) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

// Nop is a Recorder that drops events; used where tracking is disabled.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(Event) {}
