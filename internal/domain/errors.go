package domain

import "errors"

var (
	// ErrAgendaNotFound signals a missing agenda record.
	ErrAgendaNotFound = errors.New("agenda not found")
	// ErrIndexUnavailable signals that the chunk index could not be reached.
	ErrIndexUnavailable = errors.New("chunk index unavailable")
	// ErrStoreUnavailable signals that the agenda store could not be reached.
	ErrStoreUnavailable = errors.New("agenda store unavailable")
	// ErrAnalysisUnavailable signals that the query analyzer failed internally.
	// Recovered inside the search pipeline; never crosses the usecase boundary.
	ErrAnalysisUnavailable = errors.New("query analysis unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
