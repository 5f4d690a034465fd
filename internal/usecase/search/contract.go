package search

import (
	"context"

	domagenda "github.com/civica-cloud/agendex/internal/domain/agenda"
	"github.com/civica-cloud/agendex/internal/domain/query"
	domsearch "github.com/civica-cloud/agendex/internal/domain/search"
)

// ChunkSearcher is the vector index contract consumed by the pipeline.
// Hits come back sorted by ascending distance, though the pipeline does
// not rely on that ordering for correctness. The usage return carries
// the embedding token spend for the query.
type ChunkSearcher interface {
	Search(ctx context.Context, query string, topK int, filter domsearch.Filter) ([]domsearch.ChunkHit, domsearch.IndexUsage, error)
}

// AgendaReader resolves winning agenda ids against the structured store.
// Type exclusion is applied server-side; result order is not guaranteed.
type AgendaReader interface {
	FindByIDs(ctx context.Context, ids []string, excludeTypes []string) ([]domagenda.Record, error)
}

// Analyzer extracts a structured hint from the raw query, reporting any
// provider token spend. Errors are recovered by the pipeline with an
// empty-hint fallback.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (query.Hint, query.AnalysisUsage, error)
}

// Validator checks a hint against the corpus. Optional; a nil validator
// means every search runs unfiltered.
type Validator interface {
	Validate(ctx context.Context, hint query.Hint) (query.Verdict, error)
}
