// Package analyzer turns free-text queries into structured hints
// (speaker, date, topic). Analyzers may fail internally; the search
// pipeline wraps them and substitutes an empty hint on error.
package analyzer

import (
	"context"

	"github.com/civica-cloud/agendex/internal/domain/query"
)

// Analyzer extracts a structured hint from a raw user query and reports
// any provider token spend the extraction cost.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (query.Hint, query.AnalysisUsage, error)
}
