package agenda

import (
	"context"

	domagenda "github.com/civica-cloud/agendex/internal/domain/agenda"
)

// Repository is the structured-store contract for agenda reads.
type Repository interface {
	FindByID(ctx context.Context, id string) (domagenda.Record, error)
	FindTop(ctx context.Context, limit int, excludeTitlePatterns, excludeTypes []string, minChunkCount int) ([]domagenda.Record, error)
	FindChunksByAgendaID(ctx context.Context, id string) ([]domagenda.Chunk, error)
}
