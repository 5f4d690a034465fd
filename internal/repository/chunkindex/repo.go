// Package chunkindex implements the vector index client for transcript
// chunks: KNN search with metadata pre-filtering, corpus introspection,
// and the ingest-side write path.
package chunkindex

import (
	"context"
	"fmt"
	"strings"

	"github.com/civica-cloud/agendex/internal/db"
	"github.com/civica-cloud/agendex/internal/domain"
	domsearch "github.com/civica-cloud/agendex/internal/domain/search"
)

// store is the consumer interface for chunk index operations.
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	TagValues(ctx context.Context, index, field string) ([]string, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// HNSWConfig holds index build parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo is the chunk index client.
type Repo struct {
	store     store
	embedder  domain.Embedder
	indexName string
	keyPrefix string
	hnsw      HNSWConfig
}

// New creates a chunk index client.
func New(s store, embedder domain.Embedder, indexName, keyPrefix string) *Repo {
	return &Repo{store: s, embedder: embedder, indexName: indexName, keyPrefix: keyPrefix}
}

// WithHNSW overrides the index build parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	r.hnsw = cfg
	return r
}

// Search embeds the query and returns the topK most similar chunks,
// restricted by the metadata filter, along with the embedding token
// spend for the query. Hits arrive sorted by ascending distance (best
// first); callers re-derive ordering via grouping anyway.
func (r *Repo) Search(
	ctx context.Context, query string, topK int, filter domsearch.Filter,
) ([]domsearch.ChunkHit, domsearch.IndexUsage, error) {
	emb, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, domsearch.IndexUsage{}, fmt.Errorf("%w: vectorize query: %w", domain.ErrIndexUnavailable, err)
	}
	usage := domsearch.IndexUsage{
		EmbeddingModel:  emb.Model,
		EmbeddingTokens: emb.TotalTokens,
	}

	q := &db.KNNQuery{
		IndexName: r.indexName,
		Vector:    emb.Embedding,
		K:         topK,
		Filters:   tagFilters(filter),
		ReturnFields: []string{
			domsearch.FieldAgendaID, domsearch.FieldSpeaker, domsearch.FieldMeetingDate,
		},
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, usage, fmt.Errorf("%w: search knn: %w", domain.ErrIndexUnavailable, err)
	}

	hits := make([]domsearch.ChunkHit, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		chunkID := strings.TrimPrefix(entry.Key, r.keyPrefix)
		hits = append(hits, domsearch.NewChunkHit(
			chunkID,
			entry.Fields[domsearch.FieldAgendaID],
			entry.Distance,
			entry.Fields,
		))
	}
	return hits, usage, nil
}

// Speakers lists the distinct speakers across the indexed corpus.
func (r *Repo) Speakers(ctx context.Context) ([]string, error) {
	values, err := r.store.TagValues(ctx, r.indexName, domsearch.FieldSpeaker)
	if err != nil {
		return nil, fmt.Errorf("%w: list speakers: %w", domain.ErrIndexUnavailable, err)
	}
	return values, nil
}

// Dates lists the distinct meeting dates across the indexed corpus.
func (r *Repo) Dates(ctx context.Context) ([]string, error) {
	values, err := r.store.TagValues(ctx, r.indexName, domsearch.FieldMeetingDate)
	if err != nil {
		return nil, fmt.Errorf("%w: list dates: %w", domain.ErrIndexUnavailable, err)
	}
	return values, nil
}

// EnsureIndex creates the FT index if it does not exist (ingest path).
func (r *Repo) EnsureIndex(ctx context.Context, vectorDim int) error {
	exists, err := r.store.IndexExists(ctx, r.indexName)
	if err != nil {
		return fmt.Errorf("%w: index info: %w", domain.ErrIndexUnavailable, err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:     r.indexName,
		Prefixes: []string{r.keyPrefix},
		Fields: []db.IndexField{
			{Name: domsearch.FieldAgendaID, Type: db.IndexFieldTag},
			{Name: domsearch.FieldSpeaker, Type: db.IndexFieldTag},
			{Name: domsearch.FieldMeetingDate, Type: db.IndexFieldTag},
			{
				Name:              "vector",
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         vectorDim,
				VectorM:           r.hnsw.M,
				VectorEFConstruct: r.hnsw.EFConstruct,
			},
		},
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		return fmt.Errorf("%w: create index: %w", domain.ErrIndexUnavailable, err)
	}
	return nil
}

// IndexChunk embeds a chunk's text and writes it as a hash document
// (ingest path).
func (r *Repo) IndexChunk(
	ctx context.Context, chunkID, agendaID, speaker, meetingDate, text string,
) error {
	emb, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed chunk %s: %w", chunkID, err)
	}

	fields := map[string]string{
		domsearch.FieldAgendaID:    agendaID,
		domsearch.FieldSpeaker:     speaker,
		domsearch.FieldMeetingDate: meetingDate,
		"vector":                   vectorToBytes(emb.Embedding),
	}
	if err := r.store.HSet(ctx, r.keyPrefix+chunkID, fields); err != nil {
		return fmt.Errorf("%w: index chunk %s: %w", domain.ErrIndexUnavailable, chunkID, err)
	}
	return nil
}

func tagFilters(f domsearch.Filter) []db.TagFilter {
	conds := f.Conditions()
	if len(conds) == 0 {
		return nil
	}
	filters := make([]db.TagFilter, 0, len(conds))
	for _, c := range conds {
		filters = append(filters, db.TagFilter{Field: c.Field(), Value: c.Value()})
	}
	return filters
}
