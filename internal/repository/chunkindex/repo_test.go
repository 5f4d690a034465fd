package chunkindex

import (
	"context"
	"errors"
	"testing"

	"github.com/civica-cloud/agendex/internal/db"
	"github.com/civica-cloud/agendex/internal/domain"
	"github.com/civica-cloud/agendex/internal/domain/query"
	domsearch "github.com/civica-cloud/agendex/internal/domain/search"
)

// --- Mocks ---

type mockStore struct {
	searchResult *db.SearchResult
	searchErr    error
	tagValues    []string
	indexExists  bool

	gotQuery   *db.KNNQuery
	hsetKey    string
	hsetFields map[string]string
	createdDef *db.IndexDefinition
}

func (m *mockStore) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	m.gotQuery = q
	return m.searchResult, m.searchErr
}

func (m *mockStore) TagValues(_ context.Context, _, _ string) ([]string, error) {
	return m.tagValues, nil
}

func (m *mockStore) HSet(_ context.Context, key string, fields map[string]string) error {
	m.hsetKey = key
	m.hsetFields = fields
	return nil
}

func (m *mockStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	m.createdDef = def
	return nil
}

func (m *mockStore) IndexExists(_ context.Context, _ string) (bool, error) {
	return m.indexExists, nil
}

type mockEmbedder struct {
	vector []float32
	err    error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vector, Model: "test-model", TotalTokens: 7}, nil
}

// --- Tests ---

func TestSearchMapsEntriesToHits(t *testing.T) {
	store := &mockStore{searchResult: &db.SearchResult{
		Total: 2,
		Entries: []db.SearchEntry{
			{
				Key:      "agendex:chunk:a-1_0",
				Distance: 0.2,
				Fields:   map[string]string{domsearch.FieldAgendaID: "a-1"},
			},
			{
				Key:      "agendex:chunk:a-2_3",
				Distance: 1.0,
				Fields:   map[string]string{domsearch.FieldAgendaID: "a-2"},
			},
		},
	}}
	repo := New(store, &mockEmbedder{vector: []float32{0.1, 0.2}}, "idx", "agendex:chunk:")

	hits, usage, err := repo.Search(context.Background(), "zoning", 8, domsearch.Filter{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if usage.EmbeddingModel != "test-model" || usage.EmbeddingTokens != 7 {
		t.Errorf("usage = %+v, want test-model/7", usage)
	}
	if hits[0].ChunkID() != "a-1_0" || hits[0].AgendaID() != "a-1" {
		t.Errorf("hit[0] = %s/%s", hits[0].ChunkID(), hits[0].AgendaID())
	}
	if hits[0].Distance() != 0.2 || hits[0].Similarity() != 0.9 {
		t.Errorf("hit[0] distance/similarity = %v/%v", hits[0].Distance(), hits[0].Similarity())
	}
	if store.gotQuery.K != 8 || store.gotQuery.IndexName != "idx" {
		t.Errorf("query = %+v", store.gotQuery)
	}
}

func TestSearchAppliesFilter(t *testing.T) {
	store := &mockStore{searchResult: &db.SearchResult{}}
	repo := New(store, &mockEmbedder{vector: []float32{0.1}}, "idx", "p:")

	filter := domsearch.FilterFromHint(query.NewHint("Commissioner Park", "2026-04-02", ""))
	if _, _, err := repo.Search(context.Background(), "q", 4, filter); err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if len(store.gotQuery.Filters) != 2 {
		t.Fatalf("filters = %+v, want 2", store.gotQuery.Filters)
	}
	if store.gotQuery.Filters[0].Field != domsearch.FieldSpeaker ||
		store.gotQuery.Filters[0].Value != "Commissioner Park" {
		t.Errorf("filters[0] = %+v", store.gotQuery.Filters[0])
	}
}

func TestSearchEmbedFailureIsIndexUnavailable(t *testing.T) {
	repo := New(&mockStore{}, &mockEmbedder{err: errors.New("quota")}, "idx", "p:")

	_, _, err := repo.Search(context.Background(), "q", 4, domsearch.Filter{})
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Fatalf("Search() error = %v, want ErrIndexUnavailable", err)
	}
}

func TestSearchStoreFailureIsIndexUnavailable(t *testing.T) {
	store := &mockStore{searchErr: errors.New("conn reset")}
	repo := New(store, &mockEmbedder{vector: []float32{0.1}}, "idx", "p:")

	_, _, err := repo.Search(context.Background(), "q", 4, domsearch.Filter{})
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Fatalf("Search() error = %v, want ErrIndexUnavailable", err)
	}
}

func TestEnsureIndexSkipsExisting(t *testing.T) {
	store := &mockStore{indexExists: true}
	repo := New(store, &mockEmbedder{}, "idx", "p:")

	if err := repo.EnsureIndex(context.Background(), 1536); err != nil {
		t.Fatalf("EnsureIndex() error = %v", err)
	}
	if store.createdDef != nil {
		t.Error("existing index should not be recreated")
	}
}

func TestEnsureIndexCreatesSchema(t *testing.T) {
	store := &mockStore{}
	repo := New(store, &mockEmbedder{}, "idx", "p:").
		WithHNSW(HNSWConfig{M: 16, EFConstruct: 200})

	if err := repo.EnsureIndex(context.Background(), 1536); err != nil {
		t.Fatalf("EnsureIndex() error = %v", err)
	}
	def := store.createdDef
	if def == nil {
		t.Fatal("index was not created")
	}
	if def.Name != "idx" || len(def.Prefixes) != 1 || def.Prefixes[0] != "p:" {
		t.Errorf("def = %+v", def)
	}
	var vec *db.IndexField
	for i := range def.Fields {
		if def.Fields[i].Type == db.IndexFieldVector {
			vec = &def.Fields[i]
		}
	}
	if vec == nil || vec.VectorDim != 1536 || vec.VectorM != 16 {
		t.Errorf("vector field = %+v", vec)
	}
}

func TestIndexChunkWritesHash(t *testing.T) {
	store := &mockStore{}
	repo := New(store, &mockEmbedder{vector: []float32{0.5}}, "idx", "p:")

	err := repo.IndexChunk(context.Background(), "a-1_0", "a-1", "Mayor Lee", "2026-04-02", "text")
	if err != nil {
		t.Fatalf("IndexChunk() error = %v", err)
	}
	if store.hsetKey != "p:a-1_0" {
		t.Errorf("key = %q, want prefixed chunk id", store.hsetKey)
	}
	if store.hsetFields[domsearch.FieldAgendaID] != "a-1" ||
		store.hsetFields[domsearch.FieldSpeaker] != "Mayor Lee" {
		t.Errorf("fields = %+v", store.hsetFields)
	}
	if store.hsetFields["vector"] == "" {
		t.Error("vector field missing")
	}
}

func TestSpeakersAndDates(t *testing.T) {
	store := &mockStore{tagValues: []string{"Mayor Lee", "Commissioner Park"}}
	repo := New(store, &mockEmbedder{}, "idx", "p:")

	speakers, err := repo.Speakers(context.Background())
	if err != nil {
		t.Fatalf("Speakers() error = %v", err)
	}
	if len(speakers) != 2 {
		t.Errorf("speakers = %v", speakers)
	}
}
