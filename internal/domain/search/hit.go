package search

// ChunkHit is a single chunk returned by the similarity index.
//
// Distance follows the index's cosine-distance convention and is assumed
// to lie in [0,2] (0 = identical, 2 = opposite). The pipeline derives
// similarity = 1 - distance/2 from it and does not re-validate the range.
type ChunkHit struct {
	chunkID  string
	agendaID string
	distance float64
	metadata map[string]string
}

// NewChunkHit creates a chunk hit. agendaID may be empty when the indexed
// chunk carries no owning agenda; the pipeline discards such hits.
func NewChunkHit(chunkID, agendaID string, distance float64, metadata map[string]string) ChunkHit {
	return ChunkHit{chunkID: chunkID, agendaID: agendaID, distance: distance, metadata: metadata}
}

// IndexUsage reports the embedding token spend behind one index query.
type IndexUsage struct {
	EmbeddingModel  string
	EmbeddingTokens int
}

// ChunkID returns the chunk identifier.
func (h ChunkHit) ChunkID() string { return h.chunkID }

// AgendaID returns the owning agenda identifier, or "" if absent.
func (h ChunkHit) AgendaID() string { return h.agendaID }

// Distance returns the raw index-reported distance.
func (h ChunkHit) Distance() float64 { return h.distance }

// Similarity converts the distance into a [0,1] similarity under the
// cosine-distance convention.
func (h ChunkHit) Similarity() float64 { return 1 - h.distance/2 }

// Metadata returns the full chunk metadata record.
func (h ChunkHit) Metadata() map[string]string { return h.metadata }
