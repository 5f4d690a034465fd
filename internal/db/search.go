package db

// TagFilter is a single equality pre-filter on a TAG field.
type TagFilter struct {
	Field string
	Value string
}

// KNNQuery is the input for vector similarity search. Filters are
// combined with implicit AND in the FT.SEARCH pre-filter.
type KNNQuery struct {
	IndexName    string
	Vector       []float32
	K            int
	Filters      []TagFilter
	ReturnFields []string
}

// SearchResult is the output of a KNN search. Entries arrive sorted by
// ascending distance (best first).
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single chunk hit. Distance is the raw metric value
// reported by the index (cosine distance in [0,2]); no conversion happens
// at this layer.
type SearchEntry struct {
	Key      string
	Distance float64
	Fields   map[string]string
}
