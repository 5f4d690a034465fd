package db

// IndexFieldType is the FT schema field type.
type IndexFieldType string

// Supported field types.
const (
	IndexFieldTag     IndexFieldType = "TAG"
	IndexFieldNumeric IndexFieldType = "NUMERIC"
	IndexFieldVector  IndexFieldType = "VECTOR"
)

// VectorAlgo is the vector index algorithm.
type VectorAlgo string

// Supported vector algorithms.
const (
	VectorFlat VectorAlgo = "FLAT"
	VectorHNSW VectorAlgo = "HNSW"
)

// IndexField describes one FT schema field.
type IndexField struct {
	Name              string
	Type              IndexFieldType
	TagSeparator      string
	VectorAlgo        VectorAlgo
	VectorDim         int
	VectorM           int
	VectorEFConstruct int
}

// IndexDefinition describes an FT index over hash documents.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}
