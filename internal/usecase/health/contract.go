package health

import "context"

// IndexPinger checks chunk index availability.
type IndexPinger interface {
	Ping(ctx context.Context) error
}

// StorePinger checks agenda store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
