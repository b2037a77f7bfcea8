package health

import "context"

// Pinger is satisfied by the database store and the chunk store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
