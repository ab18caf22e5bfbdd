package repository

import (
	"context"

	"github.com/o2alexanderfedin/ai-assistant-project/pkg/model"
)

// Index defines the vector-index contract: durable storage of question
// embeddings and nearest-neighbor retrieval. Implementations own the
// persisted entries exclusively; upper layers never touch the index
// directly. No retries happen at this layer.
type Index interface {
	// Heartbeat checks that the index is reachable
	Heartbeat(ctx context.Context) error

	// EnsureCollection creates the configured collection if it does not
	// exist. Safe to call concurrently; "already exists" is success.
	EnsureCollection(ctx context.Context, metadata map[string]any) error

	// Add persists entries. Every entry metadata must carry file_path.
	Add(ctx context.Context, entries []*model.Entry) error

	// Query returns up to n nearest neighbors for the embedding
	Query(ctx context.Context, embedding []float32, n int) ([]*model.Hit, error)

	// Get retrieves a single entry by id, ErrNotFound when unknown
	Get(ctx context.Context, id string) (*model.Entry, error)

	// GetAll lists up to limit entries
	GetAll(ctx context.Context, limit int) ([]*model.Entry, error)

	// Count returns the number of entries in the collection
	Count(ctx context.Context) (int, error)
}
