package memory

import (
	"context"

	"github.com/o2alexanderfedin/ai-assistant-project/pkg/model"
	"github.com/o2alexanderfedin/ai-assistant-project/pkg/usecase/ingest"
)

// Query searches stored memories by semantic similarity.
func (m *Manager) Query(ctx context.Context, query string, limit int, opts ingest.SearchOptions) (*model.SearchResult, error) {
	return m.pipeline.Search(ctx, query, limit, opts)
}
