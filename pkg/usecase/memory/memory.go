package memory

import (
	"context"

	"github.com/o2alexanderfedin/ai-assistant-project/pkg/model"
	"github.com/o2alexanderfedin/ai-assistant-project/pkg/repository"
	"github.com/o2alexanderfedin/ai-assistant-project/pkg/usecase/ingest"
)

// Pipeline is the slice of the ingestion pipeline the memory manager
// drives.
type Pipeline interface {
	ProcessFile(ctx context.Context, path string, metadata map[string]string) (*model.MemoryRecord, error)
	Search(ctx context.Context, query string, limit int, opts ingest.SearchOptions) (*model.SearchResult, error)
}

// Manager is the top-level memory API: it persists remembered text as
// content-addressed files and keeps the vector index in sync through
// the ingestion pipeline.
type Manager struct {
	index    repository.Index
	pipeline Pipeline
	dir      string
}

// New creates a new memory Manager instance. dir is where remembered
// text is persisted as content-addressed files.
func New(index repository.Index, pipeline Pipeline, dir string) *Manager {
	return &Manager{
		index:    index,
		pipeline: pipeline,
		dir:      dir,
	}
}
