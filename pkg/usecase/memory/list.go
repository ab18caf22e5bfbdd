package memory

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/o2alexanderfedin/ai-assistant-project/pkg/model"
)

// DefaultListLimit bounds a listing when the caller does not.
const DefaultListLimit = 100

// List returns up to limit stored memories.
func (m *Manager) List(ctx context.Context, limit int) ([]*model.ListedMemory, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	entries, err := m.index.GetAll(ctx, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list memories")
	}

	listed := make([]*model.ListedMemory, 0, len(entries))
	for _, entry := range entries {
		row := &model.ListedMemory{
			ID:       entry.ID,
			Metadata: entry.Metadata,
		}
		if entry.Metadata != nil && entry.Metadata.Reference != nil {
			row.FilePath = entry.Metadata.Reference.FilePath
		}
		listed = append(listed, row)
	}

	return listed, nil
}

// Count returns how many entries the index holds.
func (m *Manager) Count(ctx context.Context) (int, error) {
	return m.index.Count(ctx)
}

// Status checks that the index is reachable.
func (m *Manager) Status(ctx context.Context) error {
	return m.index.Heartbeat(ctx)
}
