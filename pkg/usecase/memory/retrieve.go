package memory

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"

	"github.com/o2alexanderfedin/ai-assistant-project/pkg/model"
)

// Retrieve looks up a single memory by its entry ID. An unknown ID
// returns (nil, nil); a memory whose backing file is gone is still
// returned with ReadError set.
func (m *Manager) Retrieve(ctx context.Context, id string) (*model.RetrievedMemory, error) {
	if id == "" {
		return nil, goerr.Wrap(model.ErrEmptyInput, "memory id is required")
	}

	entry, err := m.index.Get(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to look up memory", goerr.V("id", id))
	}

	retrieved := &model.RetrievedMemory{
		ID:       entry.ID,
		Question: entry.Document,
		Metadata: entry.Metadata,
	}

	if entry.Metadata != nil && entry.Metadata.Reference != nil {
		content, err := entry.Metadata.Reference.ReadContent()
		if err != nil {
			retrieved.ReadError = err.Error()
		} else {
			retrieved.Content = content
		}
	}

	return retrieved, nil
}
