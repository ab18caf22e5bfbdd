package memory

import (
	"context"
	"crypto/sha256"
	"encoding/base32"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"

	"github.com/o2alexanderfedin/ai-assistant-project/pkg/model"
	"github.com/o2alexanderfedin/ai-assistant-project/pkg/utils/logging"
)

var filenameEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Filename derives the content-addressed filename for a piece of text:
// the unpadded base32 of its SHA-256 digest. Identical text always maps
// to the identical filename.
func Filename(content string) string {
	sum := sha256.Sum256([]byte(content))
	return filenameEncoding.EncodeToString(sum[:]) + ".txt"
}

// Store persists content as a content-addressed file and indexes it.
// Storing the same text twice rewrites the same file and regenerates
// the same entry IDs, so the operation is idempotent at the file level.
// metadata rides along with every index entry; nil is fine.
func (m *Manager) Store(ctx context.Context, content string, metadata map[string]string) (*model.MemoryRecord, error) {
	if content == "" {
		return nil, goerr.Wrap(model.ErrEmptyInput, "content is required to store a memory")
	}

	if err := os.MkdirAll(m.dir, 0700); err != nil {
		return nil, goerr.Wrap(err, "failed to create memory directory", goerr.V("dir", m.dir))
	}

	filename := Filename(content)
	path := filepath.Join(m.dir, filename)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			return nil, goerr.Wrap(err, "failed to write memory file", goerr.V("path", path))
		}
	} else if err != nil {
		return nil, goerr.Wrap(err, "failed to stat memory file", goerr.V("path", path))
	} else {
		logging.From(ctx).Debug("memory file already exists", "path", path)
	}

	record, err := m.pipeline.ProcessFile(ctx, path, metadata)
	if err != nil {
		return nil, err
	}
	record.Filename = filename

	return record, nil
}
