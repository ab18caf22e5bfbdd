package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// FileStat holds the stat snapshot taken when a reference was created.
// It is informational: the file may change afterwards and content reads
// always validate against the file as it is at read time.
type FileStat struct {
	Size        int64     `json:"size"`
	ModifiedAt  time.Time `json:"modified_at"`
	ContentType string    `json:"content_type"`
	Name        string    `json:"name"`
	Dir         string    `json:"dir"`
	Exists      bool      `json:"exists"`
}

// FileReference points to a (file, chunk) pair. Offsets and lengths are
// byte-based. References are immutable after creation; re-processing an
// unchanged file produces the same UniqueID and supersedes the old
// entry in the index.
type FileReference struct {
	FilePath    string            `json:"file_path"`
	ChunkIndex  int               `json:"chunk_index"`
	ChunkOffset int               `json:"chunk_offset"`
	ChunkLength int               `json:"chunk_length"`
	File        *FileStat         `json:"file,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// NewFileReference creates a reference for a chunk of the given file.
// The path is made absolute and file stats are captured best-effort.
func NewFileReference(filePath string, chunkIndex, chunkOffset, chunkLength int) *FileReference {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		abs = filePath
	}

	ref := &FileReference{
		FilePath:    abs,
		ChunkIndex:  chunkIndex,
		ChunkOffset: chunkOffset,
		ChunkLength: chunkLength,
	}
	ref.File = statFile(abs)

	return ref
}

func statFile(path string) *FileStat {
	stat := &FileStat{
		Name: filepath.Base(path),
		Dir:  filepath.Dir(path),
	}

	info, err := os.Stat(path)
	if err != nil {
		return stat
	}

	stat.Exists = true
	stat.Size = info.Size()
	stat.ModifiedAt = info.ModTime()
	stat.ContentType = mime.TypeByExtension(filepath.Ext(path))
	if stat.ContentType == "" {
		stat.ContentType = "unknown"
	}

	return stat
}

// UniqueID derives a deterministic id from the reference coordinates.
// The hash covers (path, chunk index, offset, length), not file content,
// so an unchanged file always maps to the same id.
func (r *FileReference) UniqueID() string {
	base := fmt.Sprintf("%s:%d:%d:%d", r.FilePath, r.ChunkIndex, r.ChunkOffset, r.ChunkLength)
	sum := sha256.Sum256([]byte(base))
	return hex.EncodeToString(sum[:])[:32]
}

// EntryID returns the index entry id for the question at the given
// position within this chunk.
func (r *FileReference) EntryID(questionIndex int) string {
	return fmt.Sprintf("file_%s_q%d", r.UniqueID(), questionIndex)
}

// ReadContent re-reads the referenced chunk from disk. Bounds are
// validated lazily against the file's current size; a file mutated or
// deleted after indexing surfaces here as an error.
func (r *FileReference) ReadContent() (string, error) {
	f, err := os.Open(r.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", goerr.Wrap(ErrNotFound, "referenced file does not exist", goerr.V("path", r.FilePath))
		}
		return "", goerr.Wrap(err, "failed to open referenced file", goerr.V("path", r.FilePath))
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", goerr.Wrap(err, "failed to stat referenced file", goerr.V("path", r.FilePath))
	}

	if r.ChunkLength <= 0 {
		data, err := os.ReadFile(r.FilePath)
		if err != nil {
			return "", goerr.Wrap(err, "failed to read referenced file", goerr.V("path", r.FilePath))
		}
		return string(data), nil
	}

	if int64(r.ChunkOffset)+int64(r.ChunkLength) > info.Size() {
		return "", goerr.New("chunk range exceeds current file size",
			goerr.V("path", r.FilePath),
			goerr.V("offset", r.ChunkOffset),
			goerr.V("length", r.ChunkLength),
			goerr.V("size", info.Size()))
	}

	buf := make([]byte, r.ChunkLength)
	if _, err := f.ReadAt(buf, int64(r.ChunkOffset)); err != nil {
		return "", goerr.Wrap(err, "failed to read chunk", goerr.V("path", r.FilePath))
	}

	return string(buf), nil
}

// Metadata key names shared between ToMap and FromMap. The index only
// accepts flat scalar metadata, so nested fields get fixed prefixes.
const (
	metaFilePath    = "file_path"
	metaChunkIndex  = "chunk_index"
	metaChunkOffset = "chunk_offset"
	metaChunkLength = "chunk_length"
	metaFileSize    = "file_size"
	metaFileMtime   = "file_modified_at"
	metaFileType    = "file_content_type"
	metaFileName    = "file_name"
	metaFileDir     = "file_dir"
	metaExtraPrefix = "extra_"
)

// ToMap flattens the reference into scalar metadata for the index.
func (r *FileReference) ToMap() map[string]any {
	m := map[string]any{
		metaFilePath:    r.FilePath,
		metaChunkIndex:  r.ChunkIndex,
		metaChunkOffset: r.ChunkOffset,
		metaChunkLength: r.ChunkLength,
	}

	if r.File != nil && r.File.Exists {
		m[metaFileSize] = r.File.Size
		m[metaFileMtime] = r.File.ModifiedAt.Format(time.RFC3339)
		m[metaFileType] = r.File.ContentType
		m[metaFileName] = r.File.Name
		m[metaFileDir] = r.File.Dir
	}

	for k, v := range r.Extra {
		m[metaExtraPrefix+k] = v
	}

	return m
}

// FileReferenceFromMap rebuilds a reference from flattened metadata.
// Numeric values may arrive as float64 after JSON decoding.
func FileReferenceFromMap(m map[string]any) (*FileReference, error) {
	path, ok := m[metaFilePath].(string)
	if !ok || path == "" {
		return nil, goerr.Wrap(ErrSchema, "metadata is missing file_path")
	}

	ref := &FileReference{
		FilePath:    path,
		ChunkIndex:  asInt(m[metaChunkIndex]),
		ChunkOffset: asInt(m[metaChunkOffset]),
		ChunkLength: asInt(m[metaChunkLength]),
	}

	if name, ok := m[metaFileName].(string); ok {
		stat := &FileStat{
			Exists: true,
			Name:   name,
			Size:   int64(asInt(m[metaFileSize])),
		}
		if dir, ok := m[metaFileDir].(string); ok {
			stat.Dir = dir
		}
		if ct, ok := m[metaFileType].(string); ok {
			stat.ContentType = ct
		}
		if mt, ok := m[metaFileMtime].(string); ok {
			if ts, err := time.Parse(time.RFC3339, mt); err == nil {
				stat.ModifiedAt = ts
			}
		}
		ref.File = stat
	}

	for k, v := range m {
		if !strings.HasPrefix(k, metaExtraPrefix) {
			continue
		}
		s, ok := v.(string)
		if !ok {
			s = fmt.Sprintf("%v", v)
		}
		if ref.Extra == nil {
			ref.Extra = map[string]string{}
		}
		ref.Extra[strings.TrimPrefix(k, metaExtraPrefix)] = s
	}

	return ref, nil
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
