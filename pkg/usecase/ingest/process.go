package ingest

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/o2alexanderfedin/ai-assistant-project/pkg/model"
	"github.com/o2alexanderfedin/ai-assistant-project/pkg/service/question"
	"github.com/o2alexanderfedin/ai-assistant-project/pkg/utils/logging"
)

// DefaultPatterns are the filename globs ProcessDirectory ingests when
// the caller does not narrow them.
var DefaultPatterns = []string{"*.txt", "*.md"}

// ProcessFile ingests one file: its content is chunked, every chunk is
// turned into questions, the questions are embedded and stored. The
// returned record identifies the memory by its first entry ID. metadata
// is attached to every entry and given to question generation as
// analysis context; nil is fine.
func (p *Pipeline) ProcessFile(ctx context.Context, path string, metadata map[string]string) (*model.MemoryRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read file", goerr.V("path", path))
	}
	content := string(raw)
	if content == "" {
		return nil, goerr.Wrap(model.ErrEmptyInput, "file is empty", goerr.V("path", path))
	}

	chunks := p.splitter.Split(path, content)

	logger := logging.From(ctx)
	logger.Debug("processing file", "path", path, "chunks", len(chunks))

	var entries []*model.Entry
	for _, c := range chunks {
		if len(metadata) > 0 {
			c.Reference.Extra = metadata
		}

		items, err := p.questions.Generate(ctx, &question.GenerateInput{
			Content:     c.Text,
			ContentType: p.contentType,
			Metadata:    metadata,
			Count:       p.questionsPerChunk,
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to generate questions",
				goerr.V("path", path), goerr.V("chunk", c.Reference.ChunkIndex))
		}
		items = question.Evaluate(items)
		// The model may legitimately return no questions for a chunk
		// (boilerplate, separators). Such a chunk contributes nothing
		// to the index but must not fail the file.
		if len(items) == 0 {
			logger.Debug("no questions for chunk, skipping",
				"path", path, "chunk", c.Reference.ChunkIndex)
			continue
		}

		texts := make([]string, len(items))
		for i, item := range items {
			texts[i] = item.Text
		}

		vectors, err := p.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to embed questions",
				goerr.V("path", path), goerr.V("chunk", c.Reference.ChunkIndex))
		}

		for i, item := range items {
			entries = append(entries, &model.Entry{
				ID:        c.Reference.EntryID(i),
				Embedding: vectors[i],
				Metadata: &model.EntryMetadata{
					Reference:    c.Reference,
					QuestionType: item.Type,
					Confidence:   item.Confidence,
				},
				Document: item.Text,
			})
		}
	}

	if len(entries) == 0 {
		return nil, goerr.Wrap(model.ErrGeneration, "no questions generated for any chunk", goerr.V("path", path))
	}

	if err := p.index.Add(ctx, entries); err != nil {
		return nil, goerr.Wrap(err, "failed to store entries", goerr.V("path", path))
	}

	logger.Info("ingested file", "path", path, "chunks", len(chunks), "entries", len(entries))

	return &model.MemoryRecord{
		ID:       entries[0].ID,
		FilePath: path,
		Filename: filepath.Base(path),
		Chars:    len(content),
		Entries:  len(entries),
	}, nil
}

// FileResult is the per-file outcome of a directory ingestion. Error is
// set and Entries is zero when the file failed.
type FileResult struct {
	Path    string `json:"path"`
	Entries int    `json:"entries"`
	Error   string `json:"error,omitempty"`
}

// Report summarizes a directory ingestion run.
type Report struct {
	RunID  string        `json:"run_id"`
	Files  []*FileResult `json:"files"`
	Stored int           `json:"stored"`
	Failed int           `json:"failed"`
}

// ProcessDirectory ingests every file under dir whose name matches one
// of the patterns. A failing file is reported in the result and never
// aborts the walk; only an unreadable directory fails the whole run.
func (p *Pipeline) ProcessDirectory(ctx context.Context, dir string, patterns []string) (*Report, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to stat directory", goerr.V("dir", dir))
	}
	if !info.IsDir() {
		return nil, goerr.Wrap(model.ErrInvalidConfig, "path is not a directory", goerr.V("dir", dir))
	}

	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}

	report := &Report{RunID: uuid.NewString()}

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		matched := false
		for _, pattern := range patterns {
			if ok, _ := filepath.Match(pattern, d.Name()); ok {
				matched = true
				break
			}
		}
		if !matched {
			return nil
		}

		result := &FileResult{Path: path}
		record, err := p.ProcessFile(ctx, path, nil)
		if err != nil {
			result.Error = err.Error()
			report.Failed++
			logging.From(ctx).Warn("failed to ingest file", "path", path, "error", err)
		} else {
			result.Entries = record.Entries
			report.Stored++
		}
		report.Files = append(report.Files, result)

		return nil
	})
	if walkErr != nil {
		return nil, goerr.Wrap(walkErr, "failed to walk directory", goerr.V("dir", dir))
	}

	return report, nil
}
