package memory_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/o2alexanderfedin/ai-assistant-project/pkg/model"
	"github.com/o2alexanderfedin/ai-assistant-project/pkg/usecase/ingest"
	"github.com/o2alexanderfedin/ai-assistant-project/pkg/usecase/memory"
)

type fakeIndex struct {
	entries map[string]*model.Entry
	order   []string
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{entries: map[string]*model.Entry{}}
}

func (f *fakeIndex) Heartbeat(ctx context.Context) error { return nil }

func (f *fakeIndex) EnsureCollection(ctx context.Context, metadata map[string]any) error {
	return nil
}

func (f *fakeIndex) Add(ctx context.Context, entries []*model.Entry) error {
	for _, e := range entries {
		if _, ok := f.entries[e.ID]; !ok {
			f.order = append(f.order, e.ID)
		}
		f.entries[e.ID] = e
	}
	return nil
}

func (f *fakeIndex) Query(ctx context.Context, embedding []float32, n int) ([]*model.Hit, error) {
	return nil, nil
}

func (f *fakeIndex) Get(ctx context.Context, id string) (*model.Entry, error) {
	entry, ok := f.entries[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return entry, nil
}

func (f *fakeIndex) GetAll(ctx context.Context, limit int) ([]*model.Entry, error) {
	if limit > len(f.order) {
		limit = len(f.order)
	}
	out := make([]*model.Entry, 0, limit)
	for _, id := range f.order[:limit] {
		out = append(out, f.entries[id])
	}
	return out, nil
}

func (f *fakeIndex) Count(ctx context.Context) (int, error) {
	return len(f.entries), nil
}

// fakePipeline indexes one factual question per file without any model
// calls.
type fakePipeline struct {
	index    *fakeIndex
	searchFn func(query string, limit int, opts ingest.SearchOptions) (*model.SearchResult, error)
}

func (f *fakePipeline) ProcessFile(ctx context.Context, path string, metadata map[string]string) (*model.MemoryRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, model.ErrEmptyInput
	}

	ref := model.NewFileReference(path, 0, 0, len(raw))
	entry := &model.Entry{
		ID:        ref.EntryID(0),
		Embedding: []float32{0.1, 0.2},
		Metadata: &model.EntryMetadata{
			Reference:    ref,
			QuestionType: model.QuestionTypeFactual,
			Confidence:   0.9,
		},
		Document: "What does this memory contain?",
	}
	if err := f.index.Add(ctx, []*model.Entry{entry}); err != nil {
		return nil, err
	}

	return &model.MemoryRecord{
		ID:       entry.ID,
		FilePath: path,
		Filename: filepath.Base(path),
		Chars:    len(raw),
		Entries:  1,
	}, nil
}

func (f *fakePipeline) Search(ctx context.Context, query string, limit int, opts ingest.SearchOptions) (*model.SearchResult, error) {
	if f.searchFn != nil {
		return f.searchFn(query, limit, opts)
	}
	return &model.SearchResult{OriginalQuery: query}, nil
}

func setup(t *testing.T) (*fakeIndex, *memory.Manager, string) {
	t.Helper()
	index := newFakeIndex()
	dir := t.TempDir()
	mgr := memory.New(index, &fakePipeline{index: index}, dir)
	return index, mgr, dir
}

func TestFilename(t *testing.T) {
	name := memory.Filename("remember this")
	gt.S(t, name).Contains(".txt")
	// Unpadded base32 of a SHA-256 digest is 52 characters.
	gt.Equal(t, len(name), 56)
	gt.False(t, strings.Contains(name, "="))

	gt.Equal(t, memory.Filename("remember this"), name)
	gt.NotEqual(t, memory.Filename("remember that"), name)
}

func TestStore(t *testing.T) {
	_, mgr, dir := setup(t)

	record, err := mgr.Store(context.Background(), "the deploy runs at 9am daily", nil)
	gt.NoError(t, err)
	gt.NotEqual(t, record.ID, "")
	gt.Equal(t, record.Chars, 28)
	gt.Equal(t, record.Entries, 1)
	gt.Equal(t, record.Filename, memory.Filename("the deploy runs at 9am daily"))

	raw, err := os.ReadFile(filepath.Join(dir, record.Filename))
	gt.NoError(t, err)
	gt.Equal(t, string(raw), "the deploy runs at 9am daily")
}

func TestStoreIdempotent(t *testing.T) {
	index, mgr, dir := setup(t)

	first, err := mgr.Store(context.Background(), "same text", nil)
	gt.NoError(t, err)
	second, err := mgr.Store(context.Background(), "same text", nil)
	gt.NoError(t, err)

	gt.Equal(t, first.ID, second.ID)
	gt.Equal(t, first.Filename, second.Filename)

	files, err := os.ReadDir(dir)
	gt.NoError(t, err)
	gt.A(t, files).Length(1)

	count, err := index.Count(context.Background())
	gt.NoError(t, err)
	gt.Equal(t, count, 1)
}

func TestStoreEmpty(t *testing.T) {
	_, mgr, _ := setup(t)

	_, err := mgr.Store(context.Background(), "", nil)
	gt.Error(t, err).Required()
	gt.True(t, errors.Is(err, model.ErrEmptyInput))
}

func TestRetrieve(t *testing.T) {
	_, mgr, _ := setup(t)
	ctx := context.Background()

	record, err := mgr.Store(ctx, "the staging database lives on host db-2", nil)
	gt.NoError(t, err)

	retrieved, err := mgr.Retrieve(ctx, record.ID)
	gt.NoError(t, err)
	gt.V(t, retrieved).NotNil()
	gt.Equal(t, retrieved.ID, record.ID)
	gt.Equal(t, retrieved.Question, "What does this memory contain?")
	gt.Equal(t, retrieved.Content, "the staging database lives on host db-2")
	gt.Equal(t, retrieved.ReadError, "")
}

func TestRetrieveUnknown(t *testing.T) {
	_, mgr, _ := setup(t)

	retrieved, err := mgr.Retrieve(context.Background(), "no-such-id")
	gt.NoError(t, err)
	gt.Nil(t, retrieved)
}

func TestRetrieveMissingFile(t *testing.T) {
	_, mgr, dir := setup(t)
	ctx := context.Background()

	record, err := mgr.Store(ctx, "text whose file will vanish", nil)
	gt.NoError(t, err)

	gt.NoError(t, os.Remove(filepath.Join(dir, record.Filename)))

	retrieved, err := mgr.Retrieve(ctx, record.ID)
	gt.NoError(t, err)
	gt.V(t, retrieved).NotNil()
	gt.Equal(t, retrieved.Content, "")
	gt.NotEqual(t, retrieved.ReadError, "")
}

func TestQueryDelegates(t *testing.T) {
	index := newFakeIndex()
	pipeline := &fakePipeline{
		index: index,
		searchFn: func(query string, limit int, opts ingest.SearchOptions) (*model.SearchResult, error) {
			gt.Equal(t, query, "deploy schedule")
			gt.Equal(t, limit, 3)
			gt.True(t, opts.Transform)
			return &model.SearchResult{OriginalQuery: query, Total: 0}, nil
		},
	}
	mgr := memory.New(index, pipeline, t.TempDir())

	result, err := mgr.Query(context.Background(), "deploy schedule", 3, ingest.SearchOptions{Transform: true})
	gt.NoError(t, err)
	gt.Equal(t, result.OriginalQuery, "deploy schedule")
}

func TestListAndCount(t *testing.T) {
	_, mgr, _ := setup(t)
	ctx := context.Background()

	_, err := mgr.Store(ctx, "first memory", nil)
	gt.NoError(t, err)
	_, err = mgr.Store(ctx, "second memory", nil)
	gt.NoError(t, err)

	listed, err := mgr.List(ctx, 0)
	gt.NoError(t, err)
	gt.A(t, listed).Length(2)
	gt.NotEqual(t, listed[0].FilePath, "")

	count, err := mgr.Count(ctx)
	gt.NoError(t, err)
	gt.Equal(t, count, 2)
}
