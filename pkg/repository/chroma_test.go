package repository_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/o2alexanderfedin/ai-assistant-project/pkg/model"
	"github.com/o2alexanderfedin/ai-assistant-project/pkg/repository"
)

// fakeChroma implements just enough of the Chroma HTTP API v2 for the
// adapter tests.
type fakeChroma struct {
	collections map[string]string // name -> id
	ids         []string
	embeddings  [][]float32
	metadatas   []map[string]any
	documents   []string
	failAdd     bool
}

func newFakeChroma() *fakeChroma {
	return &fakeChroma{collections: map[string]string{}}
}

func (f *fakeChroma) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v2/heartbeat", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("GET /api/v2/collections", func(w http.ResponseWriter, r *http.Request) {
		type info struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		var out struct {
			Collections []info `json:"collections"`
		}
		for name, id := range f.collections {
			out.Collections = append(out.Collections, info{ID: id, Name: name})
		}
		_ = json.NewEncoder(w).Encode(out)
	})

	mux.HandleFunc("POST /api/v2/collections", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string `json:"name"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if _, ok := f.collections[req.Name]; ok {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"collection ` + req.Name + ` already exists"}`))
			return
		}
		f.collections[req.Name] = "coll-" + req.Name
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "coll-" + req.Name, "name": req.Name})
	})

	mux.HandleFunc("POST /api/v2/collections/{id}/add", func(w http.ResponseWriter, r *http.Request) {
		if f.failAdd {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"embedding dimension does not match collection"}`))
			return
		}
		var req struct {
			IDs        []string         `json:"ids"`
			Embeddings [][]float32      `json:"embeddings"`
			Metadatas  []map[string]any `json:"metadatas"`
			Documents  []string         `json:"documents"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.ids = append(f.ids, req.IDs...)
		f.embeddings = append(f.embeddings, req.Embeddings...)
		f.metadatas = append(f.metadatas, req.Metadatas...)
		f.documents = append(f.documents, req.Documents...)
		w.WriteHeader(http.StatusCreated)
	})

	mux.HandleFunc("POST /api/v2/collections/{id}/query", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			NResults int `json:"n_results"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		n := min(req.NResults, len(f.ids))
		out := map[string]any{
			"ids":       [][]string{f.ids[:n]},
			"documents": [][]string{f.documents[:n]},
			"metadatas": [][]map[string]any{f.metadatas[:n]},
			"distances": [][]float64{make([]float64, n)},
		}
		for i := 0; i < n; i++ {
			out["distances"].([][]float64)[0][i] = 0.1 * float64(i+1)
		}
		_ = json.NewEncoder(w).Encode(out)
	})

	mux.HandleFunc("POST /api/v2/collections/{id}/get", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			IDs   []string `json:"ids"`
			Limit int      `json:"limit"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		out := map[string]any{"ids": []string{}, "documents": []string{}, "metadatas": []map[string]any{}}
		if len(req.IDs) > 0 {
			for i, id := range f.ids {
				if id == req.IDs[0] {
					out["ids"] = []string{id}
					out["documents"] = []string{f.documents[i]}
					out["metadatas"] = []map[string]any{f.metadatas[i]}
					out["embeddings"] = [][]float32{f.embeddings[i]}
				}
			}
		} else {
			n := min(req.Limit, len(f.ids))
			out["ids"] = f.ids[:n]
			out["documents"] = f.documents[:n]
			out["metadatas"] = f.metadatas[:n]
		}
		_ = json.NewEncoder(w).Encode(out)
	})

	mux.HandleFunc("GET /api/v2/collections/{id}/count", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(len(f.ids))
	})

	return mux
}

func setupChroma(t *testing.T) (*fakeChroma, *repository.Chroma) {
	t.Helper()
	fake := newFakeChroma()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	index, err := repository.NewChromaURL(srv.URL, "memory_collection")
	gt.NoError(t, err)
	return fake, index
}

func testEntry(path string, chunkIndex, q int) *model.Entry {
	ref := model.NewFileReference(path, chunkIndex, chunkIndex*800, 1000)
	return &model.Entry{
		ID:        ref.EntryID(q),
		Embedding: []float32{0.1, 0.2, 0.3},
		Metadata: &model.EntryMetadata{
			Reference:    ref,
			QuestionType: model.QuestionTypeFactual,
			Confidence:   0.9,
		},
		Document: "What does this chunk describe?",
	}
}

func TestChromaHeartbeat(t *testing.T) {
	_, index := setupChroma(t)
	gt.NoError(t, index.Heartbeat(context.Background()))
}

func TestChromaEnsureCollection(t *testing.T) {
	fake, index := setupChroma(t)
	ctx := context.Background()

	gt.NoError(t, index.EnsureCollection(ctx, nil))
	gt.Equal(t, fake.collections["memory_collection"], "coll-memory_collection")

	// Second call is a no-op.
	gt.NoError(t, index.EnsureCollection(ctx, nil))
}

func TestChromaEnsureCollectionAlreadyExists(t *testing.T) {
	fake := newFakeChroma()
	fake.collections["memory_collection"] = "coll-existing"
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	index, err := repository.NewChromaURL(srv.URL, "memory_collection")
	gt.NoError(t, err)

	// The create returns 409 but the adapter resolves the existing
	// collection and proceeds.
	gt.NoError(t, index.EnsureCollection(context.Background(), nil))
	gt.NoError(t, index.Add(context.Background(), []*model.Entry{testEntry("/data/a.txt", 0, 0)}))
}

func TestChromaAddAndQuery(t *testing.T) {
	fake, index := setupChroma(t)
	ctx := context.Background()

	entries := []*model.Entry{
		testEntry("/data/a.txt", 0, 0),
		testEntry("/data/a.txt", 0, 1),
		testEntry("/data/a.txt", 1, 0),
	}
	gt.NoError(t, index.Add(ctx, entries))
	gt.A(t, fake.ids).Length(3)
	gt.Equal(t, fake.metadatas[0]["file_path"].(string), entries[0].Metadata.Reference.FilePath)

	hits, err := index.Query(ctx, []float32{0.1, 0.2, 0.3}, 2)
	gt.NoError(t, err)
	gt.A(t, hits).Length(2)
	gt.Equal(t, hits[0].ID, entries[0].ID)
	gt.Equal(t, hits[0].Document, "What does this chunk describe?")
	gt.Equal(t, hits[0].Distance, 0.1)
	gt.Equal(t, hits[0].Relevance(), 0.9)
	gt.V(t, hits[0].Metadata).NotNil()
	gt.Equal(t, hits[0].Metadata.Reference.FilePath, entries[0].Metadata.Reference.FilePath)
}

func TestChromaAddInvalidEntry(t *testing.T) {
	_, index := setupChroma(t)
	ctx := context.Background()

	// Metadata without a file reference must be rejected before any
	// network call.
	broken := &model.Entry{ID: "x", Embedding: []float32{1}, Document: "q"}
	err := index.Add(ctx, []*model.Entry{broken})
	gt.Error(t, err).Required()
	gt.True(t, errors.Is(err, model.ErrSchema))

	err = index.Add(ctx, nil)
	gt.Error(t, err).Required()
	gt.True(t, errors.Is(err, model.ErrEmptyInput))
}

func TestChromaAddIndexError(t *testing.T) {
	fake, index := setupChroma(t)
	fake.failAdd = true

	err := index.Add(context.Background(), []*model.Entry{testEntry("/data/a.txt", 0, 0)})
	gt.Error(t, err).Required()
	gt.True(t, errors.Is(err, model.ErrIndex))
	gt.S(t, err.Error()).Contains("embedding dimension does not match")
}

func TestChromaGet(t *testing.T) {
	_, index := setupChroma(t)
	ctx := context.Background()

	entry := testEntry("/data/b.txt", 2, 1)
	gt.NoError(t, index.Add(ctx, []*model.Entry{entry}))

	got, err := index.Get(ctx, entry.ID)
	gt.NoError(t, err)
	gt.Equal(t, got.ID, entry.ID)
	gt.Equal(t, got.Document, entry.Document)
	gt.A(t, got.Embedding).Length(3)
	gt.Equal(t, got.Metadata.Reference.ChunkIndex, 2)

	_, err = index.Get(ctx, "unknown-id")
	gt.Error(t, err).Required()
	gt.True(t, errors.Is(err, model.ErrNotFound))
}

func TestChromaGetAllAndCount(t *testing.T) {
	_, index := setupChroma(t)
	ctx := context.Background()

	gt.NoError(t, index.Add(ctx, []*model.Entry{
		testEntry("/data/a.txt", 0, 0),
		testEntry("/data/b.txt", 0, 0),
	}))

	entries, err := index.GetAll(ctx, 10)
	gt.NoError(t, err)
	gt.A(t, entries).Length(2)

	count, err := index.Count(ctx)
	gt.NoError(t, err)
	gt.Equal(t, count, 2)
}

func TestChromaUnreachable(t *testing.T) {
	index, err := repository.NewChromaURL("http://127.0.0.1:1", "memory_collection")
	gt.NoError(t, err)

	err = index.Heartbeat(context.Background())
	gt.Error(t, err).Required()
	gt.True(t, errors.Is(err, model.ErrIndex))
}
