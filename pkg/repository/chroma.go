package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/o2alexanderfedin/ai-assistant-project/pkg/model"
	"github.com/o2alexanderfedin/ai-assistant-project/pkg/utils/logging"
)

// Chroma talks to a Chroma-style vector index over its HTTP API v2.
// One instance is bound to one collection.
type Chroma struct {
	baseURL    string
	collection string
	httpClient *http.Client

	mu           sync.Mutex
	collectionID string
}

type ChromaOption func(*Chroma)

// WithHTTPClient replaces the HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) ChromaOption {
	return func(c *Chroma) {
		c.httpClient = client
	}
}

// WithTimeout sets the per-request timeout for index calls.
func WithTimeout(d time.Duration) ChromaOption {
	return func(c *Chroma) {
		c.httpClient.Timeout = d
	}
}

// NewChroma creates a client for the index at host:port. The collection
// is not created here; EnsureCollection does that explicitly.
func NewChroma(host string, port int, ssl bool, collection string, opts ...ChromaOption) (*Chroma, error) {
	if host == "" {
		return nil, goerr.Wrap(model.ErrInvalidConfig, "chroma host is required")
	}
	if collection == "" {
		return nil, goerr.Wrap(model.ErrInvalidConfig, "collection name is required")
	}

	scheme := "http"
	if ssl {
		scheme = "https"
	}

	c := &Chroma{
		baseURL:    fmt.Sprintf("%s://%s:%d/api/v2", scheme, host, port),
		collection: collection,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// NewChromaURL creates a client from a prebuilt base URL, used by tests
// against httptest servers.
func NewChromaURL(baseURL, collection string, opts ...ChromaOption) (*Chroma, error) {
	c := &Chroma{
		baseURL:    strings.TrimSuffix(baseURL, "/") + "/api/v2",
		collection: collection,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Chroma) Heartbeat(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/heartbeat", nil, nil)
}

type collectionInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// EnsureCollection creates the collection, treating "already exists"
// responses as success. Create-first avoids the list-then-create race:
// two callers may both attempt the create, and both must end up with
// the same collection.
func (c *Chroma) EnsureCollection(ctx context.Context, metadata map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.collectionID != "" {
		return nil
	}

	if metadata == nil {
		metadata = map[string]any{"type": "file_reference"}
	}

	var created collectionInfo
	err := c.do(ctx, http.MethodPost, "/collections", map[string]any{
		"name":     c.collection,
		"metadata": metadata,
	}, &created)
	if err == nil && created.ID != "" {
		c.collectionID = created.ID
		logging.From(ctx).Debug("created collection", "name", c.collection, "id", created.ID)
		return nil
	}
	if err != nil && !isAlreadyExists(err) {
		return err
	}

	id, err := c.findCollection(ctx)
	if err != nil {
		return err
	}
	c.collectionID = id

	return nil
}

func isAlreadyExists(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "already exists")
}

func (c *Chroma) findCollection(ctx context.Context) (string, error) {
	var listed struct {
		Collections []collectionInfo `json:"collections"`
	}
	if err := c.do(ctx, http.MethodGet, "/collections", nil, &listed); err != nil {
		return "", err
	}

	for _, coll := range listed.Collections {
		if coll.Name == c.collection {
			return coll.ID, nil
		}
	}

	return "", goerr.Wrap(model.ErrNotFound, "collection not found", goerr.V("name", c.collection))
}

func (c *Chroma) resolveCollection(ctx context.Context) (string, error) {
	c.mu.Lock()
	id := c.collectionID
	c.mu.Unlock()
	if id != "" {
		return id, nil
	}

	if err := c.EnsureCollection(ctx, nil); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.collectionID, nil
}

// addRequest is the wire format of the add operation: four parallel
// arrays that must have equal lengths.
type addRequest struct {
	IDs        []string         `json:"ids"`
	Embeddings [][]float32      `json:"embeddings"`
	Metadatas  []map[string]any `json:"metadatas"`
	Documents  []string         `json:"documents"`
}

func (r *addRequest) validate() error {
	n := len(r.IDs)
	if len(r.Embeddings) != n || len(r.Metadatas) != n || len(r.Documents) != n {
		return goerr.Wrap(model.ErrSchema, "add arrays must have equal lengths",
			goerr.V("ids", n),
			goerr.V("embeddings", len(r.Embeddings)),
			goerr.V("metadatas", len(r.Metadatas)),
			goerr.V("documents", len(r.Documents)))
	}
	return nil
}

func (c *Chroma) Add(ctx context.Context, entries []*model.Entry) error {
	if len(entries) == 0 {
		return goerr.Wrap(model.ErrEmptyInput, "no entries to add")
	}

	req := &addRequest{
		IDs:        make([]string, 0, len(entries)),
		Embeddings: make([][]float32, 0, len(entries)),
		Metadatas:  make([]map[string]any, 0, len(entries)),
		Documents:  make([]string, 0, len(entries)),
	}
	for _, entry := range entries {
		if err := entry.Validate(); err != nil {
			return err
		}
		req.IDs = append(req.IDs, entry.ID)
		req.Embeddings = append(req.Embeddings, entry.Embedding)
		req.Metadatas = append(req.Metadatas, entry.Metadata.ToMap())
		req.Documents = append(req.Documents, entry.Document)
	}
	if err := req.validate(); err != nil {
		return err
	}

	collectionID, err := c.resolveCollection(ctx)
	if err != nil {
		return err
	}

	if err := c.do(ctx, http.MethodPost, "/collections/"+collectionID+"/add", req, nil); err != nil {
		return err
	}

	logging.From(ctx).Debug("added entries", "collection", c.collection, "count", len(entries))
	return nil
}

func (c *Chroma) Query(ctx context.Context, embedding []float32, n int) ([]*model.Hit, error) {
	if len(embedding) == 0 {
		return nil, goerr.Wrap(model.ErrEmptyInput, "query embedding is empty")
	}
	if n <= 0 {
		n = 5
	}

	collectionID, err := c.resolveCollection(ctx)
	if err != nil {
		return nil, err
	}

	var resp struct {
		IDs       [][]string         `json:"ids"`
		Documents [][]string         `json:"documents"`
		Metadatas [][]map[string]any `json:"metadatas"`
		Distances [][]float64        `json:"distances"`
	}
	err = c.do(ctx, http.MethodPost, "/collections/"+collectionID+"/query", map[string]any{
		"query_embeddings": [][]float32{embedding},
		"n_results":        n,
		"include":          []string{"documents", "metadatas", "distances"},
	}, &resp)
	if err != nil {
		return nil, err
	}

	if len(resp.IDs) == 0 {
		return nil, nil
	}

	hits := make([]*model.Hit, 0, len(resp.IDs[0]))
	for i, id := range resp.IDs[0] {
		hit := &model.Hit{ID: id}
		if len(resp.Documents) > 0 && i < len(resp.Documents[0]) {
			hit.Document = resp.Documents[0][i]
		}
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			hit.Distance = resp.Distances[0][i]
		}
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			meta, err := model.EntryMetadataFromMap(resp.Metadatas[0][i])
			if err != nil {
				return nil, err
			}
			hit.Metadata = meta
		}
		hits = append(hits, hit)
	}

	return hits, nil
}

type getResponse struct {
	IDs        []string         `json:"ids"`
	Documents  []string         `json:"documents"`
	Metadatas  []map[string]any `json:"metadatas"`
	Embeddings [][]float32      `json:"embeddings"`
}

func (r *getResponse) entry(i int) (*model.Entry, error) {
	entry := &model.Entry{ID: r.IDs[i]}
	if i < len(r.Documents) {
		entry.Document = r.Documents[i]
	}
	if i < len(r.Embeddings) {
		entry.Embedding = r.Embeddings[i]
	}
	if i < len(r.Metadatas) {
		meta, err := model.EntryMetadataFromMap(r.Metadatas[i])
		if err != nil {
			return nil, err
		}
		entry.Metadata = meta
	}
	return entry, nil
}

func (c *Chroma) Get(ctx context.Context, id string) (*model.Entry, error) {
	if id == "" {
		return nil, goerr.Wrap(model.ErrEmptyInput, "entry id is empty")
	}

	collectionID, err := c.resolveCollection(ctx)
	if err != nil {
		return nil, err
	}

	var resp getResponse
	err = c.do(ctx, http.MethodPost, "/collections/"+collectionID+"/get", map[string]any{
		"ids":     []string{id},
		"include": []string{"documents", "metadatas", "embeddings"},
	}, &resp)
	if err != nil {
		return nil, err
	}

	if len(resp.IDs) == 0 {
		return nil, goerr.Wrap(model.ErrNotFound, "entry not found", goerr.V("id", id))
	}

	return resp.entry(0)
}

func (c *Chroma) GetAll(ctx context.Context, limit int) ([]*model.Entry, error) {
	if limit <= 0 {
		limit = 100
	}

	collectionID, err := c.resolveCollection(ctx)
	if err != nil {
		return nil, err
	}

	var resp getResponse
	err = c.do(ctx, http.MethodPost, "/collections/"+collectionID+"/get", map[string]any{
		"limit":   limit,
		"include": []string{"documents", "metadatas"},
	}, &resp)
	if err != nil {
		return nil, err
	}

	entries := make([]*model.Entry, 0, len(resp.IDs))
	for i := range resp.IDs {
		entry, err := resp.entry(i)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (c *Chroma) Count(ctx context.Context) (int, error) {
	collectionID, err := c.resolveCollection(ctx)
	if err != nil {
		return 0, err
	}

	var count int
	if err := c.do(ctx, http.MethodGet, "/collections/"+collectionID+"/count", nil, &count); err != nil {
		return 0, err
	}

	return count, nil
}

// do performs one HTTP call. Any non-2xx response becomes an ErrIndex
// carrying the raw collaborator message; no retries are attempted.
func (c *Chroma) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return goerr.Wrap(err, "failed to marshal request", goerr.V("path", path))
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return goerr.Wrap(err, "failed to build request", goerr.V("path", path))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(model.ErrIndex, "index is unreachable", goerr.V("path", path), goerr.V("cause", err.Error()))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return goerr.Wrap(model.ErrIndex, "failed to read index response", goerr.V("path", path))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// The raw collaborator message stays in the error text so
		// callers can recognize conditions like "already exists".
		return goerr.Wrap(model.ErrIndex, fmt.Sprintf("index returned error: %s", string(raw)),
			goerr.V("path", path),
			goerr.V("status", resp.StatusCode))
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return goerr.Wrap(model.ErrIndex, "failed to decode index response",
				goerr.V("path", path), goerr.V("body", string(raw)))
		}
	}

	return nil
}
