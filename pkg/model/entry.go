package model

import "github.com/m-mizutani/goerr/v2"

const (
	metaQuestionType = "question_type"
	metaConfidence   = "confidence"
)

// EntryMetadata is the typed metadata persisted with every index entry.
// It always carries a back-reference to the originating file and chunk
// so content can be re-read lazily instead of being duplicated into the
// index.
type EntryMetadata struct {
	Reference    *FileReference `json:"reference"`
	QuestionType QuestionType   `json:"question_type"`
	Confidence   float64        `json:"confidence"`
}

// ToMap flattens the metadata into the scalar map the index accepts.
func (m *EntryMetadata) ToMap() map[string]any {
	out := m.Reference.ToMap()
	out[metaQuestionType] = string(m.QuestionType)
	out[metaConfidence] = m.Confidence
	return out
}

// EntryMetadataFromMap rebuilds typed metadata from an index row.
func EntryMetadataFromMap(raw map[string]any) (*EntryMetadata, error) {
	ref, err := FileReferenceFromMap(raw)
	if err != nil {
		return nil, err
	}

	meta := &EntryMetadata{Reference: ref}
	if t, ok := raw[metaQuestionType].(string); ok {
		meta.QuestionType = QuestionType(t)
	}
	if c, ok := raw[metaConfidence].(float64); ok {
		meta.Confidence = c
	}

	return meta, nil
}

// Entry is the persisted unit in the vector index: the embedding of a
// generated question, the question text as the document, and metadata
// pointing back at the source chunk.
type Entry struct {
	ID        string
	Embedding []float32
	Metadata  *EntryMetadata
	Document  string
}

// Validate checks the entry is complete enough to be persisted.
func (e *Entry) Validate() error {
	if e.ID == "" {
		return goerr.Wrap(ErrSchema, "entry id is empty")
	}
	if len(e.Embedding) == 0 {
		return goerr.Wrap(ErrSchema, "entry embedding is empty", goerr.V("id", e.ID))
	}
	if e.Metadata == nil || e.Metadata.Reference == nil || e.Metadata.Reference.FilePath == "" {
		return goerr.Wrap(ErrSchema, "entry metadata must carry file_path", goerr.V("id", e.ID))
	}
	return nil
}

// Hit is a nearest-neighbor query result. Relevance is 1 - distance,
// meaningful only for distance metrics bounded in [0, 1].
type Hit struct {
	ID       string
	Document string
	Metadata *EntryMetadata
	Distance float64
}

// Relevance derives a similarity-style score from the hit distance.
func (h *Hit) Relevance() float64 {
	return 1 - h.Distance
}
