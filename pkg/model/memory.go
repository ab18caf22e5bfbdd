package model

// MemoryRecord describes a stored memory: one content-addressed file
// plus the index entries generated from it. Identical text always maps
// to the identical filename, so storing a duplicate is a no-op write.
type MemoryRecord struct {
	ID       string `json:"id"`
	FilePath string `json:"file_path"`
	Filename string `json:"filename"`
	Chars    int    `json:"chars"`
	Entries  int    `json:"entries"`
}

// RetrievedMemory is the result of a point lookup. ReadError reports a
// backing file that went missing after indexing; that condition is
// recoverable and does not fail the lookup.
type RetrievedMemory struct {
	ID        string         `json:"id"`
	Question  string         `json:"question"`
	Metadata  *EntryMetadata `json:"metadata"`
	Content   string         `json:"content,omitempty"`
	ReadError string         `json:"read_error,omitempty"`
}

// SearchHit is one search result with its file reference resolved.
// Content is only populated when the caller asked for it.
type SearchHit struct {
	Question     string         `json:"question"`
	Reference    *FileReference `json:"file_reference"`
	QuestionType QuestionType   `json:"question_type"`
	Confidence   float64        `json:"confidence"`
	Distance     float64        `json:"distance"`
	Relevance    float64        `json:"relevance"`
	Content      string         `json:"content,omitempty"`
	ReadError    string         `json:"read_error,omitempty"`
}

// SearchResult is the outcome of a query, including how the query was
// rewritten before embedding.
type SearchResult struct {
	OriginalQuery    string       `json:"original_query"`
	TransformedQuery string       `json:"transformed_query,omitempty"`
	Hits             []*SearchHit `json:"results"`
	Total            int          `json:"total_results"`
}

// ListedMemory is one row of a bulk listing.
type ListedMemory struct {
	ID       string         `json:"id"`
	FilePath string         `json:"file_path"`
	Metadata *EntryMetadata `json:"metadata"`
}
