package ingest

import (
	"context"

	"github.com/o2alexanderfedin/ai-assistant-project/pkg/chunk"
	"github.com/o2alexanderfedin/ai-assistant-project/pkg/model"
	"github.com/o2alexanderfedin/ai-assistant-project/pkg/repository"
	"github.com/o2alexanderfedin/ai-assistant-project/pkg/service/question"
)

// QuestionGenerator produces retrieval questions for a chunk of content.
type QuestionGenerator interface {
	Generate(ctx context.Context, input *question.GenerateInput) ([]*model.QuestionItem, error)
}

// QueryTransformer rewrites a search query into question variations.
type QueryTransformer interface {
	Transform(ctx context.Context, query string) ([]string, error)
}

// Embedder converts question text into vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Pipeline runs the ingestion flow: chunk content, generate questions
// per chunk, embed the questions and store the entries in the vector
// index. It also answers queries against what it stored.
type Pipeline struct {
	index       repository.Index
	questions   QuestionGenerator
	transformer QueryTransformer
	embedder    Embedder
	splitter    *chunk.Splitter

	contentType       string
	questionsPerChunk int
}

// Option is a functional option for Pipeline
type Option func(*Pipeline)

// WithSplitter replaces the default splitter (1000-byte chunks, 200
// bytes of overlap).
func WithSplitter(s *chunk.Splitter) Option {
	return func(p *Pipeline) {
		p.splitter = s
	}
}

// WithContentType sets the content type hint passed to question
// generation ("text", "code", "documentation", "architecture").
func WithContentType(contentType string) Option {
	return func(p *Pipeline) {
		p.contentType = contentType
	}
}

// WithQuestionsPerChunk overrides how many questions each chunk yields.
func WithQuestionsPerChunk(n int) Option {
	return func(p *Pipeline) {
		p.questionsPerChunk = n
	}
}

// New creates a new ingestion Pipeline instance
func New(
	index repository.Index,
	questions QuestionGenerator,
	transformer QueryTransformer,
	embedder Embedder,
	opts ...Option,
) *Pipeline {
	splitter, _ := chunk.New(chunk.DefaultChunkSize, chunk.DefaultOverlap)

	p := &Pipeline{
		index:       index,
		questions:   questions,
		transformer: transformer,
		embedder:    embedder,
		splitter:    splitter,
		contentType: "text",
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}
