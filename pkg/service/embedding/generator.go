package embedding

import (
	"context"
	"math"

	"github.com/m-mizutani/goerr/v2"

	"github.com/o2alexanderfedin/ai-assistant-project/pkg/adapter"
	"github.com/o2alexanderfedin/ai-assistant-project/pkg/model"
)

// Generator turns question text into vectors through the embedding
// model.
type Generator struct {
	gemini adapter.Gemini
}

func NewGenerator(gemini adapter.Gemini) *Generator {
	return &Generator{gemini: gemini}
}

// Embed returns the vector for a single text.
func (g *Generator) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, goerr.Wrap(model.ErrEmptyInput, "text is required for embedding")
	}

	vector, err := g.gemini.Embedding(ctx, text)
	if err != nil {
		return nil, goerr.Wrap(model.ErrEmbedding, "embedding call failed", goerr.V("cause", err))
	}
	return vector, nil
}

// EmbedBatch returns one vector per input text, in input order.
func (g *Generator) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, goerr.Wrap(model.ErrEmptyInput, "texts are required for batch embedding")
	}
	for _, text := range texts {
		if text == "" {
			return nil, goerr.Wrap(model.ErrEmptyInput, "batch contains an empty text")
		}
	}

	vectors, err := g.gemini.BatchEmbedding(ctx, texts)
	if err != nil {
		return nil, goerr.Wrap(model.ErrEmbedding, "batch embedding call failed", goerr.V("cause", err))
	}
	return vectors, nil
}

// Similarity computes the cosine similarity of two vectors, clamped to
// [-1, 1]. Zero-norm vectors yield 0.
func Similarity(v1, v2 []float32) (float64, error) {
	if len(v1) != len(v2) {
		return 0, goerr.Wrap(model.ErrDimensionMismatch, "vectors differ in dimension",
			goerr.V("len1", len(v1)), goerr.V("len2", len(v2)))
	}

	var dot, norm1, norm2 float64
	for i := range v1 {
		a, b := float64(v1[i]), float64(v2[i])
		dot += a * b
		norm1 += a * a
		norm2 += b * b
	}
	if norm1 == 0 || norm2 == 0 {
		return 0, nil
	}

	sim := dot / (math.Sqrt(norm1) * math.Sqrt(norm2))
	return math.Max(-1, math.Min(1, sim)), nil
}
