package embedding_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"google.golang.org/genai"

	"github.com/o2alexanderfedin/ai-assistant-project/pkg/model"
	"github.com/o2alexanderfedin/ai-assistant-project/pkg/service/embedding"
)

type mockGemini struct {
	embeddingFunc func(ctx context.Context, text string) ([]float32, error)
	batchFunc     func(ctx context.Context, texts []string) ([][]float32, error)
}

func (m *mockGemini) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return nil, errors.New("not implemented")
}

func (m *mockGemini) Embedding(ctx context.Context, text string) ([]float32, error) {
	return m.embeddingFunc(ctx, text)
}

func (m *mockGemini) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	return m.batchFunc(ctx, texts)
}

func TestEmbed(t *testing.T) {
	mock := &mockGemini{
		embeddingFunc: func(ctx context.Context, text string) ([]float32, error) {
			gt.Equal(t, text, "What is chunking?")
			return []float32{0.1, 0.2, 0.3}, nil
		},
	}

	gen := embedding.NewGenerator(mock)
	vector, err := gen.Embed(context.Background(), "What is chunking?")
	gt.NoError(t, err)
	gt.A(t, vector).Length(3)
}

func TestEmbedEmpty(t *testing.T) {
	gen := embedding.NewGenerator(&mockGemini{})

	_, err := gen.Embed(context.Background(), "")
	gt.Error(t, err).Required()
	gt.True(t, errors.Is(err, model.ErrEmptyInput))
}

func TestEmbedFailure(t *testing.T) {
	mock := &mockGemini{
		embeddingFunc: func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("quota exceeded")
		},
	}

	gen := embedding.NewGenerator(mock)
	_, err := gen.Embed(context.Background(), "some text")
	gt.Error(t, err).Required()
	gt.True(t, errors.Is(err, model.ErrEmbedding))
}

func TestEmbedBatchOrder(t *testing.T) {
	mock := &mockGemini{
		batchFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			vectors := make([][]float32, len(texts))
			for i := range texts {
				vectors[i] = []float32{float32(i)}
			}
			return vectors, nil
		},
	}

	gen := embedding.NewGenerator(mock)
	vectors, err := gen.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	gt.NoError(t, err)
	gt.A(t, vectors).Length(3)
	gt.Equal(t, vectors[0][0], float32(0))
	gt.Equal(t, vectors[2][0], float32(2))
}

func TestEmbedBatchEmpty(t *testing.T) {
	gen := embedding.NewGenerator(&mockGemini{})

	_, err := gen.EmbedBatch(context.Background(), nil)
	gt.Error(t, err).Required()
	gt.True(t, errors.Is(err, model.ErrEmptyInput))

	_, err = gen.EmbedBatch(context.Background(), []string{"a", ""})
	gt.Error(t, err).Required()
	gt.True(t, errors.Is(err, model.ErrEmptyInput))
}

func TestSimilarity(t *testing.T) {
	sim, err := embedding.Similarity([]float32{1, 0}, []float32{1, 0})
	gt.NoError(t, err)
	gt.Equal(t, sim, 1.0)

	sim, err = embedding.Similarity([]float32{1, 0}, []float32{0, 1})
	gt.NoError(t, err)
	gt.Equal(t, sim, 0.0)

	sim, err = embedding.Similarity([]float32{1, 0}, []float32{-1, 0})
	gt.NoError(t, err)
	gt.Equal(t, sim, -1.0)

	sim, err = embedding.Similarity([]float32{0, 0}, []float32{1, 1})
	gt.NoError(t, err)
	gt.Equal(t, sim, 0.0)
}

func TestSimilarityDimensionMismatch(t *testing.T) {
	_, err := embedding.Similarity([]float32{1, 2}, []float32{1, 2, 3})
	gt.Error(t, err).Required()
	gt.True(t, errors.Is(err, model.ErrDimensionMismatch))
}
