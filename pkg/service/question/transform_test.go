package question_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"google.golang.org/genai"

	"github.com/o2alexanderfedin/ai-assistant-project/pkg/model"
	"github.com/o2alexanderfedin/ai-assistant-project/pkg/service/question"
)

func TestIsQuestion(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"What is chunking?", true},
		{"what is chunking", true},
		{"How does the index work", true},
		{"does this support overlap", true},
		{"chunking algorithm details?", true},
		{"chunking algorithm details", false},
		{"the chunker splits text", false},
		{"", false},
		{"   ", false},
	}

	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			gt.Equal(t, question.IsQuestion(tc.text), tc.want)
		})
	}
}

func TestTransformPassthrough(t *testing.T) {
	mock := &mockGemini{
		generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			t.Fatal("model must not be called for a query that is already a question")
			return nil, nil
		},
	}

	tr := question.NewTransformer(mock)
	variations, err := tr.Transform(context.Background(), "What is the chunk overlap?")
	gt.NoError(t, err)
	gt.A(t, variations).Length(1)
	gt.Equal(t, variations[0], "What is the chunk overlap?")
	gt.Equal(t, mock.generateCalls, 0)
}

func TestTransformStatement(t *testing.T) {
	mock := &mockGemini{
		generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return textResponse(`{"questions":[
				"What is the default chunk overlap in the splitter?",
				"How is overlap configured?",
				"What are the chunking parameters?"
			]}`), nil
		},
	}

	tr := question.NewTransformer(mock)
	variations, err := tr.Transform(context.Background(), "chunk overlap configuration")
	gt.NoError(t, err)

	// Three variations plus the original query as a fallback.
	gt.A(t, variations).Length(4)
	gt.Equal(t, variations[0], "What is the default chunk overlap in the splitter?")
	gt.Equal(t, variations[3], "chunk overlap configuration")
}

func TestTransformCapsVariations(t *testing.T) {
	mock := &mockGemini{
		generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return textResponse(`{"questions":["q1?","q2?","q3?","q4?","q5?"]}`), nil
		},
	}

	tr := question.NewTransformer(mock, question.WithMaxVariations(2))
	variations, err := tr.Transform(context.Background(), "memory layer internals")
	gt.NoError(t, err)
	gt.A(t, variations).Length(3)
	gt.Equal(t, variations[0], "q1?")
	gt.Equal(t, variations[1], "q2?")
	gt.Equal(t, variations[2], "memory layer internals")
}

func TestTransformEmptyQuery(t *testing.T) {
	tr := question.NewTransformer(&mockGemini{})

	_, err := tr.Transform(context.Background(), "   ")
	gt.Error(t, err).Required()
	gt.True(t, errors.Is(err, model.ErrEmptyInput))
}

func TestTransformCallFailure(t *testing.T) {
	mock := &mockGemini{
		generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return nil, errors.New("model unavailable")
		},
	}

	tr := question.NewTransformer(mock)
	_, err := tr.Transform(context.Background(), "memory layer internals")
	gt.Error(t, err).Required()
	gt.True(t, errors.Is(err, model.ErrTransform))
}

func TestTransformMalformedJSON(t *testing.T) {
	mock := &mockGemini{
		generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return textResponse(`{"broken"`), nil
		},
	}

	tr := question.NewTransformer(mock)
	_, err := tr.Transform(context.Background(), "memory layer internals")
	gt.Error(t, err).Required()
	gt.True(t, errors.Is(err, model.ErrTransform))
}
