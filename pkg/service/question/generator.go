package question

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"sort"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"

	"github.com/o2alexanderfedin/ai-assistant-project/pkg/adapter"
	"github.com/o2alexanderfedin/ai-assistant-project/pkg/model"
	"github.com/o2alexanderfedin/ai-assistant-project/pkg/utils/logging"
)

//go:embed prompt/questions.md
var questionsPromptRaw string

var questionsPromptTmpl = template.Must(template.New("questions").Parse(questionsPromptRaw))

const (
	// DefaultQuestionCount is the number of questions generated per
	// chunk when the caller does not override it.
	DefaultQuestionCount = 5

	// excerptLength bounds the source text stored alongside each
	// generated question.
	excerptLength = 100
)

// Generator produces retrieval questions from a piece of content using
// a structured-output model call.
type Generator struct {
	gemini adapter.Gemini
	count  int
}

type GeneratorOption func(*Generator)

func WithQuestionCount(count int) GeneratorOption {
	return func(g *Generator) {
		g.count = count
	}
}

func NewGenerator(gemini adapter.Gemini, opts ...GeneratorOption) *Generator {
	g := &Generator{
		gemini: gemini,
		count:  DefaultQuestionCount,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateInput carries the content to interrogate. ContentType steers
// the prompt toward code, documentation or architecture phrasing;
// anything else gets the generic instructions. Metadata is passed to
// the model verbatim as analysis context.
type GenerateInput struct {
	Content     string
	ContentType string
	Metadata    map[string]string
	Count       int
}

var questionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"questions": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"question": {
						Type:        genai.TypeString,
						Description: "The generated question text",
					},
					"type": {
						Type:        genai.TypeString,
						Description: "Question category",
						Enum:        []string{"factual", "relationship", "purpose", "process"},
					},
					"confidence": {
						Type:        genai.TypeNumber,
						Description: "Quality estimate between 0.0 and 1.0",
					},
					"content_id": {
						Type:        genai.TypeString,
						Description: "Identifier of the content section the question covers",
					},
				},
				Required: []string{"question", "type", "confidence"},
			},
		},
	},
	Required: []string{"questions"},
}

// Generate asks the model for input.Count questions about the content
// and returns them validated. Items the model returns with an unknown
// type, empty text or an out-of-range confidence fail the whole call.
func (g *Generator) Generate(ctx context.Context, input *GenerateInput) ([]*model.QuestionItem, error) {
	if input == nil || input.Content == "" {
		return nil, goerr.Wrap(model.ErrEmptyInput, "content is required for question generation")
	}

	count := input.Count
	if count <= 0 {
		count = g.count
	}
	contentType := input.ContentType
	if contentType == "" {
		contentType = "text"
	}

	var metadataJSON string
	if len(input.Metadata) > 0 {
		raw, err := json.MarshalIndent(input.Metadata, "", "  ")
		if err != nil {
			return nil, goerr.Wrap(err, "failed to marshal content metadata")
		}
		metadataJSON = string(raw)
	}

	var buf bytes.Buffer
	if err := questionsPromptTmpl.Execute(&buf, map[string]any{
		"Count":        count,
		"ContentType":  contentType,
		"Content":      input.Content,
		"MetadataJSON": metadataJSON,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to execute question prompt template")
	}

	thinkingBudget := int32(0)
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  &thinkingBudget,
		},
		ResponseSchema: questionSchema,
	}

	contents := []*genai.Content{
		genai.NewContentFromText(buf.String(), genai.RoleUser),
	}

	resp, err := g.gemini.GenerateContent(ctx, contents, config)
	if err != nil {
		return nil, goerr.Wrap(model.ErrGeneration, "question generation call failed", goerr.V("cause", err))
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, goerr.Wrap(model.ErrGeneration, "invalid response structure from model")
	}

	rawJSON := resp.Candidates[0].Content.Parts[0].Text

	var parsed struct {
		Questions []struct {
			Question   string  `json:"question"`
			Type       string  `json:"type"`
			Confidence float64 `json:"confidence"`
			ContentID  string  `json:"content_id"`
		} `json:"questions"`
	}
	if err := json.Unmarshal([]byte(rawJSON), &parsed); err != nil {
		return nil, goerr.Wrap(model.ErrGeneration, "failed to unmarshal question JSON", goerr.V("json", rawJSON), goerr.V("cause", err))
	}

	excerpt := input.Content
	if len(excerpt) > excerptLength {
		excerpt = excerpt[:excerptLength]
	}

	items := make([]*model.QuestionItem, 0, len(parsed.Questions))
	for _, q := range parsed.Questions {
		contentID := q.ContentID
		if contentID == "" {
			contentID = "main"
		}

		item := &model.QuestionItem{
			Text:       q.Question,
			Type:       model.QuestionType(q.Type),
			Confidence: q.Confidence,
			Source: model.SourceMapping{
				ContentID:  contentID,
				SourceText: excerpt,
				Metadata:   input.Metadata,
			},
		}
		if err := item.Validate(); err != nil {
			return nil, goerr.Wrap(model.ErrGeneration, "model returned an invalid question", goerr.V("question", q.Question), goerr.V("cause", err))
		}
		items = append(items, item)
	}

	logging.From(ctx).Debug("generated questions",
		"count", len(items),
		"contentType", contentType,
	)

	return items, nil
}

// Evaluate orders questions by descending confidence. The sort is
// stable so equally confident questions keep their generation order.
// Duplicate detection across chunks would slot in here if it ever
// becomes necessary.
func Evaluate(items []*model.QuestionItem) []*model.QuestionItem {
	sorted := make([]*model.QuestionItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})
	return sorted
}
