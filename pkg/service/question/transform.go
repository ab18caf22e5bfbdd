package question

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"

	"github.com/o2alexanderfedin/ai-assistant-project/pkg/adapter"
	"github.com/o2alexanderfedin/ai-assistant-project/pkg/model"
	"github.com/o2alexanderfedin/ai-assistant-project/pkg/utils/logging"
)

//go:embed prompt/transform.md
var transformPromptRaw string

var transformPromptTmpl = template.Must(template.New("transform").Parse(transformPromptRaw))

// DefaultMaxVariations bounds how many question variations a single
// query is rewritten into.
const DefaultMaxVariations = 3

// interrogatives are the leading words that mark a query as already
// being a question even without a question mark.
var interrogatives = map[string]struct{}{
	"what": {}, "when": {}, "where": {}, "which": {}, "who": {},
	"whom": {}, "whose": {}, "why": {}, "how": {}, "can": {},
	"could": {}, "would": {}, "will": {}, "is": {}, "are": {},
	"do": {}, "does": {}, "did": {}, "should": {}, "have": {},
	"has": {}, "had": {},
}

// IsQuestion reports whether text already reads as a question: it
// contains a question mark or starts with an interrogative word.
func IsQuestion(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	if strings.Contains(trimmed, "?") {
		return true
	}

	first := strings.ToLower(strings.Fields(trimmed)[0])
	_, ok := interrogatives[first]
	return ok
}

// Transformer rewrites free-form search queries into question
// variations so they match the question-based entries in the index.
type Transformer struct {
	gemini        adapter.Gemini
	maxVariations int
}

type TransformerOption func(*Transformer)

func WithMaxVariations(n int) TransformerOption {
	return func(t *Transformer) {
		t.maxVariations = n
	}
}

func NewTransformer(gemini adapter.Gemini, opts ...TransformerOption) *Transformer {
	t := &Transformer{
		gemini:        gemini,
		maxVariations: DefaultMaxVariations,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

var transformSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"questions": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeString,
			},
		},
	},
	Required: []string{"questions"},
}

// Transform turns a query into question variations ordered most
// specific first. Queries that already are questions pass through
// unchanged without a model call. The original query is always part of
// the result.
func (t *Transformer) Transform(ctx context.Context, query string) ([]string, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, goerr.Wrap(model.ErrEmptyInput, "query is required for transformation")
	}

	if IsQuestion(trimmed) {
		return []string{trimmed}, nil
	}

	var buf bytes.Buffer
	if err := transformPromptTmpl.Execute(&buf, map[string]any{
		"Query":         trimmed,
		"MaxVariations": t.maxVariations,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to execute transform prompt template")
	}

	thinkingBudget := int32(0)
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  &thinkingBudget,
		},
		ResponseSchema: transformSchema,
	}

	contents := []*genai.Content{
		genai.NewContentFromText(buf.String(), genai.RoleUser),
	}

	resp, err := t.gemini.GenerateContent(ctx, contents, config)
	if err != nil {
		return nil, goerr.Wrap(model.ErrTransform, "query transformation call failed", goerr.V("cause", err))
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, goerr.Wrap(model.ErrTransform, "invalid response structure from model")
	}

	rawJSON := resp.Candidates[0].Content.Parts[0].Text

	var parsed struct {
		Questions []string `json:"questions"`
	}
	if err := json.Unmarshal([]byte(rawJSON), &parsed); err != nil {
		return nil, goerr.Wrap(model.ErrTransform, "failed to unmarshal transform JSON", goerr.V("json", rawJSON), goerr.V("cause", err))
	}

	variations := make([]string, 0, t.maxVariations+1)
	for _, q := range parsed.Questions {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		variations = append(variations, q)
		if len(variations) == t.maxVariations {
			break
		}
	}

	// Keep the literal query as a fallback variant so an unhelpful
	// rewrite can never lose the original intent.
	found := false
	for _, v := range variations {
		if v == trimmed {
			found = true
			break
		}
	}
	if !found {
		variations = append(variations, trimmed)
	}

	logging.From(ctx).Debug("transformed query",
		"query", trimmed,
		"variations", len(variations),
	)

	return variations, nil
}
