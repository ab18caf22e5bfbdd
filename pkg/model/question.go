package model

import "github.com/m-mizutani/goerr/v2"

// QuestionType categorizes a generated question.
type QuestionType string

const (
	QuestionTypeFactual      QuestionType = "factual"
	QuestionTypeRelationship QuestionType = "relationship"
	QuestionTypePurpose      QuestionType = "purpose"
	QuestionTypeProcess      QuestionType = "process"
)

// Validate checks if the question type is valid
func (t QuestionType) Validate() error {
	switch t {
	case QuestionTypeFactual, QuestionTypeRelationship, QuestionTypePurpose, QuestionTypeProcess:
		return nil
	default:
		return goerr.New("invalid question type", goerr.V("type", t))
	}
}

// SourceMapping points a question back at the content it was generated
// from.
type SourceMapping struct {
	ContentID  string            `json:"content_id"`
	SourceText string            `json:"source_text"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// QuestionItem is a candidate natural-language question generated from
// a chunk. Items are immutable after creation; the evaluation stage
// only reorders them.
type QuestionItem struct {
	Text       string        `json:"question_text"`
	Type       QuestionType  `json:"question_type"`
	Confidence float64       `json:"confidence"`
	Source     SourceMapping `json:"source_mapping"`
}

// Validate checks the question invariants: non-empty text, known type,
// confidence within [0, 1].
func (q *QuestionItem) Validate() error {
	if q.Text == "" {
		return goerr.New("question text is empty")
	}
	if err := q.Type.Validate(); err != nil {
		return err
	}
	if q.Confidence < 0 || q.Confidence > 1 {
		return goerr.New("confidence out of range", goerr.V("confidence", q.Confidence))
	}
	return nil
}
