package ingest

import (
	"context"
	"errors"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/o2alexanderfedin/ai-assistant-project/pkg/model"
	"github.com/o2alexanderfedin/ai-assistant-project/pkg/utils/logging"
)

// DefaultSearchLimit is how many results a search returns unless the
// caller asks for more.
const DefaultSearchLimit = 5

// SearchOptions controls a query. Transform enables the query-rewrite
// step; IncludeContent re-reads the referenced chunk for each hit.
type SearchOptions struct {
	Transform      bool
	IncludeContent bool
}

// Search embeds the query and returns the nearest question entries with
// their file references resolved. When Transform is set, the query is
// first rewritten into question form and the most specific variation is
// what gets embedded.
func (p *Pipeline) Search(ctx context.Context, query string, limit int, opts SearchOptions) (*model.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, goerr.Wrap(model.ErrEmptyInput, "query is required for search")
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	result := &model.SearchResult{OriginalQuery: query}

	embedText := query
	if opts.Transform {
		variations, err := p.transformer.Transform(ctx, query)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to transform query", goerr.V("query", query))
		}
		if len(variations) > 0 && variations[0] != query {
			embedText = variations[0]
			result.TransformedQuery = variations[0]
		}
	}

	vector, err := p.embedder.Embed(ctx, embedText)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query", goerr.V("query", query))
	}

	hits, err := p.index.Query(ctx, vector, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query index", goerr.V("query", query))
	}

	for _, hit := range hits {
		sh := &model.SearchHit{
			Question:  hit.Document,
			Distance:  hit.Distance,
			Relevance: hit.Relevance(),
		}
		if hit.Metadata != nil {
			sh.Reference = hit.Metadata.Reference
			sh.QuestionType = hit.Metadata.QuestionType
			sh.Confidence = hit.Metadata.Confidence
		}

		if opts.IncludeContent && sh.Reference != nil {
			content, err := sh.Reference.ReadContent()
			if err != nil {
				// A missing or truncated backing file degrades the hit,
				// not the search.
				sh.ReadError = readErrorMessage(err)
			} else {
				sh.Content = content
			}
		}

		result.Hits = append(result.Hits, sh)
	}
	result.Total = len(result.Hits)

	logging.From(ctx).Debug("search completed",
		"query", query,
		"transformed", result.TransformedQuery,
		"hits", result.Total,
	)

	return result, nil
}

func readErrorMessage(err error) string {
	if errors.Is(err, model.ErrNotFound) {
		return "backing file no longer exists"
	}
	return err.Error()
}
