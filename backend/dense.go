package backend

import (
	"context"
	"log/slog"

	"github.com/siherrmann/coderank/database"
	"github.com/siherrmann/coderank/helper"
	"github.com/siherrmann/coderank/model"
)

// DenseBackend serves the dense retrieval routes with pgvector cosine
// similarity over the span store. Each route is scoped to its span kind,
// so dense-code and dense-docs search disjoint slices of the index.
type DenseBackend struct {
	spans     database.SpansDBHandlerFunctions
	embed     EmbedFunc
	threshold float64
	logger    *slog.Logger
}

// NewDenseBackend creates a dense backend. The threshold drops spans below
// a minimum similarity before they ever become candidates.
func NewDenseBackend(spans database.SpansDBHandlerFunctions, embed EmbedFunc, threshold float64, logger *slog.Logger) *DenseBackend {
	return &DenseBackend{
		spans:     spans,
		embed:     embed,
		threshold: threshold,
		logger:    logger,
	}
}

// Search embeds the query and returns the most similar spans of the
// route's kind as candidates with the similarity as raw score
func (b *DenseBackend) Search(ctx context.Context, route model.Route, query string, topK int) ([]*model.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	embedding, err := b.embed(query)
	if err != nil {
		return nil, helper.NewError("embed query", err)
	}

	kind := route.Kind()
	spans, err := b.spans.SelectSpansBySimilarity(embedding, &kind, topK, b.threshold)
	if err != nil {
		return nil, helper.NewError("select spans by similarity", err)
	}

	candidates := make([]*model.Candidate, 0, len(spans))
	for _, span := range spans {
		if span.Similarity == nil {
			continue
		}
		candidates = append(candidates, span.ToCandidate(route, *span.Similarity))
	}

	b.logger.Debug("Dense search complete", "route", route, "candidates", len(candidates))

	return candidates, nil
}
