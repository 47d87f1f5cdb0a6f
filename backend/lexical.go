package backend

import (
	"context"
	"log/slog"

	"github.com/siherrmann/coderank/database"
	"github.com/siherrmann/coderank/helper"
	"github.com/siherrmann/coderank/model"
)

// LexicalBackend serves the lexical route with Postgres full text search
// over span contents. Raw scores are ts_rank values, term-frequency based
// and unbounded, which is why fusion normalizes per route.
type LexicalBackend struct {
	spans  database.SpansDBHandlerFunctions
	logger *slog.Logger
}

// NewLexicalBackend creates a lexical backend
func NewLexicalBackend(spans database.SpansDBHandlerFunctions, logger *slog.Logger) *LexicalBackend {
	return &LexicalBackend{
		spans:  spans,
		logger: logger,
	}
}

// Search returns the best full-text matches as candidates with ts_rank as
// raw score
func (b *LexicalBackend) Search(ctx context.Context, query string, topK int) ([]*model.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	spans, err := b.spans.SelectSpansByText(query, topK)
	if err != nil {
		return nil, helper.NewError("select spans by text", err)
	}

	candidates := make([]*model.Candidate, 0, len(spans))
	for _, span := range spans {
		if span.Rank == nil {
			continue
		}
		candidates = append(candidates, span.ToCandidate(model.RouteLexical, *span.Rank))
	}

	b.logger.Debug("Lexical search complete", "candidates", len(candidates))

	return candidates, nil
}
