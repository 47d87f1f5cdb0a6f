package rerank

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/siherrmann/coderank/model"
)

// Scorer scores candidate texts against a query, one score per text.
// Typically backed by a cross-encoder model.
type Scorer interface {
	Score(ctx context.Context, query string, texts []string) ([]float64, error)
}

// Pointwise is reranking tier 1. It rescores the top window of the fused
// list with an external scorer and re-sorts that window. An unavailable
// scorer skips the tier entirely, leaving the fused order unchanged, and
// reports that so the orchestrator can decide whether tier 2 still runs.
type Pointwise struct {
	scorer Scorer
	logger *slog.Logger
}

// NewPointwise creates the tier 1 reranker. The scorer may be nil, which
// makes every call a skip.
func NewPointwise(scorer Scorer, logger *slog.Logger) *Pointwise {
	return &Pointwise{
		scorer: scorer,
		logger: logger,
	}
}

// Rerank rescores the top PointwiseTopK candidates and returns the full
// list with the rescored window re-sorted in front of the untouched tail.
// The second return value reports whether the tier was actually applied.
func (p *Pointwise) Rerank(ctx context.Context, query string, candidates []*model.Candidate, config *model.PipelineConfig) ([]*model.Candidate, bool, []string) {
	if len(candidates) == 0 {
		return candidates, false, nil
	}
	if p.scorer == nil {
		return candidates, false, []string{"pointwise scorer unavailable, tier 1 skipped"}
	}

	windowSize := config.PointwiseTopK
	if windowSize > len(candidates) {
		windowSize = len(candidates)
	}
	window := candidates[:windowSize]

	texts := make([]string, len(window))
	for i, candidate := range window {
		texts[i] = truncate(candidate.Content, config.PointwiseMaxLen)
	}

	scoreCtx, cancel := context.WithTimeout(ctx, config.PointwiseTimeout)
	defer cancel()

	scores, err := p.scorer.Score(scoreCtx, query, texts)
	if err != nil {
		p.logger.Warn("Pointwise scoring failed, passing fused order through", "error", err)
		return candidates, false, []string{fmt.Sprintf("pointwise scoring failed: %v", err)}
	}
	if len(scores) != len(window) {
		p.logger.Warn("Pointwise scorer returned wrong count, passing fused order through", "want", len(window), "got", len(scores))
		return candidates, false, []string{fmt.Sprintf("pointwise scorer returned %d scores for %d candidates", len(scores), len(window))}
	}

	for i, candidate := range window {
		score := scores[i]
		candidate.RerankScore = &score
	}

	reranked := make([]*model.Candidate, len(candidates))
	copy(reranked, candidates)
	model.SortCandidates(reranked[:windowSize], func(c *model.Candidate) float64 { return *c.RerankScore })

	return reranked, true, nil
}

// truncate bounds candidate text before it is sent to a model backend
func truncate(text string, maxLen int) string {
	if maxLen <= 0 || len(text) <= maxLen {
		return text
	}
	return text[:maxLen]
}
