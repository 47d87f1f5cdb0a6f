package rerank

import (
	"context"
	"log/slog"

	"github.com/siherrmann/coderank/model"
)

// SelectionCandidate is one entry offered to the setwise selector
type SelectionCandidate struct {
	ID   model.CandidateID
	Text string
}

// Selector asks a generative model to pick and order the subset of
// candidates that jointly best answer the query. Implementations must use
// deterministic decoding so retries and tests are reproducible.
type Selector interface {
	Select(ctx context.Context, query string, candidates []SelectionCandidate) ([]model.CandidateID, error)
}

// Outcome is the tier 2 result state. FailedFallback is a normal branch,
// not a pipeline failure.
type Outcome string

const (
	OutcomeNotAttempted   Outcome = "not_attempted"
	OutcomeSucceeded      Outcome = "succeeded"
	OutcomeFailedFallback Outcome = "failed_fallback"
)

// Setwise is reranking tier 2. One generative call selects the jointly
// best subset of the top window; selected candidates move to the front in
// selection order, everything else keeps its prior order. Returned IDs not
// present in the offered window are discarded silently, so a hallucinated
// identifier can never reach the final output.
type Setwise struct {
	selector Selector
	logger   *slog.Logger
}

// NewSetwise creates the tier 2 reranker. The selector may be nil, which
// makes every call fall back.
func NewSetwise(selector Selector, logger *slog.Logger) *Setwise {
	return &Setwise{
		selector: selector,
		logger:   logger,
	}
}

// Rerank runs the setwise selection over the top SetwiseTopK candidates.
// An empty, malformed, or timed-out selection falls back to the prior
// order unmodified.
func (s *Setwise) Rerank(ctx context.Context, query string, candidates []*model.Candidate, config *model.PipelineConfig) ([]*model.Candidate, Outcome, []string) {
	if len(candidates) == 0 {
		return candidates, OutcomeNotAttempted, nil
	}
	if s.selector == nil {
		return candidates, OutcomeNotAttempted, []string{"setwise selector unavailable, tier 2 skipped"}
	}

	windowSize := config.SetwiseTopK
	if windowSize > len(candidates) {
		windowSize = len(candidates)
	}
	window := candidates[:windowSize]

	offered := make([]SelectionCandidate, len(window))
	windowSet := make(map[model.CandidateID]bool, len(window))
	for i, candidate := range window {
		offered[i] = SelectionCandidate{
			ID:   candidate.ID,
			Text: truncate(candidate.Content, config.PointwiseMaxLen),
		}
		windowSet[candidate.ID] = true
	}

	selectCtx, cancel := context.WithTimeout(ctx, config.SetwiseTimeout)
	defer cancel()

	selectedIDs, err := s.selector.Select(selectCtx, query, offered)
	if err != nil {
		s.logger.Warn("Setwise selection failed, falling back to prior order", "error", err)
		return candidates, OutcomeFailedFallback, []string{"setwise selection failed: " + err.Error()}
	}

	// Guardrail: drop IDs outside the offered set and duplicates
	seen := make(map[model.CandidateID]bool, len(selectedIDs))
	valid := make([]model.CandidateID, 0, len(selectedIDs))
	for _, id := range selectedIDs {
		if !windowSet[id] {
			s.logger.Warn("Setwise selection returned unknown candidate, discarding", "id", id.String())
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		valid = append(valid, id)
	}

	if len(valid) == 0 {
		s.logger.Warn("Setwise selection empty after guardrail, falling back to prior order")
		return candidates, OutcomeFailedFallback, []string{"setwise selection empty after guardrail filtering"}
	}

	byID := make(map[model.CandidateID]*model.Candidate, len(window))
	for _, candidate := range window {
		byID[candidate.ID] = candidate
	}

	reranked := make([]*model.Candidate, 0, len(candidates))
	for _, id := range valid {
		reranked = append(reranked, byID[id])
	}
	for _, candidate := range window {
		if !seen[candidate.ID] {
			reranked = append(reranked, candidate)
		}
	}
	reranked = append(reranked, candidates[windowSize:]...)

	return reranked, OutcomeSucceeded, nil
}
