package fusion

import (
	"log/slog"
	"sort"

	"github.com/siherrmann/coderank/model"
)

// Engine merges per-route candidate lists into one ranked list.
// A candidate retrieved by several routes is collapsed to one entry by
// identity, keeping the maximum weighted contribution across routes,
// never the sum. This avoids double-counting a span retrieved by
// multiple routes and holds identically across all fusion modes.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates a fusion engine
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{logger: logger}
}

// Fuse merges the per-route lists under the configured fusion mode.
//
// MAX uses weighted raw scores directly. RRF replaces each route's scores
// with reciprocal rank scores. ZSCORE_WEIGHTED standardizes each route's
// batch to z-scores, but a batch smaller than MinZScoreBatch falls back to
// rank scores for that route only, because z-scores on tiny samples are
// unreliable. Mixed normalizations are comparable after weighting because
// both are per-route relative measures.
//
// The result is sorted descending by fused score with identity tie breaks,
// so the merge is commutative in route order.
func (e *Engine) Fuse(routeLists map[model.Route][]*model.Candidate, weights model.RouteWeights, config *model.PipelineConfig) []*model.Candidate {
	routes := make([]model.Route, 0, len(routeLists))
	for route := range routeLists {
		routes = append(routes, route)
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i] < routes[j] })

	resultMap := make(map[model.CandidateID]*model.Candidate)
	fused := make([]*model.Candidate, 0)

	for _, route := range routes {
		candidates := routeLists[route]
		if len(candidates) == 0 {
			continue
		}

		model.SortCandidatesByRawScore(candidates)
		weight := weights.Weight(route)
		normalized := e.normalizeRoute(route, candidates, config)

		for i, candidate := range candidates {
			candidate.NormalizedScore = normalized[i]
			contribution := weight * normalized[i]

			existing, exists := resultMap[candidate.ID]
			if !exists {
				candidate.FusedScore = contribution
				resultMap[candidate.ID] = candidate
				fused = append(fused, candidate)
				continue
			}

			// Keep the maximum contribution, never sum
			if contribution > existing.FusedScore {
				existing.FusedScore = contribution
				existing.Route = candidate.Route
				existing.NormalizedScore = candidate.NormalizedScore
			}
			if candidate.RawScore > existing.RawScore {
				existing.RawScore = candidate.RawScore
			}
		}
	}

	model.SortCandidates(fused, func(c *model.Candidate) float64 { return c.FusedScore })

	return fused
}

// normalizeRoute returns the per-candidate normalized scores for one
// route's batch, ordered like the batch
func (e *Engine) normalizeRoute(route model.Route, candidates []*model.Candidate, config *model.PipelineConfig) []float64 {
	switch config.FusionMode {
	case model.FusionModeMax:
		raw := make([]float64, len(candidates))
		for i, candidate := range candidates {
			raw[i] = candidate.RawScore
		}
		return raw
	case model.FusionModeRRF:
		return RankScores(len(candidates), config.RRFConstant)
	default:
		if len(candidates) < config.MinZScoreBatch {
			e.logger.Debug("Route batch too small for z-scores, using rank scores", "route", route, "size", len(candidates))
			return RankScores(len(candidates), config.RRFConstant)
		}
		raw := make([]float64, len(candidates))
		for i, candidate := range candidates {
			raw[i] = candidate.RawScore
		}
		return ZScores(raw)
	}
}
