package expand

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/siherrmann/coderank/graph"
	"github.com/siherrmann/coderank/model"
)

// GateFunc computes the similarity of a neighbor's text to the query.
// Used as the semantic gate keeping structurally connected but topically
// unrelated neighbors out of the candidate set.
type GateFunc func(ctx context.Context, query string, text string) (float64, error)

// Expander adds 1-hop graph neighbors of the best candidates.
// Hubs are damped or excluded, neighbors below the semantic gate floor are
// dropped, and an added candidate scores parent*decay so it never outranks
// its parent unless it was also retrieved directly.
type Expander struct {
	gate   GateFunc
	logger *slog.Logger
}

// NewExpander creates a graph expander. The gate may be nil, which disables
// semantic gating.
func NewExpander(gate GateFunc, logger *slog.Logger) *Expander {
	return &Expander{
		gate:   gate,
		logger: logger,
	}
}

// Expand returns only the newly added candidates; the caller merges.
// Expansion is idempotent over one graph snapshot: a neighbor whose
// identity is already present in the input is never added again, so
// re-running on an already-expanded list adds nothing.
//
// An unavailable graph skips expansion with a single warning, never an error.
func (e *Expander) Expand(ctx context.Context, query string, candidates []*model.Candidate, accessor graph.Accessor, config *model.PipelineConfig) ([]*model.Candidate, []string) {
	if accessor == nil || !accessor.Available() {
		e.logger.Warn("Graph unavailable, skipping expansion")
		return nil, []string{"graph unavailable, expansion skipped"}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	var warnings []string

	parents := make([]*model.Candidate, len(candidates))
	copy(parents, candidates)
	model.SortCandidatesByRawScore(parents)
	if len(parents) > config.ExpandTopN {
		parents = parents[:config.ExpandTopN]
	}

	existing := make(map[model.CandidateID]bool, len(candidates))
	for _, candidate := range candidates {
		existing[candidate.ID] = true
	}

	addedMap := make(map[model.CandidateID]*model.Candidate)
	added := make([]*model.Candidate, 0)
	gateFailed := false

	for _, parent := range parents {
		select {
		case <-ctx.Done():
			return added, append(warnings, "expansion cancelled")
		default:
		}

		neighbors := accessor.Neighbors(parent.ID.Path, config.ExpansionEdgeTypes, model.DirectionBoth)
		for _, neighbor := range neighbors {
			id := neighbor.SpanID()
			if existing[id] {
				// Already retrieved directly or added by an earlier parent
				continue
			}

			score := parent.RawScore * config.DecayFactor

			degree := accessor.Degree(neighbor.Path)
			if degree > config.HubDegreeThreshold {
				if config.HubExclude {
					continue
				}
				score *= float64(config.HubDegreeThreshold) / float64(degree)
			}

			if e.gate != nil && config.SemanticGateFloor > 0 {
				similarity, err := e.gate(ctx, query, neighbor.Content)
				if err != nil {
					// Gate failure is fail-open so a broken embedder
					// cannot silently disable expansion
					if !gateFailed {
						gateFailed = true
						e.logger.Warn("Semantic gate failed, admitting neighbors ungated", "error", err)
						warnings = append(warnings, fmt.Sprintf("semantic gate failed: %v", err))
					}
				} else if similarity < config.SemanticGateFloor {
					continue
				}
			}

			duplicate, exists := addedMap[id]
			if exists {
				if score > duplicate.RawScore {
					duplicate.RawScore = score
					duplicate.SourceDegree = degree
				}
				continue
			}

			candidate := &model.Candidate{
				ID:           id,
				Content:      neighbor.Content,
				Route:        model.RouteGraphExpansion,
				RawScore:     score,
				IsGraphAdded: true,
				SourceDegree: degree,
			}
			addedMap[id] = candidate
			added = append(added, candidate)
		}
	}

	model.SortCandidatesByRawScore(added)

	e.logger.Debug("Graph expansion added candidates", "parents", len(parents), "added", len(added))

	return added, warnings
}
