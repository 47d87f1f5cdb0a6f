package model

import (
	"fmt"
	"sort"
)

// Route identifies one retrieval channel
type Route string

const (
	RouteDenseCode      Route = "dense_code"
	RouteDenseDocs      Route = "dense_docs"
	RouteLexical        Route = "lexical"
	RouteGraphExpansion Route = "graph_expansion"
)

// RetrievalRoutes are the routes served by the candidate generator.
// RouteGraphExpansion is produced by the expander, not by retrieval calls.
var RetrievalRoutes = []Route{RouteDenseCode, RouteDenseDocs, RouteLexical}

// CandidateID uniquely identifies a retrievable span within a repository
type CandidateID struct {
	Path      string `json:"path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// String formats the identity as path:start-end
func (id CandidateID) String() string {
	return fmt.Sprintf("%s:%d-%d", id.Path, id.StartLine, id.EndLine)
}

// Less orders identities lexicographically by path, then start line, then end line.
// Used as the deterministic tie breaker for all ranked output.
func (id CandidateID) Less(other CandidateID) bool {
	if id.Path != other.Path {
		return id.Path < other.Path
	}
	if id.StartLine != other.StartLine {
		return id.StartLine < other.StartLine
	}
	return id.EndLine < other.EndLine
}

// Candidate represents a retrievable code or documentation span.
// Scores are filled in stage by stage: RawScore by retrieval or expansion,
// NormalizedScore and FusedScore by the fusion engine, RerankScore by the
// reranker (nil if the candidate was never reranked).
type Candidate struct {
	ID              CandidateID `json:"id"`
	Content         string      `json:"content,omitempty"`
	Route           Route       `json:"route"`
	RawScore        float64     `json:"raw_score"`
	NormalizedScore float64     `json:"normalized_score,omitempty"`
	FusedScore      float64     `json:"fused_score,omitempty"`
	RerankScore     *float64    `json:"rerank_score,omitempty"`
	IsGraphAdded    bool        `json:"is_graph_added,omitempty"`
	SourceDegree    int         `json:"source_degree,omitempty"`
}

// FinalScore returns the most refined score available for ranking
func (c *Candidate) FinalScore() float64 {
	if c.RerankScore != nil {
		return *c.RerankScore
	}
	return c.FusedScore
}

// SortCandidates sorts candidates descending by the given score function,
// breaking ties by identity so equal inputs always produce equal output
func SortCandidates(candidates []*Candidate, score func(*Candidate) float64) {
	sort.SliceStable(candidates, func(i, j int) bool {
		si, sj := score(candidates[i]), score(candidates[j])
		if si != sj {
			return si > sj
		}
		return candidates[i].ID.Less(candidates[j].ID)
	})
}

// SortCandidatesByRawScore sorts descending by raw score with identity tie break
func SortCandidatesByRawScore(candidates []*Candidate) {
	SortCandidates(candidates, func(c *Candidate) float64 { return c.RawScore })
}

// DedupeByID collapses candidates sharing an identity, keeping for each
// identity the entry with the maximum raw score (never summing)
func DedupeByID(candidates []*Candidate) []*Candidate {
	byID := make(map[CandidateID]*Candidate, len(candidates))
	deduped := make([]*Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		existing, exists := byID[candidate.ID]
		if !exists {
			byID[candidate.ID] = candidate
			deduped = append(deduped, candidate)
			continue
		}
		if candidate.RawScore > existing.RawScore {
			*existing = *candidate
		}
	}
	return deduped
}

// RouteWeights maps routes to non-negative weights.
// Weights need not sum to 1; a weight of 0 removes a route's contribution
// without removing its candidates from identity-based merging.
type RouteWeights map[Route]float64

// Validate checks that no weight is negative
func (w RouteWeights) Validate() error {
	for route, weight := range w {
		if weight < 0 {
			return fmt.Errorf("negative weight %f for route %s", weight, route)
		}
	}
	return nil
}

// Weight returns the weight for a route, defaulting to 1.0 for unknown routes
func (w RouteWeights) Weight(route Route) float64 {
	if w == nil {
		return 1.0
	}
	weight, exists := w[route]
	if !exists {
		return 1.0
	}
	return weight
}
