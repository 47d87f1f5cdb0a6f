package model

import (
	"time"

	"github.com/google/uuid"
)

// SpanKind separates code spans from documentation spans so dense routes
// can be scoped to the matching index
type SpanKind string

const (
	SpanKindCode SpanKind = "code"
	SpanKindDocs SpanKind = "docs"
)

// Kind returns the span kind a dense route searches over
func (r Route) Kind() SpanKind {
	if r == RouteDenseDocs {
		return SpanKindDocs
	}
	return SpanKindCode
}

// Span represents an indexed code or documentation span stored in the database
type Span struct {
	ID        uuid.UUID `json:"id"`
	Path      string    `json:"path"`
	StartLine int       `json:"start_line"`
	EndLine   int       `json:"end_line"`
	Kind      SpanKind  `json:"kind"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding,omitempty"`
	Metadata  Metadata  `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	// Results
	Similarity *float64 `json:"similarity,omitempty"` // cosine similarity from vector search
	Rank       *float64 `json:"rank,omitempty"`       // ts_rank from lexical search
}

// SpanID returns the candidate identity of this span
func (s *Span) SpanID() CandidateID {
	return CandidateID{Path: s.Path, StartLine: s.StartLine, EndLine: s.EndLine}
}

// ToCandidate converts a retrieved span into a pipeline candidate
func (s *Span) ToCandidate(route Route, rawScore float64) *Candidate {
	return &Candidate{
		ID:       s.SpanID(),
		Content:  s.Content,
		Route:    route,
		RawScore: rawScore,
	}
}
