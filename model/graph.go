package model

import (
	"time"

	"github.com/google/uuid"
)

// EdgeType represents the type of relationship between repository nodes
type EdgeType string

const (
	EdgeTypeCalls    EdgeType = "calls"
	EdgeTypeImports  EdgeType = "imports"
	EdgeTypeDefines  EdgeType = "defines"
	EdgeTypeInherits EdgeType = "inherits"
	EdgeTypeTests    EdgeType = "tests"
)

// DefaultExpansionEdgeTypes are the edge types followed by graph expansion
var DefaultExpansionEdgeTypes = []EdgeType{EdgeTypeCalls, EdgeTypeDefines, EdgeTypeImports}

// Direction selects which edges a neighbor query follows
type Direction string

const (
	DirectionOut  Direction = "out"
	DirectionIn   Direction = "in"
	DirectionBoth Direction = "both"
)

// GraphNode represents one node of the repository graph, identified by the
// span it covers. The content is the node's representative text, used by the
// semantic gate during expansion.
type GraphNode struct {
	ID        uuid.UUID `json:"id"`
	Path      string    `json:"path"`
	StartLine int       `json:"start_line"`
	EndLine   int       `json:"end_line"`
	Content   string    `json:"content,omitempty"`
	Metadata  Metadata  `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SpanID returns the candidate identity covered by this node
func (n *GraphNode) SpanID() CandidateID {
	return CandidateID{Path: n.Path, StartLine: n.StartLine, EndLine: n.EndLine}
}

// GraphEdge represents a directed relationship between two nodes.
// Nodes are referenced by path so edges survive re-imports of the node table.
type GraphEdge struct {
	ID        uuid.UUID `json:"id"`
	FromPath  string    `json:"from_path"`
	ToPath    string    `json:"to_path"`
	EdgeType  EdgeType  `json:"edge_type"`
	Weight    float64   `json:"weight"`
	Metadata  Metadata  `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
