package graph

import (
	"sort"

	"github.com/siherrmann/coderank/model"
)

// Accessor provides read access to one consistent view of the repository
// graph. A query pins a single accessor for its whole lifetime, so reloads
// happening in parallel never change results mid-query.
type Accessor interface {
	// Neighbors returns the nodes reachable from path over one hop,
	// following only the given edge types in the given direction.
	// A nil or empty edgeTypes slice matches all edge types.
	Neighbors(path string, edgeTypes []model.EdgeType, direction model.Direction) []*model.GraphNode
	// Degree returns the total number of edges touching path in either direction.
	Degree(path string) int
	// Available reports whether a graph is loaded at all.
	Available() bool
}

// Snapshot is an immutable in-memory view of the repository graph.
// It is built once and never mutated, so it is safe for concurrent reads.
type Snapshot struct {
	nodes    map[string]*model.GraphNode
	outEdges map[string][]*model.GraphEdge
	inEdges  map[string][]*model.GraphEdge
	degrees  map[string]int
}

// NewSnapshot builds a snapshot from node and edge lists.
// Edges referencing unknown nodes still count towards degrees but
// produce no neighbors.
func NewSnapshot(nodes []*model.GraphNode, edges []*model.GraphEdge) *Snapshot {
	snapshot := &Snapshot{
		nodes:    make(map[string]*model.GraphNode, len(nodes)),
		outEdges: make(map[string][]*model.GraphEdge),
		inEdges:  make(map[string][]*model.GraphEdge),
		degrees:  make(map[string]int),
	}

	for _, node := range nodes {
		snapshot.nodes[node.Path] = node
	}

	for _, edge := range edges {
		snapshot.outEdges[edge.FromPath] = append(snapshot.outEdges[edge.FromPath], edge)
		snapshot.inEdges[edge.ToPath] = append(snapshot.inEdges[edge.ToPath], edge)
		snapshot.degrees[edge.FromPath]++
		snapshot.degrees[edge.ToPath]++
	}

	return snapshot
}

// Node returns the node stored for path, or nil if unknown
func (s *Snapshot) Node(path string) *model.GraphNode {
	return s.nodes[path]
}

// NodeCount returns the number of nodes in the snapshot
func (s *Snapshot) NodeCount() int {
	return len(s.nodes)
}

// EdgeCount returns the number of edges in the snapshot
func (s *Snapshot) EdgeCount() int {
	count := 0
	for _, edges := range s.outEdges {
		count += len(edges)
	}
	return count
}

// Neighbors returns the 1-hop neighbor nodes of path, deduplicated and
// ordered by path for deterministic traversal
func (s *Snapshot) Neighbors(path string, edgeTypes []model.EdgeType, direction model.Direction) []*model.GraphNode {
	typeSet := make(map[model.EdgeType]bool, len(edgeTypes))
	for _, edgeType := range edgeTypes {
		typeSet[edgeType] = true
	}

	neighborMap := make(map[string]*model.GraphNode)

	collect := func(edges []*model.GraphEdge, pick func(*model.GraphEdge) string) {
		for _, edge := range edges {
			if len(typeSet) > 0 && !typeSet[edge.EdgeType] {
				continue
			}
			neighborPath := pick(edge)
			if _, exists := neighborMap[neighborPath]; exists {
				// Skip duplicates
				continue
			}
			node := s.nodes[neighborPath]
			if node == nil {
				continue
			}
			neighborMap[neighborPath] = node
		}
	}

	if direction == model.DirectionOut || direction == model.DirectionBoth {
		collect(s.outEdges[path], func(e *model.GraphEdge) string { return e.ToPath })
	}
	if direction == model.DirectionIn || direction == model.DirectionBoth {
		collect(s.inEdges[path], func(e *model.GraphEdge) string { return e.FromPath })
	}

	neighbors := make([]*model.GraphNode, 0, len(neighborMap))
	for _, node := range neighborMap {
		neighbors = append(neighbors, node)
	}
	sort.Slice(neighbors, func(i, j int) bool {
		return neighbors[i].Path < neighbors[j].Path
	})

	return neighbors
}

// Degree returns the total degree of path over both directions
func (s *Snapshot) Degree(path string) int {
	return s.degrees[path]
}

// Available always reports true for a built snapshot
func (s *Snapshot) Available() bool {
	return true
}
