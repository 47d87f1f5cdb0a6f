package graph

import (
	"context"
	"fmt"
	"testing"

	"github.com/siherrmann/coderank/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNode(path string) *model.GraphNode {
	return &model.GraphNode{
		Path:      path,
		StartLine: 1,
		EndLine:   10,
		Content:   "content of " + path,
	}
}

func testEdge(from, to string, edgeType model.EdgeType) *model.GraphEdge {
	return &model.GraphEdge{
		FromPath: from,
		ToPath:   to,
		EdgeType: edgeType,
		Weight:   1.0,
	}
}

func TestSnapshotNeighbors(t *testing.T) {
	snapshot := NewSnapshot(
		[]*model.GraphNode{testNode("a.go"), testNode("b.go"), testNode("c.go"), testNode("d.go")},
		[]*model.GraphEdge{
			testEdge("a.go", "b.go", model.EdgeTypeCalls),
			testEdge("a.go", "c.go", model.EdgeTypeImports),
			testEdge("d.go", "a.go", model.EdgeTypeTests),
		},
	)

	t.Run("Outgoing neighbors over all edge types", func(t *testing.T) {
		neighbors := snapshot.Neighbors("a.go", nil, model.DirectionOut)
		require.Len(t, neighbors, 2, "Expected two outgoing neighbors")
		assert.Equal(t, "b.go", neighbors[0].Path, "Expected neighbors ordered by path")
		assert.Equal(t, "c.go", neighbors[1].Path, "Expected neighbors ordered by path")
	})

	t.Run("Outgoing neighbors filtered by edge type", func(t *testing.T) {
		neighbors := snapshot.Neighbors("a.go", []model.EdgeType{model.EdgeTypeCalls}, model.DirectionOut)
		require.Len(t, neighbors, 1, "Expected only the calls neighbor")
		assert.Equal(t, "b.go", neighbors[0].Path)
	})

	t.Run("Incoming neighbors", func(t *testing.T) {
		neighbors := snapshot.Neighbors("a.go", nil, model.DirectionIn)
		require.Len(t, neighbors, 1, "Expected one incoming neighbor")
		assert.Equal(t, "d.go", neighbors[0].Path)
	})

	t.Run("Both directions deduplicate and order", func(t *testing.T) {
		neighbors := snapshot.Neighbors("a.go", nil, model.DirectionBoth)
		require.Len(t, neighbors, 3, "Expected all three neighbors")
		assert.Equal(t, "b.go", neighbors[0].Path)
		assert.Equal(t, "c.go", neighbors[1].Path)
		assert.Equal(t, "d.go", neighbors[2].Path)
	})

	t.Run("Unknown node has no neighbors", func(t *testing.T) {
		neighbors := snapshot.Neighbors("unknown.go", nil, model.DirectionBoth)
		assert.Empty(t, neighbors, "Expected no neighbors for an unknown node")
	})

	t.Run("Edge to missing node is skipped", func(t *testing.T) {
		partial := NewSnapshot(
			[]*model.GraphNode{testNode("a.go")},
			[]*model.GraphEdge{testEdge("a.go", "ghost.go", model.EdgeTypeCalls)},
		)
		neighbors := partial.Neighbors("a.go", nil, model.DirectionOut)
		assert.Empty(t, neighbors, "Expected no neighbors when the target node is missing")
	})
}

func TestSnapshotDegree(t *testing.T) {
	snapshot := NewSnapshot(
		[]*model.GraphNode{testNode("a.go"), testNode("b.go"), testNode("c.go")},
		[]*model.GraphEdge{
			testEdge("a.go", "b.go", model.EdgeTypeCalls),
			testEdge("a.go", "c.go", model.EdgeTypeImports),
			testEdge("c.go", "a.go", model.EdgeTypeTests),
		},
	)

	assert.Equal(t, 3, snapshot.Degree("a.go"), "Expected degree to count both directions")
	assert.Equal(t, 1, snapshot.Degree("b.go"))
	assert.Equal(t, 2, snapshot.Degree("c.go"))
	assert.Equal(t, 0, snapshot.Degree("unknown.go"), "Expected zero degree for unknown nodes")
	assert.True(t, snapshot.Available(), "Expected a built snapshot to be available")
	assert.Equal(t, 3, snapshot.NodeCount())
	assert.Equal(t, 3, snapshot.EdgeCount())
}

func TestProvider(t *testing.T) {
	t.Run("Unloaded provider reports unavailable", func(t *testing.T) {
		provider := NewProvider(func(ctx context.Context) (*Snapshot, error) {
			return NewSnapshot(nil, nil), nil
		})

		accessor := provider.Acquire()
		assert.False(t, accessor.Available(), "Expected graph to be unavailable before the first reload")
		assert.Empty(t, accessor.Neighbors("a.go", nil, model.DirectionBoth))
		assert.Equal(t, 0, accessor.Degree("a.go"))
	})

	t.Run("Reload swaps in a snapshot", func(t *testing.T) {
		provider := NewProvider(func(ctx context.Context) (*Snapshot, error) {
			return NewSnapshot(
				[]*model.GraphNode{testNode("a.go"), testNode("b.go")},
				[]*model.GraphEdge{testEdge("a.go", "b.go", model.EdgeTypeCalls)},
			), nil
		})

		err := provider.Reload(context.Background())
		require.NoError(t, err)

		accessor := provider.Acquire()
		assert.True(t, accessor.Available(), "Expected graph to be available after reload")
		assert.Len(t, accessor.Neighbors("a.go", nil, model.DirectionOut), 1)
	})

	t.Run("Failed reload keeps the previous snapshot", func(t *testing.T) {
		calls := 0
		provider := NewProvider(func(ctx context.Context) (*Snapshot, error) {
			calls++
			if calls > 1 {
				return nil, fmt.Errorf("load failed")
			}
			return NewSnapshot([]*model.GraphNode{testNode("a.go")}, nil), nil
		})

		require.NoError(t, provider.Reload(context.Background()))
		first := provider.Acquire()

		err := provider.Reload(context.Background())
		assert.Error(t, err, "Expected the second reload to fail")
		assert.Contains(t, err.Error(), "load graph snapshot")

		second := provider.Acquire()
		assert.Same(t, first, second, "Expected the previous snapshot to stay pinned after a failed reload")
	})

	t.Run("Acquired snapshot survives a later reload", func(t *testing.T) {
		version := 0
		provider := NewProvider(func(ctx context.Context) (*Snapshot, error) {
			version++
			nodes := make([]*model.GraphNode, 0, version)
			for i := 0; i < version; i++ {
				nodes = append(nodes, testNode(fmt.Sprintf("n%d.go", i)))
			}
			return NewSnapshot(nodes, nil), nil
		})

		require.NoError(t, provider.Reload(context.Background()))
		pinned := provider.Acquire().(*Snapshot)
		require.Equal(t, 1, pinned.NodeCount())

		require.NoError(t, provider.Reload(context.Background()))
		assert.Equal(t, 1, pinned.NodeCount(), "Expected the pinned snapshot to be unchanged")
		assert.Equal(t, 2, provider.Acquire().(*Snapshot).NodeCount(), "Expected a fresh acquire to see the new snapshot")
	})
}
