package database

import (
	"testing"
	"time"

	"github.com/siherrmann/coderank/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEdgesNewEdgesDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewEdgesDBHandler", func(t *testing.T) {
		edgesDbHandler, err := NewEdgesDBHandler(database, true)
		assert.NoError(t, err, "Expected NewEdgesDBHandler to not return an error")
		require.NotNil(t, edgesDbHandler, "Expected NewEdgesDBHandler to return a non-nil instance")
		require.NotNil(t, edgesDbHandler.db, "Expected NewEdgesDBHandler to have a non-nil database instance")
		require.NotNil(t, edgesDbHandler.db.Instance, "Expected NewEdgesDBHandler to have a non-nil database connection instance")
	})

	t.Run("Invalid call NewEdgesDBHandler with nil database", func(t *testing.T) {
		_, err := NewEdgesDBHandler(nil, false)
		assert.Error(t, err, "Expected error when creating EdgesDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})
}

func TestEdgesInsert(t *testing.T) {
	database := initDB(t)

	edgesDbHandler, err := NewEdgesDBHandler(database, true)
	require.NoError(t, err)

	t.Run("Insert edge", func(t *testing.T) {
		edge := &model.GraphEdge{
			FromPath: "internal/server/server.go",
			ToPath:   "internal/config/config.go",
			EdgeType: model.EdgeTypeImports,
			Weight:   1.0,
			Metadata: map[string]interface{}{"line": 12},
		}

		err := edgesDbHandler.InsertEdge(edge)
		assert.NoError(t, err, "Expected Insert to not return an error")
		assert.NotEmpty(t, edge.ID, "Expected inserted edge to have an ID")
		assert.WithinDuration(t, edge.CreatedAt, time.Now(), 2*time.Second, "Expected CreatedAt to be set")

		// Cleanup
		edgesDbHandler.DeleteEdge(edge.ID)
	})

	t.Run("Insert edge twice updates instead of duplicating", func(t *testing.T) {
		edge := &model.GraphEdge{
			FromPath: "internal/server/server.go",
			ToPath:   "internal/worker/pool.go",
			EdgeType: model.EdgeTypeCalls,
			Weight:   1.0,
			Metadata: map[string]interface{}{},
		}
		require.NoError(t, edgesDbHandler.InsertEdge(edge))
		firstID := edge.ID

		updated := &model.GraphEdge{
			FromPath: "internal/server/server.go",
			ToPath:   "internal/worker/pool.go",
			EdgeType: model.EdgeTypeCalls,
			Weight:   0.5,
			Metadata: map[string]interface{}{},
		}
		err := edgesDbHandler.InsertEdge(updated)
		assert.NoError(t, err, "Expected upsert to not return an error")
		assert.Equal(t, firstID, updated.ID, "Expected upsert to keep the original edge ID")
		assert.Equal(t, 0.5, updated.Weight, "Expected upsert to replace the weight")

		// Cleanup
		edgesDbHandler.DeleteEdge(firstID)
	})
}

func TestEdgesNeighborQueries(t *testing.T) {
	database := initDB(t)

	edgesDbHandler, err := NewEdgesDBHandler(database, true)
	require.NoError(t, err)

	// a -> b (calls), a -> c (imports), c -> a (tests)
	callsEdge := &model.GraphEdge{FromPath: "a.go", ToPath: "b.go", EdgeType: model.EdgeTypeCalls, Weight: 1.0, Metadata: map[string]interface{}{}}
	importsEdge := &model.GraphEdge{FromPath: "a.go", ToPath: "c.go", EdgeType: model.EdgeTypeImports, Weight: 1.0, Metadata: map[string]interface{}{}}
	testsEdge := &model.GraphEdge{FromPath: "c.go", ToPath: "a.go", EdgeType: model.EdgeTypeTests, Weight: 1.0, Metadata: map[string]interface{}{}}
	require.NoError(t, edgesDbHandler.InsertEdge(callsEdge))
	require.NoError(t, edgesDbHandler.InsertEdge(importsEdge))
	require.NoError(t, edgesDbHandler.InsertEdge(testsEdge))

	t.Run("Select edges from node without type filter", func(t *testing.T) {
		edges, err := edgesDbHandler.SelectEdgesFromNode("a.go", nil)
		assert.NoError(t, err, "Expected select to not return an error")
		assert.Len(t, edges, 2, "Expected both outgoing edges from a.go")
	})

	t.Run("Select edges from node with type filter", func(t *testing.T) {
		edgeType := model.EdgeTypeCalls
		edges, err := edgesDbHandler.SelectEdgesFromNode("a.go", &edgeType)
		assert.NoError(t, err, "Expected select to not return an error")
		require.Len(t, edges, 1, "Expected only the calls edge")
		assert.Equal(t, "b.go", edges[0].ToPath, "Expected the calls edge to target b.go")
	})

	t.Run("Select edges to node", func(t *testing.T) {
		edges, err := edgesDbHandler.SelectEdgesToNode("a.go", nil)
		assert.NoError(t, err, "Expected select to not return an error")
		require.Len(t, edges, 1, "Expected one incoming edge to a.go")
		assert.Equal(t, "c.go", edges[0].FromPath, "Expected the incoming edge from c.go")
	})

	t.Run("Select all edges", func(t *testing.T) {
		edges, err := edgesDbHandler.SelectAllEdges()
		assert.NoError(t, err, "Expected select to not return an error")
		assert.GreaterOrEqual(t, len(edges), 3, "Expected at least the three inserted edges")
	})

	t.Run("Node degree counts both directions", func(t *testing.T) {
		degree, err := edgesDbHandler.SelectNodeDegree("a.go")
		assert.NoError(t, err, "Expected degree query to not return an error")
		assert.Equal(t, 3, degree, "Expected degree 3 for a.go over both directions")

		degree, err = edgesDbHandler.SelectNodeDegree("b.go")
		assert.NoError(t, err, "Expected degree query to not return an error")
		assert.Equal(t, 1, degree, "Expected degree 1 for b.go")

		degree, err = edgesDbHandler.SelectNodeDegree("unknown.go")
		assert.NoError(t, err, "Expected degree query to not return an error")
		assert.Equal(t, 0, degree, "Expected degree 0 for an unknown node")
	})

	// Cleanup
	edgesDbHandler.DeleteEdge(callsEdge.ID)
	edgesDbHandler.DeleteEdge(importsEdge.ID)
	edgesDbHandler.DeleteEdge(testsEdge.ID)
}
