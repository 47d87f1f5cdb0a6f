package coderank

import (
	"context"
	"testing"

	"github.com/siherrmann/coderank/backend"
	"github.com/siherrmann/coderank/core/rerank"
	"github.com/siherrmann/coderank/helper"
	"github.com/siherrmann/coderank/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEmbedder creates a simple deterministic embedder for testing
func testEmbedder(dimension int) backend.EmbedFunc {
	return func(text string) ([]float32, error) {
		embedding := make([]float32, dimension)
		for i := 0; i < dimension; i++ {
			embedding[i] = float32((len(text)+i)%100) / 100.0
		}
		return embedding, nil
	}
}

type lengthScorer struct{}

func (lengthScorer) Score(ctx context.Context, query string, texts []string) ([]float64, error) {
	scores := make([]float64, len(texts))
	for i, text := range texts {
		scores[i] = float64(len(text)%97) / 97.0
	}
	return scores, nil
}

func initCoderank(t *testing.T) *Coderank {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")

	c, err := NewCoderank(dbConfig, nil, 384)
	require.NoError(t, err, "failed to create coderank")
	require.NotNil(t, c, "expected coderank to be non-nil")

	t.Cleanup(func() {
		c.Close()
	})

	return c
}

func TestNewCoderank(t *testing.T) {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err)

	t.Run("Valid call NewCoderank", func(t *testing.T) {
		c, err := NewCoderank(dbConfig, nil, 384)
		require.NoError(t, err, "Expected NewCoderank to not return an error")
		require.NotNil(t, c, "Expected NewCoderank to return a non-nil instance")
		assert.NotNil(t, c.DB, "Expected coderank to have a database instance")
		assert.NotNil(t, c.Spans, "Expected coderank to have a spans handler")
		assert.NotNil(t, c.Nodes, "Expected coderank to have a nodes handler")
		assert.NotNil(t, c.Edges, "Expected coderank to have an edges handler")
		assert.NotNil(t, c.Graph, "Expected coderank to have a graph provider")
		assert.Nil(t, c.Orchestrator, "Expected the pipeline to be unwired initially")

		// Cleanup
		err = c.Close()
		assert.NoError(t, err, "Expected Close to not return an error")
	})

	t.Run("Invalid pipeline configuration fails construction", func(t *testing.T) {
		invalid := model.DefaultPipelineConfig()
		invalid.FusionMode = "median"

		_, err := NewCoderank(dbConfig, &invalid, 384)
		assert.Error(t, err, "Expected an invalid configuration to fail at construction")
		assert.Contains(t, err.Error(), "invalid fusion mode")
	})

	t.Run("Coderank with nil database handles Close gracefully", func(t *testing.T) {
		c := &Coderank{}
		err := c.Close()
		assert.NoError(t, err, "Expected Close to handle nil DB gracefully")
	})
}

func TestUseBackends(t *testing.T) {
	c := initCoderank(t)

	t.Run("Wires the pipeline", func(t *testing.T) {
		err := c.UseBackends(Backends{
			Embedder: testEmbedder(384),
			Scorer:   lengthScorer{},
		})
		require.NoError(t, err)
		assert.NotNil(t, c.Orchestrator, "Expected the orchestrator wired")
	})

	t.Run("Missing embedder is rejected", func(t *testing.T) {
		err := c.UseBackends(Backends{})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "embedder is required")
	})
}

func TestQueryEndToEnd(t *testing.T) {
	c := initCoderank(t)

	err := c.UseBackends(Backends{
		Embedder: testEmbedder(384),
		Scorer:   lengthScorer{},
	})
	require.NoError(t, err)

	// Index a small repository: two code spans, one docs span
	spans := []*model.Span{
		{Path: "pkg/cache/lru.go", StartLine: 1, EndLine: 40, Kind: model.SpanKindCode,
			Content: "eviction policy removes the least recently used entry", Metadata: model.Metadata{}},
		{Path: "pkg/cache/store.go", StartLine: 1, EndLine: 60, Kind: model.SpanKindCode,
			Content: "the store persists entries and calls the eviction policy", Metadata: model.Metadata{}},
		{Path: "docs/cache.md", StartLine: 1, EndLine: 30, Kind: model.SpanKindDocs,
			Content: "the cache keeps hot entries in memory", Metadata: model.Metadata{}},
	}
	for _, span := range spans {
		require.NoError(t, c.IndexSpan(span))
	}

	t.Run("Query without a graph still ranks", func(t *testing.T) {
		result, err := c.Query(context.Background(), "where is the eviction policy")
		require.NoError(t, err)
		require.NotNil(t, result)

		assert.NotEmpty(t, result.Candidates, "Expected indexed spans retrieved")
		assert.True(t, result.Tier1Applied, "Expected tier 1 applied with a working scorer")
		assert.Equal(t, rerank.OutcomeNotAttempted, result.Tier2Outcome, "Expected tier 2 not attempted without a selector")
		assert.Contains(t, result.Warnings, "graph unavailable, expansion skipped")
		for _, candidate := range result.Candidates {
			assert.False(t, candidate.IsGraphAdded)
		}
	})

	t.Run("Graph reload enables expansion", func(t *testing.T) {
		// The helper node is connected but not indexed as a span, so only
		// expansion can surface it
		nodes := []*model.GraphNode{
			{Path: "pkg/cache/lru.go", StartLine: 1, EndLine: 40, Content: "eviction policy entry point", Metadata: model.Metadata{}},
			{Path: "pkg/cache/clock.go", StartLine: 1, EndLine: 20, Content: "clock source used by the eviction policy", Metadata: model.Metadata{}},
		}
		for _, node := range nodes {
			require.NoError(t, c.InsertGraphNode(node))
		}
		require.NoError(t, c.InsertGraphEdge(&model.GraphEdge{
			FromPath: "pkg/cache/lru.go",
			ToPath:   "pkg/cache/clock.go",
			EdgeType: model.EdgeTypeCalls,
			Weight:   1.0,
			Metadata: model.Metadata{},
		}))

		require.NoError(t, c.ReloadGraph(context.Background()))

		result, err := c.Query(context.Background(), "where is the eviction policy")
		require.NoError(t, err)

		assert.NotContains(t, result.Warnings, "graph unavailable, expansion skipped")

		var expansionSeen bool
		for _, candidate := range result.Candidates {
			if candidate.IsGraphAdded {
				expansionSeen = true
				assert.Equal(t, "pkg/cache/clock.go", candidate.ID.Path)
			}
		}
		assert.True(t, expansionSeen, "Expected the connected node surfaced by expansion")
	})

	t.Run("Empty query returns an empty result", func(t *testing.T) {
		result, err := c.Query(context.Background(), "")
		require.NoError(t, err)
		assert.Empty(t, result.Candidates)
	})

	t.Run("Query without wired pipeline errors", func(t *testing.T) {
		unwired := initCoderank(t)
		_, err := unwired.Query(context.Background(), "anything")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "pipeline not wired")
	})
}
