package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/siherrmann/coderank"
	"github.com/siherrmann/coderank/helper"
	"github.com/siherrmann/coderank/model"
)

var sampleSpans = []*model.Span{
	{
		Path:      "internal/cache/lru.go",
		StartLine: 12,
		EndLine:   48,
		Kind:      model.SpanKindCode,
		Content: `func (c *Cache) evict() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}
	entry := oldest.Value.(*entry)
	delete(c.entries, entry.key)
	c.order.Remove(oldest)
}`,
		Metadata: model.Metadata{"language": "go"},
	},
	{
		Path:      "internal/cache/cache.go",
		StartLine: 30,
		EndLine:   72,
		Kind:      model.SpanKindCode,
		Content: `func (c *Cache) Set(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.capacity {
		c.evict()
	}
	c.entries[key] = &entry{key: key, value: value}
}`,
		Metadata: model.Metadata{"language": "go"},
	},
	{
		Path:      "docs/caching.md",
		StartLine: 1,
		EndLine:   24,
		Kind:      model.SpanKindDocs,
		Content: `# Caching

The cache keeps the hottest entries in memory and evicts the least
recently used entry once it reaches capacity. Eviction is synchronous
and happens on the writing goroutine.`,
		Metadata: model.Metadata{"author": "Example Author"},
	},
}

func main() {
	// Optional .env with GEMINI_API_KEY for tier 2 reranking
	_ = godotenv.Load()

	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
	}

	c, err := coderank.NewCoderank(dbConfig, nil, 384)
	if err != nil {
		log.Fatalf("Failed to create coderank: %v", err)
	}
	defer c.Close()

	// Wire the default backends (MiniLM embedder, ms-marco cross-encoder,
	// tiktoken budgets, optional Gemini setwise selection)
	ctx := context.Background()
	if err := c.UseDefaultBackends(ctx, os.Getenv("GEMINI_API_KEY")); err != nil {
		log.Fatalf("Failed to set up backends: %v", err)
	}

	// Index the sample repository
	for _, span := range sampleSpans {
		if err := c.IndexSpan(span); err != nil {
			log.Fatalf("Failed to index span: %v", err)
		}
	}

	// Connect the code spans in the repository graph
	for _, span := range sampleSpans[:2] {
		err := c.InsertGraphNode(&model.GraphNode{
			Path:      span.Path,
			StartLine: span.StartLine,
			EndLine:   span.EndLine,
			Content:   span.Content,
			Metadata:  model.Metadata{},
		})
		if err != nil {
			log.Fatalf("Failed to insert graph node: %v", err)
		}
	}
	err = c.InsertGraphEdge(&model.GraphEdge{
		FromPath: "internal/cache/cache.go",
		ToPath:   "internal/cache/lru.go",
		EdgeType: model.EdgeTypeCalls,
		Weight:   1.0,
		Metadata: model.Metadata{},
	})
	if err != nil {
		log.Fatalf("Failed to insert graph edge: %v", err)
	}

	if err := c.ReloadGraph(ctx); err != nil {
		log.Fatalf("Failed to load graph snapshot: %v", err)
	}

	// Run a ranked retrieval
	result, err := c.Query(ctx, "where is the eviction implemented?")
	if err != nil {
		log.Fatalf("Failed to query: %v", err)
	}

	fmt.Printf("Intent: %s (confidence %.2f)\n", result.Intent.Label, result.Intent.Confidence)
	fmt.Printf("Tier 1 applied: %v, tier 2: %s\n", result.Tier1Applied, result.Tier2Outcome)
	for _, warning := range result.Warnings {
		fmt.Printf("Warning: %s\n", warning)
	}
	fmt.Printf("\nResults (%d):\n", len(result.Candidates))
	for i, candidate := range result.Candidates {
		marker := ""
		if candidate.IsGraphAdded {
			marker = " (via graph)"
		}
		fmt.Printf("%2d. %-30s score %.4f route %s%s\n",
			i+1, candidate.ID.String(), candidate.FinalScore(), candidate.Route, marker)
	}
}
