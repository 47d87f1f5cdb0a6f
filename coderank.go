package coderank

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/siherrmann/coderank/backend"
	"github.com/siherrmann/coderank/core/expand"
	"github.com/siherrmann/coderank/core/fusion"
	"github.com/siherrmann/coderank/core/generate"
	"github.com/siherrmann/coderank/core/intent"
	"github.com/siherrmann/coderank/core/pipeline"
	"github.com/siherrmann/coderank/core/rerank"
	"github.com/siherrmann/coderank/database"
	"github.com/siherrmann/coderank/graph"
	"github.com/siherrmann/coderank/helper"
	"github.com/siherrmann/coderank/model"
	loadSql "github.com/siherrmann/coderank/sql"
)

// Coderank provides a unified interface to the span store, the repository
// graph, and the ranking pipeline
type Coderank struct {
	DB           *helper.Database
	Spans        *database.SpansDBHandler
	Nodes        *database.NodesDBHandler
	Edges        *database.EdgesDBHandler
	Graph        *graph.Provider
	Orchestrator *pipeline.Orchestrator
	Config       *model.PipelineConfig
	Embedder     backend.EmbedFunc
	// Logging
	log *slog.Logger
}

// Backends holds the external model collaborators of the pipeline.
// Any of them may be nil; the affected stage then degrades or skips.
type Backends struct {
	Embedder backend.EmbedFunc
	Scorer   rerank.Scorer
	Selector rerank.Selector
	Tokens   pipeline.TokenCounter
}

// NewCoderank creates a new Coderank instance with all database handlers
// initialized. The pipeline configuration is validated here; call
// UseBackends or UseDefaultBackends before the first Query.
func NewCoderank(config *helper.DatabaseConfiguration, pipelineConfig *model.PipelineConfig, embeddingDim int) (*Coderank, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	if pipelineConfig == nil {
		defaults := model.DefaultPipelineConfig()
		pipelineConfig = &defaults
	}
	err := pipelineConfig.Validate()
	if err != nil {
		return nil, helper.NewError("validate pipeline configuration", err)
	}

	// Initialize database
	db := helper.NewDatabase("coderank", config, logger)
	err = loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// force=false to not reload if functions already exist
	spans, err := database.NewSpansDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create spans handler", err)
	}

	nodes, err := database.NewNodesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create nodes handler", err)
	}

	edges, err := database.NewEdgesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create edges handler", err)
	}

	provider := graph.NewProvider(graph.DatabaseLoader(nodes, edges))

	return &Coderank{
		DB:     db,
		Spans:  spans,
		Nodes:  nodes,
		Edges:  edges,
		Graph:  provider,
		Config: pipelineConfig,
		log:    logger,
	}, nil
}

// Close closes the database connection
func (c *Coderank) Close() error {
	if c.DB != nil && c.DB.Instance != nil {
		return c.DB.Instance.Close()
	}
	return nil
}

// UseBackends wires the pipeline with the given external collaborators
func (c *Coderank) UseBackends(backends Backends) error {
	if backends.Embedder == nil {
		return helper.NewError("wire pipeline", fmt.Errorf("embedder is required for dense retrieval"))
	}
	c.Embedder = backends.Embedder

	dense := backend.NewDenseBackend(c.Spans, backends.Embedder, 0.0, c.log)
	lexical := backend.NewLexicalBackend(c.Spans, c.log)

	orchestrator, err := pipeline.NewOrchestrator(
		intent.NewRouter(c.log),
		generate.NewGenerator(dense, lexical, c.log),
		expand.NewExpander(backend.SemanticGate(backends.Embedder), c.log),
		fusion.NewEngine(c.log),
		rerank.NewPointwise(backends.Scorer, c.log),
		rerank.NewSetwise(backends.Selector, c.log),
		pipeline.NewCutoff(backends.Tokens, c.log),
		c.Graph,
		c.Config,
		c.log,
	)
	if err != nil {
		return helper.NewError("create orchestrator", err)
	}

	c.Orchestrator = orchestrator
	return nil
}

// UseDefaultBackends wires the pipeline with the default models: the
// all-MiniLM-L6-v2 embedder, the ms-marco cross-encoder scorer, tiktoken
// budget accounting, and, if an API key is given, Gemini setwise selection.
// An empty API key leaves tier 2 falling back, which is a normal branch.
func (c *Coderank) UseDefaultBackends(ctx context.Context, geminiAPIKey string) error {
	embedder, err := backend.DefaultEmbedder()
	if err != nil {
		return helper.NewError("create default embedder", err)
	}

	scorer, err := backend.DefaultCrossEncoder()
	if err != nil {
		return helper.NewError("create default cross encoder", err)
	}

	backends := Backends{
		Embedder: embedder,
		Scorer:   backend.NewPointwiseScorer(scorer, c.log),
		Tokens:   backend.NewTokenCounter(backend.DefaultTokenEncoding),
	}

	if geminiAPIKey != "" {
		selector, err := backend.NewGeminiSelector(ctx, geminiAPIKey, backend.DefaultSelectorModel, c.log)
		if err != nil {
			return helper.NewError("create default selector", err)
		}
		backends.Selector = selector
	}

	return c.UseBackends(backends)
}

// Query runs one ranked retrieval for a natural-language query.
// The result always carries a (possibly empty) candidate list plus
// diagnostics; internal stage failures degrade, they do not error.
func (c *Coderank) Query(ctx context.Context, query string) (*pipeline.Result, error) {
	if c.Orchestrator == nil {
		return nil, helper.NewError("query", fmt.Errorf("pipeline not wired, use UseBackends() first"))
	}
	return c.Orchestrator.Query(ctx, query)
}

// ReloadGraph rebuilds the in-memory graph snapshot from the stored node
// and edge tables. Queries running during the reload keep the snapshot
// they started with.
func (c *Coderank) ReloadGraph(ctx context.Context) error {
	return c.Graph.Reload(ctx)
}

// IndexSpan embeds a span's content and stores it. Spans sharing a
// (path, start line, end line) identity are updated in place.
func (c *Coderank) IndexSpan(span *model.Span) error {
	if c.Embedder == nil {
		return helper.NewError("index span", fmt.Errorf("pipeline not wired, use UseBackends() first"))
	}

	embedding, err := c.Embedder(span.Content)
	if err != nil {
		return helper.NewError("embed span content", err)
	}
	span.Embedding = embedding

	err = c.Spans.InsertSpan(span)
	if err != nil {
		return helper.NewError("insert span", err)
	}

	c.log.Info("Indexed span", slog.String("span", span.SpanID().String()), slog.String("kind", string(span.Kind)))

	return nil
}

// InsertGraphNode stores a graph node. The snapshot only picks it up on
// the next ReloadGraph.
func (c *Coderank) InsertGraphNode(node *model.GraphNode) error {
	return c.Nodes.InsertNode(node)
}

// InsertGraphEdge stores a directed graph edge. The snapshot only picks
// it up on the next ReloadGraph.
func (c *Coderank) InsertGraphEdge(edge *model.GraphEdge) error {
	return c.Edges.InsertEdge(edge)
}
