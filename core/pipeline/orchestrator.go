package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/siherrmann/coderank/core/expand"
	"github.com/siherrmann/coderank/core/fusion"
	"github.com/siherrmann/coderank/core/generate"
	"github.com/siherrmann/coderank/core/intent"
	"github.com/siherrmann/coderank/core/rerank"
	"github.com/siherrmann/coderank/graph"
	"github.com/siherrmann/coderank/helper"
	"github.com/siherrmann/coderank/model"
)

// SnapshotSource hands out a pinned graph view per query
type SnapshotSource interface {
	Acquire() graph.Accessor
}

// Result is the output of one pipeline run. Warnings, intent, and the tier
// outcomes are diagnostics: a query always produces a (possibly empty)
// ranked list and never surfaces an internal stage error to the caller.
type Result struct {
	Candidates   []*model.Candidate `json:"candidates"`
	Intent       model.IntentResult `json:"intent"`
	Tier1Applied bool               `json:"tier1_applied"`
	Tier2Outcome rerank.Outcome     `json:"tier2_outcome"`
	Warnings     []string           `json:"warnings,omitempty"`
	Duration     time.Duration      `json:"duration"`
}

// Orchestrator sequences one query through router, generator, expander,
// fusion, both rerank tiers, and the output cutoff. Every stage transition
// is one-directional; degraded stages pass their input through and leave a
// warning on the result.
type Orchestrator struct {
	router    *intent.Router
	generator *generate.Generator
	expander  *expand.Expander
	fusion    *fusion.Engine
	pointwise *rerank.Pointwise
	setwise   *rerank.Setwise
	cutoff    *Cutoff
	graphs    SnapshotSource
	config    *model.PipelineConfig
	logger    *slog.Logger
}

// NewOrchestrator wires the pipeline stages together. The configuration is
// validated here once; an invalid configuration never reaches a query.
func NewOrchestrator(
	router *intent.Router,
	generator *generate.Generator,
	expander *expand.Expander,
	fusionEngine *fusion.Engine,
	pointwise *rerank.Pointwise,
	setwise *rerank.Setwise,
	cutoff *Cutoff,
	graphs SnapshotSource,
	config *model.PipelineConfig,
	logger *slog.Logger,
) (*Orchestrator, error) {
	err := config.Validate()
	if err != nil {
		return nil, helper.NewError("validate pipeline configuration", err)
	}

	return &Orchestrator{
		router:    router,
		generator: generator,
		expander:  expander,
		fusion:    fusionEngine,
		pointwise: pointwise,
		setwise:   setwise,
		cutoff:    cutoff,
		graphs:    graphs,
		config:    config,
		logger:    logger,
	}, nil
}

// Query runs the full pipeline for one query. The only error it returns is
// caller cancellation; everything else degrades into a narrower result plus
// diagnostics.
func (o *Orchestrator) Query(ctx context.Context, query string) (*Result, error) {
	start := time.Now()

	result := &Result{
		Intent:       model.DefaultIntent(),
		Tier2Outcome: rerank.OutcomeNotAttempted,
	}

	if strings.TrimSpace(query) == "" {
		result.Candidates = []*model.Candidate{}
		result.Duration = time.Since(start)
		return result, nil
	}

	result.Intent = o.router.Route(query)
	weights := intent.WeightsFor(result.Intent)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	routeLists, warnings := o.generator.Generate(ctx, query, o.config)
	result.Warnings = append(result.Warnings, warnings...)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if o.expandActive(result.Intent) {
		pool := make([]*model.Candidate, 0)
		for _, list := range routeLists {
			pool = append(pool, list...)
		}
		pool = model.DedupeByID(pool)

		added, expandWarnings := o.expander.Expand(ctx, query, pool, o.graphs.Acquire(), o.config)
		result.Warnings = append(result.Warnings, expandWarnings...)

		if len(added) > 0 {
			routeLists[model.RouteGraphExpansion] = added
			weights[model.RouteGraphExpansion] = o.config.ExpansionWeight
		}
	}

	candidates := o.fusion.Fuse(routeLists, weights, o.config)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if o.config.PointwiseEnabled && len(candidates) > 0 {
		reranked, applied, rerankWarnings := o.pointwise.Rerank(ctx, query, candidates, o.config)
		candidates = reranked
		result.Tier1Applied = applied
		result.Warnings = append(result.Warnings, rerankWarnings...)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if o.config.SetwiseEnabled && len(candidates) > 1 {
		reranked, outcome, rerankWarnings := o.setwise.Rerank(ctx, query, candidates, o.config)
		candidates = reranked
		result.Tier2Outcome = outcome
		result.Warnings = append(result.Warnings, rerankWarnings...)
	}

	result.Candidates = o.cutoff.Apply(candidates, o.config)
	result.Duration = time.Since(start)

	o.logger.Info("Pipeline run complete",
		"intent", result.Intent.Label,
		"candidates", len(result.Candidates),
		"tier1_applied", result.Tier1Applied,
		"tier2_outcome", result.Tier2Outcome,
		"duration", result.Duration,
	)

	return result, nil
}

// expandActive gates graph expansion. A confidently conceptual query gets
// no structural expansion; everything else does, if enabled at all.
func (o *Orchestrator) expandActive(intentResult model.IntentResult) bool {
	if !o.config.ExpansionEnabled {
		return false
	}
	if intentResult.Label == model.IntentConceptExploration && intentResult.Confidence >= 0.9 {
		return false
	}
	return true
}
