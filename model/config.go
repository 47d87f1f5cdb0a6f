package model

import (
	"fmt"
	"time"
)

// FusionMode selects how per-route score lists are merged
type FusionMode string

const (
	FusionModeMax            FusionMode = "max"
	FusionModeRRF            FusionMode = "rrf"
	FusionModeZScoreWeighted FusionMode = "zscore_weighted"
)

// PipelineConfig holds all tunables of a pipeline run. It is validated once
// at construction; an invalid configuration is a startup error and is never
// surfaced mid-query.
type PipelineConfig struct {
	// Retrieval parameters
	TopK           int           `json:"top_k"`
	LexicalEnabled bool          `json:"lexical_enabled"`
	RouteTimeout   time.Duration `json:"route_timeout"`

	// Graph expansion parameters
	ExpansionEnabled   bool       `json:"expansion_enabled"`
	ExpandTopN         int        `json:"expand_top_n"`
	ExpansionEdgeTypes []EdgeType `json:"expansion_edge_types,omitempty"`
	HubDegreeThreshold int        `json:"hub_degree_threshold"`
	HubExclude         bool       `json:"hub_exclude"` // exclude hubs instead of damping them
	SemanticGateFloor  float64    `json:"semantic_gate_floor"`
	DecayFactor        float64    `json:"decay_factor"`

	// Fusion parameters
	FusionMode      FusionMode `json:"fusion_mode"`
	RRFConstant     float64    `json:"rrf_constant"`
	MinZScoreBatch  int        `json:"min_zscore_batch"`
	ExpansionWeight float64    `json:"expansion_weight"`

	// Rerank parameters
	PointwiseEnabled bool          `json:"pointwise_enabled"`
	PointwiseTopK    int           `json:"pointwise_top_k"` // tier 1 window
	PointwiseTimeout time.Duration `json:"pointwise_timeout"`
	PointwiseMaxLen  int           `json:"pointwise_max_len"` // max candidate chars sent to the scorer
	SetwiseEnabled   bool          `json:"setwise_enabled"`
	SetwiseTopK      int           `json:"setwise_top_k"` // tier 2 window, must not exceed tier 1
	SetwiseTimeout   time.Duration `json:"setwise_timeout"`

	// Output cutoff parameters
	TokenBudget    int     `json:"token_budget"`
	ScoreDropRatio float64 `json:"score_drop_ratio"` // cut once score falls below ratio * top score
}

// DefaultPipelineConfig returns a sensible default configuration
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		TopK:               20,
		LexicalEnabled:     true,
		RouteTimeout:       5 * time.Second,
		ExpansionEnabled:   true,
		ExpandTopN:         5,
		ExpansionEdgeTypes: DefaultExpansionEdgeTypes,
		HubDegreeThreshold: 50,
		HubExclude:         false,
		SemanticGateFloor:  0.25,
		DecayFactor:        0.5,
		FusionMode:         FusionModeZScoreWeighted,
		RRFConstant:        60,
		MinZScoreBatch:     5,
		ExpansionWeight:    1.0,
		PointwiseEnabled:   true,
		PointwiseTopK:      50,
		PointwiseTimeout:   10 * time.Second,
		PointwiseMaxLen:    2000,
		SetwiseEnabled:     true,
		SetwiseTopK:        8,
		SetwiseTimeout:     15 * time.Second,
		TokenBudget:        8000,
		ScoreDropRatio:     0.1,
	}
}

// Validate checks the configuration for construction-time errors
func (c *PipelineConfig) Validate() error {
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.TopK)
	}
	switch c.FusionMode {
	case FusionModeMax, FusionModeRRF, FusionModeZScoreWeighted:
	default:
		return fmt.Errorf("invalid fusion mode %q", c.FusionMode)
	}
	if c.RRFConstant <= 0 {
		return fmt.Errorf("rrf_constant must be positive, got %f", c.RRFConstant)
	}
	if c.DecayFactor < 0 || c.DecayFactor > 1 {
		return fmt.Errorf("decay_factor must be in [0,1], got %f", c.DecayFactor)
	}
	if c.ExpansionWeight < 0 {
		return fmt.Errorf("expansion_weight must be non-negative, got %f", c.ExpansionWeight)
	}
	if c.ExpansionEnabled {
		if c.ExpandTopN <= 0 {
			return fmt.Errorf("expand_top_n must be positive, got %d", c.ExpandTopN)
		}
		if c.HubDegreeThreshold <= 0 {
			return fmt.Errorf("hub_degree_threshold must be positive, got %d", c.HubDegreeThreshold)
		}
	}
	if c.PointwiseEnabled && c.PointwiseTopK <= 0 {
		return fmt.Errorf("pointwise_top_k must be positive, got %d", c.PointwiseTopK)
	}
	if c.SetwiseEnabled {
		if c.SetwiseTopK <= 0 {
			return fmt.Errorf("setwise_top_k must be positive, got %d", c.SetwiseTopK)
		}
		if c.PointwiseEnabled && c.SetwiseTopK > c.PointwiseTopK {
			return fmt.Errorf("setwise_top_k %d exceeds pointwise_top_k %d", c.SetwiseTopK, c.PointwiseTopK)
		}
	}
	if c.ScoreDropRatio < 0 || c.ScoreDropRatio >= 1 {
		return fmt.Errorf("score_drop_ratio must be in [0,1), got %f", c.ScoreDropRatio)
	}
	if c.TokenBudget < 0 {
		return fmt.Errorf("token_budget must be non-negative, got %d", c.TokenBudget)
	}
	return nil
}
