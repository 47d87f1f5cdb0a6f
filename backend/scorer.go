package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/knights-analytics/hugot"
	"github.com/siherrmann/coderank/helper"
)

// ScoreFunc scores a batch of texts, one score per text
type ScoreFunc func(texts []string) ([]float64, error)

// DefaultCrossEncoder creates a relevance scorer using a real cross-encoder
// model. Uses the ms-marco-MiniLM-L-6-v2 model, which scores one
// query/passage pair per input text.
func DefaultCrossEncoder() (ScoreFunc, error) {
	modelName := "cross-encoder/ms-marco-MiniLM-L-6-v2"
	modelPath, err := helper.PrepareModel(modelName, "onnx/model.onnx")
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.TextClassificationConfig{
		ModelPath: modelPath,
		Name:      "cross-encoder-pipeline",
	}
	classificationPipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create classification pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create classification pipeline: %w", err)
	}

	return func(texts []string) ([]float64, error) {
		result, err := classificationPipeline.RunPipeline(texts)
		if err != nil {
			return nil, fmt.Errorf("failed to score texts: %w", err)
		}

		if len(result.ClassificationOutputs) != len(texts) {
			return nil, fmt.Errorf("expected %d classification outputs, got %d", len(texts), len(result.ClassificationOutputs))
		}

		scores := make([]float64, len(texts))
		for i, outputs := range result.ClassificationOutputs {
			if len(outputs) == 0 {
				return nil, fmt.Errorf("no classification output for text %d", i)
			}
			scores[i] = float64(outputs[0].Score)
		}
		return scores, nil
	}, nil
}

// PointwiseScorer adapts a ScoreFunc into the tier 1 rerank scorer by
// pairing the query with each candidate text
type PointwiseScorer struct {
	score  ScoreFunc
	logger *slog.Logger
}

// NewPointwiseScorer creates a pointwise rerank scorer
func NewPointwiseScorer(score ScoreFunc, logger *slog.Logger) *PointwiseScorer {
	return &PointwiseScorer{
		score:  score,
		logger: logger,
	}
}

// Score scores every candidate text against the query
func (p *PointwiseScorer) Score(ctx context.Context, query string, texts []string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pairs := make([]string, len(texts))
	for i, text := range texts {
		pairs[i] = query + " [SEP] " + text
	}

	return p.score(pairs)
}
