package backend

import (
	"context"
	"fmt"
	"math"

	"github.com/knights-analytics/hugot"
	"github.com/siherrmann/coderank/core/expand"
	"github.com/siherrmann/coderank/helper"
)

// EmbedFunc generates an embedding vector for a text
type EmbedFunc func(text string) ([]float32, error)

// DefaultEmbeddingDim is the dimension produced by the default embedder
const DefaultEmbeddingDim = 384

// DefaultEmbedder creates an embedder using a real sentence transformer model.
// Uses the all-MiniLM-L6-v2 model which produces 384-dimensional embeddings.
func DefaultEmbedder() (EmbedFunc, error) {
	modelName := "sentence-transformers/all-MiniLM-L6-v2"
	modelPath, err := helper.PrepareModel(modelName, "onnx/model.onnx")
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embedder-pipeline",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create sentence pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create sentence pipeline: %w", err)
	}

	return func(text string) ([]float32, error) {
		result, err := sentencePipeline.RunPipeline([]string{text})
		if err != nil {
			return nil, fmt.Errorf("failed to generate embedding: %w", err)
		}

		if len(result.Embeddings) == 0 {
			return nil, fmt.Errorf("no embedding generated")
		}

		return result.Embeddings[0], nil
	}, nil
}

// SemanticGate adapts an embedder into the expansion gate: the similarity
// of a neighbor's text to the query is their embedding cosine.
func SemanticGate(embed EmbedFunc) expand.GateFunc {
	return func(ctx context.Context, query string, text string) (float64, error) {
		queryEmbedding, err := embed(query)
		if err != nil {
			return 0, helper.NewError("embed query", err)
		}

		textEmbedding, err := embed(text)
		if err != nil {
			return 0, helper.NewError("embed neighbor text", err)
		}

		return CosineSimilarity(queryEmbedding, textEmbedding), nil
	}
}

// CosineSimilarity computes the cosine of two vectors, 0 for degenerate input
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
