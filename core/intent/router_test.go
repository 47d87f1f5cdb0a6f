package intent

import (
	"io"
	"log/slog"
	"testing"

	"github.com/siherrmann/coderank/helper"
	"github.com/siherrmann/coderank/model"
	"github.com/stretchr/testify/assert"
)

func newTestRouter() *Router {
	return NewRouter(helper.NewLogger(io.Discard, slog.LevelError))
}

func TestRouterRoute(t *testing.T) {
	router := newTestRouter()

	t.Run("Identifier lookup is code intent", func(t *testing.T) {
		result := router.Route("where is search_spans defined?")
		assert.Equal(t, model.IntentCodeLookup, result.Label)
		assert.GreaterOrEqual(t, result.Confidence, 0.9, "Expected high confidence for a definition lookup")
	})

	t.Run("File path query is code intent", func(t *testing.T) {
		result := router.Route("show the handler in internal/server/server.go")
		assert.Equal(t, model.IntentCodeLookup, result.Label)
	})

	t.Run("Conceptual question is concept intent", func(t *testing.T) {
		result := router.Route("explain the overall architecture and why the design uses a pipeline")
		assert.Equal(t, model.IntentConceptExploration, result.Label)
		assert.Greater(t, result.Confidence, 0.6)
	})

	t.Run("Query with both kinds of signals leans on the margin", func(t *testing.T) {
		result := router.Route("how does validateToken work")
		assert.Contains(t, []model.IntentLabel{model.IntentCodeLookup, model.IntentConceptExploration, model.IntentMixed}, result.Label)
		assert.GreaterOrEqual(t, result.Confidence, 0.5)
		assert.LessOrEqual(t, result.Confidence, 0.99)
	})

	t.Run("Empty query returns the default", func(t *testing.T) {
		result := router.Route("   ")
		assert.Equal(t, model.DefaultIntent(), result)
	})

	t.Run("Signal-free query returns the default", func(t *testing.T) {
		result := router.Route("hello there")
		assert.Equal(t, model.DefaultIntent(), result)
	})

	t.Run("Deterministic for identical input", func(t *testing.T) {
		first := router.Route("where is search_spans defined?")
		second := router.Route("where is search_spans defined?")
		assert.Equal(t, first, second)
	})
}

func TestWeightsFor(t *testing.T) {
	t.Run("High confidence code lookup suppresses docs to 0.2", func(t *testing.T) {
		weights := WeightsFor(model.IntentResult{Label: model.IntentCodeLookup, Confidence: 0.95})
		assert.Equal(t, 1.0, weights.Weight(model.RouteDenseCode))
		assert.Equal(t, 0.2, weights.Weight(model.RouteDenseDocs), "Expected the secondary route down-weighted, never excluded")
		assert.Equal(t, 1.0, weights.Weight(model.RouteLexical))
	})

	t.Run("Medium confidence halves the secondary route", func(t *testing.T) {
		weights := WeightsFor(model.IntentResult{Label: model.IntentConceptExploration, Confidence: 0.75})
		assert.Equal(t, 1.0, weights.Weight(model.RouteDenseDocs))
		assert.Equal(t, 0.5, weights.Weight(model.RouteDenseCode))
	})

	t.Run("Low confidence runs all routes at full weight", func(t *testing.T) {
		weights := WeightsFor(model.IntentResult{Label: model.IntentCodeLookup, Confidence: 0.55})
		for _, route := range model.RetrievalRoutes {
			assert.Equal(t, 1.0, weights.Weight(route))
		}
	})

	t.Run("Mixed intent runs all routes at full weight", func(t *testing.T) {
		weights := WeightsFor(model.DefaultIntent())
		for _, route := range model.RetrievalRoutes {
			assert.Equal(t, 1.0, weights.Weight(route))
		}
	})

	t.Run("No weight is ever zero", func(t *testing.T) {
		for _, label := range []model.IntentLabel{model.IntentCodeLookup, model.IntentConceptExploration, model.IntentMixed} {
			for _, confidence := range []float64{0.5, 0.7, 0.95} {
				weights := WeightsFor(model.IntentResult{Label: label, Confidence: confidence})
				for _, route := range model.RetrievalRoutes {
					assert.Greater(t, weights.Weight(route), 0.0, "Expected every route to keep a positive weight")
				}
			}
		}
	})
}
