package pipeline

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/siherrmann/coderank/helper"
	"github.com/siherrmann/coderank/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct{}

func (fakeCounter) Count(text string) int {
	return len(strings.Fields(text))
}

func testLogger() *slog.Logger {
	return helper.NewLogger(io.Discard, slog.LevelError)
}

func scoredCandidate(path string, fusedScore float64, content string) *model.Candidate {
	return &model.Candidate{
		ID:         model.CandidateID{Path: path, StartLine: 1, EndLine: 10},
		Content:    content,
		Route:      model.RouteDenseCode,
		FusedScore: fusedScore,
	}
}

func TestCutoffApply(t *testing.T) {
	t.Run("Score drop threshold cuts the tail", func(t *testing.T) {
		config := model.DefaultPipelineConfig()
		config.TokenBudget = 0
		config.ScoreDropRatio = 0.5

		cutoff := NewCutoff(fakeCounter{}, testLogger())
		candidates := []*model.Candidate{
			scoredCandidate("a.go", 1.0, "a"),
			scoredCandidate("b.go", 0.6, "b"),
			scoredCandidate("c.go", 0.4, "c"),
			scoredCandidate("d.go", 0.9, "d"), // below the break point, never reached
		}

		cut := cutoff.Apply(candidates, &config)
		require.Len(t, cut, 2, "Expected the walk to stop at the first below-floor score")
		assert.Equal(t, "a.go", cut[0].ID.Path)
		assert.Equal(t, "b.go", cut[1].ID.Path)
	})

	t.Run("Token budget cuts the tail", func(t *testing.T) {
		config := model.DefaultPipelineConfig()
		config.TokenBudget = 5
		config.ScoreDropRatio = 0

		cutoff := NewCutoff(fakeCounter{}, testLogger())
		candidates := []*model.Candidate{
			scoredCandidate("a.go", 1.0, "one two three"),
			scoredCandidate("b.go", 0.9, "four five"),
			scoredCandidate("c.go", 0.8, "six"),
		}

		cut := cutoff.Apply(candidates, &config)
		require.Len(t, cut, 2, "Expected the budget exhausted after two candidates")
	})

	t.Run("Whichever cutoff triggers first wins", func(t *testing.T) {
		config := model.DefaultPipelineConfig()
		config.TokenBudget = 100
		config.ScoreDropRatio = 0.5

		cutoff := NewCutoff(fakeCounter{}, testLogger())
		candidates := []*model.Candidate{
			scoredCandidate("a.go", 1.0, "short"),
			scoredCandidate("b.go", 0.1, "short"),
		}

		cut := cutoff.Apply(candidates, &config)
		assert.Len(t, cut, 1, "Expected the score drop to trigger before the budget")
	})

	t.Run("The first candidate always survives the budget", func(t *testing.T) {
		config := model.DefaultPipelineConfig()
		config.TokenBudget = 1
		config.ScoreDropRatio = 0

		cutoff := NewCutoff(fakeCounter{}, testLogger())
		candidates := []*model.Candidate{scoredCandidate("a.go", 1.0, "far too many words for the tiny budget")}

		cut := cutoff.Apply(candidates, &config)
		assert.Len(t, cut, 1, "Expected at least one candidate even over budget")
	})

	t.Run("Negative top score disables the relative drop check", func(t *testing.T) {
		config := model.DefaultPipelineConfig()
		config.TokenBudget = 0
		config.ScoreDropRatio = 0.5

		cutoff := NewCutoff(fakeCounter{}, testLogger())
		candidates := []*model.Candidate{
			scoredCandidate("a.go", -0.1, "a"),
			scoredCandidate("b.go", -1.5, "b"),
		}

		cut := cutoff.Apply(candidates, &config)
		assert.Len(t, cut, 2, "Expected no relative cutoff around non-positive scores")
	})

	t.Run("Nil counter falls back to a character estimate", func(t *testing.T) {
		config := model.DefaultPipelineConfig()
		config.TokenBudget = 10
		config.ScoreDropRatio = 0

		cutoff := NewCutoff(nil, testLogger())
		candidates := []*model.Candidate{
			scoredCandidate("a.go", 1.0, strings.Repeat("x", 40)), // ~10 tokens
			scoredCandidate("b.go", 0.9, "xxxx"),
		}

		cut := cutoff.Apply(candidates, &config)
		assert.Len(t, cut, 1, "Expected the estimate to exhaust the budget")
	})

	t.Run("Empty input stays empty", func(t *testing.T) {
		config := model.DefaultPipelineConfig()
		cutoff := NewCutoff(fakeCounter{}, testLogger())
		assert.Empty(t, cutoff.Apply(nil, &config))
	})

	t.Run("Rerank scores take precedence over fused scores", func(t *testing.T) {
		config := model.DefaultPipelineConfig()
		config.TokenBudget = 0
		config.ScoreDropRatio = 0.5

		rerankTop := 1.0
		rerankLow := 0.2
		top := scoredCandidate("a.go", 0.1, "a")
		top.RerankScore = &rerankTop
		low := scoredCandidate("b.go", 0.9, "b")
		low.RerankScore = &rerankLow

		cutoff := NewCutoff(fakeCounter{}, testLogger())
		cut := cutoff.Apply([]*model.Candidate{top, low}, &config)
		assert.Len(t, cut, 1, "Expected the cutoff to use the rerank score")
	})
}
