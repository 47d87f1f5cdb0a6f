package pipeline

import (
	"log/slog"

	"github.com/siherrmann/coderank/model"
)

// TokenCounter counts the tokens of a text for budget accounting
type TokenCounter interface {
	Count(text string) int
}

// Cutoff walks the final ordered list and stops including candidates once
// either the token budget is exhausted or the score falls below a relative
// drop threshold, whichever triggers first.
type Cutoff struct {
	counter TokenCounter
	logger  *slog.Logger
}

// NewCutoff creates a cutoff policy. A nil counter falls back to a rough
// four-characters-per-token estimate.
func NewCutoff(counter TokenCounter, logger *slog.Logger) *Cutoff {
	return &Cutoff{
		counter: counter,
		logger:  logger,
	}
}

// Apply returns the prefix of candidates surviving the cutoff policy.
// A zero token budget disables the budget check; a zero drop ratio
// disables the score check. The score check only applies while the top
// score is positive, since relative drops are meaningless around zero.
func (c *Cutoff) Apply(candidates []*model.Candidate, config *model.PipelineConfig) []*model.Candidate {
	if len(candidates) == 0 {
		return candidates
	}

	topScore := candidates[0].FinalScore()
	floor := 0.0
	if config.ScoreDropRatio > 0 && topScore > 0 {
		floor = config.ScoreDropRatio * topScore
	}

	usedTokens := 0
	cut := make([]*model.Candidate, 0, len(candidates))

	for _, candidate := range candidates {
		if floor > 0 && candidate.FinalScore() < floor {
			c.logger.Debug("Score drop cutoff reached", "kept", len(cut), "floor", floor)
			break
		}

		if config.TokenBudget > 0 {
			tokens := c.countTokens(candidate.Content)
			if usedTokens+tokens > config.TokenBudget && len(cut) > 0 {
				c.logger.Debug("Token budget cutoff reached", "kept", len(cut), "budget", config.TokenBudget)
				break
			}
			usedTokens += tokens
		}

		cut = append(cut, candidate)
	}

	return cut
}

func (c *Cutoff) countTokens(text string) int {
	if c.counter != nil {
		return c.counter.Count(text)
	}
	return len(text) / 4
}
