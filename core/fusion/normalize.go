package fusion

import "math"

// Method selects how a batch of raw scores is normalized
type Method string

const (
	MethodZScore Method = "zscore"
	MethodRank   Method = "rank"
)

// DefaultRankConstant is the k used for reciprocal rank scores when none is configured
const DefaultRankConstant = 60.0

// ZScores standardizes a batch to zero mean and unit variance.
// A zero-variance batch (all equal, including single-element batches)
// returns all zeros instead of dividing by zero.
func ZScores(scores []float64) []float64 {
	normalized := make([]float64, len(scores))
	if len(scores) == 0 {
		return normalized
	}

	mean := 0.0
	for _, score := range scores {
		mean += score
	}
	mean /= float64(len(scores))

	variance := 0.0
	for _, score := range scores {
		variance += (score - mean) * (score - mean)
	}
	variance /= float64(len(scores))

	stddev := math.Sqrt(variance)
	if stddev == 0 {
		return normalized
	}

	for i, score := range scores {
		normalized[i] = (score - mean) / stddev
	}
	return normalized
}

// RankScores returns reciprocal rank scores 1/(k+rank) for a batch of the
// given size, with rank 1-indexed. The input batch is assumed to be ordered
// best first, so position i gets rank i+1.
func RankScores(count int, k float64) []float64 {
	scores := make([]float64, count)
	for i := range scores {
		scores[i] = 1.0 / (k + float64(i+1))
	}
	return scores
}

// Normalize applies the given method to a batch ordered best first.
// Rank normalization uses DefaultRankConstant.
func Normalize(scores []float64, method Method) []float64 {
	switch method {
	case MethodRank:
		return RankScores(len(scores), DefaultRankConstant)
	default:
		return ZScores(scores)
	}
}
