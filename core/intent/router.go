package intent

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/siherrmann/coderank/model"
)

// Router classifies a query into an intent label with a confidence.
// Classification uses lightweight text features only, no network calls,
// so it always answers within a few microseconds. An unclassifiable
// query falls back to the safe default {MIXED, 0.5}.
type Router struct {
	logger *slog.Logger
}

// NewRouter creates an intent router
func NewRouter(logger *slog.Logger) *Router {
	return &Router{logger: logger}
}

var (
	identifierPattern = regexp.MustCompile(`\b[a-zA-Z]+(?:_[a-zA-Z0-9]+)+\b|\b[a-z]+[A-Z][a-zA-Z0-9]*\b`)
	callPattern       = regexp.MustCompile(`\w+\(\)?|\w+::\w+|\w+\.\w+\(`)
	filePathPattern   = regexp.MustCompile(`\b[\w./-]+\.(go|py|js|ts|rs|c|h|cpp|java|rb|sql|proto|yaml|yml|toml|json)\b`)
	backtickPattern   = regexp.MustCompile("`[^`]+`")
)

var codeKeywords = []string{
	"defined", "definition", "declared", "implementation", "implements",
	"function", "func ", "method", "struct", "class ", "interface",
	"signature", "returns", "parameter", "argument", "stack trace",
	"error message", "panic", "nil pointer", "exception",
}

var conceptKeywords = []string{
	"how does", "how do", "how is", "why", "what is", "what are",
	"explain", "overview", "architecture", "design", "concept",
	"difference between", "documentation", "guide", "tutorial",
	"best practice", "tradeoff", "purpose of", "works",
}

// Route classifies the query. Code signals (identifiers, call syntax, file
// paths, definition keywords) pull towards CODE_LOOKUP, conceptual phrasing
// pulls towards CONCEPT_EXPLORATION, and a close call is MIXED.
func (r *Router) Route(query string) model.IntentResult {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return model.DefaultIntent()
	}

	lower := strings.ToLower(trimmed)

	codeScore := 0.0
	conceptScore := 0.0

	codeScore += 2.0 * float64(len(identifierPattern.FindAllString(trimmed, -1)))
	codeScore += 2.0 * float64(len(callPattern.FindAllString(trimmed, -1)))
	codeScore += 3.0 * float64(len(filePathPattern.FindAllString(trimmed, -1)))
	codeScore += 2.0 * float64(len(backtickPattern.FindAllString(trimmed, -1)))
	for _, keyword := range codeKeywords {
		if strings.Contains(lower, keyword) {
			codeScore += 1.5
		}
	}

	for _, keyword := range conceptKeywords {
		if strings.Contains(lower, keyword) {
			conceptScore += 2.0
		}
	}

	total := codeScore + conceptScore
	if total == 0 {
		r.logger.Debug("No intent signals found, using default", "query", trimmed)
		return model.DefaultIntent()
	}

	margin := codeScore - conceptScore
	if margin < 0 {
		margin = -margin
	}
	confidence := 0.5 + 0.5*(margin/total)
	if confidence > 0.99 {
		confidence = 0.99
	}

	var label model.IntentLabel
	switch {
	case codeScore > conceptScore:
		label = model.IntentCodeLookup
	case conceptScore > codeScore:
		label = model.IntentConceptExploration
	default:
		label = model.IntentMixed
		confidence = 0.5
	}

	result := model.IntentResult{Label: label, Confidence: confidence}
	r.logger.Debug("Classified query intent", "label", label, "confidence", confidence)

	return result
}

// WeightsFor derives per-route weights from an intent result.
//
// High confidence suppresses the secondary dense route to 0.2 but never
// excludes it, preserving recall. Low confidence treats the query as mixed
// and runs every route at full weight. In between, the secondary route runs
// at half weight. Lexical follows the code side, since identifier queries
// are where term matching helps most.
func WeightsFor(result model.IntentResult) model.RouteWeights {
	if result.Label == model.IntentMixed || result.Confidence < 0.6 {
		return model.RouteWeights{
			model.RouteDenseCode: 1.0,
			model.RouteDenseDocs: 1.0,
			model.RouteLexical:   1.0,
		}
	}

	secondary := 0.5
	if result.Confidence >= 0.9 {
		secondary = 0.2
	}

	if result.Label == model.IntentCodeLookup {
		return model.RouteWeights{
			model.RouteDenseCode: 1.0,
			model.RouteDenseDocs: secondary,
			model.RouteLexical:   1.0,
		}
	}

	return model.RouteWeights{
		model.RouteDenseCode: secondary,
		model.RouteDenseDocs: 1.0,
		model.RouteLexical:   secondary,
	}
}
