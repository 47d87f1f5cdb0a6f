package model

// IntentLabel classifies what kind of answer a query is looking for
type IntentLabel string

const (
	IntentCodeLookup         IntentLabel = "code_lookup"
	IntentConceptExploration IntentLabel = "concept_exploration"
	IntentMixed              IntentLabel = "mixed"
)

// IntentResult is the output of the intent router, produced once per query
type IntentResult struct {
	Label      IntentLabel `json:"label"`
	Confidence float64     `json:"confidence"` // in [0,1]
}

// DefaultIntent is the safe fallback when classification is unavailable
func DefaultIntent() IntentResult {
	return IntentResult{Label: IntentMixed, Confidence: 0.5}
}
