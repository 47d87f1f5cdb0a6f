package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/siherrmann/coderank/core/rerank"
	"github.com/siherrmann/coderank/helper"
	"github.com/siherrmann/coderank/model"
	"google.golang.org/genai"
)

// DefaultSelectorModel is the generative model used for setwise selection
const DefaultSelectorModel = "gemini-2.0-flash"

// GeminiSelector implements setwise selection with one generative call.
// The model is asked to pick and order the subset of candidates that
// jointly best answer the query, with deterministic decoding so retries
// and tests reproduce the same selection.
type GeminiSelector struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// NewGeminiSelector creates a setwise selector backed by the Gemini API
func NewGeminiSelector(ctx context.Context, apiKey string, modelName string, logger *slog.Logger) (*GeminiSelector, error) {
	if apiKey == "" {
		return nil, helper.NewError("selector configuration", fmt.Errorf("api key is required"))
	}
	if modelName == "" {
		modelName = DefaultSelectorModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, helper.NewError("create genai client", err)
	}

	return &GeminiSelector{
		client: client,
		model:  modelName,
		logger: logger,
	}, nil
}

// Select asks the model for the jointly best subset of the offered
// candidates. The response is expected as a JSON array of candidate IDs;
// anything that does not resolve to an offered ID is dropped here, and the
// caller's guardrail filters again on top.
func (s *GeminiSelector) Select(ctx context.Context, query string, candidates []rerank.SelectionCandidate) ([]model.CandidateID, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	byString := make(map[string]model.CandidateID, len(candidates))
	var prompt strings.Builder
	prompt.WriteString("You rank code search results. Select the subset of candidates that jointly best answer the query, best first. ")
	prompt.WriteString("Respond with only a JSON array of candidate ids, for example [\"path/file.go:10-42\"].\n\n")
	prompt.WriteString("Query: " + query + "\n\nCandidates:\n")
	for _, candidate := range candidates {
		idString := candidate.ID.String()
		byString[idString] = candidate.ID
		prompt.WriteString("id: " + idString + "\n" + candidate.Text + "\n---\n")
	}

	result, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt.String()), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, helper.NewError("generate selection", err)
	}

	ids, err := parseSelection(result.Text(), byString)
	if err != nil {
		return nil, helper.NewError("parse selection", err)
	}

	s.logger.Debug("Setwise selection complete", "offered", len(candidates), "selected", len(ids))

	return ids, nil
}

// parseSelection decodes a JSON array of id strings, tolerating markdown
// code fences around the payload
func parseSelection(text string, byString map[string]model.CandidateID) ([]model.CandidateID, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var selected []string
	err := json.Unmarshal([]byte(cleaned), &selected)
	if err != nil {
		return nil, fmt.Errorf("unmarshal selection %q: %w", cleaned, err)
	}

	ids := make([]model.CandidateID, 0, len(selected))
	for _, idString := range selected {
		id, exists := byString[strings.TrimSpace(idString)]
		if !exists {
			// Out-of-set id, dropped silently
			continue
		}
		ids = append(ids, id)
	}

	return ids, nil
}
