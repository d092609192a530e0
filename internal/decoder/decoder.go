// Package decoder turns raw scholarship text into a structured value model
// via LLM extraction.
package decoder

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/jamie/scholarship-tailor/internal/llm"
	"github.com/jamie/scholarship-tailor/internal/prompts"
	"github.com/jamie/scholarship-tailor/internal/schemas"
	"github.com/jamie/scholarship-tailor/internal/types"
)

// valueModelSchema is the validation boundary for the decoder's response.
const valueModelSchema = `{
	"type": "object",
	"required": ["primary_values", "weights", "tone", "fallback_query"],
	"properties": {
		"primary_values": {
			"type": "array",
			"items": {"type": "string", "minLength": 1},
			"minItems": 5,
			"maxItems": 5
		},
		"weights": {
			"type": "object",
			"minProperties": 1,
			"additionalProperties": {"type": "number", "minimum": 0, "maximum": 1}
		},
		"tone": {"type": "string"},
		"fallback_query": {"type": "string", "minLength": 1}
	}
}`

// DecodeValueModel derives the weighted value model a scholarship implicitly
// selects for. pastWinners is an optional list of past-winner summaries that
// sharpens the weighting when present.
func DecodeValueModel(ctx context.Context, client llm.Client, scholarshipText string, pastWinners []string) (*types.ValueModel, error) {
	if strings.TrimSpace(scholarshipText) == "" {
		return nil, &DecodeError{Message: "scholarship text is empty"}
	}

	prompt := buildDecodePrompt(scholarshipText, pastWinners)

	responseText, err := client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, &DecodeError{Message: "generation call failed", Cause: err}
	}

	return parseValueModel(responseText)
}

// buildDecodePrompt constructs the extraction prompt, appending the
// past-winners section only when summaries were supplied.
func buildDecodePrompt(scholarshipText string, pastWinners []string) string {
	winnersSection := ""
	if len(pastWinners) > 0 {
		winnersSection = prompts.Format(
			prompts.MustGet("decoder.json", "past-winners-section"),
			map[string]string{"PastWinners": strings.Join(pastWinners, "\n")},
		)
	}

	return prompts.Format(
		prompts.MustGet("decoder.json", "decode-value-model"),
		map[string]string{
			"ScholarshipText":    scholarshipText,
			"PastWinnersSection": winnersSection,
		},
	)
}

// parseValueModel validates the raw response against the schema, unmarshals
// it, and applies the value model's own structural contract.
func parseValueModel(responseText string) (*types.ValueModel, error) {
	cleaned := llm.CleanJSONBlock(responseText)

	if err := schemas.ValidateJSONString(valueModelSchema, cleaned); err != nil {
		return nil, &DecodeError{Message: "response failed schema validation", Cause: err}
	}

	var model types.ValueModel
	if err := json.Unmarshal([]byte(cleaned), &model); err != nil {
		return nil, &DecodeError{Message: "failed to parse response JSON", Cause: err}
	}

	if err := model.Validate(); err != nil {
		return nil, &DecodeError{Message: "decoded model violates its contract", Cause: err}
	}

	return &model, nil
}
