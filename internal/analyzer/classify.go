package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jamie/scholarship-tailor/internal/llm"
	"github.com/jamie/scholarship-tailor/internal/prompts"
	"github.com/jamie/scholarship-tailor/internal/schemas"
	"github.com/jamie/scholarship-tailor/internal/types"
)

const associationsSchema = `{
	"type": "object",
	"required": ["associations"],
	"properties": {
		"associations": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["bullet_id", "categories"],
				"properties": {
					"bullet_id": {"type": "string", "minLength": 1},
					"categories": {"type": "array", "items": {"type": "string"}}
				}
			}
		}
	}
}`

type bulletAssociation struct {
	BulletID   string   `json:"bullet_id"`
	Categories []string `json:"categories"`
}

type associationsResponse struct {
	Associations []bulletAssociation `json:"associations"`
}

// ClassifyBullets asks the backend to associate each resume bullet with the
// value model's categories and returns a new digest carrying those
// associations. The input digest is not mutated; the returned digest keeps
// the same version since the bullet content is unchanged.
func ClassifyBullets(ctx context.Context, client llm.Client, digest *types.ResumeDigest, model *types.ValueModel) (*types.ResumeDigest, error) {
	categories := orderedCategories(model)

	var bullets strings.Builder
	for _, b := range digest.Bullets {
		fmt.Fprintf(&bullets, "%s: %s\n", b.ID, b.Text)
	}

	prompt := prompts.Format(
		prompts.MustGet("analyzer.json", "classify-bullets"),
		map[string]string{
			"Categories": strings.Join(categories, ", "),
			"Bullets":    bullets.String(),
		},
	)

	responseText, err := client.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		return nil, &ClassificationError{Message: "generation call failed", Cause: err}
	}

	cleaned := llm.CleanJSONBlock(responseText)
	if err := schemas.ValidateJSONString(associationsSchema, cleaned); err != nil {
		return nil, &ClassificationError{Message: "response failed schema validation", Cause: err}
	}

	var resp associationsResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, &ClassificationError{Message: "failed to parse response JSON", Cause: err}
	}

	known := make(map[string]bool, len(categories))
	for _, c := range categories {
		known[c] = true
	}

	byBullet := make(map[string][]string, len(resp.Associations))
	for _, assoc := range resp.Associations {
		var kept []string
		for _, c := range assoc.Categories {
			if known[c] {
				kept = append(kept, c)
			}
		}
		byBullet[assoc.BulletID] = kept
	}

	classified := &types.ResumeDigest{
		Version:       digest.Version,
		ResumeSummary: digest.ResumeSummary,
		Bullets:       make([]types.ResumeBullet, len(digest.Bullets)),
	}
	for i, b := range digest.Bullets {
		classified.Bullets[i] = types.ResumeBullet{
			ID:                   b.ID,
			Text:                 b.Text,
			AssociatedCategories: byBullet[b.ID],
		}
	}

	return classified, nil
}

// orderedCategories lists every weighted category, primary values first in
// declaration order, remaining categories alphabetically.
func orderedCategories(model *types.ValueModel) []string {
	out := make([]string, 0, len(model.Weights))
	seen := make(map[string]bool, len(model.Weights))

	for _, v := range model.PrimaryValues {
		if _, ok := model.Weights[v]; ok && !seen[v] {
			out = append(out, v)
			seen[v] = true
		}
	}

	var rest []string
	for c := range model.Weights {
		if !seen[c] {
			rest = append(rest, c)
		}
	}
	sort.Strings(rest)

	return append(out, rest...)
}
