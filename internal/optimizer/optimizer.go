// Package optimizer rewrites the resume bullets with the most room to
// improve alignment with a scholarship's weighted values.
package optimizer

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

// CandidateCount is how many bullets get rewritten per session.
const CandidateCount = 3

const optimizedBulletsSchema = `{
	"type": "object",
	"required": ["bullets"],
	"properties": {
		"bullets": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["original", "optimized", "rationale"],
				"properties": {
					"original": {"type": "string", "minLength": 1},
					"optimized": {"type": "string", "minLength": 1},
					"rationale": {"type": "string"}
				}
			}
		}
	}
}`

type optimizedResponse struct {
	Bullets []types.OptimizedBullet `json:"bullets"`
}

// OptimizeBullets selects the candidate bullets with the greatest alignment
// headroom and rewrites them in one generation call. The rewrite must only
// reframe existing facts; that constraint lives in the prompt, so the only
// mechanical checks here are non-empty output that differs from the input.
func OptimizeBullets(ctx context.Context, client llm.Client, digest *types.ResumeDigest, model *types.ValueModel) ([]types.OptimizedBullet, error) {
	candidates := SelectCandidates(digest, model)
	if len(candidates) == 0 {
		return nil, &OptimizeError{Message: "no candidate bullets to optimize"}
	}

	var bullets strings.Builder
	for i, b := range candidates {
		fmt.Fprintf(&bullets, "%d. %s\n", i+1, b.Text)
	}

	weights := make([]string, 0, len(model.PrimaryValues))
	for _, v := range model.PrimaryValues {
		weights = append(weights, fmt.Sprintf("%s=%.2f", v, model.Weights[v]))
	}

	prompt := prompts.Format(
		prompts.MustGet("optimizer.json", "optimize-bullets"),
		map[string]string{
			"PrimaryValues": strings.Join(model.PrimaryValues, ", "),
			"Weights":       strings.Join(weights, ", "),
			"Tone":          model.Tone,
			"Bullets":       bullets.String(),
		},
	)

	responseText, err := client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, &OptimizeError{Message: "generation call failed", Cause: err}
	}

	cleaned := llm.CleanJSONBlock(responseText)
	if err := schemas.ValidateJSONString(optimizedBulletsSchema, cleaned); err != nil {
		return nil, &OptimizeError{Message: "response failed schema validation", Cause: err}
	}

	var resp optimizedResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, &OptimizeError{Message: "failed to parse response JSON", Cause: err}
	}

	if len(resp.Bullets) != len(candidates) {
		return nil, &OptimizeError{Message: fmt.Sprintf("expected %d rewritten bullets, got %d", len(candidates), len(resp.Bullets))}
	}
	for i := range resp.Bullets {
		if err := resp.Bullets[i].Validate(); err != nil {
			return nil, &OptimizeError{Message: fmt.Sprintf("bullet %d failed contract check", i+1), Cause: err}
		}
	}

	return resp.Bullets, nil
}

// SelectCandidates picks up to CandidateCount bullets to rewrite. Bullets
// not yet associated with the top-weighted category are preferred, ranked
// by how little weighted coverage they currently carry so the rewrite
// targets the biggest gaps first. If that pool is short, remaining slots
// are filled from the other bullets in resume order.
func SelectCandidates(digest *types.ResumeDigest, model *types.ValueModel) []types.ResumeBullet {
	top := topWeightedCategory(model)

	type scored struct {
		bullet types.ResumeBullet
		score  float64
		index  int
	}

	var eligible, rest []scored
	for i, b := range digest.Bullets {
		coversTop := false
		score := 0.0
		for _, c := range b.AssociatedCategories {
			if c == top {
				coversTop = true
			}
			score += model.Weights[c]
		}
		s := scored{bullet: b, score: score, index: i}
		if coversTop {
			rest = append(rest, s)
		} else {
			eligible = append(eligible, s)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].score != eligible[j].score {
			return eligible[i].score < eligible[j].score
		}
		return eligible[i].index < eligible[j].index
	})

	picked := eligible
	if len(picked) < CandidateCount {
		picked = append(picked, rest...)
	}
	if len(picked) > CandidateCount {
		picked = picked[:CandidateCount]
	}

	out := make([]types.ResumeBullet, len(picked))
	for i, s := range picked {
		out[i] = s.bullet
	}
	return out
}

func topWeightedCategory(model *types.ValueModel) string {
	top := ""
	best := -1.0
	for _, v := range model.PrimaryValues {
		if w := model.Weights[v]; w > best {
			top, best = v, w
		}
	}
	for c, w := range model.Weights {
		if w > best {
			top, best = c, w
		}
	}
	return top
}
