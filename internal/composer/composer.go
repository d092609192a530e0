// Package composer ghostwrites the scholarship essay from the bridge story,
// the optimized bullets, and the decoded value model.
package composer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jamie/scholarship-tailor/internal/llm"
	"github.com/jamie/scholarship-tailor/internal/prompts"
	"github.com/jamie/scholarship-tailor/internal/schemas"
	"github.com/jamie/scholarship-tailor/internal/types"
)

const essaySchema = `{
	"type": "object",
	"required": ["text", "strategy_note"],
	"properties": {
		"text": {"type": "string", "minLength": 1},
		"strategy_note": {"type": "string"}
	}
}`

type essayResponse struct {
	Text         string `json:"text"`
	StrategyNote string `json:"strategy_note"`
}

// ComposeEssay drafts the full essay. The hook is the bridge story when one
// exists, otherwise the strongest optimized bullet. The returned draft's
// word count is computed here rather than trusted from the backend; if the
// draft overruns the limit beyond tolerance, one retry is made with a
// shortening hint before the overrun is reported as an error.
func ComposeEssay(ctx context.Context, client llm.Client, story *types.BridgeStory, bullets []types.OptimizedBullet, model *types.ValueModel, wordLimit int) (*types.EssayDraft, error) {
	if len(bullets) == 0 {
		return nil, &ComposeError{Message: "no optimized bullets to compose from"}
	}

	hook := Hook(story, bullets)

	var evidence strings.Builder
	for _, b := range bullets {
		fmt.Fprintf(&evidence, "- %s\n", b.Optimized)
	}

	template := prompts.MustGet("composer.json", "compose-essay")
	data := map[string]string{
		"PrimaryValues": strings.Join(model.PrimaryValues, ", "),
		"Tone":          model.Tone,
		"WordLimit":     fmt.Sprintf("%d", wordLimit),
		"Hook":          hook,
		"Evidence":      evidence.String(),
		"ShortenHint":   "",
	}

	draft, err := generateDraft(ctx, client, prompts.Format(template, data), wordLimit)
	if err == nil || !isOverrun(err) {
		return draft, err
	}

	data["ShortenHint"] = prompts.MustGet("composer.json", "shorten-hint")
	return generateDraft(ctx, client, prompts.Format(template, data), wordLimit)
}

func generateDraft(ctx context.Context, client llm.Client, prompt string, wordLimit int) (*types.EssayDraft, error) {
	responseText, err := client.GenerateJSON(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		return nil, &ComposeError{Message: "generation call failed", Cause: err}
	}

	cleaned := llm.CleanJSONBlock(responseText)
	if err := schemas.ValidateJSONString(essaySchema, cleaned); err != nil {
		return nil, &ComposeError{Message: "response failed schema validation", Cause: err}
	}

	var resp essayResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, &ComposeError{Message: "failed to parse response JSON", Cause: err}
	}

	draft := &types.EssayDraft{
		Text:         strings.TrimSpace(resp.Text),
		StrategyNote: resp.StrategyNote,
		WordCount:    types.CountWords(resp.Text),
	}
	if err := draft.Validate(wordLimit); err != nil {
		return nil, &ComposeError{Message: "draft failed contract check", Cause: err, Overrun: true}
	}
	return draft, nil
}

// Hook picks the essay's opening material: the student's own bridge story
// when the interview produced one, else the strongest optimized bullet.
// The first bullet in the list is the strongest since the optimizer orders
// candidates by alignment headroom.
func Hook(story *types.BridgeStory, bullets []types.OptimizedBullet) string {
	if story != nil && strings.TrimSpace(story.AnswerText) != "" {
		return story.AnswerText
	}
	if len(bullets) > 0 {
		return bullets[0].Optimized
	}
	return ""
}

func isOverrun(err error) bool {
	var ce *ComposeError
	return errors.As(err, &ce) && ce.Overrun
}
