// Package interview generates the single targeted question asked when the
// gap report names a value the resume cannot evidence.
package interview

import (
	"context"
	"fmt"
	"strings"

	"github.com/jamie/scholarship-tailor/internal/analyzer"
	"github.com/jamie/scholarship-tailor/internal/llm"
	"github.com/jamie/scholarship-tailor/internal/prompts"
	"github.com/jamie/scholarship-tailor/internal/types"
)

// ElicitQuestion produces one open-ended question aimed at the report's
// target gap. A generated question that is empty or still carries template
// placeholders is retried once; if the retry also fails the model's
// fallback query is returned so the interview always has a usable question.
func ElicitQuestion(ctx context.Context, client llm.Client, model *types.ValueModel, report *types.GapReport, digest *types.ResumeDigest) (string, error) {
	if report.TargetGap == nil {
		return "", fmt.Errorf("gap report has no target gap to interview about")
	}
	target := *report.TargetGap

	covered := analyzer.CoveredSummary(report)
	coveredText := "nothing yet"
	if len(covered) > 0 {
		coveredText = strings.Join(covered, ", ")
	}

	summary := ""
	if digest != nil {
		summary = digest.ResumeSummary
	}

	prompt := prompts.Format(
		prompts.MustGet("interview.json", "elicit-question"),
		map[string]string{
			"TargetCategory": target,
			"TargetWeight":   fmt.Sprintf("%.2f", report.Entries[entryIndex(report, target)].Weight),
			"CoveredSummary": coveredText,
			"ResumeSummary":  summary,
		},
	)

	for attempt := 0; attempt < 2; attempt++ {
		text, err := client.GenerateContent(ctx, prompt, llm.TierStandard)
		if err != nil {
			return "", fmt.Errorf("question generation failed: %w", err)
		}
		question := strings.TrimSpace(text)
		if question != "" && !prompts.HasUnfilledPlaceholders(question) {
			return question, nil
		}
	}

	return model.FallbackQuery, nil
}

// AcceptAnswer turns a student's free-text reply into a bridge story. An
// empty or whitespace-only reply yields nil; the pipeline proceeds without
// a story rather than rejecting the session.
func AcceptAnswer(questionText, answerText, targetCategory string) *types.BridgeStory {
	answer := strings.TrimSpace(answerText)
	if answer == "" {
		return nil
	}
	return &types.BridgeStory{
		QuestionText:   questionText,
		AnswerText:     answer,
		TargetCategory: targetCategory,
	}
}

func entryIndex(report *types.GapReport, category string) int {
	for i, e := range report.Entries {
		if e.Category == category {
			return i
		}
	}
	return 0
}
