package types

import (
	"fmt"
	"strings"
)

// EssayOverrunTolerance is how far past the word limit a draft may run
// before the composer stage rejects it and retries.
const EssayOverrunTolerance = 0.10

// BridgeStory is the student-provided anecdote elicited to close the
// highest-weight gap. Immutable once created; a session holds at most one.
type BridgeStory struct {
	QuestionText   string `json:"question_text"`
	AnswerText     string `json:"answer_text"`
	TargetCategory string `json:"target_category"`
}

// OptimizedBullet pairs an original resume bullet with its rewrite and the
// rationale for the change.
type OptimizedBullet struct {
	Original  string `json:"original"`
	Optimized string `json:"optimized"`
	Rationale string `json:"rationale"`
}

// Validate applies the only checks the pipeline can make mechanically:
// the rewrite is non-empty and actually differs from the original.
func (b *OptimizedBullet) Validate() error {
	if strings.TrimSpace(b.Optimized) == "" {
		return fmt.Errorf("optimized text is empty")
	}
	if strings.TrimSpace(b.Optimized) == strings.TrimSpace(b.Original) {
		return fmt.Errorf("optimized text is identical to the original")
	}
	return nil
}

// EssayDraft is the composed essay. Regenerating overwrites the prior
// draft; no history is retained.
type EssayDraft struct {
	Text         string `json:"text"`
	StrategyNote string `json:"strategy_note"`
	WordCount    int    `json:"word_count"`
}

// Validate enforces the hard contract: the recorded word count equals the
// literal word count of the text, and the draft stays within the word
// limit plus tolerance.
func (d *EssayDraft) Validate(wordLimit int) error {
	actual := CountWords(d.Text)
	if d.WordCount != actual {
		return fmt.Errorf("word_count %d does not match actual count %d", d.WordCount, actual)
	}
	if wordLimit > 0 {
		max := int(float64(wordLimit) * (1 + EssayOverrunTolerance))
		if d.WordCount > max {
			return fmt.Errorf("word_count %d exceeds limit %d by more than %.0f%%", d.WordCount, wordLimit, EssayOverrunTolerance*100)
		}
	}
	return nil
}

// OutreachDraft is a short clarifying email to the awarding organization.
// The ~150 word body bound is advisory and not enforced here.
type OutreachDraft struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Validate checks that both parts of the draft are present.
func (d *OutreachDraft) Validate() error {
	if strings.TrimSpace(d.Subject) == "" {
		return fmt.Errorf("subject is empty")
	}
	if strings.TrimSpace(d.Body) == "" {
		return fmt.Errorf("body is empty")
	}
	return nil
}

// CountWords returns the whitespace-delimited word count of text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}
