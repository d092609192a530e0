package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jamie/scholarship-tailor/internal/session"
	"github.com/jamie/scholarship-tailor/internal/types"
)

func TestPrintResult(t *testing.T) {
	target := "Community"
	sess := &session.Session{
		Status: session.StatusCompleted,
		GapReport: &types.GapReport{
			Entries: []types.GapEntry{
				{Category: "Leadership", Weight: 0.4, Covered: true},
				{Category: "Community", Weight: 0.35, Covered: false},
				{Category: "Academics", Weight: 0.25, Covered: false},
			},
			TargetGap: &target,
		},
		OptimizedBullets: []types.OptimizedBullet{
			{Original: "Led the team", Optimized: "Led a 12-person robotics team", Rationale: "r"},
		},
		Essay:    &types.EssayDraft{Text: "An essay.", WordCount: 2},
		Outreach: &types.OutreachDraft{Subject: "A question", Body: "Dear committee,"},
	}

	var buf bytes.Buffer
	printResult(&buf, sess)
	out := buf.String()

	assert.Contains(t, out, "Match score: 0.40")
	assert.Contains(t, out, "Largest gap: Community")
	assert.Contains(t, out, "  - Led a 12-person robotics team")
	assert.Contains(t, out, "Essay (2 words):")
	assert.Contains(t, out, "Subject: A question")
}

func TestPrintResultWithoutArtifacts(t *testing.T) {
	var buf bytes.Buffer
	printResult(&buf, &session.Session{Status: session.StatusFailed})
	assert.Empty(t, buf.String())
}
