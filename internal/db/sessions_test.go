package db

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamie/scholarship-tailor/internal/session"
	"github.com/jamie/scholarship-tailor/internal/types"
)

// The store persists the aggregate as a JSONB document; stage, status,
// and artifacts must survive the round trip.
func TestSessionDocumentRoundTrip(t *testing.T) {
	target := "Community"
	sess := &session.Session{
		ID:              uuid.New(),
		ResumeSessionID: "r1",
		ScholarshipURL:  "https://example.org/s",
		Stage:           session.StageAnalyzing,
		Status:          session.StatusInProgress,
		Version:         3,
		GapReport: &types.GapReport{
			Entries: []types.GapEntry{
				{Category: "Leadership", Weight: 0.6, Covered: true},
				{Category: "Community", Weight: 0.4, Covered: false},
			},
			TargetGap: &target,
		},
		LastError: &session.StageError{
			Stage:   session.StageAnalyzing,
			Kind:    session.KindClassificationFailure,
			Message: "backend unavailable",
		},
	}

	data, err := json.Marshal(sess)
	require.NoError(t, err)

	var got session.Session
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, session.StageAnalyzing, got.Stage)
	assert.Equal(t, session.StatusInProgress, got.Status)
	require.NotNil(t, got.GapReport)
	require.NotNil(t, got.GapReport.TargetGap)
	assert.Equal(t, "Community", *got.GapReport.TargetGap)
	require.NotNil(t, got.LastError)
	assert.Equal(t, session.KindClassificationFailure, got.LastError.Kind)
	assert.InDelta(t, 0.6, got.Summary().MatchScore, 0.0001)
}
