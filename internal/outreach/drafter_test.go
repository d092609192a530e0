package outreach

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamie/scholarship-tailor/internal/llm"
	"github.com/jamie/scholarship-tailor/internal/types"
)

type fakeClient struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeClient) GenerateContent(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func (f *fakeClient) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func (f *fakeClient) Close() error { return nil }

func testRequest() Request {
	return Request{
		ScholarshipName: "Acme Service Scholarship",
		Organization:    "Acme Foundation",
		Contact:         "Ms. Rivera",
		Ambiguities:     []string{"Is community service outside school eligible?"},
		StudentContext:  "High school senior, robotics team captain",
	}
}

func TestDraftEmail(t *testing.T) {
	client := &fakeClient{response: `{"subject": "Question about eligibility", "body": "Dear Ms. Rivera, ..."}`}

	draft, err := DraftEmail(context.Background(), client, testRequest())
	require.NoError(t, err)
	assert.Equal(t, "Question about eligibility", draft.Subject)
	assert.NotEmpty(t, draft.Body)

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "Ms. Rivera")
	assert.Contains(t, client.prompts[0], "community service outside school")
	assert.Contains(t, client.prompts[0], "Acme Foundation")
}

func TestDraftEmailGenericSalutation(t *testing.T) {
	client := &fakeClient{response: `{"subject": "s", "body": "b"}`}
	req := testRequest()
	req.Contact = "  "

	_, err := DraftEmail(context.Background(), client, req)
	require.NoError(t, err)
	assert.Contains(t, client.prompts[0], "Scholarship Committee")
}

func TestDraftEmailNoAmbiguities(t *testing.T) {
	req := testRequest()
	req.Ambiguities = nil

	_, err := DraftEmail(context.Background(), &fakeClient{}, req)
	var de *DraftError
	require.ErrorAs(t, err, &de)
}

func TestDraftEmailSchemaFailure(t *testing.T) {
	client := &fakeClient{response: `{"subject": "only a subject"}`}

	_, err := DraftEmail(context.Background(), client, testRequest())
	var de *DraftError
	require.ErrorAs(t, err, &de)
	assert.Contains(t, err.Error(), "schema validation")
}

func TestDraftEmailBackendError(t *testing.T) {
	backendErr := errors.New("backend unavailable")
	client := &fakeClient{err: backendErr}

	_, err := DraftEmail(context.Background(), client, testRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, backendErr)
}

func TestAmbiguitiesFromReport(t *testing.T) {
	target := "Community"
	report := &types.GapReport{
		Entries: []types.GapEntry{
			{Category: "Leadership", Weight: 0.6, Covered: true},
			{Category: "Community", Weight: 0.4, Covered: false},
		},
		TargetGap: &target,
	}

	ambiguities := AmbiguitiesFromReport(report)
	require.Len(t, ambiguities, 1)
	assert.Contains(t, ambiguities[0], "Community")

	assert.Nil(t, AmbiguitiesFromReport(nil))
}
