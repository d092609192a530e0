package analyzer

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

func TestClassifyBullets(t *testing.T) {
	client := &fakeClient{response: `{
		"associations": [
			{"bullet_id": "b1", "categories": ["Leadership", "Community"]},
			{"bullet_id": "b2", "categories": []}
		]
	}`}
	digest := &types.ResumeDigest{
		Version: 3,
		Bullets: []types.ResumeBullet{
			{ID: "b1", Text: "Led a volunteer food drive"},
			{ID: "b2", Text: "Maintained a 3.9 GPA"},
		},
	}

	classified, err := ClassifyBullets(context.Background(), client, digest, threeValueModel())
	require.NoError(t, err)

	assert.Equal(t, 3, classified.Version)
	assert.Equal(t, []string{"Leadership", "Community"}, classified.Bullets[0].AssociatedCategories)
	assert.Empty(t, classified.Bullets[1].AssociatedCategories)

	// Input digest untouched.
	assert.Empty(t, digest.Bullets[0].AssociatedCategories)

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "Led a volunteer food drive")
	assert.Contains(t, client.prompts[0], "Leadership")
}

func TestClassifyBulletsDropsUnknownCategories(t *testing.T) {
	client := &fakeClient{response: `{
		"associations": [{"bullet_id": "b1", "categories": ["Leadership", "Synergy"]}]
	}`}
	digest := &types.ResumeDigest{
		Version: 1,
		Bullets: []types.ResumeBullet{{ID: "b1", Text: "bullet"}},
	}

	classified, err := ClassifyBullets(context.Background(), client, digest, threeValueModel())
	require.NoError(t, err)
	assert.Equal(t, []string{"Leadership"}, classified.Bullets[0].AssociatedCategories)
}

func TestClassifyBulletsSchemaFailure(t *testing.T) {
	client := &fakeClient{response: `{"bullets": "wrong shape"}`}
	digest := &types.ResumeDigest{
		Version: 1,
		Bullets: []types.ResumeBullet{{ID: "b1", Text: "bullet"}},
	}

	_, err := ClassifyBullets(context.Background(), client, digest, threeValueModel())
	var ce *ClassificationError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, err.Error(), "schema validation")
}

func TestClassifyBulletsBackendError(t *testing.T) {
	backendErr := errors.New("backend unavailable")
	client := &fakeClient{err: backendErr}
	digest := &types.ResumeDigest{
		Version: 1,
		Bullets: []types.ResumeBullet{{ID: "b1", Text: "bullet"}},
	}

	_, err := ClassifyBullets(context.Background(), client, digest, threeValueModel())
	var ce *ClassificationError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, backendErr)
}

func TestOrderedCategories(t *testing.T) {
	model := &types.ValueModel{
		PrimaryValues: []string{"Leadership", "Community"},
		Weights: map[string]float64{
			"Zeal":       0.2,
			"Community":  0.3,
			"Leadership": 0.3,
			"Balance":    0.2,
		},
	}
	assert.Equal(t, []string{"Leadership", "Community", "Balance", "Zeal"}, orderedCategories(model))
}
