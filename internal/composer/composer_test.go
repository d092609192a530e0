package composer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamie/scholarship-tailor/internal/llm"
	"github.com/jamie/scholarship-tailor/internal/types"
)

type fakeClient struct {
	responses []string
	err       error
	prompts   []string
}

func (f *fakeClient) next() string {
	if len(f.responses) == 0 {
		return ""
	}
	r := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return r
}

func (f *fakeClient) GenerateContent(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.next(), f.err
}

func (f *fakeClient) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.next(), f.err
}

func (f *fakeClient) Close() error { return nil }

func testModel() *types.ValueModel {
	return &types.ValueModel{
		PrimaryValues: []string{"Leadership", "Community"},
		Weights:       map[string]float64{"Leadership": 0.6, "Community": 0.4},
		Tone:          "earnest",
		FallbackQuery: "q",
	}
}

func testBullets() []types.OptimizedBullet {
	return []types.OptimizedBullet{
		{Original: "a", Optimized: "Led weekly tutoring sessions", Rationale: "r"},
		{Original: "b", Optimized: "Captained the robotics team", Rationale: "r"},
	}
}

func essayJSON(words int) string {
	text := strings.TrimSpace(strings.Repeat("word ", words))
	return fmt.Sprintf(`{"text": %q, "strategy_note": "opened with the story"}`, text)
}

func TestComposeEssay(t *testing.T) {
	client := &fakeClient{responses: []string{essayJSON(100)}}
	story := &types.BridgeStory{QuestionText: "Q?", AnswerText: "I organized a park cleanup.", TargetCategory: "Community"}

	draft, err := ComposeEssay(context.Background(), client, story, testBullets(), testModel(), 650)
	require.NoError(t, err)
	assert.Equal(t, 100, draft.WordCount)
	assert.Equal(t, "opened with the story", draft.StrategyNote)

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "I organized a park cleanup.")
	assert.Contains(t, client.prompts[0], "Led weekly tutoring sessions")
	assert.Contains(t, client.prompts[0], "650")
}

func TestComposeEssayFallbackHook(t *testing.T) {
	client := &fakeClient{responses: []string{essayJSON(80)}}

	_, err := ComposeEssay(context.Background(), client, nil, testBullets(), testModel(), 650)
	require.NoError(t, err)
	assert.Contains(t, client.prompts[0], "Led weekly tutoring sessions")
}

func TestComposeEssayRetriesOverrun(t *testing.T) {
	// First draft blows the 100-word limit past the 10% tolerance, the
	// retry lands inside it.
	client := &fakeClient{responses: []string{essayJSON(130), essayJSON(95)}}

	draft, err := ComposeEssay(context.Background(), client, nil, testBullets(), testModel(), 100)
	require.NoError(t, err)
	assert.Equal(t, 95, draft.WordCount)
	require.Len(t, client.prompts, 2)
	assert.Contains(t, client.prompts[1], "ran long")
}

func TestComposeEssayOverrunTwice(t *testing.T) {
	client := &fakeClient{responses: []string{essayJSON(130), essayJSON(140)}}

	_, err := ComposeEssay(context.Background(), client, nil, testBullets(), testModel(), 100)
	var ce *ComposeError
	require.ErrorAs(t, err, &ce)
	assert.True(t, ce.Overrun)
	assert.Len(t, client.prompts, 2)
}

func TestComposeEssayWithinTolerance(t *testing.T) {
	// 108 words against a 100-word limit is inside the 10% tolerance.
	client := &fakeClient{responses: []string{essayJSON(108)}}

	draft, err := ComposeEssay(context.Background(), client, nil, testBullets(), testModel(), 100)
	require.NoError(t, err)
	assert.Equal(t, 108, draft.WordCount)
}

func TestComposeEssaySchemaFailure(t *testing.T) {
	client := &fakeClient{responses: []string{`{"essay": "wrong shape"}`}}

	_, err := ComposeEssay(context.Background(), client, nil, testBullets(), testModel(), 650)
	var ce *ComposeError
	require.ErrorAs(t, err, &ce)
	assert.False(t, ce.Overrun)
}

func TestComposeEssayBackendError(t *testing.T) {
	backendErr := errors.New("backend unavailable")
	client := &fakeClient{err: backendErr}

	_, err := ComposeEssay(context.Background(), client, nil, testBullets(), testModel(), 650)
	require.Error(t, err)
	assert.ErrorIs(t, err, backendErr)
}

func TestComposeEssayNoBullets(t *testing.T) {
	_, err := ComposeEssay(context.Background(), &fakeClient{}, nil, nil, testModel(), 650)
	var ce *ComposeError
	require.ErrorAs(t, err, &ce)
}

func TestHook(t *testing.T) {
	story := &types.BridgeStory{AnswerText: "my story"}
	assert.Equal(t, "my story", Hook(story, testBullets()))
	assert.Equal(t, "Led weekly tutoring sessions", Hook(nil, testBullets()))
	assert.Equal(t, "", Hook(nil, nil))
}
