package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	prompt, err := Get("decoder.json", "decode-value-model")
	require.NoError(t, err)
	assert.Contains(t, prompt, "{{.ScholarshipText}}")
	assert.Contains(t, prompt, "primary_values")
}

func TestGetMissingKey(t *testing.T) {
	_, err := Get("decoder.json", "no-such-prompt")
	assert.Error(t, err)
}

func TestGetMissingFile(t *testing.T) {
	_, err := Get("missing.json", "anything")
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	out := Format("Ask about {{.Category}} weighted {{.Weight}}", map[string]string{
		"Category": "Community",
		"Weight":   "0.3",
	})
	assert.Equal(t, "Ask about Community weighted 0.3", out)
	assert.False(t, HasUnfilledPlaceholders(out))
}

func TestHasUnfilledPlaceholders(t *testing.T) {
	assert.True(t, HasUnfilledPlaceholders("Tell me about {{.Gap}}"))
	assert.True(t, HasUnfilledPlaceholders("stray }} brace"))
	assert.False(t, HasUnfilledPlaceholders("a clean question?"))
}

func TestAllStagePromptsPresent(t *testing.T) {
	keys := map[string]string{
		"decoder.json":   "decode-value-model",
		"analyzer.json":  "classify-bullets",
		"interview.json": "elicit-question",
		"optimizer.json": "optimize-bullets",
		"composer.json":  "compose-essay",
		"outreach.json":  "draft-outreach",
	}
	for file, key := range keys {
		_, err := Get(file, key)
		assert.NoError(t, err, "%s/%s", file, key)
	}
}
