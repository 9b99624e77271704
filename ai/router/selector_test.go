package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSelection_PlainJSON(t *testing.T) {
	sel, err := parseSelection(`{"agents": ["CropAgent", "YieldAgent"], "reason": "soil and output"}`)

	require.NoError(t, err)
	assert.Equal(t, []string{"CropAgent", "YieldAgent"}, sel.Agents)
	assert.Equal(t, "soil and output", sel.Reason)
}

func TestParseSelection_StripsMarkdownFence(t *testing.T) {
	sel, err := parseSelection("```json\n{\"agents\": [\"PestAgent\"], \"reason\": \"bugs\"}\n```")

	require.NoError(t, err)
	assert.Equal(t, []string{"PestAgent"}, sel.Agents)
}

func TestParseSelection_FenceWithoutLanguageTag(t *testing.T) {
	sel, err := parseSelection("```\n{\"agents\": [\"PestAgent\"], \"reason\": \"bugs\"}\n```")

	require.NoError(t, err)
	assert.Equal(t, []string{"PestAgent"}, sel.Agents)
}

func TestParseSelection_BareStringCoercedToList(t *testing.T) {
	sel, err := parseSelection(`{"agents": "SubsidyAgent", "reason": "scheme"}`)

	require.NoError(t, err)
	assert.Equal(t, []string{"SubsidyAgent"}, sel.Agents)
}

func TestParseSelection_MissingAgentsFieldYieldsEmpty(t *testing.T) {
	sel, err := parseSelection(`{"reason": "unsure"}`)

	require.NoError(t, err)
	assert.Empty(t, sel.Agents)
}

func TestParseSelection_ProseFails(t *testing.T) {
	_, err := parseSelection("I think the crop agent should handle this one.")

	assert.Error(t, err)
}

func TestParseSelection_MalformedAgentsValueFails(t *testing.T) {
	_, err := parseSelection(`{"agents": 42, "reason": "x"}`)

	assert.Error(t, err)
}

func TestFilterKnown_DropsUnknownAndDuplicates(t *testing.T) {
	r := New(newStubRegistry(), &stubSelector{}, &stubSynthesizer{})

	got := r.filterKnown([]string{"CropAgent", "Nonsense", " CropAgent ", "YieldAgent"})

	assert.Equal(t, []string{"CropAgent", "YieldAgent"}, got)
}

func TestSelectorSystemPrompt_ListsRoutableAgentsOnly(t *testing.T) {
	r := New(newStubRegistry(), &stubSelector{}, &stubSynthesizer{})

	prompt := r.selectorSystemPrompt()

	for _, name := range []string{"CropAgent", "PestAgent", "IrrigationAgent", "YieldAgent", "SubsidyAgent"} {
		assert.Contains(t, prompt, name)
	}
	assert.NotContains(t, prompt, "FormatterAgent")
	assert.Contains(t, prompt, `"agents"`)
}
