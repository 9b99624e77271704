package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ASGawde/AgriGPT/store"
)

func TestSubsidyAgent_SanitizesQueryBeforeRetrieval(t *testing.T) {
	retriever := &stubRetriever{}
	text := &stubText{}
	a := NewSubsidyAgent(text, retriever, &memorySink{})

	a.HandleQuery(context.Background(), "  PM-Kisan\x00 eligibility‌  ", "")
	require.Len(t, retriever.queries, 1)
	assert.Equal(t, "PM-Kisan eligibility", retriever.queries[0])
}

func TestSubsidyAgent_MergesRetrievedSchemes(t *testing.T) {
	retriever := &stubRetriever{
		schemes: []*store.SubsidyScheme{
			{
				SchemeName:       "PM-Kisan",
				Eligibility:      "Small and marginal farmers",
				Benefits:         "Rs 6000 per year",
				ApplicationSteps: "Apply via the PM-Kisan portal",
				Documents:        "Aadhaar, land records",
				Notes:            "Central scheme",
			},
		},
	}
	text := &stubText{}
	a := NewSubsidyAgent(text, retriever, &memorySink{})

	a.HandleQuery(context.Background(), "PM-Kisan eligibility", "")
	require.Equal(t, 1, text.calls)
	prompt := text.prompts[0]
	assert.Contains(t, prompt, "PM-Kisan")
	assert.Contains(t, prompt, "Small and marginal farmers")
	assert.Contains(t, prompt, "Rs 6000 per year")
	assert.Contains(t, prompt, "Apply via the PM-Kisan portal")
}

func TestSubsidyAgent_RetrievalFailureDegradesGracefully(t *testing.T) {
	retriever := &stubRetriever{err: errors.New("vector store down")}
	text := &stubText{}
	a := NewSubsidyAgent(text, retriever, &memorySink{})

	out := a.HandleQuery(context.Background(), "drip irrigation subsidy", "")
	assert.Equal(t, "stub advice", out, "retrieval failure must not abort the agent")
	require.Equal(t, 1, text.calls)
	assert.Contains(t, text.prompts[0], "temporarily unavailable")
}

func TestSubsidyAgent_NoMatchesNote(t *testing.T) {
	text := &stubText{}
	a := NewSubsidyAgent(text, &stubRetriever{}, &memorySink{})

	a.HandleQuery(context.Background(), "obscure scheme nobody stored", "")
	require.Equal(t, 1, text.calls)
	assert.Contains(t, text.prompts[0], "No matching official scheme")
}

func TestSubsidyAgent_NilRetriever(t *testing.T) {
	text := &stubText{}
	a := NewSubsidyAgent(text, nil, &memorySink{})

	out := a.HandleQuery(context.Background(), "fertilizer subsidy amount", "")
	assert.Equal(t, "stub advice", out)
	assert.Contains(t, text.prompts[0], "No official scheme database is configured")
}
