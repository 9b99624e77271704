package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ASGawde/AgriGPT/store"
	"github.com/ASGawde/AgriGPT/store/interactionlog"
)

// stubText records prompts and returns a fixed response.
type stubText struct {
	calls    int
	prompts  []string
	systems  []string
	response string
}

func (s *stubText) Complete(_ context.Context, prompt, systemMsg string) string {
	s.calls++
	s.prompts = append(s.prompts, prompt)
	s.systems = append(s.systems, systemMsg)
	if s.response == "" {
		return "stub advice"
	}
	return s.response
}

// stubVision records image calls.
type stubVision struct {
	calls    int
	paths    []string
	prompts  []string
	response string
}

func (s *stubVision) CompleteWithImage(_ context.Context, imagePath, prompt string) string {
	s.calls++
	s.paths = append(s.paths, imagePath)
	s.prompts = append(s.prompts, prompt)
	if s.response == "" {
		return "stub diagnosis"
	}
	return s.response
}

// memorySink collects log entries in memory.
type memorySink struct {
	entries []interactionlog.Entry
	err     error
}

func (m *memorySink) Append(entry interactionlog.Entry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

// stubRetriever scripts scheme search results.
type stubRetriever struct {
	schemes []*store.SubsidyScheme
	err     error
	queries []string
}

func (s *stubRetriever) Search(_ context.Context, cleanedQuery string, _ int) ([]*store.SubsidyScheme, error) {
	s.queries = append(s.queries, cleanedQuery)
	return s.schemes, s.err
}

func TestDetectModality(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		imagePath string
		want      Modality
	}{
		{"both present", "yellow leaves", "/tmp/leaf.jpg", ModalityMultimodal},
		{"blank query with image", "   ", "/tmp/leaf.jpg", ModalityImage},
		{"image only", "", "/tmp/leaf.jpg", ModalityImage},
		{"text only", "how much urea", "", ModalityText},
		{"neither", "", "", ModalityText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectModality(tt.query, tt.imagePath))
		})
	}
}

func TestRecorder_CapsStoredResponse(t *testing.T) {
	sink := &memorySink{}
	text := &stubText{response: strings.Repeat("x", responseLogCap+100)}
	a := NewCropAgent(text, sink)

	out := a.HandleQuery(context.Background(), "fertilizer for paddy", "")
	assert.Len(t, out, responseLogCap+100, "returned text is never capped")
	require.Len(t, sink.entries, 1)
	assert.Len(t, sink.entries[0].Response, responseLogCap, "stored copy is capped")
}

func TestRecorder_SwallowsSinkFailure(t *testing.T) {
	sink := &memorySink{err: errors.New("disk full")}
	a := NewCropAgent(&stubText{}, sink)

	out := a.HandleQuery(context.Background(), "fertilizer for paddy", "")
	assert.Equal(t, "stub advice", out, "logging failure must not affect the answer")
}

func TestTextAgents_RejectBlankQuery(t *testing.T) {
	sink := &memorySink{}
	text := &stubText{}

	agents := []Agent{
		NewCropAgent(text, sink),
		NewIrrigationAgent(text, sink),
		NewYieldAgent(text, sink),
		NewSubsidyAgent(text, nil, sink),
	}

	for _, a := range agents {
		t.Run(a.Name(), func(t *testing.T) {
			before := text.calls
			out := a.HandleQuery(context.Background(), "   ", "")
			assert.NotEmpty(t, out)
			assert.Contains(t, strings.ToLower(out), "please", "guidance message expected")
			assert.Equal(t, before, text.calls, "no upstream call for a blank query")
		})
	}
}

func TestCropAgent_PromptEmbedsQuery(t *testing.T) {
	text := &stubText{}
	a := NewCropAgent(text, &memorySink{})

	a.HandleQuery(context.Background(), "What fertilizer for tomatoes?", "")
	require.Equal(t, 1, text.calls)
	assert.Contains(t, text.prompts[0], "What fertilizer for tomatoes?")
}

func TestRegistry_Lookup(t *testing.T) {
	reg := NewRegistry(&stubText{}, &stubVision{}, nil, &memorySink{})

	for _, name := range []string{CropAgentName, PestAgentName, IrrigationAgentName, YieldAgentName, SubsidyAgentName} {
		a, ok := reg.Get(name)
		require.True(t, ok, name)
		assert.Equal(t, name, a.Name())
	}

	_, ok := reg.Get("UnknownAgent")
	assert.False(t, ok)

	require.NotNil(t, reg.Formatter())
	assert.Equal(t, FormatterAgentName, reg.Formatter().Name())
}

func TestRegistry_DescriptorsExcludeFormatter(t *testing.T) {
	reg := NewRegistry(&stubText{}, &stubVision{}, nil, &memorySink{})

	descriptors := reg.Descriptors()
	assert.Len(t, descriptors, 5)
	for _, d := range descriptors {
		assert.NotEqual(t, FormatterAgentName, d.Name)
		assert.NotEmpty(t, d.Description)
	}
}
