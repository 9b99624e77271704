package agent

import (
	"context"
	"fmt"
	"strings"
)

// FormatterAgentName is the registry name for the final polish pass. The
// formatter is a post-processing step, never a routing target, so it is
// excluded from the routable descriptor set.
const FormatterAgentName = "FormatterAgent"

// FormatterAgent rewrites arbitrary input text into a short, structured,
// farmer-friendly answer.
type FormatterAgent struct {
	recorder
	text TextCompleter
}

// NewFormatterAgent creates the formatter.
func NewFormatterAgent(text TextCompleter, log LogSink) *FormatterAgent {
	return &FormatterAgent{
		recorder: recorder{agentName: FormatterAgentName, log: log},
		text:     text,
	}
}

// Name implements Agent.
func (a *FormatterAgent) Name() string { return FormatterAgentName }

// HandleQuery polishes the given text. Image input is ignored.
func (a *FormatterAgent) HandleQuery(ctx context.Context, query, imagePath string) string {
	if strings.TrimSpace(query) == "" {
		return a.respondAndRecord("Empty text", "No text was provided for formatting.", imagePath)
	}

	prompt := fmt.Sprintf(`You are AgriGPT Formatter.
Improve the following content:

"""%s"""

Rules:
- Add a 3-6 word title
- Use clear bullet points
- Short sentences
- Simple farmer-friendly tone
- End with a 1-line summary
- Remove fluff`, query)

	formatted := a.text.Complete(ctx, prompt, "You are AgriGPT.")
	return a.respondAndRecord(query, formatted, imagePath)
}
