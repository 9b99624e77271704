package agent

import (
	"context"
	"fmt"
	"strings"
)

// CropAgentName is the registry name for the crop management specialist.
const CropAgentName = "CropAgent"

// CropAgent provides general crop management, fertilizer, soil, and
// cultivation advice. It is also the router's default fallback agent, so a
// farmer always receives something actionable.
type CropAgent struct {
	recorder
	text TextCompleter
}

// NewCropAgent creates the crop management specialist.
func NewCropAgent(text TextCompleter, log LogSink) *CropAgent {
	return &CropAgent{
		recorder: recorder{agentName: CropAgentName, log: log},
		text:     text,
	}
}

// Name implements Agent.
func (a *CropAgent) Name() string { return CropAgentName }

// HandleQuery answers crop-related text questions. Image input is ignored
// for this agent.
func (a *CropAgent) HandleQuery(ctx context.Context, query, imagePath string) string {
	queryClean := strings.TrimSpace(query)
	if queryClean == "" {
		guidance := "Please ask a crop-related question. Example:\n" +
			"- 'How to improve my rice yield?'\n" +
			"- 'What fertilizer should I use for tomatoes?'"
		return a.respondAndRecord("No query provided", guidance, imagePath)
	}

	prompt := fmt.Sprintf(`You are AgriGPT, a crop management specialist.

The farmer asks:
"%s"

Provide clear, simple, farmer-friendly advice. Must include:
- Fertilizer type and dosage
- Soil preparation tips
- Growth-stage guidance or yield improvement tips
- Specific actionable steps, not theory

Keep it short, practical, and supportive.`, queryClean)

	response := a.text.Complete(ctx, prompt, "You are AgriGPT.")
	return a.respondAndRecord(queryClean, response, imagePath)
}
