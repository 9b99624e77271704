package agent

import (
	"context"
	"fmt"
	"strings"
)

// IrrigationAgentName is the registry name for the water management
// specialist.
const IrrigationAgentName = "IrrigationAgent"

// IrrigationAgent advises on watering intervals, soil moisture, and
// drip/sprinkler operation.
type IrrigationAgent struct {
	recorder
	text TextCompleter
}

// NewIrrigationAgent creates the irrigation specialist.
func NewIrrigationAgent(text TextCompleter, log LogSink) *IrrigationAgent {
	return &IrrigationAgent{
		recorder: recorder{agentName: IrrigationAgentName, log: log},
		text:     text,
	}
}

// Name implements Agent.
func (a *IrrigationAgent) Name() string { return IrrigationAgentName }

// HandleQuery answers irrigation-related text questions. Image input is
// ignored for this agent.
func (a *IrrigationAgent) HandleQuery(ctx context.Context, query, imagePath string) string {
	queryClean := strings.TrimSpace(query)
	if queryClean == "" {
		guidance := "Please ask an irrigation-related question such as:\n" +
			"- 'How often should I irrigate onions?'\n" +
			"- 'How to save water in drip irrigation?'\n" +
			"- 'How to adjust irrigation during summer?'"
		return a.respondAndRecord("No query provided", guidance, imagePath)
	}

	prompt := fmt.Sprintf(`You are AgriGPT, an irrigation expert.

The farmer asked:
"%s"

Provide clear irrigation guidance covering:
- Correct watering intervals (daily / weekly / stage-based)
- Soil moisture management: how to check and maintain it
- Drip, sprinkler, and flood irrigation best practices
- Water-saving techniques (mulching, scheduling, pressure control)
- How to adjust irrigation during rainfall or extreme heat
- Soil-type adjustments (sandy, clay, loam)

Use short sentences, bullet points, and a very simple farmer-friendly tone.`, queryClean)

	response := a.text.Complete(ctx, prompt, "You are AgriGPT.")
	return a.respondAndRecord(queryClean, response, imagePath)
}
