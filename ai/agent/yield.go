package agent

import (
	"context"
	"fmt"
	"strings"
)

// YieldAgentName is the registry name for the yield optimization specialist.
const YieldAgentName = "YieldAgent"

// YieldAgent diagnoses low-yield causes and suggests step-by-step
// improvement actions.
type YieldAgent struct {
	recorder
	text TextCompleter
}

// NewYieldAgent creates the yield optimization specialist.
func NewYieldAgent(text TextCompleter, log LogSink) *YieldAgent {
	return &YieldAgent{
		recorder: recorder{agentName: YieldAgentName, log: log},
		text:     text,
	}
}

// Name implements Agent.
func (a *YieldAgent) Name() string { return YieldAgentName }

// HandleQuery answers yield-related text questions. Image input is ignored
// for this agent.
func (a *YieldAgent) HandleQuery(ctx context.Context, query, imagePath string) string {
	queryClean := strings.TrimSpace(query)
	if queryClean == "" {
		guidance := "Please describe your crop and the yield problem. Examples:\n" +
			"- 'My rice yield is low this season'\n" +
			"- 'Maize only giving 2 tons per hectare'\n" +
			"- 'Tomato plants giving fewer fruits'"
		return a.respondAndRecord("No query provided", guidance, imagePath)
	}

	prompt := fmt.Sprintf(`You are AgriGPT, a specialist in crop yield improvement.

The farmer asked:
"%s"

Provide a clear, simple explanation including:

1. Expected yield range: typical yield for that crop (approximate).
2. Causes of low yield, covering:
   - Soil quality or nutrient imbalance
   - Fertilizer gaps (wrong type, timing, under-application)
   - Water stress (too little or too much)
   - Pest or disease pressure
   - Seed variety issues
   - Weather or planting time
3. Actionable yield improvement steps:
   - Stage-wise fertilizer schedule
   - Irrigation intervals
   - Soil improvement tips
   - Pest and disease prevention
   - Seed or variety recommendations

Use short sentences, bullet points, and no technical jargon.`, queryClean)

	response := a.text.Complete(ctx, prompt, "You are AgriGPT.")
	return a.respondAndRecord(queryClean, response, imagePath)
}
