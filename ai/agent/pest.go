package agent

import (
	"context"
	"fmt"
	"strings"
)

// PestAgentName is the registry name for the pest and disease specialist.
const PestAgentName = "PestAgent"

// PestAgent handles both image-based and text-based pest/disease diagnosis.
//
// When an image is present it takes absolute priority: any accompanying text
// is ignored for diagnosis purposes. The orchestrator already routes the text
// portion of a multimodal request to the other specialists, so running a text
// diagnosis here as well would produce a duplicate pest answer.
type PestAgent struct {
	recorder
	text   TextCompleter
	vision VisionCompleter
}

// NewPestAgent creates the pest and disease specialist.
func NewPestAgent(text TextCompleter, vision VisionCompleter, log LogSink) *PestAgent {
	return &PestAgent{
		recorder: recorder{agentName: PestAgentName, log: log},
		text:     text,
		vision:   vision,
	}
}

// Name implements Agent.
func (a *PestAgent) Name() string { return PestAgentName }

// HandleQuery diagnoses from the image when one is present, falls back to
// text diagnosis otherwise, and prompts for input when neither is given.
func (a *PestAgent) HandleQuery(ctx context.Context, query, imagePath string) string {
	queryClean := strings.TrimSpace(query)

	if queryClean == "" && imagePath == "" {
		msg := "Please upload a crop image or describe symptoms like yellow leaves, " +
			"white powder, brown patches, insects, or wilting."
		return a.respondAndRecord("No input provided", msg, imagePath)
	}

	if imagePath != "" {
		visionPrompt := `You are AgriGPT Vision, a crop pest and disease detection expert.

Analyze this crop image and return:

1. Likely problem/pest/disease name
2. Key visual symptoms visible in the photo
3. Organic control options (neem, soap, traps, pruning, etc.)
4. Chemical control as a last resort, category name only
5. Preventive steps for next season

Use simple language, bullet points, and short sentences.`

		result := a.vision.CompleteWithImage(ctx, imagePath, visionPrompt)
		return a.respondAndRecord("Image-based pest analysis", result, imagePath)
	}

	textPrompt := fmt.Sprintf(`You are AgriGPT Pest Advisor.

The farmer described:
"%s"

Provide:
- Most likely pest, disease, or deficiency
- Confirming symptoms
- Organic treatments (neem, soap, pruning, traps, bio-control)
- Chemical treatment, category only, with caution
- Prevention tips

Use bullet points and simple language.`, queryClean)

	result := a.text.Complete(ctx, textPrompt, "You are AgriGPT.")
	return a.respondAndRecord(queryClean, result, imagePath)
}
