// Package agent implements the AgriGPT advisory specialists. Every agent
// shares one contract: build a domain prompt from the farmer's query,
// delegate to a completion service, and record the interaction before
// returning.
package agent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ASGawde/AgriGPT/ai/internal/strutil"
	"github.com/ASGawde/AgriGPT/store"
	"github.com/ASGawde/AgriGPT/store/interactionlog"
)

// Agent is the shared capability contract for all advisory specialists.
type Agent interface {
	// Name returns the registry name of the agent.
	Name() string

	// HandleQuery answers a farmer query. Either query or imagePath may be
	// empty; agents decide what they need. The result is always a string:
	// advice, guidance for missing input, or a degraded error message.
	HandleQuery(ctx context.Context, query, imagePath string) string
}

// TextCompleter is the text completion surface agents call.
type TextCompleter interface {
	Complete(ctx context.Context, prompt, systemMsg string) string
}

// VisionCompleter is the image completion surface the pest agent calls.
type VisionCompleter interface {
	CompleteWithImage(ctx context.Context, imagePath, prompt string) string
}

// SchemeRetriever is the retrieval collaborator surface the subsidy agent
// calls. Implementations may return an empty list or an error; both are
// non-fatal to the agent.
type SchemeRetriever interface {
	Search(ctx context.Context, cleanedQuery string, topK int) ([]*store.SubsidyScheme, error)
}

// LogSink receives interaction records. Append errors are swallowed at the
// recorder boundary.
type LogSink interface {
	Append(entry interactionlog.Entry) error
}

// Modality classifies an interaction by the inputs present.
type Modality string

const (
	ModalityText       Modality = "text"
	ModalityImage      Modality = "image"
	ModalityMultimodal Modality = "multimodal"
)

// DetectModality classifies a request: multimodal when both a non-blank
// query and an image are present, image when only an image is present, text
// otherwise.
func DetectModality(query, imagePath string) Modality {
	normalized := strings.TrimSpace(query)
	switch {
	case normalized != "" && imagePath != "":
		return ModalityMultimodal
	case imagePath != "":
		return ModalityImage
	default:
		return ModalityText
	}
}

// responseLogCap bounds the stored response length so runaway model output
// cannot bloat the log.
const responseLogCap = 5000

// recorder is the shared record-and-return step embedded in every agent.
// This is the single place where logging failures are caught and swallowed.
type recorder struct {
	agentName string
	log       LogSink
}

// respondAndRecord appends an interaction entry (best effort) and returns the
// response text unchanged.
func (r recorder) respondAndRecord(query, response, imagePath string) string {
	if r.log != nil {
		entry := interactionlog.Entry{
			Agent:     r.agentName,
			Query:     query,
			Response:  strutil.CapRunes(response, responseLogCap),
			Modality:  string(DetectModality(query, imagePath)),
			ImagePath: imagePath,
		}
		if err := r.log.Append(entry); err != nil {
			// Logging must never break the answer to the farmer.
			slog.Warn("agent: interaction logging failed",
				"agent", r.agentName,
				"error", err)
		}
	}
	return response
}
