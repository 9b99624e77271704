package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ASGawde/AgriGPT/ai/internal/strutil"
)

// SubsidyAgentName is the registry name for the government scheme specialist.
const SubsidyAgentName = "SubsidyAgent"

// subsidyTopK is how many retrieved scheme records are merged into the
// prompt context.
const subsidyTopK = 3

// SubsidyAgent answers questions about government schemes, subsidies, and
// farm credit. It merges retrieved official scheme records into its prompt
// when the retrieval collaborator returns matches; a retrieval failure
// degrades gracefully to general-knowledge prompting.
type SubsidyAgent struct {
	recorder
	text      TextCompleter
	retriever SchemeRetriever
}

// NewSubsidyAgent creates the subsidy specialist. retriever may be nil when
// no scheme store is configured.
func NewSubsidyAgent(text TextCompleter, retriever SchemeRetriever, log LogSink) *SubsidyAgent {
	return &SubsidyAgent{
		recorder:  recorder{agentName: SubsidyAgentName, log: log},
		text:      text,
		retriever: retriever,
	}
}

// Name implements Agent.
func (a *SubsidyAgent) Name() string { return SubsidyAgentName }

// HandleQuery answers subsidy-related text questions. The query is
// Unicode-normalized and stripped of control characters first because it
// also feeds the similarity search. Image input is ignored for this agent.
func (a *SubsidyAgent) HandleQuery(ctx context.Context, query, imagePath string) string {
	if strings.TrimSpace(query) == "" {
		guidance := "Please ask about a specific subsidy or government scheme, for example:\n" +
			"- 'Drip irrigation subsidy in Tamil Nadu'\n" +
			"- 'PM-Kisan eligibility'\n" +
			"- 'Kisan Credit Card loan details'\n" +
			"- 'Fertilizer subsidy amount'"
		return a.respondAndRecord("No query provided", guidance, imagePath)
	}

	queryClean := strutil.Sanitize(query)
	contextBlock := a.buildRetrievalContext(ctx, queryClean)

	prompt := fmt.Sprintf(`You are AgriGPT, an expert on Indian agricultural subsidy and scheme information.

The farmer asked:
"%s"
%s
If the retrieved official information matches the question, use it as the
primary source. If it is incomplete, rely on general knowledge without
quoting exact amounts.

Provide:
1. Scheme name
2. Central or State government
3. Eligibility
4. Financial benefits
5. Application process
6. Important notes

Use bullet points, clear simple language, and short sentences.`, queryClean, contextBlock)

	result := a.text.Complete(ctx, prompt, "You are AgriGPT.")
	return a.respondAndRecord(queryClean, result, imagePath)
}

// buildRetrievalContext queries the scheme store and formats matches for the
// prompt. Failures are reported inline and never abort the agent.
func (a *SubsidyAgent) buildRetrievalContext(ctx context.Context, queryClean string) string {
	if a.retriever == nil {
		return "\n(No official scheme database is configured.)\n"
	}

	schemes, err := a.retriever.Search(ctx, queryClean, subsidyTopK)
	if err != nil {
		slog.Warn("subsidy agent: scheme retrieval failed, continuing without context",
			"error", err)
		return "\n(Official scheme lookup is temporarily unavailable; answering from general knowledge.)\n"
	}
	if len(schemes) == 0 {
		return "\n(No matching official scheme found in the database.)\n"
	}

	var sb strings.Builder
	sb.WriteString("\nRetrieved official information:\n")
	for i, scheme := range schemes {
		sb.WriteString(fmt.Sprintf("Scheme %d: %s\n", i+1, scheme.SchemeName))
		sb.WriteString(fmt.Sprintf("- Eligibility: %s\n", scheme.Eligibility))
		sb.WriteString(fmt.Sprintf("- Benefits: %s\n", scheme.Benefits))
		sb.WriteString(fmt.Sprintf("- Application: %s\n", scheme.ApplicationSteps))
		sb.WriteString(fmt.Sprintf("- Documents: %s\n", scheme.Documents))
		sb.WriteString(fmt.Sprintf("- Notes: %s\n\n", scheme.Notes))
	}
	return sb.String()
}
