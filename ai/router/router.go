// Package router implements the AgriGPT orchestrator: it decides which
// advisory agents handle a request, fans out the calls, merges their
// outputs, and drives the formatter so every request yields exactly one
// polished answer.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/ASGawde/AgriGPT/ai/agent"
	"github.com/ASGawde/AgriGPT/ai/metrics"
)

// DefaultQueryCeiling is the maximum accepted query length in characters.
const DefaultQueryCeiling = 4000

// mergeSeparator joins multiple agent outputs into one visible block.
const mergeSeparator = "\n\n---\n\n"

const (
	noInputMessage       = "Please provide a text query or image."
	noAdditionalAdvice   = "(No additional advice was generated.)"
	oversizeQueryMessage = "Your question is too long. Please shorten it to under %d characters and try again."
)

// AgentRegistry is the agent lookup surface the router needs.
type AgentRegistry interface {
	Get(name string) (agent.Agent, bool)
	Formatter() agent.Agent
	Descriptors() []agent.Descriptor
}

// SelectionLLM is the single-shot chat surface used by the agent-selection
// sub-protocol.
type SelectionLLM interface {
	Chat(ctx context.Context, systemMsg, userMsg string) (string, error)
}

// TextCompleter produces the fused narrative for multimodal requests.
type TextCompleter interface {
	Complete(ctx context.Context, prompt, systemMsg string) string
}

// Router routes farmer requests to advisory agents.
type Router struct {
	registry AgentRegistry
	selector SelectionLLM
	text     TextCompleter
	metrics  *metrics.Exporter

	queryCeiling  int
	fallbackAgent string
}

// Option configures a Router.
type Option func(*Router)

// WithQueryCeiling overrides the maximum query length.
func WithQueryCeiling(n int) Option {
	return func(r *Router) { r.queryCeiling = n }
}

// WithMetrics attaches a metrics exporter.
func WithMetrics(m *metrics.Exporter) Option {
	return func(r *Router) { r.metrics = m }
}

// New creates a Router over the given agent registry. selector drives agent
// selection and text fuses multimodal outputs.
func New(registry AgentRegistry, selector SelectionLLM, text TextCompleter, opts ...Option) *Router {
	r := &Router{
		registry:      registry,
		selector:      selector,
		text:          text,
		queryCeiling:  DefaultQueryCeiling,
		fallbackAgent: agent.CropAgentName,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RouteQuery answers a farmer request built from a text query and/or an
// image path, either of which may be empty. The result is always a
// user-facing string; upstream failures surface as degraded message text,
// never as an error.
func (r *Router) RouteQuery(ctx context.Context, query, imagePath string) string {
	queryClean := strings.TrimSpace(query)

	if utf8.RuneCountInString(queryClean) > r.queryCeiling {
		return fmt.Sprintf(oversizeQueryMessage, r.queryCeiling)
	}

	switch {
	case queryClean != "" && imagePath != "":
		return r.routeMultimodal(ctx, queryClean, imagePath)
	case imagePath != "":
		return r.routeImageOnly(ctx, imagePath)
	case queryClean == "":
		return noInputMessage
	default:
		return r.routeText(ctx, queryClean)
	}
}

// routeMultimodal handles requests carrying both a query and an image: the
// pest agent always sees the image, additional text agents come from the
// selection sub-protocol, and a single synthesis call fuses everything
// before the one formatter pass.
func (r *Router) routeMultimodal(ctx context.Context, query, imagePath string) string {
	pestOutput := r.invoke(ctx, agent.PestAgentName, query, imagePath, agent.ModalityMultimodal)

	sel := r.selectAgents(ctx, query)
	slog.Info("router: multimodal selection", "agents", sel.Agents, "reason", sel.Reason)

	var outputs []string
	for _, name := range sel.Agents {
		if name == agent.PestAgentName {
			continue
		}
		outputs = append(outputs, r.invoke(ctx, name, query, "", agent.ModalityText))
	}
	merged := strings.Join(outputs, mergeSeparator)
	if strings.TrimSpace(merged) == "" {
		merged = noAdditionalAdvice
	}

	fused := r.text.Complete(ctx, synthesisPrompt(query, pestOutput, merged),
		"You are AgriGPT, a multimodal agriculture expert.")

	return r.format(ctx, fused)
}

func (r *Router) routeImageOnly(ctx context.Context, imagePath string) string {
	diagnosis := r.invoke(ctx, agent.PestAgentName, "", imagePath, agent.ModalityImage)
	return r.format(ctx, diagnosis)
}

// routeText runs the selection sub-protocol, fans the query out to every
// selected agent, and appends the routing rationale to the formatted merge.
func (r *Router) routeText(ctx context.Context, query string) string {
	sel := r.selectAgents(ctx, query)
	slog.Info("router: text selection", "agents", sel.Agents, "reason", sel.Reason)

	var outputs []string
	for _, name := range sel.Agents {
		outputs = append(outputs, r.invoke(ctx, name, query, "", agent.ModalityText))
	}
	merged := strings.Join(outputs, mergeSeparator)

	final := r.format(ctx, merged)
	if sel.Reason != "" {
		final += fmt.Sprintf("\n\n_(Routed to %s because: %s)_",
			strings.Join(sel.Agents, ", "), sel.Reason)
	}
	return final
}

// invoke calls one agent by name and counts the invocation. Unknown names
// yield an empty string; selection filtering makes that unreachable in
// practice.
func (r *Router) invoke(ctx context.Context, name, query, imagePath string, modality agent.Modality) string {
	a, ok := r.registry.Get(name)
	if !ok {
		slog.Warn("router: unknown agent requested", "agent", name)
		return ""
	}
	r.metrics.RecordAgentInvocation(name, string(modality))
	return a.HandleQuery(ctx, query, imagePath)
}

// format runs the single formatter pass that ends every non-terminal route.
func (r *Router) format(ctx context.Context, text string) string {
	r.metrics.RecordAgentInvocation(agent.FormatterAgentName, string(agent.ModalityText))
	return r.registry.Formatter().HandleQuery(ctx, text, "")
}

func synthesisPrompt(query, pestOutput, merged string) string {
	return fmt.Sprintf(`Farmer question:
%q

Image-based diagnosis:
%s

Expert text guidance:
%s

Combine everything into ONE clean, simple, farmer-friendly answer.
Use bullet points and short sentences.`, query, pestOutput, merged)
}
