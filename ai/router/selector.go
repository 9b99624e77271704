package router

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// selection is the outcome of the agent-selection sub-protocol. Agents is
// never empty: every failure path collapses to the general-purpose crop
// agent so the farmer still gets an answer.
type selection struct {
	Agents []string
	Reason string
}

const (
	fallbackReasonParse   = "routing parse failure"
	fallbackReasonNoValid = "no valid agents selected"
)

// selectAgents asks the routing LLM which agents apply to the query and
// parses the answer defensively. It never returns an error; misbehaving
// routing output degrades to a crop-only selection with a reason string.
func (r *Router) selectAgents(ctx context.Context, query string) selection {
	raw, err := r.selector.Chat(ctx, r.selectorSystemPrompt(), query)
	if err != nil {
		slog.Warn("router: selection call failed", "error", err)
		return r.fallbackSelection(fmt.Sprintf("routing call failed: %v", err))
	}

	sel, err := parseSelection(raw)
	if err != nil {
		slog.Warn("router: selection output unparseable", "raw", raw, "error", err)
		return r.fallbackSelection(fallbackReasonParse)
	}

	sel.Agents = r.filterKnown(sel.Agents)
	if len(sel.Agents) == 0 {
		return r.fallbackSelection(fallbackReasonNoValid)
	}
	return sel
}

func (r *Router) fallbackSelection(reason string) selection {
	r.metrics.RecordRoutingFallback()
	return selection{Agents: []string{r.fallbackAgent}, Reason: reason}
}

// filterKnown drops unknown agent names and duplicates, preserving order.
func (r *Router) filterKnown(names []string) []string {
	seen := map[string]bool{}
	var kept []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if _, ok := r.registry.Get(name); !ok || seen[name] {
			continue
		}
		seen[name] = true
		kept = append(kept, name)
	}
	return kept
}

// selectorSystemPrompt lists every routable agent with its capability
// description and demands a strict JSON object in return.
func (r *Router) selectorSystemPrompt() string {
	var b strings.Builder
	b.WriteString("You are AgriGPT Router.\n\n")
	b.WriteString("Analyze the farmer query and select ALL relevant agents from this list:\n")
	for _, d := range r.registry.Descriptors() {
		fmt.Fprintf(&b, "- %s: %s\n", d.Name, d.Description)
	}
	b.WriteString("\nReturn ONLY a JSON object, no prose:\n")
	b.WriteString("{\"agents\": [\"Agent1\", \"Agent2\"], \"reason\": \"short explanation\"}\n")
	b.WriteString("\nIf unsure, include CropAgent.\n")
	return b.String()
}

// parseSelection decodes the routing LLM's reply. Models wrap JSON in
// markdown fences or return agents as a bare string often enough that both
// shapes are accepted.
func parseSelection(raw string) (selection, error) {
	cleaned := stripFences(strings.TrimSpace(raw))

	var payload struct {
		Agents json.RawMessage `json:"agents"`
		Reason string          `json:"reason"`
	}
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return selection{}, err
	}

	sel := selection{Reason: strings.TrimSpace(payload.Reason)}
	if len(payload.Agents) == 0 {
		return sel, nil
	}

	if err := json.Unmarshal(payload.Agents, &sel.Agents); err != nil {
		// Coerce a bare string into a one-element list.
		var single string
		if err2 := json.Unmarshal(payload.Agents, &single); err2 != nil {
			return selection{}, err
		}
		sel.Agents = []string{single}
	}
	return sel, nil
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 && !strings.HasPrefix(s, "{") {
		// Drop the language tag line, e.g. "json".
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
