package agent

// Descriptor describes a routable agent for the routing LLM's system prompt.
type Descriptor struct {
	Name        string
	Description string
}

// routableDescriptors is the immutable, process-wide set of routing targets.
// The formatter is deliberately absent: it is a post-processing step.
var routableDescriptors = []Descriptor{
	{
		Name: CropAgentName,
		Description: "General crop management: fertilizer schedules, soil preparation, " +
			"planting techniques, growth stages, and best farming practices.",
	},
	{
		Name: PestAgentName,
		Description: "Pest and disease detection: insects, fungi, leaf spots, larvae, " +
			"and nutrient deficiency signals from text or images.",
	},
	{
		Name: IrrigationAgentName,
		Description: "Water management: irrigation intervals, soil moisture issues, " +
			"drip/sprinkler guidance, and water-saving methods.",
	},
	{
		Name: YieldAgentName,
		Description: "Yield optimization: diagnosing low productivity and suggesting " +
			"practical ways to increase harvest output.",
	},
	{
		Name: SubsidyAgentName,
		Description: "Government schemes: subsidies, loans, micro-irrigation programs, " +
			"PM-Kisan, machinery subsidies, and eligibility rules.",
	},
}

// Registry holds the agent set for one process. It is constructed once at
// startup and passed by reference into the orchestrator and route handlers;
// there is no ambient global lookup, which also makes substituting stub
// agents in tests straightforward.
type Registry struct {
	agents    map[string]Agent
	formatter Agent
}

// NewRegistry builds the full agent set. retriever may be nil when no scheme
// store is configured.
func NewRegistry(text TextCompleter, vision VisionCompleter, retriever SchemeRetriever, log LogSink) *Registry {
	agents := map[string]Agent{}
	for _, a := range []Agent{
		NewCropAgent(text, log),
		NewPestAgent(text, vision, log),
		NewIrrigationAgent(text, log),
		NewYieldAgent(text, log),
		NewSubsidyAgent(text, retriever, log),
	} {
		agents[a.Name()] = a
	}

	return &Registry{
		agents:    agents,
		formatter: NewFormatterAgent(text, log),
	}
}

// Get returns the routable agent with the given name.
func (r *Registry) Get(name string) (Agent, bool) {
	a, ok := r.agents[name]
	return a, ok
}

// Formatter returns the post-processing formatter agent.
func (r *Registry) Formatter() Agent {
	return r.formatter
}

// Descriptors returns the routable agent descriptors in a stable order.
func (r *Registry) Descriptors() []Descriptor {
	return routableDescriptors
}
