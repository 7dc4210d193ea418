package observer

import "go.opentelemetry.io/otel/attribute"

// Attribute keys for pipeline observability spans and metrics.
var (
	AttrLLMModel    = attribute.Key("llm.model")
	AttrLLMProvider = attribute.Key("llm.provider")
	AttrLLMMethod   = attribute.Key("llm.method")

	AttrTokensInput  = attribute.Key("llm.tokens.input")
	AttrTokensOutput = attribute.Key("llm.tokens.output")
	AttrCostUSD      = attribute.Key("llm.cost_usd")

	AttrEmbedTextCount  = attribute.Key("llm.embed.text_count")
	AttrEmbedDimensions = attribute.Key("llm.embed.dimensions")

	// Agent role (Modeler/Coder/Visualizer) attributes.
	AttrAgentType   = attribute.Key("agent.type")
	AttrAgentStatus = attribute.Key("agent.status")

	// Job identity, shared across agent and sandbox spans.
	AttrJobID = attribute.Key("job.id")
	AttrStage = attribute.Key("job.stage")

	// Sandbox execution attributes.
	AttrSandboxImage      = attribute.Key("sandbox.image")
	AttrSandboxExitCode   = attribute.Key("sandbox.exit_code")
	AttrSandboxStatus     = attribute.Key("sandbox.status")
	AttrSandboxFileCount  = attribute.Key("sandbox.file_count")

	// Broker queue attributes.
	AttrQueueName = attribute.Key("broker.queue")
)
