// Package orpipe is the shared core of a two-tier operations-research task
// pipeline: an Agent Worker and a Sandbox Worker, connected only by a
// durable message broker.
//
// The Agent Worker consumes Task Messages, dispatches them to one of three
// fixed agent roles (Modeler, Coder, Visualizer), and publishes an Agent
// Result Message. The Sandbox Worker consumes Sandbox Job Messages, runs
// untrusted Python inside a network-disabled Docker container, and replies
// on the job's private response queue. Neither worker talks to the other
// directly; every message passes through the broker.
//
// # Core interfaces
//
// The root package defines the wire types and the seams each worker is
// built against:
//
//   - [Provider] — the LLM backend shared by all three agent roles
//   - [EmbeddingProvider] — text-to-vector embedding for the Modeler's
//     optional retrieval path
//   - [Tracer] / [Span] — observability seam, backed by observer.NewTracer
//
// # Implementations
//
// provider/openaicompat implements [Provider] against any OpenAI-compatible
// chat completions API. provider/gemini implements [EmbeddingProvider]
// against the Gemini embeddings endpoint. internal/sandbox implements
// container-based code execution over the Docker Engine API. internal/broker
// wraps RabbitMQ connection and queue setup. See cmd/agentworker and
// cmd/sandboxworker for the two executables.
package orpipe
