package orpipe

import "context"

// Provider abstracts the LLM backend shared by the three agent roles.
// There is no streaming, tool-calling, or multimodal support in this
// domain: each role sends a prompt chain and waits for the full text.
type Provider interface {
	// Chat sends a request and returns a complete response.
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
	// Name returns the provider name (e.g. "openai", "openrouter").
	Name() string
}

// EmbeddingProvider abstracts text embedding, used only by the Modeler's
// optional retrieval path.
type EmbeddingProvider interface {
	// Embed returns embedding vectors for the given texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions returns the embedding vector size.
	Dimensions() int
	// Name returns the provider name.
	Name() string
}
