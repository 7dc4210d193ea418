package openaicompat

import "github.com/orpipe/orpipe"

// BuildBody converts orpipe ChatMessages and a model name into an
// OpenAI-format ChatRequest. System, user, and assistant messages are
// carried through unchanged; there is no tool-calling or multimodal content
// in this domain.
func BuildBody(messages []orpipe.ChatMessage, model string, opts ...Option) ChatRequest {
	msgs := make([]Message, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, Message{Role: m.Role, Content: m.Content})
	}

	req := ChatRequest{
		Model:    model,
		Messages: msgs,
	}

	for _, opt := range opts {
		opt(&req)
	}

	return req
}
