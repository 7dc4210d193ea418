package openaicompat

import "github.com/orpipe/orpipe"

// ParseResponse converts an OpenAI-format ChatResponse to an orpipe
// ChatResponse. It extracts content from choices[0] and token counts from
// the response's top-level usage field.
func ParseResponse(resp ChatResponse) (orpipe.ChatResponse, error) {
	var out orpipe.ChatResponse

	if len(resp.Choices) == 0 {
		return out, nil
	}

	choice := resp.Choices[0]
	if choice.Message != nil {
		out.Content = choice.Message.Content
	}

	if resp.Usage != nil {
		out.Usage = orpipe.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		}
	}

	return out, nil
}
