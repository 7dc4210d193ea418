// Package promptchain builds the []orpipe.ChatMessage handed to a Provider
// and cleans markdown fences out of its responses. It composes the fixed
// message order the Modeler and Coder roles use (the Visualizer assembles
// its own messages): system template, accepted-model/accepted-code labels,
// conversation history, final prompt.
package promptchain

import "github.com/orpipe/orpipe"

// acceptedModelLabel and acceptedCodeLabel are fixed string content, treated
// as opaque by every caller — the external LLM has been prompted around
// this exact wording.
const (
	acceptedModelLabel = "Zaakceptowany model matematyczny:\n\n"
	acceptedCodeLabel  = "Zaakceptowany kod do implementacji:\n\n"
)

// Build composes the canonical message list: system template, optional
// accepted-model/accepted-code labeled turns, the conversation history
// (unknown roles dropped silently), and a final user message carrying
// finalPrompt.
func Build(systemTemplate string, acceptedModel, acceptedCode string, history []orpipe.ConversationTurn, finalPrompt string) []orpipe.ChatMessage {
	messages := []orpipe.ChatMessage{orpipe.SystemMessage(systemTemplate)}

	if acceptedModel != "" {
		messages = append(messages, orpipe.UserMessage(acceptedModelLabel+acceptedModel))
	}
	if acceptedCode != "" {
		messages = append(messages, orpipe.UserMessage(acceptedCodeLabel+acceptedCode))
	}

	for _, turn := range history {
		switch turn.Role {
		case "user":
			messages = append(messages, orpipe.UserMessage(turn.Content))
		case "assistant":
			messages = append(messages, orpipe.AssistantMessage(turn.Content))
		}
	}

	messages = append(messages, orpipe.UserMessage(finalPrompt))
	return messages
}
