package agentroles

import (
	"context"

	"github.com/orpipe/orpipe"
	"github.com/orpipe/orpipe/internal/promptchain"
)

const coderSystemTemplate = `Jesteś ekspertem programistą Python i Badań Operacyjnych.
Twój cel: napisać kompletny, wykonywalny kod w Pythonie, który rozwiązuje podany
model matematyczny.

Użyj biblioteki 'pulp' lub 'ortools'. Kod musi:
1. Definiować zmienne.
2. Definiować funkcję celu.
3. Definiować ograniczenia.
4. Rozwiązywać problem (solver).
5. Wypisywać wynik na standardowe wyjście (print).

Zwróć TYLKO kod źródłowy, bez bloków markdown, czysty tekst gotowy do zapisu w
pliku .py. Jeśli dostarczono historię konwersacji, weź ją pod uwagę.`

// Coder turns an accepted math model into executable Python.
type Coder struct {
	Provider orpipe.Provider
	Model    string
}

// Run implements agentregistry.Role.
func (c *Coder) Run(rc orpipe.RoleContext) (any, error) {
	ctx := context.Background()

	messages := promptchain.Build(coderSystemTemplate, rc.AcceptedModel, "", rc.ConversationHistory, rc.Prompt)

	resp, err := c.Provider.Chat(ctx, orpipe.ChatRequest{Messages: messages})
	if err != nil {
		return nil, err
	}

	return orpipe.PythonCodePayload{
		Type:    "python_code",
		Content: promptchain.CleanCodeFences(resp.Content),
		Engine:  c.Model,
	}, nil
}
