package agentroles

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/orpipe/orpipe"
	"github.com/orpipe/orpipe/internal/promptchain"
	"github.com/orpipe/orpipe/internal/retrieval"
	"github.com/orpipe/orpipe/internal/textextract"
)

const modelerSystemTemplate = `Jesteś ekspertem Badań Operacyjnych (Operations Research).
Twoim zadaniem jest sformułowanie modelu matematycznego.

Zasady Formatowania:
1. Używaj standardowego Markdown.
2. Każdy główny wzór matematyczny (funkcja celu, ograniczenia) MUSI być w osobnej
   linii, wyśrodkowany (blok $$ ... $$), oddzielony pustą linią od otaczającego
   tekstu.
3. NIE używaj wzorów inline ($ ... $) dla głównych równań, tylko dla małych
   symboli w opisach (np. x_i).
4. Nagłówki sekcji: ### . Opisy: listy punktowane.
5. NIE używaj bloku kodu ` + "```latex```" + `.

Bądź zwięzły, czytelny i profesjonalny. Jeśli dostarczono historię konwersacji,
weź ją pod uwagę, aby doprecyzować model.`

const modelerUserTemplate = `Sformułuj model matematyczny dla poniższego problemu.

=== MATERIAŁY REFERENCYJNE ===
%s
=============================================

OPIS PROBLEMU UŻYTKOWNIKA:
%s`

// Modeler formulates a mathematical model from the user's problem
// description, optionally grounded in attached reference files.
type Modeler struct {
	Provider            orpipe.Provider
	Embedding           orpipe.EmbeddingProvider
	Model               string
	ChunkThresholdChars int
}

// Run implements agentregistry.Role.
func (m *Modeler) Run(rc orpipe.RoleContext) (any, error) {
	ctx := context.Background()

	reference, err := m.buildReference(ctx, rc)
	if err != nil {
		return nil, err
	}

	userPrompt := fmt.Sprintf(modelerUserTemplate, reference, rc.Prompt)
	messages := promptchain.Build(modelerSystemTemplate, rc.AcceptedModel, "", rc.ConversationHistory, userPrompt)

	resp, err := m.Provider.Chat(ctx, orpipe.ChatRequest{Messages: messages})
	if err != nil {
		return nil, err
	}

	return orpipe.MathModelPayload{
		Type:    "math_model",
		Content: resp.Content,
		Engine:  m.Model,
	}, nil
}

// buildReference implements spec.md §4.6's two Modeler file sub-paths. Direct
// text extraction is always attempted for every attachment; the retrieval
// path additionally activates when more than one file is attached, or any
// single file's extracted text exceeds ChunkThresholdChars — a deterministic
// rule chosen over a hidden flag (see DESIGN.md).
func (m *Modeler) buildReference(ctx context.Context, rc orpipe.RoleContext) (string, error) {
	if len(rc.Files) == 0 {
		return "Brak załączonych dokumentów.", nil
	}

	var texts []string
	var exceedsThreshold bool
	for _, f := range rc.Files {
		raw, err := base64.StdEncoding.DecodeString(f.ContentBase64)
		if err != nil {
			continue
		}
		text, ok, err := textextract.Extract(f.Name, raw)
		if err != nil || !ok {
			continue
		}
		texts = append(texts, text)
		if m.ChunkThresholdChars > 0 && len(text) > m.ChunkThresholdChars {
			exceedsThreshold = true
		}
	}

	if len(texts) == 0 {
		return "Brak załączonych dokumentów.", nil
	}

	useRetrieval := len(rc.Files) > 1 || exceedsThreshold
	if !useRetrieval || m.Embedding == nil {
		return strings.Join(texts, "\n\n---\n\n"), nil
	}

	idx, err := retrieval.Build(ctx, m.Embedding, texts)
	if err != nil {
		return strings.Join(texts, "\n\n---\n\n"), nil
	}
	top, err := idx.TopK(ctx, m.Embedding, rc.Prompt, 5)
	if err != nil || len(top) == 0 {
		return strings.Join(texts, "\n\n---\n\n"), nil
	}
	return strings.Join(top, "\n\n---\n\n"), nil
}
