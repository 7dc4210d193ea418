package agentroles

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/orpipe/orpipe"
	"github.com/orpipe/orpipe/internal/markdown"
	"github.com/orpipe/orpipe/internal/promptchain"
)

const visualizationSystemTemplate = `Jesteś ekspertem od analizy i wizualizacji danych i biblioteki Matplotlib.
Twoim zadaniem jest napisać kod Python, który na podstawie WYNIKÓW z solwera
wygeneruje pliki PNG z wykresami.

Zasady:
1. Przeanalizuj dostarczone WYNIKI URUCHOMIENIA KODU i wyciągnij kluczowe
   liczby i nazwy zmiennych.
2. Wybierz najlepszy typ wykresu.
3. Użyj biblioteki matplotlib.pyplot.
4. Kod MUSI zapisywać KAŻDY wykres BEZPOŚREDNIO do /output/nazwa_pliku.png
   (bez subdirectoriów).
5. NIE używaj plt.show().
6. Podpisz osie i dodaj tytuł na podstawie KONTEKSTU PROBLEMU.
7. Na koniec wypisz na stdout: "GENERATED_FILES: file1.png,file2.png".

Zwróć TYLKO kod źródłowy Python, bez bloków markdown.`

const reportSystemTemplate = `Jesteś ekspertem od analizy wyników optymalizacyjnych.
Twoim zadaniem jest napisać profesjonalne podsumowanie wyników w markdown,
wskazując gdzie umieścić wykresy.

Zasady:
1. Napisz podsumowanie wyników problemu optymalizacyjnego.
2. Zaznacz gdzie powinny się znaleźć wykresy linią "[FILE: filename.png]"
   (TYLKO nazwa pliku, bez ścieżek).
3. Formatuj jako markdown z sekcjami i podsekcjami.
4. Bądź konkretny - opisz co przedstawia każdy wykres.`

// SandboxClient is the seam the Visualizer uses to run solver/viz code,
// implemented by internal/sandboxrpc.Client in production.
type SandboxClient interface {
	Submit(ctx context.Context, jobID, code string) (orpipe.SandboxResultMessage, error)
}

// Visualizer orchestrates a solver run, a visualization-code generation
// call, a sandboxed run of that code, and a final report generation call,
// per spec.md §4.6's S0-S5 state machine.
type Visualizer struct {
	Provider orpipe.Provider
	Sandbox  SandboxClient
	Model    string
}

// Run implements agentregistry.Role.
func (v *Visualizer) Run(rc orpipe.RoleContext) (any, error) {
	ctx := context.Background()

	var executionOutput string
	if rc.AcceptedCode != "" {
		out, err := v.runSolver(ctx, rc)
		if err != nil {
			return nil, err
		}
		executionOutput = out
	}

	vizCode, err := v.generateVisualizationCode(ctx, rc, executionOutput)
	if err != nil {
		return nil, err
	}

	stageID := orpipe.NewStageID(rc.JobID, "viz")
	sandboxOutput, files, err := v.runInSandbox(ctx, stageID, vizCode)
	if err != nil {
		return nil, err
	}

	report, err := v.generateReport(ctx, rc, executionOutput, sandboxOutput)
	if err != nil {
		return nil, err
	}

	if missing := markdown.ValidateFileMarkers(report, files); len(missing) > 0 {
		slog.Default().Warn("report references files that were not generated",
			"jobId", rc.JobID, "missing", missing)
	}

	return orpipe.VisualizationReportPayload{
		Type:              "visualization_report",
		Content:           report,
		GeneratedFiles:    files,
		VisualizationCode: vizCode,
		Engine:            v.Model,
	}, nil
}

// runSolver is S1: execute the accepted code in the sandbox to obtain the
// input data the visualization will plot.
func (v *Visualizer) runSolver(ctx context.Context, rc orpipe.RoleContext) (string, error) {
	stageID := orpipe.NewStageID(rc.JobID, "solver")
	stdout, _, err := v.runInSandbox(ctx, stageID, rc.AcceptedCode)
	if err != nil {
		return "", fmt.Errorf("solver code execution failed: %w", err)
	}
	return stdout, nil
}

// runInSandbox is the shared S1/S3 sandbox-call-and-unwrap step.
func (v *Visualizer) runInSandbox(ctx context.Context, jobID, code string) (stdout string, files map[string]string, err error) {
	result, err := v.Sandbox.Submit(ctx, jobID, code)
	if err != nil {
		return "", nil, err
	}
	if result.Status == orpipe.CodeFailed {
		return "", nil, fmt.Errorf("sandbox execution failed: %s", result.GeneratedCode.Stderr)
	}
	return result.GeneratedCode.Stdout, result.GeneratedCode.GeneratedFiles, nil
}

// generateVisualizationCode is S2. It uses the detailed template (solver
// output + context + instructions) when execution output is present, and a
// bare instruction template for follow-up requests whose results already
// live in the conversation history.
func (v *Visualizer) generateVisualizationCode(ctx context.Context, rc orpipe.RoleContext, executionOutput string) (string, error) {
	messages := []orpipe.ChatMessage{orpipe.SystemMessage(visualizationSystemTemplate)}

	if rc.AcceptedModel != "" {
		messages = append(messages, orpipe.UserMessage("Zaakceptowany model matematyczny:\n\n"+rc.AcceptedModel))
	}

	for _, turn := range rc.ConversationHistory {
		switch turn.Role {
		case "user":
			messages = append(messages, orpipe.UserMessage(turn.Content))
		case "assistant":
			messages = append(messages, orpipe.AssistantMessage(turn.Content))
		}
	}

	var userMsg string
	if executionOutput != "" {
		userMsg = fmt.Sprintf(
			"=== KONTEKST PROBLEMU (do etykiet i tytułów) ===\n%s\n\n=== WYNIKI URUCHOMIENIA KODU (dane do wykresów) ===\n%s\n\n=== POLECENIA UŻYTKOWNIKA ===\n%s",
			rc.Context, executionOutput, rc.Prompt,
		)
	} else {
		userMsg = rc.Prompt
	}
	messages = append(messages, orpipe.UserMessage(userMsg))

	resp, err := v.Provider.Chat(ctx, orpipe.ChatRequest{Messages: messages})
	if err != nil {
		return "", err
	}
	return promptchain.CleanCodeFences(resp.Content), nil
}

// generateReport is S4.
func (v *Visualizer) generateReport(ctx context.Context, rc orpipe.RoleContext, executionOutput, sandboxOutput string) (string, error) {
	messages := []orpipe.ChatMessage{orpipe.SystemMessage(reportSystemTemplate)}

	if rc.AcceptedModel != "" {
		messages = append(messages, orpipe.UserMessage("Model matematyczny:\n\n"+rc.AcceptedModel))
	}

	messages = append(messages, orpipe.UserMessage(fmt.Sprintf(
		"Wyniki z solwera:\n%s\n\nWygenerowane pliki:\n%s\n\nInstrukcje użytkownika:\n%s\n\nWygeneruj podsumowanie wyników z wskazówkami gdzie umieścić wykresy.",
		executionOutput, sandboxOutput, rc.Prompt,
	)))

	resp, err := v.Provider.Chat(ctx, orpipe.ChatRequest{Messages: messages})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
