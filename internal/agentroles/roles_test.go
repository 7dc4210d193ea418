package agentroles

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/orpipe/orpipe"
)

type fakeProvider struct {
	responses []string
	calls     int
	err       error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Chat(ctx context.Context, req orpipe.ChatRequest) (orpipe.ChatResponse, error) {
	if f.err != nil {
		return orpipe.ChatResponse{}, f.err
	}
	if f.calls >= len(f.responses) {
		return orpipe.ChatResponse{}, errors.New("no more canned responses")
	}
	resp := f.responses[f.calls]
	f.calls++
	return orpipe.ChatResponse{Content: resp}, nil
}

type fakeSandbox struct {
	results map[string]orpipe.SandboxResultMessage
}

func (f *fakeSandbox) Submit(ctx context.Context, jobID, code string) (orpipe.SandboxResultMessage, error) {
	for prefix, result := range f.results {
		if strings.HasPrefix(jobID, prefix) {
			return result, nil
		}
	}
	return orpipe.SandboxResultMessage{}, errors.New("no stub for job " + jobID)
}

func TestModeler_Run_NoFiles(t *testing.T) {
	m := &Modeler{Provider: &fakeProvider{responses: []string{"### Model\n\n$$ x + y $$"}}, Model: "test-model"}

	out, err := m.Run(orpipe.RoleContext{JobID: "job1", Prompt: "maximize profit"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	payload, ok := out.(orpipe.MathModelPayload)
	if !ok {
		t.Fatalf("unexpected payload type: %T", out)
	}
	if payload.Type != "math_model" || payload.Engine != "test-model" {
		t.Errorf("unexpected payload: %+v", payload)
	}
}

func TestCoder_Run_CleansCodeFences(t *testing.T) {
	c := &Coder{Provider: &fakeProvider{responses: []string{"```python\nprint('x')\n```"}}, Model: "test-model"}

	out, err := c.Run(orpipe.RoleContext{JobID: "job1", Prompt: "implement the model"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	payload := out.(orpipe.PythonCodePayload)
	if payload.Content != "print('x')" {
		t.Errorf("expected cleaned code, got %q", payload.Content)
	}
}

func TestVisualizer_Run_WithAcceptedCode(t *testing.T) {
	sandbox := &fakeSandbox{results: map[string]orpipe.SandboxResultMessage{
		"job1_solver_": {
			JobID:  "job1_solver_x",
			Status: orpipe.CodeExecuted,
			GeneratedCode: orpipe.GeneratedCode{Stdout: "optimal=42"},
		},
		"job1_viz_": {
			JobID:  "job1_viz_x",
			Status: orpipe.CodeExecuted,
			GeneratedCode: orpipe.GeneratedCode{
				Stdout:         "GENERATED_FILES: chart.png",
				GeneratedFiles: map[string]string{"chart.png": "aGVsbG8="},
			},
		},
	}}
	provider := &fakeProvider{responses: []string{
		"```python\nimport matplotlib\n```",
		"# Report\n[FILE: chart.png]",
	}}

	v := &Visualizer{Provider: provider, Sandbox: sandbox, Model: "test-model"}
	out, err := v.Run(orpipe.RoleContext{JobID: "job1", Prompt: "visualize", AcceptedCode: "solve()"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	payload := out.(orpipe.VisualizationReportPayload)
	if payload.VisualizationCode != "import matplotlib" {
		t.Errorf("expected cleaned viz code, got %q", payload.VisualizationCode)
	}
	if payload.GeneratedFiles["chart.png"] != "aGVsbG8=" {
		t.Errorf("expected generated file passthrough, got %+v", payload.GeneratedFiles)
	}
	if !strings.Contains(payload.Content, "[FILE: chart.png]") {
		t.Errorf("unexpected report content: %q", payload.Content)
	}
}

func TestVisualizer_Run_SolverFailurePropagates(t *testing.T) {
	sandbox := &fakeSandbox{results: map[string]orpipe.SandboxResultMessage{
		"job1_solver_": {
			Status:        orpipe.CodeFailed,
			GeneratedCode: orpipe.GeneratedCode{Stderr: "ZeroDivisionError"},
		},
	}}
	v := &Visualizer{Provider: &fakeProvider{}, Sandbox: sandbox, Model: "test-model"}

	_, err := v.Run(orpipe.RoleContext{JobID: "job1", Prompt: "visualize", AcceptedCode: "solve()"})
	if err == nil {
		t.Fatal("expected solver failure to propagate as an error")
	}
	if !strings.Contains(err.Error(), "ZeroDivisionError") {
		t.Errorf("expected error to carry stderr, got %v", err)
	}
}

func TestVisualizer_Run_NoAcceptedCodeSkipsSolver(t *testing.T) {
	sandbox := &fakeSandbox{results: map[string]orpipe.SandboxResultMessage{
		"job1_viz_": {
			Status: orpipe.CodeExecuted,
			GeneratedCode: orpipe.GeneratedCode{
				Stdout:         "GENERATED_FILES: chart.png",
				GeneratedFiles: map[string]string{"chart.png": "aGVsbG8="},
			},
		},
	}}
	provider := &fakeProvider{responses: []string{"plt.savefig('/output/chart.png')", "# Report"}}

	v := &Visualizer{Provider: provider, Sandbox: sandbox, Model: "test-model"}
	_, err := v.Run(orpipe.RoleContext{JobID: "job1", Prompt: "visualize"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
