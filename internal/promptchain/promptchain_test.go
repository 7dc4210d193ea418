package promptchain

import (
	"strings"
	"testing"

	"github.com/orpipe/orpipe"
)

func TestBuild_SystemOnly(t *testing.T) {
	msgs := Build("system template", "", "", nil, "do the thing")
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != "system" || msgs[0].Content != "system template" {
		t.Errorf("unexpected first message: %+v", msgs[0])
	}
	if msgs[1].Role != "user" || msgs[1].Content != "do the thing" {
		t.Errorf("unexpected final message: %+v", msgs[1])
	}
}

func TestBuild_AcceptedModelAndCode(t *testing.T) {
	msgs := Build("sys", "Maximize: x+y", "print('x')", nil, "prompt")
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(msgs))
	}
	if msgs[1].Content != acceptedModelLabel+"Maximize: x+y" {
		t.Errorf("unexpected accepted-model message: %q", msgs[1].Content)
	}
	if msgs[2].Content != acceptedCodeLabel+"print('x')" {
		t.Errorf("unexpected accepted-code message: %q", msgs[2].Content)
	}
}

func TestBuild_HistoryDropsUnknownRoles(t *testing.T) {
	history := []orpipe.ConversationTurn{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
		{Role: "system", Content: "should be dropped"},
		{Role: "tool", Content: "also dropped"},
	}
	msgs := Build("sys", "", "", history, "final")
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages (sys, user, assistant, final), got %d", len(msgs))
	}
	for _, m := range msgs {
		if m.Content == "should be dropped" || m.Content == "also dropped" {
			t.Errorf("unknown-role turn leaked into chain: %+v", m)
		}
	}
}

func TestCleanCodeFences_SingleBlock(t *testing.T) {
	got := CleanCodeFences("```python\nprint('hello')\n```")
	if got != "print('hello')" {
		t.Errorf("got %q", got)
	}
}

func TestCleanCodeFences_NoMarkdown(t *testing.T) {
	got := CleanCodeFences("print('hello')")
	if got != "print('hello')" {
		t.Errorf("got %q", got)
	}
}

func TestCleanCodeFences_MultipleBlocks(t *testing.T) {
	dirty := "```python\nprint('hello')\n```\n\n```python\nprint('world')\n```"
	got := CleanCodeFences(dirty)
	if strings.Contains(got, "```") {
		t.Errorf("fences not fully removed: %q", got)
	}
	if !strings.Contains(got, "print('hello')") || !strings.Contains(got, "print('world')") {
		t.Errorf("content lost: %q", got)
	}
}

func TestCleanCodeFences_Idempotent(t *testing.T) {
	once := CleanCodeFences("```python\nprint('x')\n```")
	twice := CleanCodeFences(once)
	if once != twice {
		t.Errorf("not idempotent: %q vs %q", once, twice)
	}
}
