package agentregistry

import (
	"testing"

	"github.com/orpipe/orpipe"
)

type stubRole struct{ name string }

func (s stubRole) Run(orpipe.RoleContext) (any, error) { return s.name, nil }

func TestLookup_Known(t *testing.T) {
	reg := New(map[orpipe.AgentType]func() Role{
		orpipe.ModelerAgent: func() Role { return stubRole{"modeler"} },
	})

	role, ok := reg.Lookup(orpipe.ModelerAgent)
	if !ok {
		t.Fatal("expected lookup to succeed")
	}
	out, err := role.Run(orpipe.RoleContext{})
	if err != nil || out != "modeler" {
		t.Errorf("unexpected role output: %v, %v", out, err)
	}
}

func TestLookup_Unknown(t *testing.T) {
	reg := New(map[orpipe.AgentType]func() Role{})
	_, ok := reg.Lookup(orpipe.AgentType("UNKNOWN"))
	if ok {
		t.Error("expected lookup to fail for unregistered agent type")
	}
}
