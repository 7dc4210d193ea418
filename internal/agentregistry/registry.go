// Package agentregistry maps an AgentType to a constructor for its Role.
// Unrecognized types are the caller's signal to nack a Task Message without
// requeueing it.
package agentregistry

import "github.com/orpipe/orpipe"

// Role is the behavior every agent role (Modeler, Coder, Visualizer)
// implements.
type Role interface {
	Run(ctx orpipe.RoleContext) (any, error)
}

// Registry is a pure lookup table: AgentType -> constructor.
type Registry struct {
	constructors map[orpipe.AgentType]func() Role
}

// New builds a Registry from a set of constructors, one per supported role.
func New(constructors map[orpipe.AgentType]func() Role) *Registry {
	return &Registry{constructors: constructors}
}

// Lookup constructs the Role registered for agentType, or reports false if
// no role is registered for it.
func (r *Registry) Lookup(agentType orpipe.AgentType) (Role, bool) {
	ctor, ok := r.constructors[agentType]
	if !ok {
		return nil, false
	}
	return ctor(), true
}
