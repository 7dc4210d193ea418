package orpipe

import (
	"errors"
	"fmt"
)

// ErrMalformedTask indicates a Task Message failed basic shape validation
// (missing jobId/agentType/prompt). Per the broker's error taxonomy this
// is nacked without requeue and never replied to.
var ErrMalformedTask = errors.New("malformed task message")

// ErrUnknownAgentType indicates a Task Message named an agentType with no
// registered role.
var ErrUnknownAgentType = errors.New("unknown agent type")

// ErrSandboxTimeout indicates a sandbox RPC call exceeded its deadline
// waiting for a reply on its private queue.
var ErrSandboxTimeout = errors.New("sandbox execution timeout")

type ErrLLM struct {
	Provider string
	Message  string
}

func (e *ErrLLM) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

type ErrHTTP struct {
	Status int
	Body   string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Body)
}
