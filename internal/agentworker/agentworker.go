// Package agentworker implements the Agent Worker: a single consumer loop
// over the agent in-queue that dispatches each Task Message to the role its
// agentType names, via the Agent Registry.
package agentworker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/orpipe/orpipe"
	"github.com/orpipe/orpipe/internal/agentregistry"
	"github.com/orpipe/orpipe/internal/audit"
	"github.com/orpipe/orpipe/internal/broker"
)

// Worker consumes Task Messages and publishes Agent Result Messages.
type Worker struct {
	Broker   *broker.Broker
	Registry *agentregistry.Registry
	Audit    audit.Store   // optional
	Tracer   orpipe.Tracer // optional
	InQueue  string
	OutQueue string
	Logger   *slog.Logger
}

// Run consumes InQueue until ctx is canceled or the delivery channel closes.
func (w *Worker) Run(ctx context.Context) error {
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}

	deliveries, err := w.Broker.Consume(w.InQueue, "agent-worker")
	if err != nil {
		return fmt.Errorf("agent worker: consume %s: %w", w.InQueue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("agent worker: delivery channel closed")
			}
			w.handle(ctx, d, logger)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery, logger *slog.Logger) {
	var task orpipe.TaskMessage
	if err := json.Unmarshal(d.Body, &task); err != nil || task.JobID == "" || task.AgentType == "" || task.Prompt == "" {
		logger.Warn("malformed task message, dropping", "error", err)
		d.Nack(false, false)
		return
	}

	role, ok := w.Registry.Lookup(task.AgentType)
	if !ok {
		logger.Warn("unknown agent type, dropping", "jobId", task.JobID, "agentType", task.AgentType)
		d.Nack(false, false)
		return
	}

	var span orpipe.Span
	if w.Tracer != nil {
		_, span = w.Tracer.Start(ctx, "agent.run",
			orpipe.StringAttr("jobId", task.JobID),
			orpipe.StringAttr("agentType", string(task.AgentType)),
		)
	}

	startedAt := orpipe.NowUnix()
	if w.Audit != nil {
		if aerr := w.Audit.Start(ctx, audit.Record{
			JobID:     task.JobID,
			AgentType: string(task.AgentType),
			Status:    "RUNNING",
			StartedAt: startedAt,
		}); aerr != nil {
			logger.Warn("audit start failed", "jobId", task.JobID, "error", aerr)
		}
	}

	payload, runErr := role.Run(orpipe.RoleContext{
		JobID:               task.JobID,
		Prompt:              task.Prompt,
		Context:             task.Context,
		Files:               task.Files,
		ConversationHistory: task.ConversationHistory,
		AcceptedModel:       task.AcceptedModel,
		AcceptedCode:        task.AcceptedCode,
	})

	finishedAt := orpipe.NowUnix()
	durationMs := (finishedAt - startedAt) * 1000

	if span != nil {
		if runErr != nil {
			span.Error(runErr)
		}
		span.End()
	}

	result := orpipe.AgentResultMessage{JobID: task.JobID, AgentType: task.AgentType}
	if runErr != nil {
		result.Status = orpipe.TaskFailed
		result.Error = runErr.Error()
	} else {
		result.Status = orpipe.TaskCompleted
		result.Payload = payload
	}

	if w.Audit != nil {
		errMsg := ""
		if runErr != nil {
			errMsg = runErr.Error()
		}
		if aerr := w.Audit.Finish(ctx, task.JobID, "", string(result.Status), errMsg, finishedAt, durationMs); aerr != nil {
			logger.Warn("audit finish failed", "jobId", task.JobID, "error", aerr)
		}
	}

	body, merr := json.Marshal(result)
	if merr != nil {
		logger.Error("marshal agent result failed", "jobId", task.JobID, "error", merr)
		d.Nack(false, false)
		return
	}

	if perr := w.Broker.Publish(ctx, w.OutQueue, body); perr != nil {
		logger.Error("publish agent result failed", "jobId", task.JobID, "error", perr)
		// The result message is lost either way at this point; nacking
		// without requeue matches the no-worker-retry error taxonomy
		// rather than silently redelivering a task that may have already
		// run to completion.
		d.Nack(false, false)
		return
	}

	if runErr != nil {
		logger.Error("agent role failed", "jobId", task.JobID, "agentType", task.AgentType, "error", runErr)
		d.Nack(false, false)
		return
	}

	d.Ack(false)
}
