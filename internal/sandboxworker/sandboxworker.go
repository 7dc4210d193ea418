// Package sandboxworker implements the Sandbox Worker: a single consumer
// loop over the sandbox in-queue that serializes one code run at a time
// (prefetch=1) through a shared Sandbox instance.
package sandboxworker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/orpipe/orpipe"
	"github.com/orpipe/orpipe/internal/audit"
	"github.com/orpipe/orpipe/internal/broker"
	"github.com/orpipe/orpipe/internal/sandbox"
)

// Worker consumes Sandbox Job Messages and publishes Sandbox Result
// Messages to the queue each job names, or to OutQueue by default.
type Worker struct {
	Broker   *broker.Broker
	Sandbox  *sandbox.Sandbox
	Audit    audit.Store // optional
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

	deliveries, err := w.Broker.Consume(w.InQueue, "sandbox-worker")
	if err != nil {
		return fmt.Errorf("sandbox worker: consume %s: %w", w.InQueue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("sandbox worker: delivery channel closed")
			}
			w.handle(ctx, d, logger)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery, logger *slog.Logger) {
	var job orpipe.SandboxJobMessage
	if err := json.Unmarshal(d.Body, &job); err != nil || job.JobID == "" || job.Code == "" {
		logger.Warn("malformed sandbox job message, dropping", "error", err)
		d.Nack(false, false)
		return
	}

	runCtx := ctx
	var span orpipe.Span
	if w.Tracer != nil {
		runCtx, span = w.Tracer.Start(ctx, "sandbox.run", orpipe.StringAttr("jobId", job.JobID))
	}

	startedAt := orpipe.NowUnix()
	if w.Audit != nil {
		if aerr := w.Audit.Start(ctx, audit.Record{
			JobID:     job.JobID,
			AgentType: "SANDBOX",
			Status:    "RUNNING",
			StartedAt: startedAt,
		}); aerr != nil {
			logger.Warn("audit start failed", "jobId", job.JobID, "error", aerr)
		}
	}

	generated, status, runErr := w.Sandbox.Run(runCtx, job.Code)
	finishedAt := orpipe.NowUnix()
	durationMs := (finishedAt - startedAt) * 1000

	result := orpipe.SandboxResultMessage{JobID: job.JobID, Status: status, GeneratedCode: generated}
	if runErr != nil {
		result.Status = orpipe.CodeFailed
		result.Error = runErr.Error()
	}

	if span != nil {
		if runErr != nil {
			span.Error(runErr)
		}
		span.End()
	}

	if w.Audit != nil {
		errMsg := ""
		if runErr != nil {
			errMsg = runErr.Error()
		}
		if aerr := w.Audit.Finish(ctx, job.JobID, "", string(result.Status), errMsg, finishedAt, durationMs); aerr != nil {
			logger.Warn("audit finish failed", "jobId", job.JobID, "error", aerr)
		}
	}

	if runErr != nil {
		logger.Error("sandbox run failed", "jobId", job.JobID, "error", runErr)
		d.Nack(false, false)
		return
	}

	body, err := json.Marshal(result)
	if err != nil {
		logger.Error("marshal sandbox result failed", "jobId", job.JobID, "error", err)
		d.Nack(false, false)
		return
	}

	target := job.ResponseQueue
	if target == "" {
		target = w.OutQueue
	}

	// A response queue beginning with "amq.gen-" is a server-named,
	// exclusive queue owned by the calling connection; redeclaring it from
	// here would either fail (exclusive to another connection) or be
	// pointless (it already exists). Only non-generated queue names get
	// declared, matching the default out-queue's own lifecycle.
	if !strings.HasPrefix(target, "amq.gen-") {
		if _, derr := w.Broker.Channel().QueueDeclare(target, true, false, false, false, nil); derr != nil {
			logger.Error("declare response queue failed", "queue", target, "error", derr)
			d.Nack(false, false)
			return
		}
	}

	if err := w.Broker.Publish(ctx, target, body); err != nil {
		logger.Error("publish sandbox result failed", "jobId", job.JobID, "error", err)
		d.Nack(false, false)
		return
	}

	d.Ack(false)
}
