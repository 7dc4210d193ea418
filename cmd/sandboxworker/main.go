// Command sandboxworker runs the Sandbox Worker process: it consumes
// Sandbox Job Messages from the broker, runs each one in a disposable
// Docker container, and publishes the result to the queue the job names.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/orpipe/orpipe"
	"github.com/orpipe/orpipe/internal/auditstore"
	"github.com/orpipe/orpipe/internal/broker"
	"github.com/orpipe/orpipe/internal/config"
	"github.com/orpipe/orpipe/internal/sandbox"
	"github.com/orpipe/orpipe/internal/sandboxworker"
	"github.com/orpipe/orpipe/observer"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil)).With("worker", "sandbox")
	slog.SetDefault(logger)

	cfg := config.Load(os.Getenv("ORPIPE_CONFIG"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var inst *observer.Instruments
	if cfg.Observer.Enabled {
		pricing := make(map[string]observer.ModelPricing, len(cfg.Observer.Pricing))
		for model, p := range cfg.Observer.Pricing {
			pricing[model] = observer.ModelPricing{InputPerMillion: p.Input, OutputPerMillion: p.Output}
		}
		var shutdownObserver func(context.Context) error
		var err error
		inst, shutdownObserver, err = observer.Init(ctx, pricing)
		if err != nil {
			logger.Error("observer init failed", "error", err)
			os.Exit(1)
		}
		defer func() {
			shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = shutdownObserver(shutCtx)
		}()
	}

	var tracer orpipe.Tracer
	if inst != nil {
		tracer = observer.NewTracer()
	}

	// The container runtime must be reachable before this process accepts
	// any work: a worker that looks alive but can't run code would nack
	// every job forever.
	sb, err := sandbox.New(ctx, cfg.Sandbox)
	if err != nil {
		logger.Error("sandbox unavailable at startup", "error", err)
		os.Exit(1)
	}
	defer sb.Close()

	auditStore, err := auditstore.Open(ctx, cfg.Audit)
	if err != nil {
		logger.Error("audit store init failed", "error", err)
		os.Exit(1)
	}
	defer auditStore.Close()

	queues := broker.QueueNames{
		InQueueAgent:    cfg.Broker.InQueueAgent,
		OutQueueAgent:   cfg.Broker.OutQueueAgent,
		InQueueSandbox:  cfg.Broker.InQueueSandbox,
		OutQueueSandbox: cfg.Broker.OutQueueSandbox,
	}
	br, err := broker.Dial(ctx, cfg.Broker.URL(), queues, logger)
	if err != nil {
		logger.Error("broker dial canceled before connecting", "error", err)
		os.Exit(1)
	}
	defer br.Close()

	worker := &sandboxworker.Worker{
		Broker:   br,
		Sandbox:  sb,
		Audit:    auditStore,
		Tracer:   tracer,
		InQueue:  cfg.Broker.InQueueSandbox,
		OutQueue: cfg.Broker.OutQueueSandbox,
		Logger:   logger,
	}

	logger.Info("sandbox worker starting", "inQueue", worker.InQueue, "outQueue", worker.OutQueue, "image", cfg.Sandbox.Image)
	if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("sandbox worker stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("sandbox worker stopped")
}
