// Command agentworker runs the Agent Worker process: it consumes Task
// Messages from the broker and dispatches them to the Modeler, Coder, or
// Visualizer role, publishing an Agent Result Message for each.
//
// It shares no state with the Sandbox Worker beyond the broker itself; a
// Visualizer job reaches the sandbox only through internal/sandboxrpc,
// which is its own connection per call.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/orpipe/orpipe"
	"github.com/orpipe/orpipe/internal/agentregistry"
	"github.com/orpipe/orpipe/internal/agentroles"
	"github.com/orpipe/orpipe/internal/agentworker"
	"github.com/orpipe/orpipe/internal/auditstore"
	"github.com/orpipe/orpipe/internal/broker"
	"github.com/orpipe/orpipe/internal/config"
	"github.com/orpipe/orpipe/internal/sandboxrpc"
	"github.com/orpipe/orpipe/observer"
	"github.com/orpipe/orpipe/provider/gemini"
	"github.com/orpipe/orpipe/provider/openaicompat"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil)).With("worker", "agent")
	slog.SetDefault(logger)

	cfg := config.Load(os.Getenv("ORPIPE_CONFIG"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var inst *observer.Instruments
	shutdownObserver := func(context.Context) error { return nil }
	if cfg.Observer.Enabled {
		pricing := make(map[string]observer.ModelPricing, len(cfg.Observer.Pricing))
		for model, p := range cfg.Observer.Pricing {
			pricing[model] = observer.ModelPricing{InputPerMillion: p.Input, OutputPerMillion: p.Output}
		}
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

	var llmProvider orpipe.Provider = openaicompat.NewProvider(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL)
	var embedding orpipe.EmbeddingProvider
	if cfg.Embedding.APIKey != "" {
		embedding = gemini.NewEmbedding(cfg.Embedding.APIKey, cfg.Embedding.Model, cfg.Embedding.Dimensions)
	}
	if inst != nil {
		llmProvider = observer.WrapProvider(llmProvider, cfg.LLM.Model, inst)
		if embedding != nil {
			embedding = observer.WrapEmbedding(embedding, cfg.Embedding.Model, inst)
		}
	}

	auditStore, err := auditstore.Open(ctx, cfg.Audit)
	if err != nil {
		logger.Error("audit store init failed", "error", err)
		os.Exit(1)
	}
	defer auditStore.Close()

	sandboxClient := sandboxrpc.New(cfg.Broker.URL(), cfg.Broker.InQueueSandbox)

	registry := agentregistry.New(map[orpipe.AgentType]func() agentregistry.Role{
		orpipe.ModelerAgent: func() agentregistry.Role {
			return &agentroles.Modeler{
				Provider:            llmProvider,
				Embedding:           embedding,
				Model:               cfg.LLM.Model,
				ChunkThresholdChars: cfg.Retrieval.ChunkThresholdChars,
			}
		},
		orpipe.CoderAgent: func() agentregistry.Role {
			return &agentroles.Coder{Provider: llmProvider, Model: cfg.LLM.Model}
		},
		orpipe.VisualizerAgent: func() agentregistry.Role {
			return &agentroles.Visualizer{Provider: llmProvider, Sandbox: sandboxClient, Model: cfg.LLM.Model}
		},
	})

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

	worker := &agentworker.Worker{
		Broker:   br,
		Registry: registry,
		Audit:    auditStore,
		Tracer:   tracer,
		InQueue:  cfg.Broker.InQueueAgent,
		OutQueue: cfg.Broker.OutQueueAgent,
		Logger:   logger,
	}

	logger.Info("agent worker starting", "inQueue", worker.InQueue, "outQueue", worker.OutQueue)
	if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("agent worker stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("agent worker stopped")
}
