package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/voltastudio/volta-backend/internal/app"
	"github.com/voltastudio/volta-backend/internal/temporalx/temporalworker"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if a.Clients.Temporal == nil {
		a.Log.Error("TEMPORAL_ADDRESS is required for the worker process")
		os.Exit(1)
	}
	if a.Clients.GenAI == nil {
		a.Log.Error("GENAI_API_KEY is required for the worker process")
		os.Exit(1)
	}

	runner, err := temporalworker.NewRunner(
		a.Log,
		a.Clients.Temporal,
		a.Clients.GenAI,
		a.Services.Reconciler,
		a.Services.Enhancer,
	)
	if err != nil {
		a.Log.Error("Worker init failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runner.Start(ctx); err != nil {
		a.Log.Error("Worker start failed", "error", err)
		os.Exit(1)
	}

	a.Log.Info("Worker running")
	<-ctx.Done()
	a.Log.Info("Worker shutting down")
}
