package app

import (
	"context"
	"fmt"

	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/voltastudio/volta-backend/internal/clients/gcp"
	"github.com/voltastudio/volta-backend/internal/clients/genai"
	redisclient "github.com/voltastudio/volta-backend/internal/clients/redis"
	"github.com/voltastudio/volta-backend/internal/clients/s3legacy"
	"github.com/voltastudio/volta-backend/internal/platform/logger"
	"github.com/voltastudio/volta-backend/internal/temporalx"
)

type Clients struct {
	Bucket   gcp.BucketService
	Legacy   s3legacy.Store
	Locker   redisclient.Locker
	Temporal temporalsdkclient.Client
	GenAI    *genai.Client
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	bucket, err := gcp.NewBucketService(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init gcs bucket: %w", err)
	}

	legacy, err := s3legacy.NewStore(context.Background(), log)
	if err != nil {
		return Clients{}, fmt.Errorf("init legacy store: %w", err)
	}

	// Redis is optional: without it, sweeps run unguarded (single-node).
	locker, err := redisclient.NewLocker(log)
	if err != nil {
		log.Warn("Redis unavailable; sweeper runs without a distributed lease", "error", err)
		locker = nil
	}

	tc, err := temporalx.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init temporal client: %w", err)
	}

	// The generation API client is only required by the worker process.
	genaiClient, err := genai.NewClient(log, bucket)
	if err != nil {
		log.Warn("Generation API client not configured", "error", err)
		genaiClient = nil
	}

	return Clients{
		Bucket:   bucket,
		Legacy:   legacy,
		Locker:   locker,
		Temporal: tc,
		GenAI:    genaiClient,
	}, nil
}
