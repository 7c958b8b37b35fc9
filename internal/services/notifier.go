package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/voltastudio/volta-backend/internal/platform/logger"
)

// Notifier pushes lifecycle updates toward connected clients. The transport
// behind it is out of scope here; the log notifier stands in wherever a real
// push channel is not wired.
type Notifier interface {
	AssetCompleted(ctx context.Context, assetID uuid.UUID) error
	AssetFailed(ctx context.Context, assetID uuid.UUID, message string) error
}

type logNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(baseLog *logger.Logger) Notifier {
	return &logNotifier{log: baseLog.With("service", "Notifier")}
}

func (n *logNotifier) AssetCompleted(_ context.Context, assetID uuid.UUID) error {
	n.log.Info("asset completed", "asset_id", assetID)
	return nil
}

func (n *logNotifier) AssetFailed(_ context.Context, assetID uuid.UUID, message string) error {
	n.log.Info("asset failed", "asset_id", assetID, "message", message)
	return nil
}
