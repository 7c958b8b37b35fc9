package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/voltastudio/volta-backend/internal/clients/gcp"
	"github.com/voltastudio/volta-backend/internal/clients/s3legacy"
	types "github.com/voltastudio/volta-backend/internal/domain"
	"github.com/voltastudio/volta-backend/internal/platform/apperr"
	"github.com/voltastudio/volta-backend/internal/platform/logger"
)

// StorageResolver turns a content locator union into a single fetchable URL.
// The preference chain is strict: explicit URL, then the content-addressed key
// through the current backend, then the legacy handle through the legacy
// backend. It never merges schemes.
type StorageResolver interface {
	Resolve(ctx context.Context, loc types.Locator) (string, error)
}

type storageResolver struct {
	log    *logger.Logger
	bucket gcp.BucketService
	legacy s3legacy.Store
}

func NewStorageResolver(baseLog *logger.Logger, bucket gcp.BucketService, legacy s3legacy.Store) StorageResolver {
	return &storageResolver{
		log:    baseLog.With("service", "StorageResolver"),
		bucket: bucket,
		legacy: legacy,
	}
}

func (r *storageResolver) Resolve(ctx context.Context, loc types.Locator) (string, error) {
	if u := strings.TrimSpace(loc.URL); u != "" {
		return u, nil
	}

	if key := strings.TrimSpace(loc.StorageKey); key != "" {
		if r.bucket == nil {
			return "", fmt.Errorf("current storage backend not configured")
		}
		exists, err := r.bucket.ObjectExists(ctx, key)
		if err != nil {
			return "", fmt.Errorf("check storage key %q: %w", key, err)
		}
		if !exists {
			return "", fmt.Errorf("storage key %q: %w", key, apperr.ErrObjectNotFound)
		}
		return r.bucket.GetPublicURL(key), nil
	}

	if handle := strings.TrimSpace(loc.LegacyHandle); handle != "" {
		if r.legacy == nil {
			return "", fmt.Errorf("legacy storage backend not configured")
		}
		return r.legacy.ResolveHandle(ctx, handle)
	}

	// Missing a locator entirely is a caller error, not a resolution failure.
	return "", apperr.ErrNoLocator
}
