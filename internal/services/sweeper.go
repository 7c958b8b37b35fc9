package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	redisclient "github.com/voltastudio/volta-backend/internal/clients/redis"
	"github.com/voltastudio/volta-backend/internal/data/repos"
	types "github.com/voltastudio/volta-backend/internal/domain"
	"github.com/voltastudio/volta-backend/internal/platform/dbctx"
	"github.com/voltastudio/volta-backend/internal/platform/envutil"
	"github.com/voltastudio/volta-backend/internal/platform/logger"
	"github.com/voltastudio/volta-backend/internal/platform/sideeffect"
)

const sweeperLockKey = "volta:asset-sweeper"

// Timeout classes. Assets carrying a prompt or a preview image came from the
// heavier generation pipelines and get the long budget; everything else is a
// plain transfer or thumbnail job and should land quickly.
const (
	sweepTimeoutShort = 600 * time.Second
	sweepTimeoutLong  = 1800 * time.Second

	// sweepGrace keeps freshly created placeholders out of scope even when
	// clock skew or slow dispatch makes them look older than they are.
	sweepGrace = 2 * time.Minute
)

// Sweeper fails pending and processing assets whose generation has been
// silent past its timeout class. Assets correlated to a durable workflow are
// left alone since the workflow engine delivers a terminal outcome itself.
type Sweeper interface {
	SweepOnce(ctx context.Context) (int, error)
	Run(ctx context.Context)
}

type sweeper struct {
	db     *gorm.DB
	log    *logger.Logger
	assets repos.AssetRepo
	svc    AssetService
	events repos.AssetEventRepo
	locker redisclient.Locker

	interval time.Duration
	now      func() time.Time
}

func NewSweeper(db *gorm.DB, baseLog *logger.Logger, assets repos.AssetRepo, svc AssetService, events repos.AssetEventRepo, locker redisclient.Locker) Sweeper {
	return &sweeper{
		db:       db,
		log:      baseLog.With("service", "Sweeper"),
		assets:   assets,
		svc:      svc,
		events:   events,
		locker:   locker,
		interval: envutil.DurationSeconds("SWEEP_INTERVAL_SECONDS", 60),
		now:      time.Now,
	}
}

// Run loops SweepOnce under a distributed lease so only one replica sweeps
// per interval. It returns when the context is done.
func (s *sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if s.locker != nil {
			ok, err := s.locker.Acquire(ctx, sweeperLockKey, s.interval)
			if err != nil {
				s.log.Warn("sweeper lease acquire failed", "error", err)
				continue
			}
			if !ok {
				continue
			}
		}

		n, err := s.SweepOnce(ctx)
		if err != nil {
			s.log.Error("sweep failed", "error", err)
		} else if n > 0 {
			s.log.Info("sweep complete", "swept", n)
		}

		if s.locker != nil {
			if err := s.locker.Release(ctx, sweeperLockKey); err != nil {
				s.log.Warn("sweeper lease release failed", "error", err)
			}
		}
	}
}

func (s *sweeper) SweepOnce(ctx context.Context) (int, error) {
	dbc := dbctx.Context{Ctx: ctx}

	pending, err := s.assets.ListPending(dbc)
	if err != nil {
		return 0, err
	}

	now := s.now().UTC()
	swept := 0
	for _, asset := range pending {
		if asset.WorkflowID != "" {
			continue
		}

		age := now.Sub(asset.CreatedAt)
		if age < sweepGrace {
			continue
		}

		timeout := sweepTimeoutShort
		if asset.Prompt != "" || asset.PreviewImageURL != "" {
			timeout = sweepTimeoutLong
		}
		if age < timeout {
			continue
		}

		s.sweepAsset(dbc, asset, age, timeout)
		swept++
	}
	return swept, nil
}

func (s *sweeper) sweepAsset(dbc dbctx.Context, asset *types.Asset, age, timeout time.Duration) {
	message := fmt.Sprintf("generation timed out after %ds", int(timeout.Seconds()))

	// A stuck regeneration still has its prior content; give it back instead
	// of burying a good asset.
	if !asset.Locator().IsZero() && asset.CompletedAt != nil {
		if err := s.svc.RevertToCompleted(dbc, asset.ID, message); err != nil {
			s.log.Error("sweep revert failed", "asset_id", asset.ID, "error", err)
			return
		}
	} else {
		s.svc.Fail(dbc, asset.ID, message)
	}

	s.log.Info("swept stale asset", "asset_id", asset.ID, "type", asset.Type, "age", age.String())
	sideeffect.Run(s.log, "sweep_event_emit", func() error {
		raw, _ := json.Marshal(map[string]any{
			"age_seconds":     int(age.Seconds()),
			"timeout_seconds": int(timeout.Seconds()),
		})
		_, err := s.events.Create(dbc, []*types.AssetEvent{{
			ID:        uuid.New(),
			AssetID:   asset.ID,
			VersionID: asset.VersionID,
			ProductID: asset.ProductID,
			OrgID:     asset.OrgID,
			Kind:      types.AssetEventSwept,
			Data:      datatypes.JSON(raw),
		}})
		return err
	})
}
