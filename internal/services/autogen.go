package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voltastudio/volta-backend/internal/data/repos"
	types "github.com/voltastudio/volta-backend/internal/domain"
	"github.com/voltastudio/volta-backend/internal/platform/apperr"
	"github.com/voltastudio/volta-backend/internal/platform/dbctx"
	"github.com/voltastudio/volta-backend/internal/platform/logger"
	"github.com/voltastudio/volta-backend/internal/platform/sideeffect"
)

// AutoGenService manages batch generation runs: one run covers several
// assets dispatched under a single workflow handle.
type AutoGenService interface {
	StartRun(dbc dbctx.Context, versionID uuid.UUID, workflowID string, total int) (*types.AutoGenRun, error)
	GetRun(dbc dbctx.Context, id uuid.UUID) (*types.AutoGenRun, error)
	AdvanceRun(dbc dbctx.Context, workflowID string, completed, failed int) error
	CancelRun(dbc dbctx.Context, workflowID string) error
}

type autoGenService struct {
	db       *gorm.DB
	log      *logger.Logger
	runs     repos.AutoGenRunRepo
	versions repos.VersionRepo
}

func NewAutoGenService(db *gorm.DB, baseLog *logger.Logger, runs repos.AutoGenRunRepo, versions repos.VersionRepo) AutoGenService {
	return &autoGenService{
		db:       db,
		log:      baseLog.With("service", "AutoGenService"),
		runs:     runs,
		versions: versions,
	}
}

func (s *autoGenService) StartRun(dbc dbctx.Context, versionID uuid.UUID, workflowID string, total int) (*types.AutoGenRun, error) {
	run := &types.AutoGenRun{
		ID:         uuid.New(),
		VersionID:  versionID,
		WorkflowID: workflowID,
		Status:     types.RunStatusRunning,
		TotalCount: total,
	}
	if _, err := s.runs.Create(dbc, []*types.AutoGenRun{run}); err != nil {
		return nil, err
	}
	runID := run.ID
	sideeffect.Run(s.log, "set_version_active_run", func() error {
		return s.versions.SetActiveRun(dbc, versionID, &runID)
	})
	return run, nil
}

func (s *autoGenService) GetRun(dbc dbctx.Context, id uuid.UUID) (*types.AutoGenRun, error) {
	return s.runs.GetByID(dbc, id)
}

// AdvanceRun bumps run counters by workflow handle and closes the run once
// every member has landed, clearing the version's active run marker.
func (s *autoGenService) AdvanceRun(dbc dbctx.Context, workflowID string, completed, failed int) error {
	run, err := s.runs.GetByWorkflowID(dbc, workflowID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil // single-asset workflows have no run
		}
		return err
	}
	if err := s.runs.IncrementProgress(dbc, run.ID, completed, failed); err != nil {
		return err
	}
	run, err = s.runs.GetByID(dbc, run.ID)
	if err != nil {
		return err
	}
	if run.CompletedCount+run.FailedCount < run.TotalCount || run.Status != types.RunStatusRunning {
		return nil
	}
	status := types.RunStatusCompleted
	if run.CompletedCount == 0 {
		status = types.RunStatusFailed
	}
	if err := s.runs.SetStatusByWorkflowID(dbc, workflowID, status); err != nil {
		return err
	}
	versionID := run.VersionID
	sideeffect.Run(s.log, "clear_version_active_run", func() error {
		return s.versions.SetActiveRun(dbc, versionID, nil)
	})
	return nil
}

func (s *autoGenService) CancelRun(dbc dbctx.Context, workflowID string) error {
	run, err := s.runs.GetByWorkflowID(dbc, workflowID)
	if err != nil {
		return err
	}
	if err := s.runs.SetStatusByWorkflowID(dbc, workflowID, types.RunStatusFailed); err != nil {
		return err
	}
	sideeffect.Run(s.log, "clear_version_active_run", func() error {
		return s.versions.SetActiveRun(dbc, run.VersionID, nil)
	})
	return nil
}
