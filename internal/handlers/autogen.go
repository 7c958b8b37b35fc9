package handlers

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	types "github.com/voltastudio/volta-backend/internal/domain"
	"github.com/voltastudio/volta-backend/internal/platform/dbctx"
	"github.com/voltastudio/volta-backend/internal/platform/logger"
	"github.com/voltastudio/volta-backend/internal/requestdata"
	"github.com/voltastudio/volta-backend/internal/services"
	"github.com/voltastudio/volta-backend/internal/temporalx"
)

type AutoGenHandler struct {
	log        *logger.Logger
	assets     services.AssetService
	autogen    services.AutoGenService
	dispatcher temporalx.GenerationDispatcher
}

func NewAutoGenHandler(log *logger.Logger, assets services.AssetService, autogen services.AutoGenService, dispatcher temporalx.GenerationDispatcher) *AutoGenHandler {
	return &AutoGenHandler{
		log:        log.With("handler", "AutoGenHandler"),
		assets:     assets,
		autogen:    autogen,
		dispatcher: dispatcher,
	}
}

type batchItemRequest struct {
	Type        string `json:"type"`
	AssetGroup  string `json:"asset_group"`
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

type startBatchRequest struct {
	Items []batchItemRequest `json:"items"`
}

const maxBatchItems = 16

// StartBatch creates one placeholder per item, opens an auto-generation run
// and dispatches a single batch workflow covering all of them.
func (h *AutoGenHandler) StartBatch(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	versionID, ok := pathUUID(c, "versionId")
	if !ok {
		return
	}

	var req startBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if len(req.Items) == 0 || len(req.Items) > maxBatchItems {
		RespondError(c, http.StatusBadRequest, "invalid_batch_size",
			fmt.Errorf("batch must have 1..%d items, got %d", maxBatchItems, len(req.Items)))
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}

	workflowID := "autogen-" + uuid.New().String()
	run, err := h.autogen.StartRun(dbc, versionID, workflowID, len(req.Items))
	if err != nil {
		h.log.Error("StartBatch: start run failed", "error", err, "version_id", versionID)
		RespondError(c, statusFor(err), "start_run_failed", err)
		return
	}

	placeholders := make([]*types.Asset, len(req.Items))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(c.Request.Context())
	g.SetLimit(4)
	for i, item := range req.Items {
		i, item := i, item
		g.Go(func() error {
			asset, err := h.assets.CreatePlaceholder(dbctx.Context{Ctx: gctx}, services.CreatePlaceholderInput{
				VersionID:    &versionID,
				OwnerUserID:  rd.UserID,
				OrgID:        rd.OrgID,
				Type:         item.Type,
				AssetGroup:   item.AssetGroup,
				Prompt:       item.Prompt,
				TargetWidth:  item.Width,
				TargetHeight: item.Height,
				AutoGenRunID: &run.ID,
			})
			if err != nil {
				return err
			}
			mu.Lock()
			placeholders[i] = asset
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		h.log.Error("StartBatch: create placeholders failed", "error", err, "version_id", versionID)
		// Anything already created would never receive a callback.
		for _, a := range placeholders {
			if a != nil {
				h.assets.Fail(dbc, a.ID, "batch setup failed")
			}
		}
		if cerr := h.autogen.CancelRun(dbc, run.WorkflowID); cerr != nil {
			h.log.Error("StartBatch: close run failed", "error", cerr, "run_id", run.ID)
		}
		RespondError(c, statusFor(err), "create_placeholders_failed", err)
		return
	}

	items := make([]temporalx.DispatchInput, len(req.Items))
	for i, item := range req.Items {
		items[i] = temporalx.DispatchInput{Prompt: item.Prompt, AspectRatio: item.AspectRatio}
	}
	if err := h.dispatcher.DispatchBatch(dbc, run, placeholders, items); err != nil {
		h.log.Error("StartBatch: dispatch failed", "error", err, "run_id", run.ID)
		if cerr := h.autogen.CancelRun(dbc, run.WorkflowID); cerr != nil {
			h.log.Error("StartBatch: close run failed", "error", cerr, "run_id", run.ID)
		}
		RespondError(c, http.StatusBadGateway, "dispatch_failed", err)
		return
	}

	RespondOK(c, gin.H{"run": run, "assets": placeholders})
}

func (h *AutoGenHandler) GetRun(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	run, err := h.autogen.GetRun(dbctx.Context{Ctx: c.Request.Context()}, id)
	if err != nil {
		RespondError(c, statusFor(err), "load_run_failed", err)
		return
	}
	RespondOK(c, gin.H{"run": run})
}

// CancelRun stops the batch workflow and closes the run as failed. Individual
// in-flight generations reconcile through the workflow's cancel path.
func (h *AutoGenHandler) CancelRun(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	run, err := h.autogen.GetRun(dbc, id)
	if err != nil {
		RespondError(c, statusFor(err), "load_run_failed", err)
		return
	}
	if run.WorkflowID != "" {
		if err := h.dispatcher.Cancel(c.Request.Context(), run.WorkflowID); err != nil {
			h.log.Error("CancelRun: cancel workflow failed", "error", err, "run_id", run.ID)
			RespondError(c, http.StatusBadGateway, "cancel_failed", err)
			return
		}
	}
	if err := h.autogen.CancelRun(dbc, run.WorkflowID); err != nil {
		RespondError(c, statusFor(err), "close_run_failed", err)
		return
	}
	RespondOK(c, gin.H{"canceled": true})
}
