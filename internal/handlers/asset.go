package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/voltastudio/volta-backend/internal/domain"
	"github.com/voltastudio/volta-backend/internal/platform/dbctx"
	"github.com/voltastudio/volta-backend/internal/platform/logger"
	"github.com/voltastudio/volta-backend/internal/requestdata"
	"github.com/voltastudio/volta-backend/internal/services"
	"github.com/voltastudio/volta-backend/internal/temporalx"
)

type AssetHandler struct {
	log        *logger.Logger
	assets     services.AssetService
	dispatcher temporalx.GenerationDispatcher
}

func NewAssetHandler(log *logger.Logger, assets services.AssetService, dispatcher temporalx.GenerationDispatcher) *AssetHandler {
	return &AssetHandler{
		log:        log.With("handler", "AssetHandler"),
		assets:     assets,
		dispatcher: dispatcher,
	}
}

type generateAssetRequest struct {
	VersionID    *uuid.UUID  `json:"version_id"`
	ProductID    *uuid.UUID  `json:"product_id"`
	Type         string      `json:"type"`
	AssetGroup   string      `json:"asset_group"`
	Prompt       string      `json:"prompt"`
	AspectRatio  string      `json:"aspect_ratio"`
	Width        int         `json:"width"`
	Height       int         `json:"height"`
	InputImages  []string    `json:"input_images"`
	InputVideo   string      `json:"input_video"`
	Inspirations []uuid.UUID `json:"inspiration_ids"`
	ThreadID     string      `json:"thread_id"`
}

// Generate creates a placeholder and dispatches its generation workflow.
func (h *AssetHandler) Generate(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var req generateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	asset, err := h.assets.CreatePlaceholder(dbc, services.CreatePlaceholderInput{
		VersionID:      req.VersionID,
		ProductID:      req.ProductID,
		OwnerUserID:    rd.UserID,
		OrgID:          rd.OrgID,
		Type:           req.Type,
		AssetGroup:     req.AssetGroup,
		Prompt:         req.Prompt,
		TargetWidth:    req.Width,
		TargetHeight:   req.Height,
		InspirationIDs: req.Inspirations,
		ThreadID:       req.ThreadID,
	})
	if err != nil {
		h.log.Error("Generate: create placeholder failed", "error", err, "user_id", rd.UserID)
		RespondError(c, statusFor(err), "create_placeholder_failed", err)
		return
	}

	workflowID, err := h.dispatcher.Dispatch(dbc, asset, temporalx.DispatchInput{
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		InputImages: req.InputImages,
		InputVideo:  req.InputVideo,
	})
	if err != nil {
		h.log.Error("Generate: dispatch failed", "error", err, "asset_id", asset.ID)
		RespondError(c, http.StatusBadGateway, "dispatch_failed", err)
		return
	}

	RespondOK(c, gin.H{"asset": asset, "workflow_id": workflowID})
}

func (h *AssetHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	asset, err := h.assets.GetByID(dbctx.Context{Ctx: c.Request.Context()}, id)
	if err != nil {
		RespondError(c, statusFor(err), "load_asset_failed", err)
		return
	}
	RespondOK(c, gin.H{"asset": asset})
}

func (h *AssetHandler) ListByVersion(c *gin.Context) {
	versionID, ok := pathUUID(c, "versionId")
	if !ok {
		return
	}
	assets, err := h.assets.ListByVersion(dbctx.Context{Ctx: c.Request.Context()}, versionID)
	if err != nil {
		RespondError(c, statusFor(err), "list_assets_failed", err)
		return
	}
	RespondOK(c, gin.H{"assets": assets})
}

type regenerateRequest struct {
	Prompt      string   `json:"prompt"`
	AspectRatio string   `json:"aspect_ratio"`
	InputImages []string `json:"input_images"`
	SourceURL   string   `json:"source_url"`
	EditType    string   `json:"edit_type"`
}

// Regenerate re-enters pending and dispatches a fresh workflow for an
// existing asset, keeping prior content recoverable.
func (h *AssetHandler) Regenerate(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req regenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := h.assets.MarkPending(dbc, id); err != nil {
		RespondError(c, statusFor(err), "mark_pending_failed", err)
		return
	}
	asset, err := h.assets.GetByID(dbc, id)
	if err != nil {
		RespondError(c, statusFor(err), "load_asset_failed", err)
		return
	}

	workflowID, err := h.dispatcher.Dispatch(dbc, asset, temporalx.DispatchInput{
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		InputImages: req.InputImages,
		SourceURL:   req.SourceURL,
		EditType:    req.EditType,
	})
	if err != nil {
		h.log.Error("Regenerate: dispatch failed", "error", err, "asset_id", id)
		// The placeholder was already failed by the dispatcher; put the old
		// content back in front of the user.
		if rerr := h.assets.RevertToCompleted(dbc, id, "failed to start regeneration"); rerr != nil {
			h.log.Error("Regenerate: revert failed", "error", rerr, "asset_id", id)
		}
		RespondError(c, http.StatusBadGateway, "dispatch_failed", err)
		return
	}

	RespondOK(c, gin.H{"asset": asset, "workflow_id": workflowID})
}

func (h *AssetHandler) Cancel(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	asset, err := h.assets.GetByID(dbc, id)
	if err != nil {
		RespondError(c, statusFor(err), "load_asset_failed", err)
		return
	}
	if asset.WorkflowID == "" {
		RespondError(c, http.StatusBadRequest, "no_workflow", nil)
		return
	}
	if err := h.dispatcher.Cancel(c.Request.Context(), asset.WorkflowID); err != nil {
		h.log.Error("Cancel: cancel workflow failed", "error", err, "asset_id", id)
		RespondError(c, http.StatusBadGateway, "cancel_failed", err)
		return
	}
	RespondOK(c, gin.H{"canceled": true})
}

func (h *AssetHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.assets.Delete(dbctx.Context{Ctx: c.Request.Context()}, id); err != nil {
		RespondError(c, statusFor(err), "delete_asset_failed", err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

func (h *AssetHandler) Duplicate(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	dup, err := h.assets.Duplicate(dbctx.Context{Ctx: c.Request.Context()}, id)
	if err != nil {
		RespondError(c, statusFor(err), "duplicate_asset_failed", err)
		return
	}
	RespondOK(c, gin.H{"asset": dup})
}

type updateGroupRequest struct {
	AssetGroup string `json:"asset_group"`
}

func (h *AssetHandler) UpdateGroup(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req updateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.assets.UpdateAssetGroup(dbctx.Context{Ctx: c.Request.Context()}, id, req.AssetGroup); err != nil {
		RespondError(c, statusFor(err), "update_group_failed", err)
		return
	}
	RespondOK(c, gin.H{"updated": true})
}

func (h *AssetHandler) Archive(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.assets.Archive(dbctx.Context{Ctx: c.Request.Context()}, id); err != nil {
		RespondError(c, statusFor(err), "archive_asset_failed", err)
		return
	}
	RespondOK(c, gin.H{"archived": true})
}

type locatorRequest struct {
	LocatorID string `json:"locator_id"`
}

func (h *AssetHandler) SelectAlternate(c *gin.Context) {
	h.locatorOp(c, "select_alternate_failed", h.assets.SelectAlternate)
}

func (h *AssetHandler) Restore(c *gin.Context) {
	h.locatorOp(c, "restore_failed", h.assets.RestoreFromHistory)
}

func (h *AssetHandler) DeleteHistoryEntry(c *gin.Context) {
	h.locatorOp(c, "delete_history_entry_failed", h.assets.DeleteHistoryEntry)
}

func (h *AssetHandler) locatorOp(c *gin.Context, code string, op func(dbctx.Context, uuid.UUID, string) (*types.Asset, error)) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req locatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	asset, err := op(dbctx.Context{Ctx: c.Request.Context()}, id, req.LocatorID)
	if err != nil {
		RespondError(c, statusFor(err), code, err)
		return
	}
	RespondOK(c, gin.H{"asset": asset})
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return uuid.Nil, false
	}
	return id, true
}
