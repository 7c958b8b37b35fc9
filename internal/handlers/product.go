package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/voltastudio/volta-backend/internal/platform/dbctx"
	"github.com/voltastudio/volta-backend/internal/platform/logger"
	"github.com/voltastudio/volta-backend/internal/requestdata"
	"github.com/voltastudio/volta-backend/internal/services"
)

type ProductHandler struct {
	log      *logger.Logger
	products services.ProductService
}

func NewProductHandler(log *logger.Logger, products services.ProductService) *ProductHandler {
	return &ProductHandler{
		log:      log.With("handler", "ProductHandler"),
		products: products,
	}
}

type createProductRequest struct {
	Name string `json:"name"`
}

func (h *ProductHandler) Create(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	product, err := h.products.Create(dbctx.Context{Ctx: c.Request.Context()}, rd.UserID, rd.OrgID, req.Name)
	if err != nil {
		h.log.Error("Create product failed", "error", err, "user_id", rd.UserID)
		RespondError(c, statusFor(err), "create_product_failed", err)
		return
	}
	RespondOK(c, gin.H{"product": product})
}

func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	product, err := h.products.GetByID(dbctx.Context{Ctx: c.Request.Context()}, id)
	if err != nil {
		RespondError(c, statusFor(err), "load_product_failed", err)
		return
	}
	RespondOK(c, gin.H{"product": product})
}

type createVersionRequest struct {
	Name string `json:"name"`
}

func (h *ProductHandler) CreateVersion(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req createVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	version, err := h.products.CreateVersion(dbctx.Context{Ctx: c.Request.Context()}, id, req.Name)
	if err != nil {
		RespondError(c, statusFor(err), "create_version_failed", err)
		return
	}
	RespondOK(c, gin.H{"version": version})
}
