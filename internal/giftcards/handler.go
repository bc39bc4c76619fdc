package giftcards

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/giftcards/pkg/common"
	"github.com/richxcame/giftcards/pkg/logger"
	"github.com/richxcame/giftcards/pkg/middleware"
	"github.com/richxcame/giftcards/pkg/pagination"
	"github.com/richxcame/giftcards/pkg/validation"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for gift cards
type Handler struct {
	service *Service
}

// NewHandler creates a new gift cards handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ========================================
// ADMIN ENDPOINTS
// ========================================

// CreateCard issues a single gift card
func (h *Handler) CreateCard(c *gin.Context) {
	var req CreateGiftCardRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}

	card, err := h.service.CreateCard(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if adminID, err := middleware.GetUserID(c); err == nil {
		logger.WithContext(c.Request.Context()).Info("gift card created by admin",
			zap.String("admin_id", adminID.String()),
			zap.String("card_id", card.ID.String()),
		)
	}

	common.CreatedResponse(c, card)
}

// CreateBulk issues many gift cards of the same value
func (h *Handler) CreateBulk(c *gin.Context) {
	var req CreateBulkRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}

	resp, err := h.service.CreateBulk(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	common.CreatedResponse(c, resp)
}

// Debit spends from a gift card
func (h *Handler) Debit(c *gin.Context) {
	cardID, ok := parseCardID(c)
	if !ok {
		return
	}

	var req DebitRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}

	resp, err := h.service.Debit(c.Request.Context(), cardID, req.Amount, req.OrderID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	common.SuccessResponse(c, resp)
}

// Deliver emails the voucher again
func (h *Handler) Deliver(c *gin.Context) {
	cardID, ok := parseCardID(c)
	if !ok {
		return
	}

	var req DeliverRequest
	if c.Request.ContentLength > 0 && !middleware.ValidateAndBind(c, &req) {
		return
	}

	if err := h.service.Deliver(c.Request.Context(), cardID, req.OrderID); err != nil {
		h.respondError(c, err)
		return
	}

	common.SuccessResponseWithStatus(c, http.StatusAccepted, nil, "voucher sent")
}

// ListTransactions returns a card's ledger
func (h *Handler) ListTransactions(c *gin.Context) {
	cardID, ok := parseCardID(c)
	if !ok {
		return
	}

	params := pagination.ParseParams(c)
	txns, total, err := h.service.ListTransactions(c.Request.Context(), cardID, params.Limit, params.Offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	common.SuccessResponseWithMeta(c, txns, pagination.BuildMeta(params.Limit, params.Offset, total))
}

// ========================================
// CUSTOMER ENDPOINTS
// ========================================

// GetCard returns a gift card by ID
func (h *Handler) GetCard(c *gin.Context) {
	cardID, ok := parseCardID(c)
	if !ok {
		return
	}

	card, err := h.service.GetCard(c.Request.Context(), cardID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	common.SuccessResponse(c, card)
}

// DownloadVoucher streams the voucher PDF
func (h *Handler) DownloadVoucher(c *gin.Context) {
	cardID, ok := parseCardID(c)
	if !ok {
		return
	}

	pdf, card, err := h.service.RenderVoucher(c.Request.Context(), cardID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="giftcard-%s.pdf"`, card.Code))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// CheckEligibility tells whether a code can be applied to ?order_id=
func (h *Handler) CheckEligibility(c *gin.Context) {
	orderID, err := uuid.Parse(c.Query("order_id"))
	if err != nil {
		middleware.RespondWithValidationError(c,
			validation.NewFieldError("order_id", "order_id must be a valid UUID", err))
		return
	}

	resp, err := h.service.CheckEligibility(c.Request.Context(), c.Param("code"), orderID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	common.SuccessResponse(c, resp)
}

// ApplyToOrder applies a code to an order
func (h *Handler) ApplyToOrder(c *gin.Context) {
	var req OrderRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}

	resp, err := h.service.ApplyToOrder(c.Request.Context(), c.Param("code"), req.OrderID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if !resp.Applied {
		common.SuccessResponseWithStatus(c, http.StatusOK, resp, "gift card already applied")
		return
	}
	common.SuccessResponse(c, resp)
}

// ========================================
// PUBLIC ENDPOINTS
// ========================================

// CheckBalance returns the balance of a code
func (h *Handler) CheckBalance(c *gin.Context) {
	resp, err := h.service.CheckBalance(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	common.SuccessResponse(c, resp)
}

// RegisterRoutes registers gift card routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, jwtSecret string, public ...gin.HandlerFunc) {
	cards := rg.Group("/giftcards")
	cards.GET("/balance/:code", append(public, h.CheckBalance)...)

	authed := cards.Group("")
	authed.Use(middleware.AuthMiddleware(jwtSecret))
	{
		authed.GET("/:id", h.GetCard)
		authed.GET("/:id/voucher", h.DownloadVoucher)
		authed.GET("/code/:code/eligibility", h.CheckEligibility)
		authed.POST("/code/:code/apply", h.ApplyToOrder)
	}

	admin := cards.Group("")
	admin.Use(middleware.AuthMiddleware(jwtSecret), middleware.RequireRole("admin"))
	{
		admin.POST("", h.CreateCard)
		admin.POST("/bulk", h.CreateBulk)
		admin.POST("/:id/debit", h.Debit)
		admin.POST("/:id/deliver", h.Deliver)
		admin.GET("/:id/transactions", h.ListTransactions)
	}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	appErr, ok := common.AsAppError(err)
	if !ok {
		logger.WithContext(c.Request.Context()).Error("unhandled gift card error", zap.Error(err))
		common.ErrorResponse(c, http.StatusInternalServerError, "internal server error")
		return
	}

	var valErr *validation.ValidationError
	if appErr.Code == http.StatusBadRequest && errors.As(appErr, &valErr) {
		middleware.RespondWithValidationError(c, valErr)
		return
	}

	if appErr.Code >= http.StatusInternalServerError {
		logger.WithContext(c.Request.Context()).Error(appErr.Message, zap.Error(appErr.Err))
	}
	common.AppErrorResponse(c, appErr)
}

func parseCardID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid gift card ID")
		return uuid.Nil, false
	}
	return id, true
}
