package handler

import (
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/auth"
	"github.com/fekuna/omnipos-inventory-service/internal/stock"
	"github.com/fekuna/omnipos-inventory-service/internal/stock/dto"
	"github.com/fekuna/omnipos-inventory-service/pkg/apperrors"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"github.com/fekuna/omnipos-inventory-service/pkg/response"
	"github.com/gin-gonic/gin"
)

type StockHandler struct {
	uc     stock.UseCase
	logger logger.ZapLogger
}

func NewStockHandler(uc stock.UseCase, log logger.ZapLogger) *StockHandler {
	return &StockHandler{uc: uc, logger: log}
}

type availabilityQuery struct {
	VariantID string `form:"variant_id" binding:"required"`
	StoreID   string `form:"store_id" binding:"required"`
}

func (h *StockHandler) GetAvailability(c *gin.Context) {
	var q availabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	availability, err := h.uc.GetAvailability(ctx, auth.GetMerchantID(ctx), q.StoreID, q.VariantID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, availability)
}

type adjustmentRequest struct {
	StoreID   string `json:"store_id" binding:"required"`
	VariantID string `json:"variant_id" binding:"required"`
	QtyDelta  int64  `json:"qty_delta"`
	RefType   string `json:"ref_type" binding:"required"`
	RefID     string `json:"ref_id"`
	Note      string `json:"note"`
}

func (h *StockHandler) CreateAdjustment(c *gin.Context) {
	var req adjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	entry, onHandAfter, err := h.uc.Adjust(ctx, &dto.AdjustmentInput{
		MerchantID: auth.GetMerchantID(ctx),
		StoreID:    req.StoreID,
		VariantID:  req.VariantID,
		QtyDelta:   req.QtyDelta,
		RefType:    req.RefType,
		RefID:      req.RefID,
		Note:       req.Note,
		UserID:     auth.GetUserID(ctx),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{
		"entry":         entry,
		"on_hand_after": onHandAfter,
	})
}

type movementsQuery struct {
	StoreID   string `form:"store_id"`
	VariantID string `form:"variant_id"`
	RefType   string `form:"ref_type"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Page      int    `form:"page,default=1"`
	PageSize  int    `form:"page_size,default=50"`
}

func (h *StockHandler) ListMovements(c *gin.Context) {
	var q movementsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	filters := &dto.MovementFilters{
		MerchantID: auth.GetMerchantID(c.Request.Context()),
		StoreID:    q.StoreID,
		VariantID:  q.VariantID,
		RefType:    q.RefType,
		Page:       q.Page,
		PageSize:   q.PageSize,
	}

	if q.StartDate != "" {
		t, err := time.Parse(time.RFC3339, q.StartDate)
		if err != nil {
			response.Error(c, apperrors.Validation("start_date must be RFC3339"))
			return
		}
		filters.StartDate = &t
	}
	if q.EndDate != "" {
		t, err := time.Parse(time.RFC3339, q.EndDate)
		if err != nil {
			response.Error(c, apperrors.Validation("end_date must be RFC3339"))
			return
		}
		filters.EndDate = &t
	}

	entries, total, err := h.uc.ListMovements(c.Request.Context(), filters)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, entries, total, q.Page, q.PageSize)
}
