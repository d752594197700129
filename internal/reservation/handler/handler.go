package handler

import (
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/auth"
	"github.com/fekuna/omnipos-inventory-service/internal/reservation"
	"github.com/fekuna/omnipos-inventory-service/internal/reservation/dto"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"github.com/fekuna/omnipos-inventory-service/pkg/response"
	"github.com/gin-gonic/gin"
)

type ReservationHandler struct {
	uc     reservation.UseCase
	logger logger.ZapLogger
}

func NewReservationHandler(uc reservation.UseCase, log logger.ZapLogger) *ReservationHandler {
	return &ReservationHandler{uc: uc, logger: log}
}

type reserveRequest struct {
	StoreID   string     `json:"store_id" binding:"required"`
	VariantID string     `json:"variant_id" binding:"required"`
	Quantity  int64      `json:"quantity"`
	RefType   string     `json:"ref_type" binding:"required"`
	RefID     *string    `json:"ref_id"`
	Channel   string     `json:"channel" binding:"required"`
	Note      string     `json:"note"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (h *ReservationHandler) Reserve(c *gin.Context) {
	var req reserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	res, err := h.uc.Reserve(ctx, &dto.ReserveInput{
		MerchantID: auth.GetMerchantID(ctx),
		StoreID:    req.StoreID,
		VariantID:  req.VariantID,
		Quantity:   req.Quantity,
		RefType:    req.RefType,
		RefID:      req.RefID,
		Channel:    req.Channel,
		Note:       req.Note,
		ExpiresAt:  req.ExpiresAt,
		UserID:     auth.GetUserID(ctx),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{
		"id":       res.ID,
		"status":   res.Status,
		"quantity": res.Quantity,
		"channel":  res.Channel,
	})
}

func (h *ReservationHandler) Commit(c *gin.Context) {
	ctx := c.Request.Context()
	result, err := h.uc.Commit(ctx, auth.GetMerchantID(ctx), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{
		"id":             result.Reservation.ID,
		"status":         result.Reservation.Status,
		"channel":        result.Reservation.Channel,
		"on_hand_after":  result.OnHandAfter,
		"reserved_after": result.ReservedAfter,
	})
}

func (h *ReservationHandler) Release(c *gin.Context) {
	ctx := c.Request.Context()
	res, err := h.uc.Release(ctx, auth.GetMerchantID(ctx), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{
		"id":      res.ID,
		"status":  res.Status,
		"channel": res.Channel,
	})
}

type listQuery struct {
	StoreID   string `form:"store_id"`
	VariantID string `form:"variant_id"`
	Status    string `form:"status"`
	Channel   string `form:"channel"`
	Page      int    `form:"page,default=1"`
	PageSize  int    `form:"page_size,default=50"`
}

func (h *ReservationHandler) List(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	items, total, err := h.uc.List(ctx, &dto.Filters{
		MerchantID: auth.GetMerchantID(ctx),
		StoreID:    q.StoreID,
		VariantID:  q.VariantID,
		Status:     q.Status,
		Channel:    q.Channel,
		Page:       q.Page,
		PageSize:   q.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, items, total, q.Page, q.PageSize)
}
