package handler

import (
	"github.com/fekuna/omnipos-inventory-service/internal/auth"
	"github.com/fekuna/omnipos-inventory-service/internal/forecast"
	"github.com/fekuna/omnipos-inventory-service/internal/forecast/dto"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"github.com/fekuna/omnipos-inventory-service/pkg/response"
	"github.com/gin-gonic/gin"
)

type ForecastHandler struct {
	uc     forecast.UseCase
	logger logger.ZapLogger
}

func NewForecastHandler(uc forecast.UseCase, log logger.ZapLogger) *ForecastHandler {
	return &ForecastHandler{uc: uc, logger: log}
}

type forecastQuery struct {
	VariantID  string `form:"variant_id" binding:"required"`
	StoreID    string `form:"store_id" binding:"required"`
	WindowDays int    `form:"window_days"`
}

func (h *ForecastHandler) GetReorderForecast(c *gin.Context) {
	var q forecastQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	fc, err := h.uc.ReorderForecast(ctx, &dto.ForecastQuery{
		MerchantID: auth.GetMerchantID(ctx),
		StoreID:    q.StoreID,
		VariantID:  q.VariantID,
		WindowDays: q.WindowDays,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, fc)
}

type atRiskQuery struct {
	StoreID       string   `form:"store_id" binding:"required"`
	Limit         int      `form:"limit,default=50"`
	MinConfidence *float64 `form:"min_confidence"`
}

func (h *ForecastHandler) ListAtRiskItems(c *gin.Context) {
	var q atRiskQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	items, err := h.uc.AtRiskItems(ctx, &dto.AtRiskQuery{
		MerchantID:    auth.GetMerchantID(ctx),
		StoreID:       q.StoreID,
		Limit:         q.Limit,
		MinConfidence: q.MinConfidence,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"items": items, "count": len(items)})
}

type suggestionsQuery struct {
	StoreID    string `form:"store_id" binding:"required"`
	CategoryID string `form:"category_id"`
	Page       int    `form:"page,default=1"`
	PageSize   int    `form:"page_size,default=50"`
}

func (h *ForecastHandler) ListReorderSuggestions(c *gin.Context) {
	var q suggestionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	items, total, err := h.uc.ReorderSuggestions(ctx, &dto.SuggestionFilters{
		MerchantID: auth.GetMerchantID(ctx),
		StoreID:    q.StoreID,
		CategoryID: q.CategoryID,
		Page:       q.Page,
		PageSize:   q.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, items, total, q.Page, q.PageSize)
}
