package model

import "time"

// SalesVelocity is the rolling daily-average sales for one window length,
// computed from committed-sale ledger entries.
type SalesVelocity struct {
	PeriodDays    int     `json:"period_days"`
	TotalQty      int64   `json:"total_qty"`
	DaysWithSales int     `json:"days_with_sales"`
	DailyAvg      float64 `json:"daily_avg"`
	Confidence    float64 `json:"confidence"` // 0..1
}

// ReorderForecast combines current availability with velocity to predict a
// stockout and recommend an order quantity. Computed on read, never persisted.
type ReorderForecast struct {
	VariantID             string          `json:"variant_id"`
	StoreID               string          `json:"store_id"`
	SKU                   string          `json:"sku"`
	ProductName           string          `json:"product_name"`
	CurrentOnHand         int64           `json:"current_on_hand"`
	CurrentReserved       int64           `json:"current_reserved"`
	Available             int64           `json:"available"`
	SalesVelocity         []SalesVelocity `json:"sales_velocity"`
	PrimaryWindowDays     int             `json:"primary_window_days"`
	PredictedStockoutDate *time.Time      `json:"predicted_stockout_date"`
	DaysUntilStockout     *float64        `json:"days_until_stockout"`
	IsAtRisk              bool            `json:"is_at_risk"`
	RecommendedOrderQty   int64           `json:"recommended_order_qty"`
	ConfidenceScore       float64         `json:"confidence_score"`
	InsufficientData      bool            `json:"insufficient_data"`
}

// ReorderSuggestion is the per-variant row of the reorder suggestions list.
type ReorderSuggestion struct {
	VariantID          string  `json:"variant_id"`
	StoreID            string  `json:"store_id"`
	SKU                string  `json:"sku"`
	ProductName        string  `json:"product_name"`
	OnHand             int64   `json:"on_hand"`
	Available          int64   `json:"available"`
	ReorderPoint       *int64  `json:"reorder_point"`
	Threshold          int64   `json:"threshold"`
	SuggestedQty       int64   `json:"suggested_qty"`
	CurrentVsThreshold int64   `json:"current_vs_threshold"`
	DailyAvg           float64 `json:"daily_avg"`
}
