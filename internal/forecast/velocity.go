package forecast

import (
	"math"
	"sort"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

// DefaultWindows are the rolling windows velocity is computed over, in days.
var DefaultWindows = []int{7, 30, 90}

// ComputeVelocity turns raw sale totals for one window into a SalesVelocity.
// Confidence grows with the share of calendar days that actually saw a sale
// and is capped at 1. No sales at all gives daily_avg 0 and confidence 0,
// which downstream treats as insufficient data, not a zero-velocity forecast.
func ComputeVelocity(periodDays int, totalQty int64, daysWithSales int) model.SalesVelocity {
	v := model.SalesVelocity{
		PeriodDays:    periodDays,
		TotalQty:      totalQty,
		DaysWithSales: daysWithSales,
	}
	if periodDays <= 0 {
		return v
	}

	v.DailyAvg = float64(totalQty) / float64(periodDays)

	confidence := float64(daysWithSales) / float64(periodDays)
	if confidence > 1 {
		confidence = 1
	}
	v.Confidence = confidence
	return v
}

// PrimaryWindow picks the shortest window meeting minConfidence, falling back
// to the longest window otherwise.
func PrimaryWindow(windows []model.SalesVelocity, minConfidence float64) model.SalesVelocity {
	if len(windows) == 0 {
		return model.SalesVelocity{}
	}

	sorted := make([]model.SalesVelocity, len(windows))
	copy(sorted, windows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PeriodDays < sorted[j].PeriodDays })

	for _, w := range sorted {
		if w.Confidence >= minConfidence {
			return w
		}
	}
	return sorted[len(sorted)-1]
}

// Prediction is the stockout outlook for one (store, variant) pair.
type Prediction struct {
	DaysUntilStockout *float64
	StockoutDate      *time.Time
	AtRisk            bool
}

// PredictStockout projects when available stock runs out at the given
// velocity. Zero or negative velocity yields no prediction (never a division
// failure). The at-risk flag requires both a near horizon and enough
// confidence, so sparse history cannot raise false alerts.
func PredictStockout(available int64, v model.SalesVelocity, now time.Time, horizonDays, minConfidence float64) Prediction {
	if v.DailyAvg <= 0 {
		return Prediction{}
	}

	days := float64(available) / v.DailyAvg
	if days < 0 {
		days = 0
	}
	date := now.Add(time.Duration(days * float64(24*time.Hour)))

	return Prediction{
		DaysUntilStockout: &days,
		StockoutDate:      &date,
		AtRisk:            days < horizonDays && v.Confidence >= minConfidence,
	}
}

// SuggestQty computes the order quantity that brings projected stock, after
// lead-time and safety-stock consumption, back above the threshold. Never
// negative.
func SuggestQty(dailyAvg, leadTimeDays, safetyStockDays float64, threshold, available int64) int64 {
	need := dailyAvg*(leadTimeDays+safetyStockDays) + float64(threshold) - float64(available)
	if need <= 0 {
		return 0
	}
	return int64(math.Ceil(need))
}
