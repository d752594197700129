package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/catalog"
	catalogdto "github.com/fekuna/omnipos-inventory-service/internal/catalog/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/forecast"
	"github.com/fekuna/omnipos-inventory-service/internal/forecast/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/stock"
	"github.com/fekuna/omnipos-inventory-service/pkg/apperrors"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"go.uber.org/zap"
)

// Defaults apply when a merchant has no settings row.
type Defaults struct {
	Threshold       int64
	RiskHorizonDays float64
	MinConfidence   float64
}

type forecastUseCase struct {
	repo      forecast.Repository
	stockRepo stock.Repository
	catalog   catalog.Repository
	defaults  Defaults
	logger    logger.ZapLogger
	now       func() time.Time
}

func NewForecastUseCase(repo forecast.Repository, stockRepo stock.Repository, cat catalog.Repository, defaults Defaults, log logger.ZapLogger) forecast.UseCase {
	if defaults.RiskHorizonDays <= 0 {
		defaults.RiskHorizonDays = 30
	}
	return &forecastUseCase{
		repo:      repo,
		stockRepo: stockRepo,
		catalog:   cat,
		defaults:  defaults,
		logger:    log,
		now:       time.Now,
	}
}

// effectiveSettings resolves the merchant's thresholds, falling back to the
// service defaults.
func (uc *forecastUseCase) effectiveSettings(ctx context.Context, merchantID string) Defaults {
	settings, err := uc.catalog.GetSettings(ctx, merchantID)
	if err != nil {
		uc.logger.Warn("failed to load merchant settings, using defaults", zap.Error(err))
		return uc.defaults
	}
	if settings == nil {
		return uc.defaults
	}

	out := Defaults{
		Threshold:       settings.DefaultThreshold,
		RiskHorizonDays: settings.RiskHorizonDays,
		MinConfidence:   settings.MinConfidence,
	}
	if out.RiskHorizonDays <= 0 {
		out.RiskHorizonDays = uc.defaults.RiskHorizonDays
	}
	if out.MinConfidence <= 0 {
		out.MinConfidence = uc.defaults.MinConfidence
	}
	return out
}

func effectiveThreshold(variant *model.Variant, settings Defaults) int64 {
	if variant.ReorderPoint != nil {
		return *variant.ReorderPoint
	}
	return settings.Threshold
}

func (uc *forecastUseCase) velocities(ctx context.Context, merchantID, storeID, variantID string, windows []int, now time.Time) ([]model.SalesVelocity, error) {
	out := make([]model.SalesVelocity, 0, len(windows))
	for _, days := range windows {
		since := now.AddDate(0, 0, -days)
		totalQty, daysWithSales, err := uc.repo.SalesStats(ctx, merchantID, storeID, variantID, since)
		if err != nil {
			return nil, err
		}
		out = append(out, forecast.ComputeVelocity(days, totalQty, daysWithSales))
	}
	return out, nil
}

// buildForecast assembles the full forecast for one validated pair.
func (uc *forecastUseCase) buildForecast(ctx context.Context, variant *model.Variant, storeID string, windows []int, settings Defaults, minConfidence float64) (*model.ReorderForecast, error) {
	now := uc.now()

	level, err := uc.stockRepo.GetLevel(ctx, variant.MerchantID, storeID, variant.ID)
	if err != nil {
		return nil, err
	}

	velocities, err := uc.velocities(ctx, variant.MerchantID, storeID, variant.ID, windows, now)
	if err != nil {
		return nil, err
	}

	primary := forecast.PrimaryWindow(velocities, minConfidence)
	prediction := forecast.PredictStockout(level.Available, primary, now, settings.RiskHorizonDays, minConfidence)

	threshold := effectiveThreshold(variant, settings)
	suggested := forecast.SuggestQty(primary.DailyAvg, variant.VendorLeadTimeDays, variant.SafetyStockDays, threshold, level.Available)

	insufficient := primary.DailyAvg <= 0

	return &model.ReorderForecast{
		VariantID:             variant.ID,
		StoreID:               storeID,
		SKU:                   variant.SKU,
		ProductName:           variant.ProductName,
		CurrentOnHand:         level.OnHand,
		CurrentReserved:       level.Reserved,
		Available:             level.Available,
		SalesVelocity:         velocities,
		PrimaryWindowDays:     primary.PeriodDays,
		PredictedStockoutDate: prediction.StockoutDate,
		DaysUntilStockout:     prediction.DaysUntilStockout,
		IsAtRisk:              prediction.AtRisk,
		RecommendedOrderQty:   suggested,
		ConfidenceScore:       primary.Confidence,
		InsufficientData:      insufficient,
	}, nil
}

func (uc *forecastUseCase) ReorderForecast(ctx context.Context, q *dto.ForecastQuery) (*model.ReorderForecast, error) {
	store, err := uc.catalog.GetStore(ctx, q.MerchantID, q.StoreID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, apperrors.NotFound("store %s not found", q.StoreID)
	}
	variant, err := uc.catalog.GetVariant(ctx, q.MerchantID, q.VariantID)
	if err != nil {
		return nil, err
	}
	if variant == nil {
		return nil, apperrors.NotFound("variant %s not found", q.VariantID)
	}

	windows := append([]int(nil), forecast.DefaultWindows...)
	if q.WindowDays > 0 {
		found := false
		for _, w := range windows {
			if w == q.WindowDays {
				found = true
				break
			}
		}
		if !found {
			windows = append(windows, q.WindowDays)
			sort.Ints(windows)
		}
	}

	settings := uc.effectiveSettings(ctx, q.MerchantID)
	return uc.buildForecast(ctx, variant, q.StoreID, windows, settings, settings.MinConfidence)
}

func (uc *forecastUseCase) AtRiskItems(ctx context.Context, q *dto.AtRiskQuery) ([]model.ReorderForecast, error) {
	store, err := uc.catalog.GetStore(ctx, q.MerchantID, q.StoreID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, apperrors.NotFound("store %s not found", q.StoreID)
	}

	limit := q.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	settings := uc.effectiveSettings(ctx, q.MerchantID)
	minConfidence := settings.MinConfidence
	if q.MinConfidence != nil {
		minConfidence = *q.MinConfidence
	}

	active := true
	out := make([]model.ReorderForecast, 0, limit)
	for page := 1; len(out) < limit; page++ {
		variants, total, err := uc.catalog.ListVariants(ctx, &catalogdto.VariantFilters{
			MerchantID: q.MerchantID,
			IsActive:   &active,
			Page:       page,
			PageSize:   100,
		})
		if err != nil {
			return nil, err
		}
		if len(variants) == 0 {
			break
		}

		for i := range variants {
			fc, err := uc.buildForecast(ctx, &variants[i], q.StoreID, forecast.DefaultWindows, settings, minConfidence)
			if err != nil {
				return nil, err
			}
			if fc.IsAtRisk {
				out = append(out, *fc)
				if len(out) == limit {
					break
				}
			}
		}

		if page*100 >= total {
			break
		}
	}

	// Most urgent first.
	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].DaysUntilStockout, out[j].DaysUntilStockout
		if di == nil || dj == nil {
			return dj == nil
		}
		return *di < *dj
	})
	return out, nil
}

func (uc *forecastUseCase) ReorderSuggestions(ctx context.Context, f *dto.SuggestionFilters) ([]model.ReorderSuggestion, int, error) {
	if f.StoreID != "" {
		store, err := uc.catalog.GetStore(ctx, f.MerchantID, f.StoreID)
		if err != nil {
			return nil, 0, err
		}
		if store == nil {
			return nil, 0, apperrors.NotFound("store %s not found", f.StoreID)
		}
	}

	settings := uc.effectiveSettings(ctx, f.MerchantID)
	now := uc.now()

	active := true
	variants, total, err := uc.catalog.ListVariants(ctx, &catalogdto.VariantFilters{
		MerchantID: f.MerchantID,
		CategoryID: f.CategoryID,
		IsActive:   &active,
		Page:       f.Page,
		PageSize:   f.PageSize,
	})
	if err != nil {
		return nil, 0, err
	}

	suggestions := make([]model.ReorderSuggestion, 0, len(variants))
	for i := range variants {
		v := &variants[i]

		level, err := uc.stockRepo.GetLevel(ctx, f.MerchantID, f.StoreID, v.ID)
		if err != nil {
			return nil, 0, err
		}

		// The 30-day window is the suggestion list's working velocity; the
		// full multi-window treatment lives on the single-pair forecast.
		since := now.AddDate(0, 0, -30)
		totalQty, daysWithSales, err := uc.repo.SalesStats(ctx, f.MerchantID, f.StoreID, v.ID, since)
		if err != nil {
			return nil, 0, err
		}
		velocity := forecast.ComputeVelocity(30, totalQty, daysWithSales)

		threshold := effectiveThreshold(v, settings)
		suggestions = append(suggestions, model.ReorderSuggestion{
			VariantID:          v.ID,
			StoreID:            f.StoreID,
			SKU:                v.SKU,
			ProductName:        v.ProductName,
			OnHand:             level.OnHand,
			Available:          level.Available,
			ReorderPoint:       v.ReorderPoint,
			Threshold:          threshold,
			SuggestedQty:       forecast.SuggestQty(velocity.DailyAvg, v.VendorLeadTimeDays, v.SafetyStockDays, threshold, level.Available),
			CurrentVsThreshold: level.Available - threshold,
			DailyAvg:           velocity.DailyAvg,
		})
	}

	return suggestions, total, nil
}
