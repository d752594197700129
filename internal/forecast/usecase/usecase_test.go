package usecase

import (
	"context"
	"testing"
	"time"

	catalogdto "github.com/fekuna/omnipos-inventory-service/internal/catalog/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/forecast/dto"
	stockdto "github.com/fekuna/omnipos-inventory-service/internal/stock/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/pkg/apperrors"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testMerchant = "m1"
	testStore    = "s1"
)

// salesStats is one window's sales history; fakeSales keys them by window
// length so each test can shape the 7/30/90-day stats independently.
type salesStats struct {
	totalQty      int64
	daysWithSales int
}

type fakeSales struct {
	// keyed by variantID then window days
	stats map[string]map[int]salesStats
	now   time.Time
}

func (f *fakeSales) SalesStats(_ context.Context, _, _, variantID string, since time.Time) (int64, int, error) {
	days := int(f.now.Sub(since).Hours()/24 + 0.5)
	s := f.stats[variantID][days]
	return s.totalQty, s.daysWithSales, nil
}

type fakeStock struct {
	levels map[string]*model.StockLevel // keyed by variantID
}

func (f *fakeStock) AppendEntry(context.Context, *model.StockLedgerEntry) (int64, error) {
	return 0, nil
}

func (f *fakeStock) GetLevel(_ context.Context, _, storeID, variantID string) (*model.StockLevel, error) {
	if lvl, ok := f.levels[variantID]; ok {
		cp := *lvl
		return &cp, nil
	}
	return &model.StockLevel{StoreID: storeID, VariantID: variantID}, nil
}

func (f *fakeStock) ListEntries(context.Context, *stockdto.MovementFilters) ([]model.StockLedgerEntry, int, error) {
	return nil, 0, nil
}

func (f *fakeStock) InTransitQty(context.Context, string, string, string) (int64, error) {
	return 0, nil
}

type fakeCatalog struct {
	variants []model.Variant
	settings *model.MerchantSettings
}

func (f *fakeCatalog) GetStore(_ context.Context, merchantID, storeID string) (*model.Store, error) {
	if merchantID == testMerchant && storeID == testStore {
		return &model.Store{BaseModel: model.BaseModel{ID: storeID}, MerchantID: merchantID}, nil
	}
	return nil, nil
}

func (f *fakeCatalog) GetVariant(_ context.Context, merchantID, variantID string) (*model.Variant, error) {
	for i := range f.variants {
		if f.variants[i].ID == variantID && f.variants[i].MerchantID == merchantID {
			return &f.variants[i], nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) ListVariants(_ context.Context, filters *catalogdto.VariantFilters) ([]model.Variant, int, error) {
	if filters.Page > 1 {
		return nil, len(f.variants), nil
	}
	return f.variants, len(f.variants), nil
}

func (f *fakeCatalog) GetSettings(context.Context, string) (*model.MerchantSettings, error) {
	return f.settings, nil
}

func steadySeller(variantID string, perDay int64) map[int]salesStats {
	out := map[int]salesStats{}
	for _, days := range []int{7, 30, 90} {
		out[days] = salesStats{totalQty: perDay * int64(days), daysWithSales: days}
	}
	return out
}

func variantFixture(id string, lead, safety float64) model.Variant {
	return model.Variant{
		BaseModel:          model.BaseModel{ID: id},
		MerchantID:         testMerchant,
		SKU:                "SKU-" + id,
		ProductName:        "Product " + id,
		VendorLeadTimeDays: lead,
		SafetyStockDays:    safety,
		IsActive:           true,
	}
}

func newForecastFixture(sales *fakeSales, stockRepo *fakeStock, cat *fakeCatalog) *forecastUseCase {
	uc := NewForecastUseCase(sales, stockRepo, cat, Defaults{
		Threshold:       0,
		RiskHorizonDays: 30,
		MinConfidence:   0.3,
	}, logger.NewNop()).(*forecastUseCase)
	uc.now = func() time.Time { return sales.now }
	return uc
}

func TestReorderForecastSteadySeller(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	sales := &fakeSales{now: now, stats: map[string]map[int]salesStats{
		"v1": steadySeller("v1", 2),
	}}
	stockRepo := &fakeStock{levels: map[string]*model.StockLevel{
		"v1": {OnHand: 12, Reserved: 2, Available: 10},
	}}
	cat := &fakeCatalog{variants: []model.Variant{variantFixture("v1", 3, 0)}}
	uc := newForecastFixture(sales, stockRepo, cat)

	fc, err := uc.ReorderForecast(context.Background(), &dto.ForecastQuery{
		MerchantID: testMerchant, StoreID: testStore, VariantID: "v1",
	})
	require.NoError(t, err)

	// 2 units/day against available=10 → stockout in 5 days.
	assert.Equal(t, 7, fc.PrimaryWindowDays)
	require.NotNil(t, fc.DaysUntilStockout)
	assert.InDelta(t, 5.0, *fc.DaysUntilStockout, 0.001)
	require.NotNil(t, fc.PredictedStockoutDate)
	assert.Equal(t, now.AddDate(0, 0, 5).Truncate(24*time.Hour), fc.PredictedStockoutDate.Truncate(24*time.Hour))
	assert.True(t, fc.IsAtRisk)
	assert.False(t, fc.InsufficientData)
	assert.Equal(t, 1.0, fc.ConfidenceScore)
	assert.Len(t, fc.SalesVelocity, 3)
}

func TestReorderForecastNoSalesHistory(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	sales := &fakeSales{now: now, stats: map[string]map[int]salesStats{}}
	stockRepo := &fakeStock{levels: map[string]*model.StockLevel{
		"v1": {OnHand: 5, Available: 5},
	}}
	cat := &fakeCatalog{variants: []model.Variant{variantFixture("v1", 3, 0)}}
	uc := newForecastFixture(sales, stockRepo, cat)

	fc, err := uc.ReorderForecast(context.Background(), &dto.ForecastQuery{
		MerchantID: testMerchant, StoreID: testStore, VariantID: "v1",
	})
	require.NoError(t, err)

	// Zero velocity never divides: no date, no risk, flagged as thin data.
	assert.Nil(t, fc.DaysUntilStockout)
	assert.Nil(t, fc.PredictedStockoutDate)
	assert.False(t, fc.IsAtRisk)
	assert.True(t, fc.InsufficientData)
	assert.Zero(t, fc.ConfidenceScore)
}

func TestReorderForecastUnknownVariant(t *testing.T) {
	sales := &fakeSales{now: time.Now(), stats: map[string]map[int]salesStats{}}
	cat := &fakeCatalog{}
	uc := newForecastFixture(sales, &fakeStock{}, cat)

	_, err := uc.ReorderForecast(context.Background(), &dto.ForecastQuery{
		MerchantID: testMerchant, StoreID: testStore, VariantID: "ghost",
	})
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestAtRiskItemsFiltersAndSorts(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	sales := &fakeSales{now: now, stats: map[string]map[int]salesStats{
		"fast":  steadySeller("fast", 5),  // available 10 → 2 days out
		"slow":  steadySeller("slow", 1),  // available 10 → 10 days out
		"fine":  steadySeller("fine", 1),  // available 500 → far out
		"quiet": {},                       // no history at all
	}}
	stockRepo := &fakeStock{levels: map[string]*model.StockLevel{
		"fast":  {OnHand: 10, Available: 10},
		"slow":  {OnHand: 10, Available: 10},
		"fine":  {OnHand: 500, Available: 500},
		"quiet": {OnHand: 3, Available: 3},
	}}
	cat := &fakeCatalog{variants: []model.Variant{
		variantFixture("slow", 3, 0),
		variantFixture("fine", 3, 0),
		variantFixture("quiet", 3, 0),
		variantFixture("fast", 3, 0),
	}}
	uc := newForecastFixture(sales, stockRepo, cat)

	items, err := uc.AtRiskItems(context.Background(), &dto.AtRiskQuery{
		MerchantID: testMerchant, StoreID: testStore,
	})
	require.NoError(t, err)

	// Only items inside the 30-day horizon, most urgent first. The quiet
	// variant has no velocity and thus can never be at risk.
	require.Len(t, items, 2)
	assert.Equal(t, "fast", items[0].VariantID)
	assert.Equal(t, "slow", items[1].VariantID)
}

func TestAtRiskRespectsConfidenceFloor(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	// One sale day in 90: high burst velocity but almost no signal.
	sales := &fakeSales{now: now, stats: map[string]map[int]salesStats{
		"spiky": {
			7:  {totalQty: 70, daysWithSales: 1},
			30: {totalQty: 70, daysWithSales: 1},
			90: {totalQty: 70, daysWithSales: 1},
		},
	}}
	stockRepo := &fakeStock{levels: map[string]*model.StockLevel{
		"spiky": {OnHand: 10, Available: 10},
	}}
	cat := &fakeCatalog{variants: []model.Variant{variantFixture("spiky", 3, 0)}}
	uc := newForecastFixture(sales, stockRepo, cat)

	items, err := uc.AtRiskItems(context.Background(), &dto.AtRiskQuery{
		MerchantID: testMerchant, StoreID: testStore,
	})
	require.NoError(t, err)
	assert.Empty(t, items)

	// Caller may lower the floor and see the spike.
	loose := 0.001
	items, err = uc.AtRiskItems(context.Background(), &dto.AtRiskQuery{
		MerchantID: testMerchant, StoreID: testStore, MinConfidence: &loose,
	})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestReorderSuggestions(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	sales := &fakeSales{now: now, stats: map[string]map[int]salesStats{
		"v1": {30: {totalQty: 60, daysWithSales: 30}}, // 2/day
	}}
	stockRepo := &fakeStock{levels: map[string]*model.StockLevel{
		"v1": {OnHand: 15, Available: 15},
	}}
	threshold := int64(20)
	v := variantFixture("v1", 3, 0)
	v.ReorderPoint = &threshold
	cat := &fakeCatalog{variants: []model.Variant{v}}
	uc := newForecastFixture(sales, stockRepo, cat)

	suggestions, total, err := uc.ReorderSuggestions(context.Background(), &dto.SuggestionFilters{
		MerchantID: testMerchant, StoreID: testStore, Page: 1, PageSize: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, suggestions, 1)

	// ceil(2*(3+0) + 20 - 15) = 11
	s := suggestions[0]
	assert.Equal(t, int64(11), s.SuggestedQty)
	assert.Equal(t, int64(20), s.Threshold)
	assert.Equal(t, int64(-5), s.CurrentVsThreshold)
	assert.InDelta(t, 2.0, s.DailyAvg, 0.001)
}

func TestReorderSuggestionsMerchantDefaultThreshold(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	sales := &fakeSales{now: now, stats: map[string]map[int]salesStats{}}
	stockRepo := &fakeStock{levels: map[string]*model.StockLevel{
		"v1": {OnHand: 2, Available: 2},
	}}
	cat := &fakeCatalog{
		variants: []model.Variant{variantFixture("v1", 3, 0)},
		settings: &model.MerchantSettings{MerchantID: testMerchant, DefaultThreshold: 10},
	}
	uc := newForecastFixture(sales, stockRepo, cat)

	suggestions, _, err := uc.ReorderSuggestions(context.Background(), &dto.SuggestionFilters{
		MerchantID: testMerchant, StoreID: testStore, Page: 1, PageSize: 50,
	})
	require.NoError(t, err)
	require.Len(t, suggestions, 1)

	// No per-variant reorder point: the merchant default applies. With zero
	// velocity the suggestion is pure threshold backfill: max(0, 10-2).
	assert.Equal(t, int64(10), suggestions[0].Threshold)
	assert.Equal(t, int64(8), suggestions[0].SuggestedQty)
}
