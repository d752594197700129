package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/catalog"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/stock"
	"github.com/fekuna/omnipos-inventory-service/internal/stock/dto"
	"github.com/fekuna/omnipos-inventory-service/pkg/apperrors"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"github.com/fekuna/omnipos-inventory-service/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type stockUseCase struct {
	repo     stock.Repository
	catalog  catalog.Repository
	cache    stock.LevelCache
	cacheTTL time.Duration
	logger   logger.ZapLogger
}

func NewStockUseCase(repo stock.Repository, cat catalog.Repository, levelCache stock.LevelCache, cacheTTL time.Duration, log logger.ZapLogger) stock.UseCase {
	return &stockUseCase{
		repo:     repo,
		catalog:  cat,
		cache:    levelCache,
		cacheTTL: cacheTTL,
		logger:   log,
	}
}

// validatePair checks the (store, variant) pair belongs to the merchant and
// returns the variant for response enrichment.
func (uc *stockUseCase) validatePair(ctx context.Context, merchantID, storeID, variantID string) (*model.Variant, error) {
	store, err := uc.catalog.GetStore(ctx, merchantID, storeID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, apperrors.NotFound("store %s not found", storeID)
	}

	variant, err := uc.catalog.GetVariant(ctx, merchantID, variantID)
	if err != nil {
		return nil, err
	}
	if variant == nil {
		return nil, apperrors.NotFound("variant %s not found", variantID)
	}
	return variant, nil
}

func (uc *stockUseCase) GetAvailability(ctx context.Context, merchantID, storeID, variantID string) (*dto.Availability, error) {
	variant, err := uc.validatePair(ctx, merchantID, storeID, variantID)
	if err != nil {
		return nil, err
	}

	level, err := uc.getLevelCached(ctx, merchantID, storeID, variantID)
	if err != nil {
		return nil, err
	}

	inTransit, err := uc.repo.InTransitQty(ctx, merchantID, storeID, variantID)
	if err != nil {
		// in_transit is an auxiliary signal from the transfer subsystem;
		// availability itself is still valid without it.
		uc.logger.Warn("failed to read in-transit quantity", zap.Error(err))
		inTransit = 0
	}

	return &dto.Availability{
		VariantID:   variantID,
		StoreID:     storeID,
		SKU:         variant.SKU,
		ProductName: variant.ProductName,
		OnHand:      level.OnHand,
		Reserved:    level.Reserved,
		Available:   level.Available,
		InTransit:   inTransit,
	}, nil
}

func (uc *stockUseCase) getLevelCached(ctx context.Context, merchantID, storeID, variantID string) (*model.StockLevel, error) {
	key := stock.LevelCacheKey(merchantID, storeID, variantID)

	if uc.cache != nil {
		if val, err := uc.cache.Get(ctx, key); err == nil {
			var level model.StockLevel
			if err := json.Unmarshal([]byte(val), &level); err == nil {
				return &level, nil
			}
		}
	}

	level, err := uc.repo.GetLevel(ctx, merchantID, storeID, variantID)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if data, err := json.Marshal(level); err == nil {
			if err := uc.cache.Set(ctx, key, data, uc.cacheTTL); err != nil {
				uc.logger.Warn("failed to cache stock level", zap.Error(err))
			}
		}
	}
	return level, nil
}

func (uc *stockUseCase) Adjust(ctx context.Context, input *dto.AdjustmentInput) (*model.StockLedgerEntry, int64, error) {
	if input.QtyDelta == 0 {
		return nil, 0, apperrors.Validation("qty_delta must be non-zero")
	}
	if !model.ValidRefType(input.RefType) {
		return nil, 0, apperrors.Validation("unknown ref_type %q", input.RefType)
	}
	if input.RefType == model.RefReservationCommit {
		// Commit entries are written only by the reservation manager.
		return nil, 0, apperrors.Validation("ref_type %s cannot be written directly", model.RefReservationCommit)
	}

	if _, err := uc.validatePair(ctx, input.MerchantID, input.StoreID, input.VariantID); err != nil {
		return nil, 0, err
	}

	var refID *string
	if input.RefID != "" {
		refID = &input.RefID
	}
	var createdBy *string
	if input.UserID != "" {
		createdBy = &input.UserID
	}

	entry := &model.StockLedgerEntry{
		ID:         uuid.New().String(),
		MerchantID: input.MerchantID,
		StoreID:    input.StoreID,
		VariantID:  input.VariantID,
		QtyDelta:   input.QtyDelta,
		RefType:    input.RefType,
		RefID:      refID,
		Note:       input.Note,
		CreatedBy:  createdBy,
		CreatedAt:  time.Now(),
	}

	onHandAfter, err := uc.repo.AppendEntry(ctx, entry)
	if err != nil {
		return nil, 0, err
	}
	metrics.LedgerAppendsTotal.WithLabelValues(input.RefType).Inc()

	if onHandAfter < 0 {
		// Legitimate data-quality signal (ledger lagging behind reality),
		// alerted on rather than rejected.
		metrics.NegativeOnHand.Inc()
		uc.logger.Warn("on-hand went negative after ledger append",
			zap.String("store_id", input.StoreID),
			zap.String("variant_id", input.VariantID),
			zap.Int64("on_hand", onHandAfter),
		)
	}

	if uc.cache != nil {
		go uc.cache.Del(context.Background(), stock.LevelCacheKey(input.MerchantID, input.StoreID, input.VariantID))
	}

	return entry, onHandAfter, nil
}

func (uc *stockUseCase) ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockLedgerEntry, int, error) {
	return uc.repo.ListEntries(ctx, filters)
}
