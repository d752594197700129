package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/catalog"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/reservation"
	"github.com/fekuna/omnipos-inventory-service/internal/reservation/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/stock"
	"github.com/fekuna/omnipos-inventory-service/pkg/apperrors"
	"github.com/fekuna/omnipos-inventory-service/pkg/cache"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"github.com/fekuna/omnipos-inventory-service/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sweepBatchSize = 100

type Options struct {
	LockTTL     time.Duration
	LockRetries int
}

type reservationUseCase struct {
	repo       reservation.Repository
	stockRepo  stock.Repository
	catalog    catalog.Repository
	locker     cache.Locker
	levelCache stock.LevelCache
	opts       Options
	logger     logger.ZapLogger
}

func NewReservationUseCase(
	repo reservation.Repository,
	stockRepo stock.Repository,
	cat catalog.Repository,
	locker cache.Locker,
	levelCache stock.LevelCache,
	opts Options,
	log logger.ZapLogger,
) reservation.UseCase {
	if opts.LockTTL <= 0 {
		opts.LockTTL = 5 * time.Second
	}
	if opts.LockRetries <= 0 {
		opts.LockRetries = 3
	}
	return &reservationUseCase{
		repo:       repo,
		stockRepo:  stockRepo,
		catalog:    cat,
		locker:     locker,
		levelCache: levelCache,
		opts:       opts,
		logger:     log,
	}
}

func pairLockKey(merchantID, storeID, variantID string) string {
	return fmt.Sprintf("lock:stock:%s:%s:%s", merchantID, storeID, variantID)
}

// withPairLock serializes the check-then-write sequences for one
// (store, variant) pair. Two pairs never contend on the same key.
func (uc *reservationUseCase) withPairLock(ctx context.Context, merchantID, storeID, variantID string, fn func() error) error {
	lockKey := pairLockKey(merchantID, storeID, variantID)
	lockValue := uuid.New().String()

	acquired := false
	for i := 0; i < uc.opts.LockRetries; i++ {
		ok, err := uc.locker.AcquireLock(ctx, lockKey, lockValue, uc.opts.LockTTL)
		if err != nil {
			uc.logger.Error("failed to acquire pair lock", zap.String("key", lockKey), zap.Error(err))
		}
		if ok {
			acquired = true
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	if !acquired {
		return apperrors.Busy()
	}
	defer uc.locker.ReleaseLock(ctx, lockKey, lockValue)

	return fn()
}

func (uc *reservationUseCase) invalidateLevel(merchantID, storeID, variantID string) {
	if uc.levelCache == nil {
		return
	}
	go uc.levelCache.Del(context.Background(), stock.LevelCacheKey(merchantID, storeID, variantID))
}

func (uc *reservationUseCase) Reserve(ctx context.Context, input *dto.ReserveInput) (*model.Reservation, error) {
	if input.Quantity <= 0 {
		return nil, apperrors.Validation("quantity must be positive")
	}
	if input.Channel == "" {
		return nil, apperrors.Validation("channel is required")
	}
	if input.RefType == "" {
		return nil, apperrors.Validation("ref_type is required")
	}
	if input.ExpiresAt != nil && !input.ExpiresAt.After(time.Now()) {
		return nil, apperrors.Validation("expires_at must be in the future")
	}

	// Scope checks happen before any lock is taken.
	store, err := uc.catalog.GetStore(ctx, input.MerchantID, input.StoreID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, apperrors.NotFound("store %s not found", input.StoreID)
	}
	variant, err := uc.catalog.GetVariant(ctx, input.MerchantID, input.VariantID)
	if err != nil {
		return nil, err
	}
	if variant == nil {
		return nil, apperrors.NotFound("variant %s not found", input.VariantID)
	}

	var createdBy *string
	if input.UserID != "" {
		createdBy = &input.UserID
	}

	res := &model.Reservation{
		ID:         uuid.New().String(),
		MerchantID: input.MerchantID,
		StoreID:    input.StoreID,
		VariantID:  input.VariantID,
		Quantity:   input.Quantity,
		Status:     model.ReservationActive,
		RefType:    input.RefType,
		RefID:      input.RefID,
		Channel:    input.Channel,
		Note:       input.Note,
		ExpiresAt:  input.ExpiresAt,
		CreatedBy:  createdBy,
		CreatedAt:  time.Now(),
	}

	// The availability check and the reservation insert run under the pair
	// lock so concurrent Reserve calls serialize: no two can observe the same
	// available and both fit into it.
	err = uc.withPairLock(ctx, input.MerchantID, input.StoreID, input.VariantID, func() error {
		level, err := uc.stockRepo.GetLevel(ctx, input.MerchantID, input.StoreID, input.VariantID)
		if err != nil {
			return err
		}
		if level.Available < input.Quantity {
			metrics.ReserveTotal.WithLabelValues("insufficient_stock").Inc()
			return apperrors.InsufficientStock(input.Quantity, level.Available)
		}
		return uc.repo.Create(ctx, res)
	})
	if err != nil {
		if !apperrors.Is(err, apperrors.CodeInsufficientStock) {
			metrics.ReserveTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	metrics.ReserveTotal.WithLabelValues("success").Inc()
	uc.invalidateLevel(input.MerchantID, input.StoreID, input.VariantID)

	uc.logger.Debug("reservation created",
		zap.String("reservation_id", res.ID),
		zap.String("variant_id", res.VariantID),
		zap.Int64("quantity", res.Quantity),
		zap.String("channel", res.Channel),
	)
	return res, nil
}

// invalidStateFor re-reads the reservation so the caller learns the status
// that actually won the race.
func (uc *reservationUseCase) invalidStateFor(ctx context.Context, merchantID, id string) error {
	current, err := uc.repo.GetByID(ctx, merchantID, id)
	if err != nil || current == nil {
		return apperrors.InvalidState("UNKNOWN")
	}
	return apperrors.InvalidState(current.Status)
}

func (uc *reservationUseCase) Commit(ctx context.Context, merchantID, reservationID string) (*dto.CommitResult, error) {
	res, err := uc.repo.GetByID(ctx, merchantID, reservationID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, apperrors.NotFound("reservation %s not found", reservationID)
	}
	if res.IsTerminal() {
		return nil, apperrors.InvalidState(res.Status)
	}

	now := time.Now()
	refID := res.ID
	entry := &model.StockLedgerEntry{
		ID:         uuid.New().String(),
		MerchantID: res.MerchantID,
		StoreID:    res.StoreID,
		VariantID:  res.VariantID,
		QtyDelta:   -res.Quantity,
		RefType:    model.RefReservationCommit,
		RefID:      &refID,
		Note:       res.Note,
		CreatedAt:  now,
	}

	var result *dto.CommitResult
	err = uc.withPairLock(ctx, res.MerchantID, res.StoreID, res.VariantID, func() error {
		committed, err := uc.repo.CommitWithLedger(ctx, res, entry)
		if err != nil {
			return err
		}
		if !committed {
			return uc.invalidStateFor(ctx, merchantID, reservationID)
		}

		level, err := uc.stockRepo.GetLevel(ctx, res.MerchantID, res.StoreID, res.VariantID)
		if err != nil {
			return err
		}

		res.Status = model.ReservationCommitted
		res.ResolvedAt = &now
		result = &dto.CommitResult{
			Reservation:   res,
			OnHandAfter:   level.OnHand,
			ReservedAfter: level.Reserved,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.TransitionsTotal.WithLabelValues(model.ReservationCommitted).Inc()
	metrics.LedgerAppendsTotal.WithLabelValues(model.RefReservationCommit).Inc()
	uc.invalidateLevel(res.MerchantID, res.StoreID, res.VariantID)

	uc.logger.Debug("reservation committed",
		zap.String("reservation_id", res.ID),
		zap.Int64("on_hand_after", result.OnHandAfter),
	)
	return result, nil
}

func (uc *reservationUseCase) Release(ctx context.Context, merchantID, reservationID string) (*model.Reservation, error) {
	res, err := uc.repo.GetByID(ctx, merchantID, reservationID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, apperrors.NotFound("reservation %s not found", reservationID)
	}
	if res.IsTerminal() {
		return nil, apperrors.InvalidState(res.Status)
	}

	now := time.Now()
	err = uc.withPairLock(ctx, res.MerchantID, res.StoreID, res.VariantID, func() error {
		ok, err := uc.repo.TransitionFromActive(ctx, merchantID, reservationID, model.ReservationReleased, now)
		if err != nil {
			return err
		}
		if !ok {
			return uc.invalidStateFor(ctx, merchantID, reservationID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// No ledger entry on release: the hold disappears and available recovers.
	metrics.TransitionsTotal.WithLabelValues(model.ReservationReleased).Inc()
	uc.invalidateLevel(res.MerchantID, res.StoreID, res.VariantID)

	res.Status = model.ReservationReleased
	res.ResolvedAt = &now
	return res, nil
}

func (uc *reservationUseCase) List(ctx context.Context, filters *dto.Filters) ([]model.Reservation, int, error) {
	return uc.repo.List(ctx, filters)
}

func (uc *reservationUseCase) ExpireSweep(ctx context.Context, now time.Time) (int, error) {
	expired := 0
	for {
		batch, err := uc.repo.ListExpired(ctx, now, sweepBatchSize)
		if err != nil {
			return expired, err
		}
		if len(batch) == 0 {
			return expired, nil
		}

		progressed := false
		for _, res := range batch {
			// Cancellable between pairs; each expiry stands alone.
			if err := ctx.Err(); err != nil {
				return expired, err
			}

			ok, err := uc.repo.TransitionFromActive(ctx, res.MerchantID, res.ID, model.ReservationExpired, now)
			if err != nil {
				uc.logger.Error("failed to expire reservation",
					zap.String("reservation_id", res.ID), zap.Error(err))
				continue
			}
			if !ok {
				// Commit or Release won first. That outcome is final.
				continue
			}

			expired++
			progressed = true
			metrics.TransitionsTotal.WithLabelValues(model.ReservationExpired).Inc()
			metrics.ExpiredTotal.Inc()
			uc.invalidateLevel(res.MerchantID, res.StoreID, res.VariantID)
		}

		if len(batch) < sweepBatchSize {
			return expired, nil
		}
		if !progressed {
			// Every row in a full batch was resolved by someone else; avoid
			// spinning on the same window.
			return expired, nil
		}
	}
}
