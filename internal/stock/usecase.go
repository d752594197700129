package stock

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/stock/dto"
)

type UseCase interface {
	GetAvailability(ctx context.Context, merchantID, storeID, variantID string) (*dto.Availability, error)
	Adjust(ctx context.Context, input *dto.AdjustmentInput) (*model.StockLedgerEntry, int64, error)
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockLedgerEntry, int, error)
}
