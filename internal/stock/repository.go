package stock

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/stock/dto"
)

// Repository is the ledger's storage surface. The ledger is append-only:
// there is no update or delete path here at all.
type Repository interface {
	// AppendEntry inserts the entry and returns the new running on-hand for
	// the (store, variant) pair, computed in the same transaction.
	AppendEntry(ctx context.Context, entry *model.StockLedgerEntry) (onHandAfter int64, err error)

	// GetLevel derives {on_hand, reserved, available} for the pair from a
	// single consistent snapshot (one statement, one snapshot).
	GetLevel(ctx context.Context, merchantID, storeID, variantID string) (*model.StockLevel, error)

	ListEntries(ctx context.Context, filters *dto.MovementFilters) ([]model.StockLedgerEntry, int, error)

	// InTransitQty sums open inbound transfers for the pair. Read-only signal
	// owned by the transfer subsystem, not part of this engine's state.
	InTransitQty(ctx context.Context, merchantID, storeID, variantID string) (int64, error)
}
