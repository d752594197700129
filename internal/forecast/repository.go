package forecast

import (
	"context"
	"time"
)

// Repository reads committed sales history from the stock ledger. SALE and
// RESERVATION_COMMIT entries both represent committed sales; returns and
// transfers are excluded.
type Repository interface {
	// SalesStats returns the summed sale magnitude and the count of distinct
	// calendar days with at least one sale since the given time.
	SalesStats(ctx context.Context, merchantID, storeID, variantID string, since time.Time) (totalQty int64, daysWithSales int, err error)
}
