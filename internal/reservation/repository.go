package reservation

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/reservation/dto"
)

type Repository interface {
	Create(ctx context.Context, res *model.Reservation) error
	GetByID(ctx context.Context, merchantID, id string) (*model.Reservation, error)
	List(ctx context.Context, filters *dto.Filters) ([]model.Reservation, int, error)

	// TransitionFromActive conditionally moves ACTIVE → toStatus. Returns
	// false when the reservation was not ACTIVE anymore: the caller lost the
	// race and must not apply any side effects.
	TransitionFromActive(ctx context.Context, merchantID, id, toStatus string, resolvedAt time.Time) (bool, error)

	// CommitWithLedger runs the ACTIVE → COMMITTED transition and the commit
	// ledger append in one transaction, so there is no window where one is
	// visible without the other. Returns false (and writes nothing) when the
	// reservation was not ACTIVE.
	CommitWithLedger(ctx context.Context, res *model.Reservation, entry *model.StockLedgerEntry) (bool, error)

	// ListExpired returns ACTIVE reservations with expires_at <= now.
	ListExpired(ctx context.Context, now time.Time, limit int) ([]model.Reservation, error)
}
