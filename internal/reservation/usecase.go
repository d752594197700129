package reservation

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/reservation/dto"
)

type UseCase interface {
	Reserve(ctx context.Context, input *dto.ReserveInput) (*model.Reservation, error)
	Commit(ctx context.Context, merchantID, reservationID string) (*dto.CommitResult, error)
	Release(ctx context.Context, merchantID, reservationID string) (*model.Reservation, error)
	List(ctx context.Context, filters *dto.Filters) ([]model.Reservation, int, error)

	// ExpireSweep transitions every ACTIVE reservation past its expires_at to
	// EXPIRED. Returns the number expired. Safe to run concurrently with
	// Commit/Release on the same reservations.
	ExpireSweep(ctx context.Context, now time.Time) (int, error)
}
