package listener

import (
	"context"
	"testing"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	resdto "github.com/fekuna/omnipos-inventory-service/internal/reservation/dto"
	stockdto "github.com/fekuna/omnipos-inventory-service/internal/stock/dto"
	"github.com/fekuna/omnipos-inventory-service/pkg/apperrors"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"github.com/stretchr/testify/assert"
)

type fakeStockUC struct {
	adjustments []stockdto.AdjustmentInput
}

func (f *fakeStockUC) GetAvailability(context.Context, string, string, string) (*stockdto.Availability, error) {
	return nil, nil
}

func (f *fakeStockUC) Adjust(_ context.Context, input *stockdto.AdjustmentInput) (*model.StockLedgerEntry, int64, error) {
	f.adjustments = append(f.adjustments, *input)
	return &model.StockLedgerEntry{}, 0, nil
}

func (f *fakeStockUC) ListMovements(context.Context, *stockdto.MovementFilters) ([]model.StockLedgerEntry, int, error) {
	return nil, 0, nil
}

type fakeReservationUC struct {
	committed []string
	released  []string
	commitErr error
}

func (f *fakeReservationUC) Reserve(context.Context, *resdto.ReserveInput) (*model.Reservation, error) {
	return nil, nil
}

func (f *fakeReservationUC) Commit(_ context.Context, _, reservationID string) (*resdto.CommitResult, error) {
	if f.commitErr != nil {
		return nil, f.commitErr
	}
	f.committed = append(f.committed, reservationID)
	return &resdto.CommitResult{}, nil
}

func (f *fakeReservationUC) Release(_ context.Context, _, reservationID string) (*model.Reservation, error) {
	f.released = append(f.released, reservationID)
	return &model.Reservation{}, nil
}

func (f *fakeReservationUC) List(context.Context, *resdto.Filters) ([]model.Reservation, int, error) {
	return nil, 0, nil
}

func (f *fakeReservationUC) ExpireSweep(context.Context, time.Time) (int, error) {
	return 0, nil
}

func newTestListener(stockUC *fakeStockUC, resUC *fakeReservationUC) *OrderListener {
	return &OrderListener{
		stockUC:       stockUC,
		reservationUC: resUC,
		logger:        logger.NewNop(),
	}
}

func TestOrderCompletedCommitsReservation(t *testing.T) {
	stockUC := &fakeStockUC{}
	resUC := &fakeReservationUC{}
	l := newTestListener(stockUC, resUC)

	l.processMessage(context.Background(), []byte(`{
		"event_id": "e1",
		"event_type": "OrderCompleted",
		"payload": {
			"id": "order-1",
			"merchant_id": "m1",
			"store_id": "s1",
			"items": [{"variant_id": "v1", "quantity": 2, "reservation_id": "r1"}]
		}
	}`))

	assert.Equal(t, []string{"r1"}, resUC.committed)
	assert.Empty(t, stockUC.adjustments)
}

func TestOrderCompletedWithoutReservationRecordsSale(t *testing.T) {
	stockUC := &fakeStockUC{}
	resUC := &fakeReservationUC{}
	l := newTestListener(stockUC, resUC)

	l.processMessage(context.Background(), []byte(`{
		"event_type": "OrderCompleted",
		"payload": {
			"id": "order-2",
			"merchant_id": "m1",
			"store_id": "s1",
			"items": [{"variant_id": "v1", "quantity": 3}]
		}
	}`))

	assert.Empty(t, resUC.committed)
	if assert.Len(t, stockUC.adjustments, 1) {
		adj := stockUC.adjustments[0]
		assert.Equal(t, int64(-3), adj.QtyDelta)
		assert.Equal(t, model.RefSale, adj.RefType)
		assert.Equal(t, "order-2", adj.RefID)
	}
}

func TestOrderCompletedToleratesResolvedReservation(t *testing.T) {
	stockUC := &fakeStockUC{}
	resUC := &fakeReservationUC{commitErr: apperrors.InvalidState(model.ReservationExpired)}
	l := newTestListener(stockUC, resUC)

	// Sweep won the race; the event is stale, not an error. In particular no
	// fallback sale is written for the item.
	l.processMessage(context.Background(), []byte(`{
		"event_type": "OrderCompleted",
		"payload": {
			"id": "order-3",
			"merchant_id": "m1",
			"store_id": "s1",
			"items": [{"variant_id": "v1", "quantity": 1, "reservation_id": "r9"}]
		}
	}`))

	assert.Empty(t, stockUC.adjustments)
}

func TestOrderCanceledReleasesReservations(t *testing.T) {
	stockUC := &fakeStockUC{}
	resUC := &fakeReservationUC{}
	l := newTestListener(stockUC, resUC)

	l.processMessage(context.Background(), []byte(`{
		"event_type": "OrderCanceled",
		"payload": {
			"id": "order-4",
			"merchant_id": "m1",
			"store_id": "s1",
			"items": [
				{"variant_id": "v1", "quantity": 1, "reservation_id": "r1"},
				{"variant_id": "v2", "quantity": 2}
			]
		}
	}`))

	assert.Equal(t, []string{"r1"}, resUC.released)
	assert.Empty(t, stockUC.adjustments)
}

func TestMalformedEventIsDropped(t *testing.T) {
	stockUC := &fakeStockUC{}
	resUC := &fakeReservationUC{}
	l := newTestListener(stockUC, resUC)

	l.processMessage(context.Background(), []byte(`{not json`))

	assert.Empty(t, resUC.committed)
	assert.Empty(t, stockUC.adjustments)
}
