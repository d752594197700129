package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/reservation"
	"github.com/fekuna/omnipos-inventory-service/internal/stock"
	stockdto "github.com/fekuna/omnipos-inventory-service/internal/stock/dto"
	"github.com/fekuna/omnipos-inventory-service/pkg/apperrors"
	"github.com/fekuna/omnipos-inventory-service/pkg/broker"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"go.uber.org/zap"
)

// OrderListener consumes order lifecycle events from the selling channels.
// Completed orders resolve their reservations (or deduct directly when the
// channel never reserved); canceled orders release the holds.
type OrderListener struct {
	consumer      *broker.KafkaConsumer
	stockUC       stock.UseCase
	reservationUC reservation.UseCase
	logger        logger.ZapLogger
}

func NewOrderListener(consumer *broker.KafkaConsumer, stockUC stock.UseCase, reservationUC reservation.UseCase, log logger.ZapLogger) *OrderListener {
	return &OrderListener{
		consumer:      consumer,
		stockUC:       stockUC,
		reservationUC: reservationUC,
		logger:        log,
	}
}

func (l *OrderListener) Start(ctx context.Context) {
	l.logger.Info("starting order event listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("stopping order event listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type orderEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   orderPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type orderPayload struct {
	ID         string      `json:"id"`
	MerchantID string      `json:"merchant_id"`
	StoreID    string      `json:"store_id"`
	Channel    string      `json:"channel"`
	Items      []orderItem `json:"items"`
}

type orderItem struct {
	VariantID     string `json:"variant_id"`
	Quantity      int64  `json:"quantity"`
	ReservationID string `json:"reservation_id"`
}

func (l *OrderListener) processMessage(ctx context.Context, value []byte) {
	var event orderEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("failed to unmarshal order event", zap.Error(err))
		return
	}

	switch event.EventType {
	case "OrderCompleted":
		l.handleCompleted(ctx, &event.Payload)
	case "OrderCanceled":
		l.handleCanceled(ctx, &event.Payload)
	}
}

func (l *OrderListener) handleCompleted(ctx context.Context, order *orderPayload) {
	l.logger.Info("processing OrderCompleted event", zap.String("order_id", order.ID))

	for _, item := range order.Items {
		if item.ReservationID != "" {
			_, err := l.reservationUC.Commit(ctx, order.MerchantID, item.ReservationID)
			if err != nil {
				// InvalidState means the sweep or another consumer resolved
				// it already; that is reconciliation, not a failure.
				if apperrors.Is(err, apperrors.CodeInvalidState) {
					l.logger.Info("reservation already resolved",
						zap.String("order_id", order.ID),
						zap.String("reservation_id", item.ReservationID))
					continue
				}
				l.logger.Error("failed to commit reservation for order item",
					zap.String("order_id", order.ID),
					zap.String("reservation_id", item.ReservationID),
					zap.Error(err))
			}
			continue
		}

		// Channel sold without a hold: record the sale directly. The ledger
		// records history, it does not gate it.
		_, _, err := l.stockUC.Adjust(ctx, &stockdto.AdjustmentInput{
			MerchantID: order.MerchantID,
			StoreID:    order.StoreID,
			VariantID:  item.VariantID,
			QtyDelta:   -item.Quantity,
			RefType:    model.RefSale,
			RefID:      order.ID,
			Note:       "order sale",
			UserID:     "system",
		})
		if err != nil {
			l.logger.Error("failed to record sale for order item",
				zap.String("order_id", order.ID),
				zap.String("variant_id", item.VariantID),
				zap.Error(err))
		}
	}
}

func (l *OrderListener) handleCanceled(ctx context.Context, order *orderPayload) {
	l.logger.Info("processing OrderCanceled event", zap.String("order_id", order.ID))

	for _, item := range order.Items {
		if item.ReservationID == "" {
			continue
		}
		_, err := l.reservationUC.Release(ctx, order.MerchantID, item.ReservationID)
		if err != nil {
			if apperrors.Is(err, apperrors.CodeInvalidState) {
				continue
			}
			l.logger.Error("failed to release reservation for canceled order",
				zap.String("order_id", order.ID),
				zap.String("reservation_id", item.ReservationID),
				zap.Error(err))
		}
	}
}
