package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// StatusSetter меняет статус заказа. Реализуется orders.Service.
type StatusSetter interface {
	SetStatus(ctx context.Context, orderID int64, status string) (domain.Order, error)
}

// DeliveryRecorder учитывает результат обработки сообщения доставки.
type DeliveryRecorder interface {
	RecordDeliveryEvent(result string)
}

// NewDeliveryHandler возвращает обработчик ленты доставки: каждое сообщение
// {order_id, status} применяется как смена статуса заказа.
func NewDeliveryHandler(setter StatusSetter, recorder DeliveryRecorder, logger *log.Entry) MessageHandler {
	if logger == nil {
		logger = log.WithField("component", "delivery-feed")
	}
	record := func(result string) {
		if recorder != nil {
			recorder.RecordDeliveryEvent(result)
		}
	}

	return func(ctx context.Context, message *sarama.ConsumerMessage) error {
		update, err := ParseDeliveryUpdate(message)
		if err != nil {
			record("rejected")
			return err
		}

		order, err := setter.SetStatus(ctx, update.OrderID, update.Status)
		switch {
		case err == nil:
			record("applied")
			logger.WithFields(log.Fields{"order_id": order.ID, "status": order.Status}).Info("delivery update applied")
			return nil
		case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrValidation):
			record("rejected")
			return fmt.Errorf("%w: %v", ErrPermanent, err)
		default:
			record("failed")
			return err
		}
	}
}

// ParseDeliveryUpdate разбирает сообщение ленты доставки
func ParseDeliveryUpdate(message *sarama.ConsumerMessage) (DeliveryUpdate, error) {
	var update DeliveryUpdate
	if err := json.Unmarshal(message.Value, &update); err != nil {
		return DeliveryUpdate{}, fmt.Errorf("%w: unmarshal delivery update: %v", ErrPermanent, err)
	}
	if update.OrderID <= 0 {
		return DeliveryUpdate{}, fmt.Errorf("%w: delivery update without order_id", ErrPermanent)
	}
	return update, nil
}
