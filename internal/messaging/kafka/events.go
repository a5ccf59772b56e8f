package kafka

import (
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// EventType определяет тип события заказа
type EventType string

const (
	EventTypeOrderCreated       EventType = "order.created"
	EventTypeOrderStatusChanged EventType = "order.status_changed"
)

// Topics для Kafka
const (
	TopicOrderEvents     = "storefront.order.events"
	TopicDeliveryEvents  = "storefront.delivery.events"
	TopicDeadLetterQueue = "storefront.dlq"
)

// OrderEvent публикуется при создании заказа и смене его статуса
type OrderEvent struct {
	EventType      EventType `json:"event_type"`
	OrderID        int64     `json:"order_id"`
	ProductID      int64     `json:"product_id,omitempty"`
	ProductName    string    `json:"product_name"`
	Price          float64   `json:"price"`
	CustomerName   string    `json:"customer_name"`
	Phone          string    `json:"phone"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// DeliveryUpdate — сообщение из ленты службы доставки
type DeliveryUpdate struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
}

// NewOrderEvent создает событие из снимка заказа
func NewOrderEvent(eventType EventType, order domain.Order, previous domain.OrderStatus) *OrderEvent {
	return &OrderEvent{
		EventType:      eventType,
		OrderID:        order.ID,
		ProductID:      order.ProductID,
		ProductName:    order.ProductName,
		Price:          order.Price,
		CustomerName:   order.CustomerName,
		Phone:          order.Phone,
		Status:         string(order.Status),
		PreviousStatus: string(previous),
		Timestamp:      time.Now(),
	}
}
