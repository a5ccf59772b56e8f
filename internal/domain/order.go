package domain

import (
	"strings"
	"time"
)

// OrderDateLayout — формат поля date в orders.json.
const OrderDateLayout = "2006-01-02 15:04:05"

// OrderStatus описывает состояние заказа.
// Pending и Delivered — именованные состояния жизненного цикла, остальные значения
// задаются администратором свободным текстом.
type OrderStatus string

const (
	// OrderStatusPending — заказ принят, ждёт звонка и доставки.
	OrderStatusPending OrderStatus = "Pending"
	// OrderStatusDelivered — заказ доставлен (терминальный успех).
	OrderStatusDelivered OrderStatus = "Delivered"
	// OrderStatusCancelled — заказ отменён администратором.
	OrderStatusCancelled OrderStatus = "Cancelled"
)

var knownStatuses = []OrderStatus{OrderStatusPending, OrderStatusDelivered, OrderStatusCancelled}

// ParseOrderStatus нормализует статус, заданный администратором.
// Известные статусы сопоставляются без учёта регистра, прочий текст сохраняется как есть.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", NewValidationError("status", "is required")
	}
	for _, s := range knownStatuses {
		if strings.EqualFold(raw, string(s)) {
			return s, nil
		}
	}
	return OrderStatus(raw), nil
}

// IsKnown сообщает, является ли статус одним из именованных.
func (s OrderStatus) IsKnown() bool {
	for _, known := range knownStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Order — запись журнала заказов. ProductName и Price копируются из товара
// в момент создания и не меняются при редактировании или удалении товара.
type Order struct {
	ID           int64       `json:"id"`
	ProductID    int64       `json:"product_id,omitempty"`
	ProductName  string      `json:"product_name"`
	Price        float64     `json:"price"`
	CustomerName string      `json:"customer_name"`
	Phone        string      `json:"phone"`
	Status       OrderStatus `json:"status"`
	Date         string      `json:"date"`
}

// NewOrder создаёт заказ в статусе Pending со снимком товара.
func NewOrder(id int64, product Product, customerName, phone string, at time.Time) Order {
	return Order{
		ID:           id,
		ProductID:    product.ID,
		ProductName:  product.Name,
		Price:        product.Price,
		CustomerName: customerName,
		Phone:        phone,
		Status:       OrderStatusPending,
		Date:         at.Format(OrderDateLayout),
	}
}

// OrderSummary — счётчики для панели администратора.
type OrderSummary struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Delivered int `json:"delivered"`
}

// Summarize пересчитывает счётчики по текущему журналу заказов.
func Summarize(orders []Order) OrderSummary {
	summary := OrderSummary{Total: len(orders)}
	for _, o := range orders {
		switch o.Status {
		case OrderStatusPending:
			summary.Pending++
		case OrderStatusDelivered:
			summary.Delivered++
		}
	}
	return summary
}
