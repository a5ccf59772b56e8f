package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// ProductLookup — источник товаров для снимка в заказе. Реализуется catalog.Service.
type ProductLookup interface {
	ProductByID(ctx context.Context, id int64) (domain.Product, error)
}

// Recorder принимает метрики заказов. Реализуется metrics.StorefrontMetrics.
type Recorder interface {
	RecordOrderCreated()
	RecordOrderStatusChanged(status domain.OrderStatus)
}

type noopRecorder struct{}

func (noopRecorder) RecordOrderCreated()                         {}
func (noopRecorder) RecordOrderStatusChanged(domain.OrderStatus) {}

// NoopPublisher используется, когда брокер сообщений не настроен.
type NoopPublisher struct{}

func (NoopPublisher) OrderCreated(context.Context, domain.Order) error { return nil }
func (NoopPublisher) OrderStatusChanged(context.Context, domain.Order, domain.OrderStatus) error {
	return nil
}

// Service ведёт журнал заказов: создание, смена статуса, сводка.
type Service struct {
	store     domain.OrderStore
	products  ProductLookup
	publisher domain.OrderEventPublisher
	metrics   Recorder
	now       func() time.Time
	logger    *log.Entry
}

// Option настраивает Service.
type Option func(*Service)

// WithPublisher подключает публикацию событий заказа.
func WithPublisher(p domain.OrderEventPublisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithRecorder подключает метрики.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.metrics = r
		}
	}
}

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService создаёт сервис заказов.
func NewService(store domain.OrderStore, products ProductLookup, logger *log.Entry, opts ...Option) *Service {
	if logger == nil {
		logger = log.WithField("component", "order-service")
	}
	s := &Service{
		store:     store,
		products:  products,
		publisher: NoopPublisher{},
		metrics:   noopRecorder{},
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create оформляет заказ на товар. Для отсутствующего товара возвращает ErrNotFound, для пустых имени
// или телефона ErrValidation; в обоих случаях журнал не меняется.
func (s *Service) Create(ctx context.Context, productID int64, customerName, phone string) (domain.Order, error) {
	product, err := s.products.ProductByID(ctx, productID)
	if err != nil {
		return domain.Order{}, err
	}

	customerName = strings.TrimSpace(customerName)
	phone = strings.TrimSpace(phone)
	if customerName == "" {
		return domain.Order{}, domain.NewValidationError("customer_name", "is required")
	}
	if phone == "" {
		return domain.Order{}, domain.NewValidationError("phone", "is required")
	}

	var order domain.Order
	err = s.store.UpdateOrders(ctx, func(orders []domain.Order) ([]domain.Order, error) {
		id, err := domain.NextID(orders, domain.OrderID)
		if err != nil {
			return orders, fmt.Errorf("allocate order id: %w", err)
		}
		order = domain.NewOrder(id, product, customerName, phone, s.now().Local())
		return append(orders, order), nil
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}

	s.metrics.RecordOrderCreated()
	s.logger.WithFields(log.Fields{
		"order_id":   order.ID,
		"product_id": product.ID,
	}).Info("order created")

	if err := s.publisher.OrderCreated(ctx, order); err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to publish order created event")
	}
	return order, nil
}

// SetStatus перезаписывает статус заказа. Для неизвестного заказа возвращает ErrNotFound и ничего не создаёт.
func (s *Service) SetStatus(ctx context.Context, orderID int64, rawStatus string) (domain.Order, error) {
	status, err := domain.ParseOrderStatus(rawStatus)
	if err != nil {
		return domain.Order{}, err
	}

	var (
		updated  domain.Order
		previous domain.OrderStatus
	)
	err = s.store.UpdateOrders(ctx, func(orders []domain.Order) ([]domain.Order, error) {
		for i := range orders {
			if orders[i].ID != orderID {
				continue
			}
			previous = orders[i].Status
			orders[i].Status = status
			updated = orders[i]
			return orders, nil
		}
		return orders, fmt.Errorf("order %d: %w", orderID, domain.ErrNotFound)
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.metrics.RecordOrderStatusChanged(status)
	s.logger.WithFields(log.Fields{
		"order_id": orderID,
		"from":     previous,
		"to":       status,
	}).Info("order status changed")

	if err := s.publisher.OrderStatusChanged(ctx, updated, previous); err != nil {
		s.logger.WithError(err).WithField("order_id", orderID).Warn("failed to publish status changed event")
	}
	return updated, nil
}

// List возвращает весь журнал заказов.
func (s *Service) List(ctx context.Context) []domain.Order {
	return s.store.LoadOrders(ctx)
}

// Get возвращает заказ по идентификатору.
func (s *Service) Get(ctx context.Context, orderID int64) (domain.Order, error) {
	for _, o := range s.store.LoadOrders(ctx) {
		if o.ID == orderID {
			return o, nil
		}
	}
	return domain.Order{}, fmt.Errorf("order %d: %w", orderID, domain.ErrNotFound)
}

// Summarize пересчитывает счётчики по текущему журналу при каждом вызове.
func (s *Service) Summarize(ctx context.Context) domain.OrderSummary {
	return domain.Summarize(s.store.LoadOrders(ctx))
}
