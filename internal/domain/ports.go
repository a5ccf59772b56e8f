package domain

import "context"

// DocumentSlot — имя слота долговременного хранилища.
type DocumentSlot string

const (
	// SlotCatalog хранит {products, posts}.
	SlotCatalog DocumentSlot = "product.json"
	// SlotOrders хранит список заказов.
	SlotOrders DocumentSlot = "orders.json"
)

// Slots перечисляет все слоты сервиса.
func Slots() []DocumentSlot {
	return []DocumentSlot{SlotCatalog, SlotOrders}
}

// DocumentBackend — носитель сырых байтов документа (память, файлы, PostgreSQL).
type DocumentBackend interface {
	// Read возвращает содержимое слота или ErrSlotNotFound, если слот не записывался.
	Read(ctx context.Context, slot DocumentSlot) ([]byte, error)
	// Write целиком заменяет содержимое слота.
	Write(ctx context.Context, slot DocumentSlot, data []byte) error
	// Name возвращает имя драйвера для логов и health-проверок.
	Name() string
}

// CatalogStore — доступ к документу каталога.
type CatalogStore interface {
	LoadCatalog(ctx context.Context) Catalog
	// UpdateCatalog выполняет load → mutate → save атомарно относительно других писателей слота.
	UpdateCatalog(ctx context.Context, mutate func(Catalog) (Catalog, error)) error
}

// OrderStore — доступ к журналу заказов.
type OrderStore interface {
	LoadOrders(ctx context.Context) []Order
	UpdateOrders(ctx context.Context, mutate func([]Order) ([]Order, error)) error
}

// OrderEventPublisher публикует события жизненного цикла заказа.
type OrderEventPublisher interface {
	OrderCreated(ctx context.Context, order Order) error
	OrderStatusChanged(ctx context.Context, order Order, previous OrderStatus) error
}
