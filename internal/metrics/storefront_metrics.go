package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// statusLabelOther заменяет произвольный текст статуса, чтобы не раздувать кардинальность.
const statusLabelOther = "other"

// StorefrontMetrics собирает метрики хранилища документов и жизненного цикла заказов.
type StorefrontMetrics struct {
	documentLoads  *prometheus.CounterVec
	documentSaves  *prometheus.CounterVec
	updateDuration *prometheus.HistogramVec

	ordersCreated  prometheus.Counter
	statusChanges  *prometheus.CounterVec
	deliveryEvents *prometheus.CounterVec
}

// NewStorefrontMetrics регистрирует метрики в prometheus.DefaultRegisterer.
func NewStorefrontMetrics() *StorefrontMetrics {
	return NewStorefrontMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewStorefrontMetricsWithRegisterer регистрирует метрики в переданном реестре.
// Повторная регистрация переиспользует уже существующие коллекторы.
func NewStorefrontMetricsWithRegisterer(registerer prometheus.Registerer) *StorefrontMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &StorefrontMetrics{
		documentLoads: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_document_loads_total",
			Help: "Document loads by slot and outcome (ok, missing, empty, corrupt, wrong_shape, read_error)",
		}, []string{"slot", "outcome"}),
		documentSaves: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_document_saves_total",
			Help: "Document saves by slot and outcome (ok, encode_error, write_error)",
		}, []string{"slot", "outcome"}),
		updateDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "storefront_document_update_duration_seconds",
			Help:    "Duration of load-mutate-save cycles per slot, including lock wait",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"slot"}),
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_orders_created_total",
			Help: "Total number of orders created",
		}),
		statusChanges: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_order_status_changes_total",
			Help: "Order status changes by target status",
		}, []string{"status"}),
		deliveryEvents: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_delivery_events_total",
			Help: "Delivery feed messages by result (applied, rejected, failed)",
		}, []string{"result"}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		return reuseRegistered[prometheus.Counter](err, opts.Name)
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		return reuseRegistered[*prometheus.CounterVec](err, opts.Name)
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		return reuseRegistered[*prometheus.HistogramVec](err, opts.Name)
	}
	return collector
}

func reuseRegistered[T prometheus.Collector](err error, name string) T {
	alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError)
	if !ok {
		panic(fmt.Sprintf("register collector %q: %v", name, err))
	}
	existing, ok := alreadyRegistered.ExistingCollector.(T)
	if !ok {
		panic(fmt.Sprintf("collector %q already registered with unexpected type", name))
	}
	return existing
}

// RecordDocumentLoad учитывает чтение документа.
func (m *StorefrontMetrics) RecordDocumentLoad(slot domain.DocumentSlot, outcome string) {
	m.documentLoads.WithLabelValues(string(slot), outcome).Inc()
}

// RecordDocumentSave учитывает запись документа.
func (m *StorefrontMetrics) RecordDocumentSave(slot domain.DocumentSlot, outcome string) {
	m.documentSaves.WithLabelValues(string(slot), outcome).Inc()
}

// RecordDocumentUpdate записывает длительность цикла load → mutate → save.
func (m *StorefrontMetrics) RecordDocumentUpdate(slot domain.DocumentSlot, duration time.Duration) {
	m.updateDuration.WithLabelValues(string(slot)).Observe(duration.Seconds())
}

// RecordOrderCreated увеличивает счётчик созданных заказов.
func (m *StorefrontMetrics) RecordOrderCreated() {
	m.ordersCreated.Inc()
}

// RecordOrderStatusChanged учитывает смену статуса. Свободный текст попадает в метку "other".
func (m *StorefrontMetrics) RecordOrderStatusChanged(status domain.OrderStatus) {
	label := statusLabelOther
	if status.IsKnown() {
		label = string(status)
	}
	m.statusChanges.WithLabelValues(label).Inc()
}

// RecordDeliveryEvent учитывает обработку сообщения из ленты доставки.
func (m *StorefrontMetrics) RecordDeliveryEvent(result string) {
	m.deliveryEvents.WithLabelValues(result).Inc()
}
