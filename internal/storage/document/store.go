package document

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Исходы чтения и записи документа; используются в логах и метриках.
const (
	LoadOK         = "ok"
	LoadMissing    = "missing"
	LoadEmpty      = "empty"
	LoadCorrupt    = "corrupt"
	LoadWrongShape = "wrong_shape"
	LoadReadError  = "read_error"

	SaveOK          = "ok"
	SaveEncodeError = "encode_error"
	SaveWriteError  = "write_error"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// Recorder принимает метрики хранилища. Реализуется metrics.StorefrontMetrics.
type Recorder interface {
	RecordDocumentLoad(slot domain.DocumentSlot, outcome string)
	RecordDocumentSave(slot domain.DocumentSlot, outcome string)
	RecordDocumentUpdate(slot domain.DocumentSlot, duration time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) RecordDocumentLoad(domain.DocumentSlot, string)          {}
func (noopRecorder) RecordDocumentSave(domain.DocumentSlot, string)          {}
func (noopRecorder) RecordDocumentUpdate(domain.DocumentSlot, time.Duration) {}

// Store читает и пишет документы каталога и заказов поверх DocumentBackend.
//
// Чтение никогда не возвращает ошибку: отсутствующий, пустой, нечитаемый или
// документ неверной формы заменяется пустым значением по умолчанию. Ошибка записи
// логируется и поглощается. Update* при ошибке чтения бэкенда не пишут ничего
// и возвращают ErrWriteFailure. Циклы load → mutate → save сериализуются мьютексом
// на каждый слот; чтение вне Update* блокировок не берёт.
type Store struct {
	backend domain.DocumentBackend
	logger  *log.Entry
	metrics Recorder

	slotLocks map[domain.DocumentSlot]*sync.Mutex
}

// Option настраивает Store.
type Option func(*Store)

// WithRecorder подключает сбор метрик.
func WithRecorder(r Recorder) Option {
	return func(s *Store) {
		if r != nil {
			s.metrics = r
		}
	}
}

// NewStore создаёт хранилище документов поверх бэкенда.
func NewStore(backend domain.DocumentBackend, logger *log.Entry, opts ...Option) *Store {
	if logger == nil {
		logger = log.WithField("component", "document-store")
	}
	s := &Store{
		backend:   backend,
		logger:    logger.WithField("backend", backend.Name()),
		metrics:   noopRecorder{},
		slotLocks: make(map[domain.DocumentSlot]*sync.Mutex),
	}
	for _, slot := range domain.Slots() {
		s.slotLocks[slot] = &sync.Mutex{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadCatalog возвращает каталог, а при любой проблеме чтения пустой {products: [], posts: []}.
func (s *Store) LoadCatalog(ctx context.Context) domain.Catalog {
	catalog, _ := s.loadCatalog(ctx)
	return catalog
}

// LoadOrders возвращает журнал заказов или пустой список, если его не удалось прочитать.
func (s *Store) LoadOrders(ctx context.Context) []domain.Order {
	orders, _ := s.loadOrders(ctx)
	return orders
}

func (s *Store) loadCatalog(ctx context.Context) (domain.Catalog, string) {
	var catalog domain.Catalog
	outcome := s.load(ctx, domain.SlotCatalog, '{', &catalog)
	if outcome != LoadOK {
		return domain.EmptyCatalog(), outcome
	}
	catalog.Normalize()
	return catalog, outcome
}

func (s *Store) loadOrders(ctx context.Context) ([]domain.Order, string) {
	var orders []domain.Order
	outcome := s.load(ctx, domain.SlotOrders, '[', &orders)
	if outcome != LoadOK || orders == nil {
		return []domain.Order{}, outcome
	}
	return orders, outcome
}

// SaveCatalog целиком перезаписывает слот каталога.
func (s *Store) SaveCatalog(ctx context.Context, catalog domain.Catalog) {
	catalog.Normalize()
	s.save(ctx, domain.SlotCatalog, catalog)
}

// SaveOrders целиком перезаписывает слот заказов.
func (s *Store) SaveOrders(ctx context.Context, orders []domain.Order) {
	if orders == nil {
		orders = []domain.Order{}
	}
	s.save(ctx, domain.SlotOrders, orders)
}

// UpdateCatalog выполняет load → mutate → save под блокировкой слота каталога.
// Если mutate вернул ошибку, документ не записывается. Если слот не удалось
// прочитать из-за ошибки бэкенда, mutate не вызывается: запись значения по
// умолчанию затёрла бы существующие данные.
func (s *Store) UpdateCatalog(ctx context.Context, mutate func(domain.Catalog) (domain.Catalog, error)) error {
	return s.withSlot(domain.SlotCatalog, func() error {
		current, outcome := s.loadCatalog(ctx)
		if outcome == LoadReadError {
			return s.unreadable(domain.SlotCatalog)
		}
		next, err := mutate(current)
		if err != nil {
			return err
		}
		s.SaveCatalog(ctx, next)
		return nil
	})
}

// UpdateOrders выполняет load → mutate → save под блокировкой слота заказов.
// Ошибка чтения слота прерывает обновление так же, как в UpdateCatalog.
func (s *Store) UpdateOrders(ctx context.Context, mutate func([]domain.Order) ([]domain.Order, error)) error {
	return s.withSlot(domain.SlotOrders, func() error {
		current, outcome := s.loadOrders(ctx)
		if outcome == LoadReadError {
			return s.unreadable(domain.SlotOrders)
		}
		next, err := mutate(current)
		if err != nil {
			return err
		}
		s.SaveOrders(ctx, next)
		return nil
	})
}

func (s *Store) unreadable(slot domain.DocumentSlot) error {
	err := fmt.Errorf("%w: %s could not be read, update skipped", domain.ErrWriteFailure, slot)
	s.logger.WithField("slot", slot).WithError(err).Error("document update aborted")
	return err
}

// Bootstrap создаёт отсутствующие слоты: каталог из seed (или пустой), заказы пустым списком.
// Существующие слоты, даже повреждённые, не трогает.
func (s *Store) Bootstrap(ctx context.Context, seed *domain.Catalog) {
	_ = s.withSlot(domain.SlotCatalog, func() error {
		if !s.exists(ctx, domain.SlotCatalog) {
			catalog := domain.EmptyCatalog()
			if seed != nil {
				catalog = *seed
			}
			s.SaveCatalog(ctx, catalog)
			s.logger.WithField("slot", domain.SlotCatalog).WithField("seeded", seed != nil).Info("created missing document")
		}
		return nil
	})
	_ = s.withSlot(domain.SlotOrders, func() error {
		if !s.exists(ctx, domain.SlotOrders) {
			s.SaveOrders(ctx, nil)
			s.logger.WithField("slot", domain.SlotOrders).Info("created missing document")
		}
		return nil
	})
}

// Check проверяет доступность бэкенда. Отсутствующий слот ошибкой не считается.
func (s *Store) Check(ctx context.Context) error {
	if _, err := s.backend.Read(ctx, domain.SlotCatalog); err != nil && !errors.Is(err, domain.ErrSlotNotFound) {
		return fmt.Errorf("%s backend: %w", s.backend.Name(), err)
	}
	return nil
}

// BackendName возвращает имя драйвера хранилища.
func (s *Store) BackendName() string {
	return s.backend.Name()
}

func (s *Store) withSlot(slot domain.DocumentSlot, fn func() error) error {
	start := time.Now()
	mu := s.slotLocks[slot]
	mu.Lock()
	defer func() {
		mu.Unlock()
		s.metrics.RecordDocumentUpdate(slot, time.Since(start))
	}()
	return fn()
}

func (s *Store) exists(ctx context.Context, slot domain.DocumentSlot) bool {
	_, err := s.backend.Read(ctx, slot)
	return !errors.Is(err, domain.ErrSlotNotFound)
}

// load читает слот и декодирует его в target. want — ожидаемый первый символ JSON ('{' или '[').
func (s *Store) load(ctx context.Context, slot domain.DocumentSlot, want byte, target any) string {
	outcome, err := s.decode(ctx, slot, want, target)
	s.metrics.RecordDocumentLoad(slot, outcome)

	entry := s.logger.WithFields(log.Fields{"slot": slot, "outcome": outcome})
	switch outcome {
	case LoadOK:
	case LoadMissing, LoadEmpty:
		entry.Debug("document is absent, using empty default")
	default:
		entry.WithError(err).Warn("document is unusable, using empty default")
	}
	return outcome
}

func (s *Store) decode(ctx context.Context, slot domain.DocumentSlot, want byte, target any) (string, error) {
	raw, err := s.backend.Read(ctx, slot)
	if err != nil {
		if errors.Is(err, domain.ErrSlotNotFound) {
			return LoadMissing, nil
		}
		return LoadReadError, err
	}

	raw = bytes.TrimSpace(bytes.TrimPrefix(raw, utf8BOM))
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return LoadEmpty, nil
	}
	if !json.Valid(raw) {
		return LoadCorrupt, domain.ErrStorageCorrupt
	}
	if raw[0] != want {
		return LoadWrongShape, fmt.Errorf("%w: expected JSON starting with %q", domain.ErrStorageCorrupt, want)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return LoadWrongShape, fmt.Errorf("%w: %v", domain.ErrStorageCorrupt, err)
	}
	return LoadOK, nil
}

func (s *Store) save(ctx context.Context, slot domain.DocumentSlot, value any) {
	entry := s.logger.WithField("slot", slot)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(value); err != nil {
		s.metrics.RecordDocumentSave(slot, SaveEncodeError)
		entry.WithError(err).Error("failed to encode document")
		return
	}

	if err := s.backend.Write(ctx, slot, buf.Bytes()); err != nil {
		s.metrics.RecordDocumentSave(slot, SaveWriteError)
		entry.WithError(fmt.Errorf("%w: %v", domain.ErrWriteFailure, err)).Error("failed to save document")
		return
	}
	s.metrics.RecordDocumentSave(slot, SaveOK)
}
