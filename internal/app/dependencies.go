package app

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/service/orders"
	"github.com/vladislavdragonenkov/storefront/internal/storage/document"
	"github.com/vladislavdragonenkov/storefront/internal/storage/file"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
	"github.com/vladislavdragonenkov/storefront/internal/storage/postgres"
)

// runtimeDependencies — собранные компоненты, которые Run раздаёт транспортам.
type runtimeDependencies struct {
	store   *document.Store
	metrics *metrics.StorefrontMetrics
	catalog *catalog.Service
	orders  *orders.Service

	pgStore *postgres.Store
}

// initRuntimeDependencies выбирает backend, готовит слоты и собирает сервисы.
// publisher может быть nil: тогда события заказов никуда не публикуются.
func initRuntimeDependencies(ctx context.Context, cfg Config, publisher domain.OrderEventPublisher, logger *log.Entry) (*runtimeDependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	backend, pgStore, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	m := metrics.NewStorefrontMetrics()
	store := document.NewStore(backend, logger.WithField("component", "document-store"), document.WithRecorder(m))

	var seed *domain.Catalog
	if cfg.SeedCatalog {
		demo := catalog.DemoCatalog()
		seed = &demo
	}
	store.Bootstrap(ctx, seed)

	catalogSvc := catalog.NewService(store, logger.WithField("component", "catalog-service"))
	ordersSvc := orders.NewService(store, catalogSvc, logger.WithField("component", "order-service"),
		orders.WithPublisher(publisher),
		orders.WithRecorder(m),
	)

	logger.WithField("storage", backend.Name()).Info("storage initialized")
	return &runtimeDependencies{
		store:   store,
		metrics: m,
		catalog: catalogSvc,
		orders:  ordersSvc,
		pgStore: pgStore,
	}, nil
}

func openBackend(ctx context.Context, cfg Config, logger *log.Entry) (domain.DocumentBackend, *postgres.Store, error) {
	switch StorageDriver(strings.ToLower(string(cfg.StorageDriver))) {
	case StorageDriverMemory, "":
		return memory.NewDocumentBackend(), nil, nil

	case StorageDriverFile:
		dir := cfg.DataDir
		if strings.TrimSpace(dir) == "" {
			dir = DefaultConfig().DataDir
		}
		backend, err := file.NewDocumentBackend(dir)
		if err != nil {
			return nil, nil, fmt.Errorf("init file storage: %w", err)
		}
		return backend, nil, nil

	case StorageDriverPostgres:
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return nil, nil, fmt.Errorf("postgres storage requires a DSN")
		}
		pgStore, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("init postgres storage: %w", err)
		}
		if cfg.PostgresAutoMigrate {
			applied, err := pgStore.Migrate(ctx)
			if err != nil {
				_ = pgStore.Close()
				return nil, nil, fmt.Errorf("apply postgres migrations: %w", err)
			}
			logger.WithField("applied", applied).Info("postgres migrations applied")
		}
		return postgres.NewDocumentBackend(pgStore), pgStore, nil

	default:
		return nil, nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

// close освобождает ресурсы backend'а.
func (d *runtimeDependencies) close(logger *log.Entry) {
	if d == nil || d.pgStore == nil {
		return
	}
	if err := d.pgStore.Close(); err != nil {
		logger.WithError(err).Warn("failed to close postgres store")
	}
}
