package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/transport/httpapi"
	"github.com/vladislavdragonenkov/storefront/internal/version"
)

// healthRefreshInterval — как часто gRPC health повторяет проверку хранилища.
const healthRefreshInterval = 10 * time.Second

// Run поднимает HTTP API, сервер метрик и gRPC health и работает до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	producer, producerErr := initKafkaProducer(cfg.KafkaBrokers, logger)
	var publisher domain.OrderEventPublisher
	if producer != nil {
		publisher = producer
	}

	deps, err := initRuntimeDependencies(ctx, cfg, publisher, logger)
	if err != nil {
		closeKafka(nil, producer, logger)
		return err
	}
	defer deps.close(logger)

	consumer, consumerErr := startDeliveryConsumer(ctx, cfg, deps.orders, deps.metrics, producer, logger)

	healthHandler := healthcheck.NewHandler(version.Version(), deps.store.BackendName())
	healthHandler.RegisterChecker("storage", healthcheck.NewCriticalChecker("storage", deps.store.Check))
	if len(cfg.KafkaBrokers) > 0 {
		healthHandler.RegisterChecker("kafka", healthcheck.NewOptionalChecker("kafka", func(context.Context) error {
			return errors.Join(producerErr, consumerErr)
		}))
	}

	grpcServer, grpcHealth := newGRPCServer(logger)
	go watchStorageHealth(ctx, deps.store.Check, grpcHealth, logger)

	apiHandler := httpapi.NewHandler(deps.catalog, deps.orders, httpapi.Config{
		AdminUser:     cfg.AdminUser,
		AdminPassword: cfg.AdminPassword,
	}, logger.WithField("component", "http-api"))
	if cfg.AdminPassword == "" {
		logger.Warn("admin password is empty, admin API is disabled")
	}

	apiSrv := startHTTPServer(cfg.HTTPAddr, apiHandler, "api", logger)
	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		shutdownHTTP(apiSrv, cfg.ShutdownTimeout, logger)
		shutdownHTTP(metricsSrv, cfg.ShutdownTimeout, logger)
		closeKafka(consumer, producer, logger)
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("gRPC сервер слушает %s", cfg.GRPCAddr)
		errCh <- grpcServer.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем серверы")
		grpcHealth.Shutdown()
		stopGRPC(grpcServer, cfg.ShutdownTimeout, logger)
		shutdownHTTP(apiSrv, cfg.ShutdownTimeout, logger)
		shutdownHTTP(metricsSrv, cfg.ShutdownTimeout, logger)
		closeKafka(consumer, producer, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(apiSrv, cfg.ShutdownTimeout, logger)
		shutdownHTTP(metricsSrv, cfg.ShutdownTimeout, logger)
		closeKafka(consumer, producer, logger)
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}

// newGRPCServer собирает gRPC сервер со стандартным health сервисом и reflection.
func newGRPCServer(logger *log.Entry) (*grpc.Server, *health.Server) {
	grpcMetrics := promgrpc.NewServerMetrics()
	if err := prometheus.Register(grpcMetrics); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*promgrpc.ServerMetrics); ok {
				grpcMetrics = existing
			}
		} else {
			logger.WithError(err).Warn("failed to register grpc metrics")
		}
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(grpcMetrics.StreamServerInterceptor()),
	)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)
	grpcMetrics.InitializeMetrics(grpcServer)

	return grpcServer, healthServer
}

// watchStorageHealth переводит gRPC health в NOT_SERVING, пока хранилище недоступно.
func watchStorageHealth(ctx context.Context, check func(context.Context) error, srv *health.Server, logger *log.Entry) {
	update := func() {
		checkCtx, cancel := context.WithTimeout(ctx, healthcheck.DefaultCheckTimeout)
		defer cancel()
		status := healthpb.HealthCheckResponse_SERVING
		if err := check(checkCtx); err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			logger.WithError(err).Warn("storage health check failed")
		}
		srv.SetServingStatus("", status)
	}

	update()
	ticker := time.NewTicker(healthRefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			update()
		}
	}
}

func stopGRPC(srv *grpc.Server, timeout time.Duration, logger *log.Entry) {
	stoppedCh := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(stoppedCh)
	}()
	select {
	case <-stoppedCh:
	case <-time.After(shutdownTimeoutOrDefault(timeout)):
		logger.Warn("graceful stop превысил таймаут, принудительно останавливаем")
		srv.Stop()
	}
}

// startHTTPServer запускает HTTP сервер в фоне.
func startHTTPServer(addr string, handler http.Handler, name string, logger *log.Entry) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Infof("%s сервер слушает %s", name, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).WithField("server", name).Warn("http server failed")
		}
	}()
	return srv
}

// startMetricsServer запускает /metrics, /healthz, /livez и /readyz.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := startHTTPServer(addr, mux, "metrics", logger)
	logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, 0, logger)
	}()
	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, timeout time.Duration, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeoutOrDefault(timeout))
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}

func shutdownTimeoutOrDefault(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return DefaultConfig().ShutdownTimeout
	}
	return timeout
}
