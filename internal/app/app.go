package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prbretas/JEWELRY/internal/catalog"
	"github.com/prbretas/JEWELRY/internal/checkout"
	"github.com/prbretas/JEWELRY/internal/config"
	"github.com/prbretas/JEWELRY/internal/event"
	handler "github.com/prbretas/JEWELRY/internal/handler/http"
	"github.com/prbretas/JEWELRY/internal/notify"
	"github.com/prbretas/JEWELRY/internal/service"
	"github.com/prbretas/JEWELRY/pkg/health"
	"github.com/prbretas/JEWELRY/pkg/httpclient"
	pkgkafka "github.com/prbretas/JEWELRY/pkg/kafka"
	"github.com/prbretas/JEWELRY/pkg/middleware"
	"github.com/prbretas/JEWELRY/pkg/tracing"
)

const serviceName = handler.ServiceName

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	storage        *storage
	producer       *pkgkafka.Producer
	sessions       *service.Registry
	httpServer     *http.Server
	tracerShutdown tracing.ShutdownFunc
}

var initTracer = tracing.InitTracer

// NewApp creates a new application instance, initializing all dependencies.
// A failure after the tracer is up flushes and releases it before returning.
func NewApp(cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tracerShutdown, err := initTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tracerShutdown(context.WithoutCancel(ctx))
		}
	}()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	logger.Info("catalog loaded", slog.Int("products", cat.Len()))

	st, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical(cfg.StorageBackend, st.store.Ping)

	// Events go to Kafka when enabled; otherwise they are dropped.
	var (
		producer *pkgkafka.Producer
		events   event.Publisher = event.Noop{}
	)
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		events = event.NewProducer(producer, logger)
		healthHandler.RegisterNonCritical("kafka", producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	inbox := notify.NewInbox(notify.DefaultInboxSize)

	sessions := service.NewRegistry(st.store, service.Dependencies{
		Catalog:  cat,
		Events:   events,
		Notifier: notify.Multi{notify.NewLog(logger), inbox},
		Gateway:  newGateway(cfg, logger),
		Latency: service.FixedLatency{
			AddToCart: cfg.AddToCartDelay,
			Wishlist:  cfg.WishlistDelay,
		},
		Logger: logger,
	}, cfg.SessionIdleTTL)
	sessions.OnEvict(inbox.Forget)

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins
	cors.Environment = cfg.Environment

	router := handler.NewRouter(handler.RouterConfig{
		Catalog:  cat,
		Sessions: sessions,
		Inbox:    inbox,
		Health:   healthHandler,
		CORS:     cors,
		Logger:   logger,

		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		storage:        st,
		producer:       producer,
		sessions:       sessions,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// newGateway posts orders to CHECKOUT_ENDPOINT when set and simulates the
// round trip otherwise.
func newGateway(cfg *config.Config, logger *slog.Logger) checkout.Gateway {
	if cfg.CheckoutEndpoint == "" {
		return checkout.NewSimulated(cfg.CheckoutDelay)
	}

	baseClient := httpclient.New(httpclient.Config{
		Timeout:         10 * time.Second,
		MaxRetries:      2,
		RetryWaitMin:    200 * time.Millisecond,
		RetryWaitMax:    2 * time.Second,
		MaxConnsPerHost: 20,
	})
	cbClient := httpclient.NewCircuitBreakerClient(baseClient, httpclient.DefaultCircuitBreakerConfig("checkout-gateway"), logger)
	logger.Info("checkout gateway configured", slog.String("endpoint", cfg.CheckoutEndpoint))

	return checkout.NewHTTPGateway(cbClient, cfg.CheckoutEndpoint, logger)
}

// Handler returns the HTTP handler of the service.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run serves HTTP and sweeps idle sessions until ctx is canceled or the
// listener fails, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go a.sessions.Run(sweepCtx, a.cfg.SessionSweepInterval)

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("listening", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	}
	return a.Shutdown()
}

type shutdownStep struct {
	name    string
	timeout time.Duration
	fn      func(context.Context) error
}

// Shutdown drains HTTP first so spans, events and snapshot writes from
// in-flight requests are flushed by the later steps.
func (a *App) Shutdown() error {
	steps := []shutdownStep{
		{"http server", 5 * time.Second, a.httpServer.Shutdown},
	}
	if a.tracerShutdown != nil {
		steps = append(steps, shutdownStep{"tracer", 3 * time.Second, a.tracerShutdown})
	}
	if a.producer != nil {
		steps = append(steps, shutdownStep{"kafka producer", 0, func(context.Context) error { return a.producer.Close() }})
	}
	steps = append(steps, shutdownStep{"snapshot store", 0, func(context.Context) error { return a.storage.close() }})

	var errs []error
	for _, step := range steps {
		ctx, cancel := context.Background(), context.CancelFunc(func() {})
		if step.timeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, step.timeout)
		}
		if err := step.fn(ctx); err != nil {
			a.logger.Error("shutdown step failed", slog.String("step", step.name), slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
		}
		cancel()
	}

	a.logger.Info("shutdown complete")
	return errors.Join(errs...)
}
