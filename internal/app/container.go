package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"

	"service-dispatch/internal/auth"
	"service-dispatch/internal/config"
	"service-dispatch/internal/http/handlers"
	mw "service-dispatch/internal/http/middleware"
	rlmw "service-dispatch/internal/http/middleware/ratelimit"
	"service-dispatch/internal/http/opsserver"
	"service-dispatch/internal/http/router"
	"service-dispatch/internal/jobs"
	"service-dispatch/internal/logx"
	"service-dispatch/internal/metrics"
	"service-dispatch/internal/notify"
	"service-dispatch/internal/repository"
	"service-dispatch/internal/service/courier"
	"service-dispatch/internal/service/delivery"
	"service-dispatch/internal/service/matching"
	"service-dispatch/internal/service/orders"
	"service-dispatch/internal/service/tracking"
	"service-dispatch/internal/transport/kafka"
	"service-dispatch/internal/transport/ws"
)

// ContainerBuilder is a dig container builder.
type ContainerBuilder struct {
	dbConnect  dbConnectFunc
	loadConfig func() (*config.Config, error)
	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
	logFatalf  func(string, ...any)
}

// NewContainerBuilder returns a new dig container builder.
func NewContainerBuilder() *ContainerBuilder {
	return &ContainerBuilder{
		dbConnect:  connectDbWithRetry,
		loadConfig: config.Load,
		registerer: prometheus.DefaultRegisterer,
		gatherer:   prometheus.DefaultGatherer,
		logFatalf:  log.Fatalf,
	}
}

// WithDBConnect sets the database connection function.
func (b *ContainerBuilder) WithDBConnect(fn dbConnectFunc) *ContainerBuilder {
	if fn != nil {
		b.dbConnect = fn
	}
	return b
}

// WithConfig replaces config.Load with a fixed configuration.
func (b *ContainerBuilder) WithConfig(cfg *config.Config) *ContainerBuilder {
	if cfg != nil {
		b.loadConfig = func() (*config.Config, error) { return cfg, nil }
	}
	return b
}

// WithRegistry registers metrics on reg instead of the default registry.
func (b *ContainerBuilder) WithRegistry(reg *prometheus.Registry) *ContainerBuilder {
	if reg != nil {
		b.registerer, b.gatherer = reg, reg
	}
	return b
}

// WithLogFatalf sets the log.Fatalf function.
func (b *ContainerBuilder) WithLogFatalf(fn func(string, ...any)) *ContainerBuilder {
	if fn != nil {
		b.logFatalf = fn
	}
	return b
}

// MustBuild builds the API process container.
func (b *ContainerBuilder) MustBuild(ctx context.Context) *dig.Container {
	return b.must(b.build(ctx, registerHTTP))
}

// MustBuildWorker builds the worker process container.
func (b *ContainerBuilder) MustBuildWorker(ctx context.Context) *dig.Container {
	return b.must(b.build(ctx, registerWorker))
}

func (b *ContainerBuilder) must(c *dig.Container, err error) *dig.Container {
	if err != nil {
		b.logFatalf("failed to build container: %v", err)
	}
	return c
}

func (b *ContainerBuilder) build(ctx context.Context, outer func(*dig.Container) error) (*dig.Container, error) {
	container := dig.New()

	if err := registerCore(container, ctx, b); err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}
	if err := registerInfra(container, b.dbConnect); err != nil {
		return nil, fmt.Errorf("infra: %w", err)
	}
	if err := registerService(container); err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	if err := outer(container); err != nil {
		return nil, err
	}
	return container, nil
}

// MustBuildContainer builds the API container with production defaults.
func MustBuildContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuild(ctx)
}

// MustBuildWorkerContainer builds the worker container with production defaults.
func MustBuildWorkerContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuildWorker(ctx)
}

func provideAll(container *dig.Container, providers ...any) error {
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return fmt.Errorf("provide %T: %w", provider, err)
		}
	}
	return nil
}

func registerCore(container *dig.Container, ctx context.Context, b *ContainerBuilder) error {
	return provideAll(container,
		func() context.Context { return ctx },
		b.loadConfig,
		NewLogger,
		func() prometheus.Registerer { return b.registerer },
		func() prometheus.Gatherer { return b.gatherer },
		metrics.NewDispatch,
		newRateLimitClock,
	)
}

func registerInfra(container *dig.Container, dbConnect dbConnectFunc) error {
	providePool := func(ctx context.Context, cfg *config.Config, logger logx.Logger) (*pgxpool.Pool, error) {
		pool, err := dbConnect(ctx, logger, cfg.DB.DSN(), 10, time.Second)
		if err != nil {
			return nil, err
		}
		if cfg.Migrate {
			if err := repository.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
			logger.Info("schema applied")
		}
		return pool, nil
	}
	provideProducer := func(cfg *config.Config) (*kafka.Producer, error) {
		return kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.NotificationsTopic)
	}
	return provideAll(container,
		providePool,
		newRedisClient,
		provideProducer,
		newNotificationQueue,
		newNotifier,
		newTrackingGates,
		repository.NewCourierRepo,
		repository.NewDeliveryRepo,
		repository.NewCatalogRepo,
		repository.NewThreadRepo,
		repository.NewLocationRepo,
	)
}

// newNotificationQueue delivers notifications to Kafka off the request path.
// It is nil when no producer is configured.
func newNotificationQueue(p *kafka.Producer, m *metrics.Dispatch, logger logx.Logger) *notify.Background {
	if p == nil {
		return nil
	}
	pub := notify.NewRetryingPublisher(p, logger, m.PublishRetries(), notify.DefaultRetryConfig)
	return notify.NewBackground(notify.NewKafkaNotifier(pub), logger, m.NotificationsDropped(), notify.DefaultBackgroundConfig)
}

// newNotifier uses the Kafka queue when present and logs otherwise.
func newNotifier(q *notify.Background, logger logx.Logger) delivery.Notifier {
	if q == nil {
		return notify.NewLogNotifier(logger)
	}
	return q
}

// dispatchCatalog joins the store/order reads with courier profiles.
type dispatchCatalog struct {
	*repository.CatalogRepo
	*repository.CourierRepo
}

type deliveryIn struct {
	dig.In

	Config   *config.Config
	Logger   logx.Logger
	Repo     *repository.DeliveryRepo
	Catalog  *repository.CatalogRepo
	Couriers *repository.CourierRepo
	Threads  *repository.ThreadRepo
	Notifier delivery.Notifier
	Hub      *ws.Hub
	Metrics  *metrics.Dispatch
}

func newDeliveryService(in deliveryIn) *delivery.Service {
	return delivery.NewService(
		in.Repo,
		dispatchCatalog{CatalogRepo: in.Catalog, CourierRepo: in.Couriers},
		in.Threads,
		in.Notifier,
		in.Hub,
		in.Metrics,
		delivery.Options{
			RequestTTL:       in.Config.Dispatch.RequestTTL,
			OperationTimeout: in.Config.Dispatch.OperationTimeout,
		},
		in.Logger,
	)
}

type trackingIn struct {
	dig.In

	Config     *config.Config
	Logger     logx.Logger
	Deliveries *repository.DeliveryRepo
	Couriers   *repository.CourierRepo
	History    *repository.LocationRepo
	Hub        *ws.Hub
	Metrics    *metrics.Dispatch
	Gates      trackingGates
}

func newTrackingService(in trackingIn) *tracking.Service {
	return tracking.NewService(tracking.Deps{
		Deliveries:  in.Deliveries,
		Positions:   in.Couriers,
		History:     in.History,
		Broadcaster: in.Hub,
		Metrics:     in.Metrics,
		LiveGate:    in.Gates.Live,
		HistoryGate: in.Gates.History,
	}, in.Config.Dispatch.OperationTimeout, in.Logger)
}

func registerService(container *dig.Container) error {
	return provideAll(container,
		func(cfg *config.Config, repo *repository.CourierRepo, logger logx.Logger) *courier.Service {
			return courier.NewService(repo, cfg.Dispatch.OperationTimeout, logger)
		},
		func(cfg *config.Config, repo *repository.CourierRepo, logger logx.Logger) *matching.Matcher {
			return matching.NewMatcher(repo, cfg.Dispatch.OperationTimeout, logger)
		},
		func(logger logx.Logger, m *metrics.Dispatch) *ws.Hub {
			return ws.NewHub(logger, m)
		},
		newDeliveryService,
		newTrackingService,
		func(svc *delivery.Service, logger logx.Logger) *orders.Processor {
			return orders.NewProcessor(svc, logger)
		},
	)
}

// authenticator is the bearer token middleware of the authenticated route group.
type authenticator func(http.Handler) http.Handler

// opsServer is the optional metrics/pprof listener. Nil when disabled.
type opsServer struct {
	srv *http.Server
}

func newOpsServer(cfg *config.Config, gatherer prometheus.Gatherer) *opsServer {
	if !cfg.Ops.Enabled {
		return nil
	}
	return &opsServer{srv: &http.Server{
		Addr:              cfg.Ops.Addr,
		Handler:           opsserver.Handler(opsserver.Config{User: cfg.Ops.User, Pass: cfg.Ops.Pass}, gatherer),
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

type routerIn struct {
	dig.In

	Logger       logx.Logger
	Base         *handlers.Handlers
	Couriers     *handlers.CourierHandler
	Deliveries   *handlers.DeliveryHandler
	Stream       *ws.Handler
	Authenticate authenticator
	RateLimit    *rlmw.Middleware
}

func newRouter(in routerIn) http.Handler {
	d := router.Deps{
		Logger:       in.Logger,
		Base:         in.Base,
		Couriers:     in.Couriers,
		Deliveries:   in.Deliveries,
		Stream:       in.Stream,
		Authenticate: in.Authenticate,
	}
	if in.RateLimit != nil {
		d.RateLimit = in.RateLimit.Handler()
	}
	return router.New(d)
}

func registerHTTP(container *dig.Container) error {
	serverProvider := func(cfg *config.Config, mux http.Handler) *http.Server {
		// /ws/delivery connections set their own read and write deadlines.
		return &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
	}
	return provideAll(container,
		func(cfg *config.Config) *auth.Verifier { return auth.NewVerifier(cfg.Auth.JWTSecret) },
		func(v *auth.Verifier, accounts *repository.CatalogRepo, logger logx.Logger) authenticator {
			return mw.Authenticate(v, accounts, logger)
		},
		newRateLimiter,
		newRateLimitMiddleware,
		handlers.New,
		func(logger logx.Logger, svc *courier.Service, m *matching.Matcher) *handlers.CourierHandler {
			return handlers.NewCourierHandler(logger, handlers.NewCourierUsecase(svc), m)
		},
		func(logger logx.Logger, svc *delivery.Service, t *tracking.Service) *handlers.DeliveryHandler {
			return handlers.NewDeliveryHandler(logger, handlers.NewDeliveryUsecase(svc), t)
		},
		func(
			hub *ws.Hub,
			v *auth.Verifier,
			accounts *repository.CatalogRepo,
			t *tracking.Service,
			logger logx.Logger,
		) *ws.Handler {
			return ws.NewHandler(hub, v, accounts, t, logger)
		},
		newRouter,
		serverProvider,
		newOpsServer,
	)
}

func registerWorker(container *dig.Container) error {
	provideConsumer := func(cfg *config.Config, logger logx.Logger, p *orders.Processor) (*kafka.Consumer, error) {
		return kafka.NewConsumer(logger, cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.OrdersTopic, makeOrdersKafka(p))
	}
	return provideAll(container,
		provideConsumer,
		func(svc *delivery.Service, m *metrics.Dispatch, logger logx.Logger) *jobs.ExpiryJob {
			return jobs.NewExpiryJob(svc, m, logger)
		},
	)
}

// closeRedis is shared by both runners.
func closeRedis(rdb *redis.Client, logger logx.Logger) {
	if rdb == nil {
		return
	}
	if err := rdb.Close(); err != nil {
		logger.Error("redis close error", logx.Err(err))
	}
}
