package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"shiptrack-service/internal/claim"
	"shiptrack-service/internal/config"
	"shiptrack-service/internal/docstore"
	"shiptrack-service/internal/docstore/pgstore"
	"shiptrack-service/internal/gateway/recap"
	"shiptrack-service/internal/http/handlers"
	"shiptrack-service/internal/http/middleware/ratelimit"
	"shiptrack-service/internal/http/pprofserver"
	"shiptrack-service/internal/http/router"
	"shiptrack-service/internal/lifecycle"
	"shiptrack-service/internal/location"
	"shiptrack-service/internal/logx"
	"shiptrack-service/internal/metrics"
	"shiptrack-service/internal/views"
	"shiptrack-service/internal/visibility"
)

const operationTimeout = 3 * time.Second

// ContainerBuilder is a dig container builder.
type ContainerBuilder struct {
	dbConnect func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error)
	logFatalf func(string, ...interface{})
	worker    bool
}

// NewContainerBuilder returns a new dig container builder.
func NewContainerBuilder() *ContainerBuilder {
	return &ContainerBuilder{
		dbConnect: connectDbWithRetry,
		logFatalf: log.Fatalf,
	}
}

// WithDBConnect sets the database connection function.
func (b *ContainerBuilder) WithDBConnect(
	fn func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error),
) *ContainerBuilder {
	if fn != nil {
		b.dbConnect = fn
	}
	return b
}

// WithLogFatalf sets the log.Fatalf function.
func (b *ContainerBuilder) WithLogFatalf(fn func(string, ...interface{})) *ContainerBuilder {
	if fn != nil {
		b.logFatalf = fn
	}
	return b
}

// ForWorker adds the Kafka consumer providers.
func (b *ContainerBuilder) ForWorker() *ContainerBuilder {
	b.worker = true
	return b
}

// MustBuild builds and returns a new dig container.
func (b *ContainerBuilder) MustBuild(ctx context.Context) *dig.Container {
	container, err := b.build(ctx)
	if err != nil {
		b.logFatalf("failed to build container: %v", err)
	}
	return container
}

func (b *ContainerBuilder) build(ctx context.Context) (*dig.Container, error) {
	container := dig.New()

	if err := registerCore(container, ctx); err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}
	if err := registerDb(container, b.dbConnect); err != nil {
		return nil, fmt.Errorf("DB: %w", err)
	}
	if err := registerMetrics(container); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	if err := registerService(container); err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	if err := registerHTTP(container); err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	if b.worker {
		if err := registerWorker(container); err != nil {
			return nil, fmt.Errorf("worker: %w", err)
		}
	}
	return container, nil
}

// MustBuildContainer builds the HTTP service container.
func MustBuildContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuild(ctx)
}

// MustBuildWorkerContainer builds the location-ingest worker container.
func MustBuildWorkerContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().ForWorker().MustBuild(ctx)
}

func provideAll(container *dig.Container, providers ...any) error {
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return fmt.Errorf("provide %T: %w", provider, err)
		}
	}
	return nil
}

func registerCore(container *dig.Container, ctx context.Context) error {
	return provideAll(container,
		func() context.Context { return ctx },
		func() *log.Logger { return log.Default() },
		NewLogger,
		config.Load,
	)
}

func registerDb(
	container *dig.Container,
	dbConnect func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error),
) error {
	providerDB := func(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
		return dbConnect(ctx, cfg.DB.DSN(), 10, time.Second)
	}
	providerStore := func(ctx context.Context, pool *pgxpool.Pool) (docstore.Store, error) {
		if err := pgstore.EnsureSchema(ctx, pool); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		return pgstore.New(pool), nil
	}
	return provideAll(container, providerDB, providerStore)
}

func registerMetrics(container *dig.Container) error {
	named := map[string]func() prometheus.Counter{
		"claim_conflicts_total":     metrics.NewClaimConflictsTotal,
		"location_fallbacks_total":  metrics.NewLocationFallbacksTotal,
		"rate_limit_exceeded_total": metrics.NewRateLimitExceededTotal,
		"gateway_retries_total":     metrics.NewGatewayRetriesTotal,
	}
	for name, ctor := range named {
		ctor := ctor
		provider := func() prometheus.Counter { return registerCounter(ctor()) }
		if err := container.Provide(provider, dig.Name(name)); err != nil {
			return fmt.Errorf("provide counter %s: %w", name, err)
		}
	}
	return nil
}

// registerCounter adds the counter to the default registry, reusing the
// existing collector when another container already registered it.
func registerCounter(c prometheus.Counter) prometheus.Counter {
	err := prometheus.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
			return existing
		}
	}
	return c
}

type claimIn struct {
	dig.In
	Lifecycle *lifecycle.Service
	Logger    logx.Logger
	Conflicts prometheus.Counter `name:"claim_conflicts_total"`
}

type relayIn struct {
	dig.In
	Lifecycle *lifecycle.Service
	Provider  location.Provider
	Config    *config.Config
	Logger    logx.Logger
	Fallbacks prometheus.Counter `name:"location_fallbacks_total"`
}

type recapIn struct {
	dig.In
	Config  *config.Config
	Logger  logx.Logger
	Retries prometheus.Counter `name:"gateway_retries_total"`
}

func registerService(container *dig.Container) error {
	return provideAll(container,
		func(s docstore.Store, logger logx.Logger) *lifecycle.Service {
			return lifecycle.NewService(s, operationTimeout, logger)
		},
		claim.NewRegistry,
		func(in claimIn) *claim.Coordinator {
			return claim.NewCoordinator(in.Lifecycle, in.Logger, in.Conflicts)
		},
		func(s docstore.Store, logger logx.Logger) *visibility.Ledger {
			return visibility.NewLedger(s, operationTimeout, logger)
		},
		func(s docstore.Store, logger logx.Logger) *views.SenderView {
			return views.NewSenderView(s, logger)
		},
		func(s docstore.Store, logger logx.Logger) *views.DriverView {
			return views.NewDriverView(s, logger)
		},
		func(s docstore.Store, logger logx.Logger) *views.ReceiverView {
			return views.NewReceiverView(s, logger)
		},
		// No in-process GPS source ships yet. If an operator enables
		// the relay anyway, every reading fails and goes through the
		// relay's counted fallback path instead of passing for real.
		func() location.Provider { return location.UnavailableProvider{} },
		func(in relayIn) *location.Manager {
			return location.NewManager(in.Lifecycle, in.Provider, in.Config.Location.RepublishInterval, in.Logger, in.Fallbacks)
		},
		func(in recapIn) recap.Gateway {
			base := recap.NewHTTPGateway(nil, in.Config.Recap.BaseURL)
			return recap.NewRetryingGateway(base, in.Logger, in.Retries, recap.RetryConfig{
				MaxAttempts: in.Config.Recap.MaxAttempts,
				BaseDelay:   in.Config.Recap.BaseDelay,
				MaxDelay:    in.Config.Recap.MaxDelay,
			})
		},
	)
}

type routerIn struct {
	dig.In
	Config       *config.Config
	Logger       logx.Logger
	Base         *handlers.Handlers
	Shipments    *handlers.ShipmentHandler
	Claims       *handlers.ClaimHandler
	Visibility   *handlers.VisibilityHandler
	Views        *handlers.ViewsHandler
	Recap        *handlers.RecapHandler
	ClaimLimiter *ratelimit.Middleware
}

func registerHTTP(container *dig.Container) error {
	serverProvider := func(cfg *config.Config, mux http.Handler) *http.Server {
		return &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
	}
	routerProvider := func(in routerIn) http.Handler {
		return router.New(router.Deps{
			Logger:       in.Logger,
			Base:         in.Base,
			Shipments:    in.Shipments,
			Claims:       in.Claims,
			Visibility:   in.Visibility,
			Views:        in.Views,
			Recap:        in.Recap,
			ClaimLimiter: in.ClaimLimiter,
			Pprof: pprofserver.Config{
				User: in.Config.Pprof.User,
				Pass: in.Config.Pprof.Pass,
			},
		})
	}
	return provideAll(container,
		handlers.New,
		handlers.NewShipmentUsecase,
		handlers.NewRelayManager,
		handlers.NewSessionReleaser,
		handlers.NewShipmentHandler,
		handlers.NewClaimCoordinator,
		handlers.NewClaimHandler,
		handlers.NewVisibilityLedger,
		handlers.NewVisibilityHandler,
		handlers.NewSenderViews,
		handlers.NewDriverViews,
		handlers.NewReceiverViews,
		handlers.NewViewsHandler,
		handlers.NewRecapGateway,
		handlers.NewRecapHandler,
		newRateLimitClock,
		newRateLimiter,
		newRateLimitMiddleware,
		routerProvider,
		serverProvider,
	)
}
