// Package server builds the application from configuration and runs its
// long-lived processes: the HTTP API, the gRPC health endpoint, the retry
// queue workers and the periodic reconciliation sweep.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/bistroboss/bistro/app/controllers"
	"github.com/bistroboss/bistro/app/jobs"
	"github.com/bistroboss/bistro/app/repositories"
	"github.com/bistroboss/bistro/app/routes"
	"github.com/bistroboss/bistro/app/services"
	"github.com/bistroboss/bistro/config"
	"github.com/bistroboss/bistro/internal/kernel"
	"github.com/bistroboss/bistro/pkg/auth"
	"github.com/bistroboss/bistro/pkg/cache"
	"github.com/bistroboss/bistro/pkg/database"
	"github.com/bistroboss/bistro/pkg/event"
	bistrogrpc "github.com/bistroboss/bistro/pkg/grpc"
	"github.com/bistroboss/bistro/pkg/logger"
	"github.com/bistroboss/bistro/pkg/middleware"
	"github.com/bistroboss/bistro/pkg/payment"
	"github.com/bistroboss/bistro/pkg/queue"
	"github.com/bistroboss/bistro/pkg/router"
	"github.com/bistroboss/bistro/pkg/schedule"
)

const (
	sweepGrace = time.Minute
	sweepLimit = 200
)

// App owns every long-lived dependency. Build it with Boot and release it
// with Close.
type App struct {
	Store    *database.Store
	Redis    *redis.Client
	Queue    *queue.Manager
	Events   *event.Bus
	Payments *services.PaymentService
	Stats    *services.StatsService

	kernel   *kernel.HTTPKernel
	limiter  *middleware.RateLimiter
	delayed  *queue.RedisDriver
	logSink  *logger.MongoHandler
	schedule *schedule.Scheduler
}

// Connect dials the store only, for commands that need nothing else.
func Connect(ctx context.Context) (*database.Store, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return database.Connect(ctx, database.Config{
		URI:          config.MongoURI(),
		Database:     config.MongoDB(),
		Transactions: config.MongoTransactions(),
	})
}

// Boot connects to the store and Redis and wires services, jobs, events
// and routes. Redis is optional unless QUEUE_DRIVER=redis.
func Boot(ctx context.Context) (*App, error) {
	store, err := Connect(ctx)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureIndexes(ctx, database.DefaultIndexes()); err != nil {
		_ = store.Disconnect(context.Background())
		return nil, err
	}

	a := &App{Store: store, Events: event.NewBus()}

	if config.LogToMongo() {
		a.logSink = logger.NewMongoHandler(store.Collection(database.Logs), slog.LevelInfo)
		logger.Use(logger.NewMultiHandler(logger.Handler(), a.logSink))
	}

	rdb, err := cache.Connect(ctx, config.RedisAddr(), config.RedisPassword())
	switch {
	case err == nil:
		a.Redis = rdb
	case config.QueueDriver() == "redis":
		a.Close(context.Background())
		return nil, fmt.Errorf("redis: %w", err)
	default:
		logger.Warn("redis unavailable, stats cache disabled and queue kept in memory", "error", err)
	}

	a.wire()
	return a, nil
}

func (a *App) wire() {
	var statsCache *cache.Store
	var driver queue.Driver = queue.NewMemoryDriver()
	if a.Redis != nil {
		statsCache = cache.New(a.Redis, "bistro:")
		if config.QueueDriver() == "redis" {
			a.delayed = queue.NewRedisDriver(a.Redis)
			driver = a.delayed
		}
	}

	users := repositories.NewUserRepository(a.Store)
	menu := repositories.NewMenuRepository(a.Store)
	reviews := repositories.NewReviewRepository(a.Store)
	carts := repositories.NewCartRepository(a.Store)
	paymentsRepo := repositories.NewPaymentRepository(a.Store)

	a.Queue = queue.New(driver, queue.WithFailedStore(repositories.NewFailedJobRepository(a.Store)))

	tokens := auth.NewService(auth.Config{Secret: config.TokenSecret(), TTL: config.TokenTTL()})
	userSvc := services.NewUserService(users, a.Events)
	menuSvc := services.NewMenuService(menu, reviews, a.Events)
	a.Stats = services.NewStatsService(users, menu, paymentsRepo, statsCache, config.StatsCacheTTL())
	a.Payments = services.NewPaymentService(services.PaymentDeps{
		Payments: paymentsRepo,
		Carts:    carts,
		Tx:       a.Store,
		Provider: payment.NewStripe(payment.Config{
			SecretKey: config.PaymentSecretKey(),
			BaseURL:   config.PaymentAPIURL(),
		}),
		Jobs:     a.Queue,
		Events:   a.Events,
		Currency: config.PaymentCurrency(),
	})

	a.Queue.Register(jobs.PurgeCartsFactory(a.Payments))

	invalidate := func(ctx context.Context, _ interface{}) { a.Stats.InvalidateAdmin(ctx) }
	a.Events.Listen(event.PaymentRecorded, invalidate)
	a.Events.Listen(event.MenuChanged, invalidate)
	a.Events.Listen(event.UserPromoted, invalidate)

	a.limiter = middleware.NewRateLimiter(config.RateLimitRPS(), config.RateLimitBurst())
	a.kernel = kernel.NewHTTPKernel(routes.API{
		Tokens:   tokens,
		Roles:    userSvc,
		Health:   controllers.NewHealthController(a.Store),
		Auth:     controllers.NewAuthController(services.NewAuthService(tokens)),
		Users:    controllers.NewUserController(userSvc),
		Menu:     controllers.NewMenuController(menuSvc),
		Carts:    controllers.NewCartController(services.NewCartService(carts)),
		Payments: controllers.NewPaymentController(a.Payments),
		Stats:    controllers.NewStatsController(a.Stats),
	}, kernel.Options{CORSOrigins: config.CORSOrigins(), Limiter: a.limiter})

	a.schedule = schedule.New()
	a.schedule.Every(config.ReconcileSweepInterval()).Name("reconcile-sweep").Run(func(ctx context.Context) {
		if _, err := a.Sweep(ctx); err != nil && ctx.Err() == nil {
			logger.Error("reconcile sweep failed", "error", err)
		}
	})
	a.schedule.Every(time.Minute).Name("rate-limiter-sweep").Run(func(context.Context) {
		a.limiter.Sweep(time.Now())
	})
}

// Sweep re-drives the cart purge of stale unreconciled payments.
func (a *App) Sweep(ctx context.Context) (services.SweepReport, error) {
	report, err := a.Payments.Sweep(ctx, sweepGrace, sweepLimit)
	if err != nil {
		return report, err
	}
	if report.Scanned > 0 {
		logger.Info("reconcile sweep", "scanned", report.Scanned, "reconciled", report.Reconciled, "failed", report.Failed)
	}
	return report, nil
}

// Serve runs every process until ctx is cancelled, then shuts them down.
func (a *App) Serve(ctx context.Context) error {
	addr := ":" + config.AppPort()
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.kernel.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server starting", "addr", addr, "env", config.AppEnv())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		logger.Info("HTTP server shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if port := config.GRPCPort(); port != "" {
		grpcSrv, err := bistrogrpc.Start(port, a.Store)
		if err != nil {
			return err
		}
		g.Go(func() error {
			<-gctx.Done()
			bistrogrpc.Stop(grpcSrv)
			return nil
		})
	}

	a.runWorkers(gctx, g, config.QueueWorkers())
	g.Go(func() error {
		a.schedule.Start(gctx)
		return nil
	})

	return g.Wait()
}

// Work runs only the queue workers, for a dedicated worker process.
func (a *App) Work(ctx context.Context, workers int) error {
	g, gctx := errgroup.WithContext(ctx)
	a.runWorkers(gctx, g, workers)
	return g.Wait()
}

func (a *App) runWorkers(ctx context.Context, g *errgroup.Group, workers int) {
	g.Go(func() error {
		a.Queue.Run(ctx, workers)
		return nil
	})
	if a.delayed != nil {
		g.Go(func() error {
			a.delayed.PromoteDelayed(ctx)
			return nil
		})
	}
}

// Routes returns the route table.
func (a *App) Routes() []router.RouteInfo {
	return a.kernel.Router().Routes()
}

// Close waits for in-flight event listeners and releases connections.
func (a *App) Close(ctx context.Context) {
	a.Events.Wait()
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.logSink != nil {
		a.logSink.Close()
	}
	if err := a.Store.Disconnect(ctx); err != nil {
		logger.Warn("mongo disconnect", "error", err)
	}
}

// RouteTable lists the routes without connecting to anything.
func RouteTable() []router.RouteInfo {
	k := kernel.NewHTTPKernel(routes.API{
		Health:   &controllers.HealthController{},
		Auth:     &controllers.AuthController{},
		Users:    &controllers.UserController{},
		Menu:     &controllers.MenuController{},
		Carts:    &controllers.CartController{},
		Payments: &controllers.PaymentController{},
		Stats:    &controllers.StatsController{},
	}, kernel.Options{})
	return k.Router().Routes()
}
