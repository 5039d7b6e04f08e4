package app

import (
	"context"
	"fmt"
	"time"

	"github.com/avc/smm-panel/internal/config"
	"github.com/avc/smm-panel/internal/domain"
	"github.com/avc/smm-panel/internal/exchange"
	"github.com/avc/smm-panel/internal/handlers"
	"github.com/avc/smm-panel/internal/lock"
	"github.com/avc/smm-panel/internal/provider"
	"github.com/avc/smm-panel/internal/repository/postgres"
	"github.com/avc/smm-panel/internal/service"
	"github.com/avc/smm-panel/internal/utils/jwt"
	"github.com/avc/smm-panel/internal/utils/password"
	"github.com/avc/smm-panel/internal/worker"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// repositories содержит все репозитории приложения
type repositories struct {
	user     domain.UserRepository
	provider domain.ProviderRepository
	catalog  domain.CatalogRepository
	order    domain.OrderRepository
}

// services содержит все сервисы приложения
type services struct {
	auth      *service.AuthService
	catalog   *service.CatalogService
	dispatch  *service.DispatchService
	reconcile *service.ReconcileService
	order     *service.OrderService
	provider  *service.ProviderService
	report    *service.ReportService
}

// handlerSet содержит все хендлеры приложения
type handlerSet struct {
	auth   *handlers.AuthHandler
	orders *handlers.OrdersHandler
	admin  *handlers.AdminHandler
	cron   *handlers.CronHandler
	health *handlers.HealthHandler
}

// dependencies содержит все зависимости приложения
type dependencies struct {
	repos      *repositories
	services   *services
	handlers   *handlerSet
	jwtManager *jwt.Manager
	scheduler  *worker.Scheduler
	closers    []func() error
}

// initDependencies создает все зависимости приложения
func initDependencies(ctx context.Context, cfg *config.Config, dbPool *pgxpool.Pool, logger *zap.Logger) (*dependencies, error) {
	deps := &dependencies{}

	// Создание репозиториев
	repos := &repositories{
		user:     postgres.NewUserRepository(dbPool),
		provider: postgres.NewProviderRepository(dbPool),
		catalog:  postgres.NewCatalogRepository(dbPool),
		order:    postgres.NewOrderRepository(dbPool),
	}

	// Создание утилит
	passwordHasher := password.NewBCryptHasher(password.DefaultCost)
	jwtManager := jwt.NewManager(cfg.JWTSecret, cfg.JWTTokenTTL)
	clients := provider.NewClientFactory(cfg.ProviderTimeout)
	rates := exchange.NewCachedRateProvider(exchange.Config{
		PrimaryURL:   cfg.ExchangePrimaryURL,
		MirrorURL:    cfg.ExchangeMirrorURL,
		Currency:     cfg.ExchangeCurrency,
		FallbackRate: cfg.ExchangeFallbackRate,
		TTL:          cfg.ExchangeCacheTTL,
	}, logger)

	// Блокировка запусков: Redis для нескольких экземпляров, иначе в памяти
	var (
		locker      lock.Locker = lock.NewMemoryLocker()
		redisPinger handlers.Pinger
	)
	if cfg.RedisAddr != "" {
		redisLocker, err := initRedisLocker(ctx, cfg)
		if err != nil {
			return nil, err
		}
		locker = redisLocker
		redisPinger = redisLocker
		deps.closers = append(deps.closers, redisLocker.Close)
		logger.Info("using redis scheduler lock", zap.String("addr", cfg.RedisAddr))
	}

	// Создание сервисов
	dispatch := service.NewDispatchService(repos.order, clients, cfg.DispatchClaimTTL, logger)
	svcs := &services{
		auth:      service.NewAuthService(repos.user, passwordHasher, jwtManager),
		catalog:   service.NewCatalogService(repos.provider, repos.catalog, clients, rates, logger),
		dispatch:  dispatch,
		reconcile: service.NewReconcileService(repos.order, repos.provider, clients, logger),
		order:     service.NewOrderService(repos.order, repos.catalog, repos.user, repos.provider, rates, dispatch, logger),
		provider:  service.NewProviderService(repos.provider, clients, logger),
		report:    service.NewReportService(repos.user, repos.order, rates),
	}

	// Создание планировщика
	scheduler := worker.NewScheduler(worker.Config{
		DispatchInterval:   cfg.DispatchInterval,
		ReconcileInterval:  cfg.ReconcileInterval,
		DispatchBatchSize:  cfg.DispatchBatchSize,
		ReconcileBatchSize: cfg.ReconcileBatchSize,
	}, svcs.dispatch, svcs.reconcile, locker, logger)

	// Создание handlers
	hdlrs := &handlerSet{
		auth:   handlers.NewAuthHandler(svcs.auth, logger),
		orders: handlers.NewOrdersHandler(svcs.order, logger),
		admin:  handlers.NewAdminHandler(svcs.provider, svcs.catalog, svcs.report, rates, logger),
		cron:   handlers.NewCronHandler(scheduler, cfg.CronSecret, logger),
		health: handlers.NewHealthHandler(dbPool, redisPinger, logger),
	}

	deps.repos = repos
	deps.services = svcs
	deps.handlers = hdlrs
	deps.jwtManager = jwtManager
	deps.scheduler = scheduler
	return deps, nil
}

func initRedisLocker(ctx context.Context, cfg *config.Config) (*lock.RedisLocker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	locker := lock.NewRedisLocker(client, lock.DefaultKeyPrefix)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := locker.Ping(pingCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return locker, nil
}
