package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/avc/smm-panel/internal/config"
	"github.com/avc/smm-panel/internal/worker"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App представляет приложение
type App struct {
	config    *config.Config
	logger    *zap.Logger
	db        *pgxpool.Pool
	router    *chi.Mux
	scheduler *worker.Scheduler
	closers   []func() error
	server    *http.Server
}

// NewApp создает новое приложение
func NewApp(args []string) (*App, error) {
	ctx := context.Background()

	// Загрузка конфигурации
	cfg, err := config.Load(args)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Инициализация логгера
	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	// Инициализация базы данных и миграции
	dbPool, err := initDatabase(ctx, cfg.DatabaseURI, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to database")

	// Инициализация зависимостей
	deps, err := initDependencies(ctx, cfg, dbPool, logger)
	if err != nil {
		dbPool.Close()
		return nil, err
	}

	// Настройка роутера
	router := setupRouter(deps, logger)

	// Создание HTTP сервера
	server := createServer(cfg.RunAddress, router)

	return &App{
		config:    cfg,
		logger:    logger,
		db:        dbPool,
		router:    router,
		scheduler: deps.scheduler,
		closers:   deps.closers,
		server:    server,
	}, nil
}

// Run запускает приложение
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Запуск планировщика; при выключенном остаются HTTP-триггеры
	if a.config.SchedulerEnabled {
		a.scheduler.Start(ctx)
		a.logger.Info("scheduler started")
	}

	// Запуск HTTP сервера и ожидание сигнала завершения
	err := a.runServer(ctx)

	// Graceful shutdown
	a.shutdown(cancel)

	return err
}
