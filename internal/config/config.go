package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config содержит конфигурацию приложения
type Config struct {
	RunAddress  string        `env:"RUN_ADDRESS"`  // Адрес и порт запуска сервиса
	DatabaseURI string        `env:"DATABASE_URI"` // URI подключения к БД
	JWTSecret   string        `env:"JWT_SECRET"`
	JWTTokenTTL time.Duration `env:"JWT_TOKEN_TTL"`
	LogLevel    string        `env:"LOG_LEVEL"`

	// Секрет HTTP-триггеров планировщика; пустой отключает проверку
	CronSecret string `env:"CRON_SECRET"`

	// Redis для блокировки запусков; без адреса блокировка в памяти
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	// Планировщик
	SchedulerEnabled   bool          `env:"SCHEDULER_ENABLED"`
	DispatchInterval   time.Duration `env:"DISPATCH_INTERVAL"`
	ReconcileInterval  time.Duration `env:"RECONCILE_INTERVAL"`
	DispatchBatchSize  int           `env:"DISPATCH_BATCH_SIZE"`
	ReconcileBatchSize int           `env:"RECONCILE_BATCH_SIZE"`
	DispatchClaimTTL   time.Duration `env:"DISPATCH_CLAIM_TTL"`

	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT"`

	// Курс валюты
	ExchangePrimaryURL   string        `env:"EXCHANGE_PRIMARY_URL"`
	ExchangeMirrorURL    string        `env:"EXCHANGE_MIRROR_URL"`
	ExchangeCurrency     string        `env:"EXCHANGE_CURRENCY"`
	ExchangeFallbackRate float64       `env:"EXCHANGE_FALLBACK_RATE"`
	ExchangeCacheTTL     time.Duration `env:"EXCHANGE_CACHE_TTL"`
}

// defaults значения по умолчанию; нули у остальных полей заменяют сами компоненты
func defaults() *Config {
	return &Config{
		RunAddress:         ":8080",
		JWTTokenTTL:        24 * time.Hour,
		LogLevel:           "info",
		SchedulerEnabled:   true,
		DispatchInterval:   time.Minute,
		ReconcileInterval:  5 * time.Minute,
		DispatchBatchSize:  50,
		ReconcileBatchSize: 100,
		DispatchClaimTTL:   2 * time.Minute,
		ProviderTimeout:    20 * time.Second,
	}
}

// Load загружает конфигурацию из флагов командной строки и переменных окружения.
// Приоритет: env переменные > флаги > дефолтные значения
func Load(args []string) (*Config, error) {
	cfg := defaults()

	fs := flag.NewFlagSet("panel", flag.ContinueOnError)
	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "address and port to run server")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "database URI")
	fs.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "redis address for scheduler lock")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	// Переменные окружения имеют приоритет над флагами
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse env: %w", err)
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI is required (use -d flag or DATABASE_URI env)")
	}

	// JWT секрет только из env
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "default-secret-key-change-in-production"
	}

	if cfg.DispatchBatchSize <= 0 || cfg.ReconcileBatchSize <= 0 {
		return nil, fmt.Errorf("batch sizes must be positive")
	}

	return cfg, nil
}
