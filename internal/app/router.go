package app

import (
	"github.com/avc/smm-panel/internal/domain"
	"github.com/avc/smm-panel/internal/handlers"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// setupRouter создает и настраивает роутер
func setupRouter(deps *dependencies, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Глобальные middleware
	setupMiddleware(r, logger)

	// Маршруты
	setupRoutes(r, deps)

	return r
}

// setupMiddleware настраивает middleware для роутера
func setupMiddleware(r *chi.Mux, logger *zap.Logger) {
	r.Use(handlers.RequestIDMiddleware())
	r.Use(handlers.LoggingMiddleware(logger))
	r.Use(handlers.RecoveryMiddleware(logger))
	r.Use(middleware.Compress(5))
}

// setupRoutes настраивает маршруты приложения
func setupRoutes(r *chi.Mux, deps *dependencies) {
	h := deps.handlers

	// Health check эндпоинты
	r.Get("/health", h.health.Health)
	r.Get("/ready", h.health.Ready)

	r.Post("/api/auth/login", h.auth.Login)

	// Триггеры внешнего планировщика, защищены секретом
	r.Get("/api/cron/process-orders", h.cron.ProcessOrders)
	r.Get("/api/cron/update-statuses", h.cron.UpdateStatuses)

	// Публичные эндпоинты
	r.Post("/api/public/orders", h.orders.CreatePublicOrder)
	r.Get("/api/public/orders/{orderId}", h.orders.GetPublicOrder)

	// Продавец
	r.Group(func(r chi.Router) {
		r.Use(handlers.AuthMiddleware(deps.jwtManager))
		r.Use(handlers.RequireRole(domain.RoleSeller))
		r.Post("/api/seller/orders", h.orders.CreateSellerOrder)
		r.Get("/api/seller/orders", h.orders.ListSellerOrders)
	})

	// Администратор
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(handlers.AuthMiddleware(deps.jwtManager))
		r.Use(handlers.RequireRole(domain.RoleAdmin))

		r.Get("/providers", h.admin.ListProviders)
		r.Post("/providers", h.admin.CreateProvider)
		r.Get("/providers/{id}", h.admin.GetProvider)
		r.Put("/providers/{id}", h.admin.UpdateProvider)
		r.Delete("/providers/{id}", h.admin.DeleteProvider)
		r.Post("/providers/{id}/sync", h.admin.SyncProvider)
		r.Post("/providers/{id}/balance", h.admin.RefreshBalance)
		r.Get("/providers/{id}/services", h.admin.RemoteServices)

		r.Patch("/services/{id}", h.admin.UpdateServicePrice)

		r.Get("/seller-profits", h.admin.SellerProfits)
		r.Get("/exchange-rate", h.admin.ExchangeRate)
	})
}
