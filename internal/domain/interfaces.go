package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// UserRepository определяет методы для работы с пользователями
type UserRepository interface {
	CreateUser(ctx context.Context, u *User) (*User, error)
	GetUserByLogin(ctx context.Context, login string) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetActiveSellers(ctx context.Context) ([]*User, error)
}

// ProviderRepository определяет методы для работы с провайдерами
type ProviderRepository interface {
	CreateProvider(ctx context.Context, p *Provider) (*Provider, error)
	GetProviderByID(ctx context.Context, id int64) (*Provider, error)
	ListProviders(ctx context.Context) ([]*Provider, error)
	UpdateProvider(ctx context.Context, p *Provider) error
	UpdateProviderBalance(ctx context.Context, id int64, balance decimal.Decimal, currency string) error
	DeleteProvider(ctx context.Context, id int64) error
}

// CatalogRepository определяет методы для работы с категориями и услугами
type CatalogRepository interface {
	ListCategories(ctx context.Context) ([]*Category, error)
	CreateCategory(ctx context.Context, name, slug string) (*Category, error)
	GetServiceByID(ctx context.Context, id int64) (*Service, error)
	GetServiceByCode(ctx context.Context, code string) (*Service, error)
	GetServiceByProviderRef(ctx context.Context, providerID int64, providerServiceID string) (*Service, error)
	CreateService(ctx context.Context, code string, salePrice int64, in *ServiceUpsert) (*Service, error)
	UpdateServiceFromCatalog(ctx context.Context, id int64, in *ServiceUpsert) error
	UpdateServiceSalePrice(ctx context.Context, id int64, salePrice int64) error
}

// OrderRepository определяет методы для работы с заказами.
// Методы изменения статуса сравнивают version и возвращают ErrOrderConflict при расхождении.
type OrderRepository interface {
	CreateOrder(ctx context.Context, n *NewOrder) (*Order, error)
	GetOrderByOrderID(ctx context.Context, orderID string) (*Order, error)
	GetSellerOrders(ctx context.Context, sellerID int64, limit, offset int) ([]*Order, int64, error)
	GetSellerSummary(ctx context.Context, sellerID int64) (*SellerOrderSummary, error)
	GetCompletedSellerOrders(ctx context.Context) ([]*Order, error)

	GetDispatchable(ctx context.Context, limit int, claimTTL time.Duration) ([]*DispatchTarget, error)
	ClaimForDispatch(ctx context.Context, id, version int64, claimTTL time.Duration) (int64, error)
	ReleaseClaim(ctx context.Context, id, version int64) error
	MarkDispatched(ctx context.Context, id, version int64, apiOrderID, statusAPI string) error
	MarkRejected(ctx context.Context, id, version int64, note string) error

	GetInFlight(ctx context.Context, limit int) ([]*Order, error)
	ApplyStatus(ctx context.Context, id, version int64, upd StatusUpdate) error
}

// AuthService определяет методы аутентификации
type AuthService interface {
	Login(ctx context.Context, login, password string) (string, error)
}
