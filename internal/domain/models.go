package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus представляет локальный статус заказа
type OrderStatus string

const (
	OrderStatusAwaiting   OrderStatus = "awaiting"
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusInProgress OrderStatus = "inprogress"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusPartial    OrderStatus = "partial"
	OrderStatusCanceled   OrderStatus = "canceled"
	OrderStatusRefunded   OrderStatus = "refunded"
	OrderStatusError      OrderStatus = "error"
)

// InFlightStatuses статусы заказов, которые опрашиваются у провайдера
var InFlightStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusInProgress,
}

// IsTerminal сообщает, что заказ больше не сверяется с провайдером
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusPartial, OrderStatusCanceled,
		OrderStatusRefunded, OrderStatusError:
		return true
	}
	return false
}

// IsInFlight сообщает, что заказ отправлен провайдеру и ещё выполняется
func (s OrderStatus) IsInFlight() bool {
	for _, st := range InFlightStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// Role представляет роль пользователя панели
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleSeller Role = "seller"
)

// ProviderType определяет диалект API провайдера
type ProviderType string

const (
	ProviderTypeDefault      ProviderType = "default"
	ProviderTypePerfectPanel ProviderType = "perfectpanel"
)

// User представляет пользователя панели (администратор или продавец)
type User struct {
	ID             int64     `json:"id"`
	Login          string    `json:"login"`
	PasswordHash   string    `json:"-"` // Не отправляем хеш в JSON
	Name           string    `json:"name"`
	Role           Role      `json:"role"`
	CommissionRate float64   `json:"commission_rate"` // Процент от валовой прибыли
	Status         bool      `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// Provider представляет вышестоящего SMM-провайдера
type Provider struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	URL       string          `json:"url"`
	APIKey    string          `json:"-"`
	Type      ProviderType    `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	Status    bool            `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// Category представляет локальную категорию услуг
type Category struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Status bool   `json:"status"`
}

// Service представляет локальную услугу, продаваемую по фиксированной цене
type Service struct {
	ID                int64           `json:"id"`
	Code              string          `json:"service_id"`
	Name              string          `json:"name"`
	CategoryID        int64           `json:"category_id"`
	Quantity          int64           `json:"quantity"`
	MinQuantity       int64           `json:"min"`
	MaxQuantity       int64           `json:"max"`
	SalePrice         int64           `json:"sale_price"`
	ProviderID        *int64          `json:"provider_id,omitempty"`
	ProviderServiceID string          `json:"provider_service_id"`
	ProviderPrice     decimal.Decimal `json:"provider_price"` // USD за единицу продажи
	Status            bool            `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Order представляет одну покупку услуги
type Order struct {
	ID                int64           `json:"-"`
	OrderID           string          `json:"order_id"`
	SellerID          *int64          `json:"seller_id,omitempty"`
	ServiceID         int64           `json:"-"`
	ServiceName       string          `json:"service_name"`
	ProviderID        *int64          `json:"-"`
	ProviderServiceID string          `json:"-"`
	Link              string          `json:"link"`
	Quantity          int64           `json:"quantity"`
	CustomerName      string          `json:"customer_name,omitempty"`
	CustomerContact   string          `json:"customer_contact,omitempty"`
	SalePrice         int64           `json:"sale_price"`
	ProviderCost      decimal.Decimal `json:"provider_cost"`
	ProviderCostLocal int64           `json:"provider_cost_local"`
	Commission        int64           `json:"commission"`
	Profit            int64           `json:"profit"`
	ExchangeRate      decimal.Decimal `json:"exchange_rate"`
	Status            OrderStatus     `json:"status"`
	StatusAPI         *string         `json:"status_api,omitempty"`
	APIOrderID        *string         `json:"-"`
	StartCount        int64           `json:"start_count"`
	Remains           int64           `json:"remains"`
	Note              string          `json:"note,omitempty"`
	Version           int64           `json:"-"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// DispatchTarget объединяет заказ с провайдером, которому он отправляется
type DispatchTarget struct {
	Order    *Order
	Provider *Provider // nil, если связь услуги с провайдером потеряна
}

// StatusUpdate представляет результат сверки статуса одного заказа
type StatusUpdate struct {
	Status     OrderStatus
	StatusAPI  string
	StartCount int64
	Remains    int64
}

// NewOrder содержит данные для создания заказа
type NewOrder struct {
	OrderID           string
	SellerID          *int64
	Service           *Service
	Link              string
	Quantity          int64
	CustomerName      string
	CustomerContact   string
	SalePrice         int64
	ProviderCost      decimal.Decimal
	ProviderCostLocal int64
	Commission        int64
	Profit            int64
	ExchangeRate      decimal.Decimal
}

// ServiceUpsert содержит поля услуги, приходящие из каталога провайдера
type ServiceUpsert struct {
	Name              string
	CategoryID        int64
	Quantity          int64
	MinQuantity       int64
	MaxQuantity       int64
	ProviderID        int64
	ProviderServiceID string
	ProviderPrice     decimal.Decimal
}

// SellerOrderSummary итоги продаж продавца
type SellerOrderSummary struct {
	TotalOrders      int64 `json:"total_orders"`
	TotalSales       int64 `json:"total_sales"`
	TotalCommissions int64 `json:"total_commissions"`
}
