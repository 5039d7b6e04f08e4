package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avc/smm-panel/internal/domain"
	"github.com/avc/smm-panel/internal/exchange"
	"github.com/avc/smm-panel/internal/pricing"
	"github.com/avc/smm-panel/internal/utils/token"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultPageSize размер страницы списка заказов продавца
const DefaultPageSize = 20

// CreateOrderRequest запрос на создание заказа
type CreateOrderRequest struct {
	ServiceCode     string `json:"service_id" validate:"required,max=32"`
	Link            string `json:"link" validate:"required,url,max=2048"`
	Quantity        int64  `json:"quantity" validate:"omitempty,gt=0"`
	CustomerName    string `json:"customer_name" validate:"max=255"`
	CustomerContact string `json:"customer_contact" validate:"max=255"`
}

// SellerOrderPage страница заказов продавца с итогами
type SellerOrderPage struct {
	Orders  []*domain.Order            `json:"orders"`
	Total   int64                      `json:"total"`
	Page    int                        `json:"page"`
	Limit   int                        `json:"limit"`
	Summary *domain.SellerOrderSummary `json:"summary"`
}

// Dispatcher отправляет один заказ провайдеру
type Dispatcher interface {
	DispatchOne(ctx context.Context, target *domain.DispatchTarget) (DispatchOutcome, error)
}

// OrderService создаёт заказы и отдаёт их покупателям и продавцам
type OrderService struct {
	orders     domain.OrderRepository
	catalog    domain.CatalogRepository
	users      domain.UserRepository
	providers  domain.ProviderRepository
	rates      exchange.RateProvider
	dispatcher Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewOrderService создает новый OrderService
func NewOrderService(
	orders domain.OrderRepository,
	catalog domain.CatalogRepository,
	users domain.UserRepository,
	providers domain.ProviderRepository,
	rates exchange.RateProvider,
	dispatcher Dispatcher,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orders:     orders,
		catalog:    catalog,
		users:      users,
		providers:  providers,
		rates:      rates,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// CreatePublicOrder создаёт заказ покупателя без продавца. Количество можно
// выбрать в пределах [min, max] услуги, цена пересчитывается пропорционально.
func (s *OrderService) CreatePublicOrder(ctx context.Context, req CreateOrderRequest) (*domain.Order, error) {
	service, err := s.activeService(ctx, req)
	if err != nil {
		return nil, err
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = service.Quantity
	}
	if quantity < service.MinQuantity || (service.MaxQuantity > 0 && quantity > service.MaxQuantity) {
		return nil, fmt.Errorf("%w: must be between %d and %d", domain.ErrInvalidQuantity, service.MinQuantity, service.MaxQuantity)
	}

	return s.create(ctx, nil, 0, service, quantity, req)
}

// CreateSellerOrder создаёт заказ продавца с фиксированным количеством услуги
// и комиссией по ставке продавца.
func (s *OrderService) CreateSellerOrder(ctx context.Context, sellerID int64, req CreateOrderRequest) (*domain.Order, error) {
	seller, err := s.users.GetUserByID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("order service: failed to get seller %d: %w", sellerID, err)
	}
	if seller.Role != domain.RoleSeller || !seller.Status {
		return nil, domain.ErrSellerInactive
	}

	service, err := s.activeService(ctx, req)
	if err != nil {
		return nil, err
	}

	return s.create(ctx, &seller.ID, seller.CommissionRate, service, service.Quantity, req)
}

func (s *OrderService) activeService(ctx context.Context, req CreateOrderRequest) (*domain.Service, error) {
	if strings.TrimSpace(req.Link) == "" {
		return nil, ErrEmptyLink
	}

	service, err := s.catalog.GetServiceByCode(ctx, req.ServiceCode)
	if err != nil {
		if errors.Is(err, domain.ErrServiceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("order service: failed to get service %q: %w", req.ServiceCode, err)
	}
	if !service.Status {
		return nil, domain.ErrServiceInactive
	}

	return service, nil
}

func (s *OrderService) create(
	ctx context.Context,
	sellerID *int64,
	commissionRate float64,
	service *domain.Service,
	quantity int64,
	req CreateOrderRequest,
) (*domain.Order, error) {
	salePrice := service.SalePrice
	costUSD := service.ProviderPrice
	if quantity != service.Quantity && service.Quantity > 0 {
		factor := decimal.NewFromInt(quantity).Div(decimal.NewFromInt(service.Quantity))
		salePrice = pricing.RoundHalfUp(decimal.NewFromInt(service.SalePrice).Mul(factor))
		costUSD = service.ProviderPrice.Mul(factor)
	}

	rate := s.rates.Rate(ctx)
	b := pricing.Calculate(salePrice, costUSD, rate, commissionRate)

	order, err := s.orders.CreateOrder(ctx, &domain.NewOrder{
		OrderID:           token.OrderID(s.now()),
		SellerID:          sellerID,
		Service:           service,
		Link:              strings.TrimSpace(req.Link),
		Quantity:          quantity,
		CustomerName:      req.CustomerName,
		CustomerContact:   req.CustomerContact,
		SalePrice:         b.SalePrice,
		ProviderCost:      b.ProviderCostUSD,
		ProviderCostLocal: b.ProviderCostLocal,
		Commission:        b.Commission,
		Profit:            b.NetProfit,
		ExchangeRate:      decimal.NewFromFloat(rate),
	})
	if err != nil {
		return nil, fmt.Errorf("order service: failed to create order: %w", err)
	}

	s.logger.Info("order created",
		zap.String("order", order.OrderID),
		zap.String("service", service.Code),
		zap.Int64("sale_price", order.SalePrice),
		zap.Int64("profit", order.Profit),
	)

	s.dispatchNow(ctx, order, service)

	return order, nil
}

// dispatchNow пробует сразу отправить заказ; при неудаче его подберёт планировщик
func (s *OrderService) dispatchNow(ctx context.Context, order *domain.Order, service *domain.Service) {
	if service.ProviderID == nil {
		return
	}

	p, err := s.providers.GetProviderByID(ctx, *service.ProviderID)
	if err != nil {
		s.logger.Warn("failed to load provider for immediate dispatch", zap.String("order", order.OrderID), zap.Error(err))
		return
	}

	if _, err := s.dispatcher.DispatchOne(ctx, &domain.DispatchTarget{Order: order, Provider: p}); err != nil {
		s.logger.Info("immediate dispatch failed, left for scheduler", zap.String("order", order.OrderID), zap.Error(err))
	}
}

// GetOrder получает заказ по публичному идентификатору
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetOrderByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("order service: failed to get order %q: %w", orderID, err)
	}
	return order, nil
}

// ListSellerOrders получает страницу заказов продавца и итоги по всем его заказам
func (s *OrderService) ListSellerOrders(ctx context.Context, sellerID int64, page, limit int) (*SellerOrderPage, error) {
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = DefaultPageSize
	}
	if page < 1 || limit < 1 || limit > 100 {
		return nil, ErrInvalidPage
	}

	orders, total, err := s.orders.GetSellerOrders(ctx, sellerID, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("order service: failed to list orders of seller %d: %w", sellerID, err)
	}

	summary, err := s.orders.GetSellerSummary(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("order service: failed to get summary of seller %d: %w", sellerID, err)
	}

	if orders == nil {
		orders = []*domain.Order{}
	}

	return &SellerOrderPage{
		Orders:  orders,
		Total:   total,
		Page:    page,
		Limit:   limit,
		Summary: summary,
	}, nil
}
