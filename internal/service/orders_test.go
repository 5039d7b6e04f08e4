package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/avc/smm-panel/internal/domain"
	domainmocks "github.com/avc/smm-panel/internal/domain/mocks"
	"github.com/avc/smm-panel/internal/exchange"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type dispatcherMock struct {
	mock.Mock
}

func (m *dispatcherMock) DispatchOne(ctx context.Context, target *domain.DispatchTarget) (DispatchOutcome, error) {
	args := m.Called(ctx, target)
	return args.Get(0).(DispatchOutcome), args.Error(1)
}

type orderFixture struct {
	orders     *domainmocks.OrderRepositoryMock
	catalog    *domainmocks.CatalogRepositoryMock
	users      *domainmocks.UserRepositoryMock
	providers  *domainmocks.ProviderRepositoryMock
	dispatcher *dispatcherMock
	svc        *OrderService
}

func newOrderFixture(t *testing.T) *orderFixture {
	f := &orderFixture{
		orders:     domainmocks.NewOrderRepositoryMock(t),
		catalog:    domainmocks.NewCatalogRepositoryMock(t),
		users:      domainmocks.NewUserRepositoryMock(t),
		providers:  domainmocks.NewProviderRepositoryMock(t),
		dispatcher: &dispatcherMock{},
	}
	f.dispatcher.Test(t)
	t.Cleanup(func() { f.dispatcher.AssertExpectations(t) })

	f.svc = NewOrderService(f.orders, f.catalog, f.users, f.providers, exchange.StaticRateProvider(950), f.dispatcher, zap.NewNop())
	f.svc.now = func() time.Time { return time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC) }
	return f
}

func followersService() *domain.Service {
	providerID := int64(5)
	return &domain.Service{
		ID:                10,
		Code:              "sfabcdefghij",
		Name:              "IG Followers",
		Quantity:          1000,
		MinQuantity:       100,
		MaxQuantity:       10000,
		SalePrice:         1140,
		ProviderID:        &providerID,
		ProviderServiceID: "101",
		ProviderPrice:     decimal.RequireFromString("0.80"),
		Status:            true,
	}
}

// expectCreate возвращает заказ из переданного NewOrder, как это делает репозиторий
func (f *orderFixture) expectCreate(match func(n *domain.NewOrder) bool) {
	f.orders.On("CreateOrder", mock.Anything, mock.MatchedBy(match)).
		Return(func(_ context.Context, n *domain.NewOrder) *domain.Order {
			return &domain.Order{
				ID:           1,
				OrderID:      n.OrderID,
				SellerID:     n.SellerID,
				ServiceID:    n.Service.ID,
				Link:         n.Link,
				Quantity:     n.Quantity,
				SalePrice:    n.SalePrice,
				ProviderCost: n.ProviderCost,
				Commission:   n.Commission,
				Profit:       n.Profit,
				Status:       domain.OrderStatusAwaiting,
				Version:      1,
			}
		}, nil).Once()
}

func TestOrderService_CreateSellerOrder(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	service := followersService()

	f.users.On("GetUserByID", mock.Anything, int64(7)).
		Return(&domain.User{ID: 7, Role: domain.RoleSeller, CommissionRate: 20, Status: true}, nil).Once()
	f.catalog.On("GetServiceByCode", mock.Anything, service.Code).Return(service, nil).Once()
	f.expectCreate(func(n *domain.NewOrder) bool {
		return n.SellerID != nil && *n.SellerID == 7 &&
			n.Quantity == 1000 &&
			n.SalePrice == 1140 &&
			n.ProviderCostLocal == 760 &&
			n.Commission == 76 &&
			n.Profit == 304 &&
			n.ExchangeRate.Equal(decimal.NewFromInt(950)) &&
			n.Link == "https://instagram.com/p/abc"
	})
	f.providers.On("GetProviderByID", mock.Anything, int64(5)).Return(&domain.Provider{ID: 5, Status: true}, nil).Once()
	f.dispatcher.On("DispatchOne", mock.Anything, mock.Anything).Return(OutcomeDispatched, nil).Once()

	order, err := f.svc.CreateSellerOrder(ctx, 7, CreateOrderRequest{
		ServiceCode: service.Code,
		Link:        " https://instagram.com/p/abc ",
		Quantity:    5000, // продавец не выбирает количество
	})
	require.NoError(t, err)
	assert.Equal(t, int64(304), order.Profit)
	assert.NotEmpty(t, order.OrderID)
}

func TestOrderService_CreateSellerOrder_InactiveSeller(t *testing.T) {
	ctx := context.Background()

	t.Run("Disabled", func(t *testing.T) {
		f := newOrderFixture(t)
		f.users.On("GetUserByID", mock.Anything, int64(7)).
			Return(&domain.User{ID: 7, Role: domain.RoleSeller, Status: false}, nil).Once()

		_, err := f.svc.CreateSellerOrder(ctx, 7, CreateOrderRequest{ServiceCode: "x", Link: "https://a.b"})
		assert.ErrorIs(t, err, domain.ErrSellerInactive)
	})

	t.Run("Admin", func(t *testing.T) {
		f := newOrderFixture(t)
		f.users.On("GetUserByID", mock.Anything, int64(1)).
			Return(&domain.User{ID: 1, Role: domain.RoleAdmin, Status: true}, nil).Once()

		_, err := f.svc.CreateSellerOrder(ctx, 1, CreateOrderRequest{ServiceCode: "x", Link: "https://a.b"})
		assert.ErrorIs(t, err, domain.ErrSellerInactive)
	})
}

func TestOrderService_CreatePublicOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("Proportional price", func(t *testing.T) {
		f := newOrderFixture(t)
		service := followersService()

		f.catalog.On("GetServiceByCode", mock.Anything, service.Code).Return(service, nil).Once()
		f.expectCreate(func(n *domain.NewOrder) bool {
			return n.SellerID == nil &&
				n.Quantity == 500 &&
				n.SalePrice == 570 &&
				n.ProviderCost.Equal(decimal.RequireFromString("0.4")) &&
				n.ProviderCostLocal == 380 &&
				n.Commission == 0 &&
				n.Profit == 190
		})
		f.providers.On("GetProviderByID", mock.Anything, int64(5)).Return(nil, errors.New("db down")).Once()

		order, err := f.svc.CreatePublicOrder(ctx, CreateOrderRequest{ServiceCode: service.Code, Link: "https://t.me/x", Quantity: 500})
		require.NoError(t, err)
		assert.Equal(t, int64(570), order.SalePrice)
	})

	t.Run("Default quantity", func(t *testing.T) {
		f := newOrderFixture(t)
		service := followersService()
		service.ProviderID = nil

		f.catalog.On("GetServiceByCode", mock.Anything, service.Code).Return(service, nil).Once()
		f.expectCreate(func(n *domain.NewOrder) bool {
			return n.Quantity == 1000 && n.SalePrice == 1140 && n.Profit == 380
		})

		_, err := f.svc.CreatePublicOrder(ctx, CreateOrderRequest{ServiceCode: service.Code, Link: "https://t.me/x"})
		require.NoError(t, err)
	})

	t.Run("Quantity out of bounds", func(t *testing.T) {
		for _, qty := range []int64{50, 20000} {
			f := newOrderFixture(t)
			service := followersService()
			f.catalog.On("GetServiceByCode", mock.Anything, service.Code).Return(service, nil).Once()

			_, err := f.svc.CreatePublicOrder(ctx, CreateOrderRequest{ServiceCode: service.Code, Link: "https://t.me/x", Quantity: qty})
			assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
		}
	})

	t.Run("Empty link", func(t *testing.T) {
		f := newOrderFixture(t)

		_, err := f.svc.CreatePublicOrder(ctx, CreateOrderRequest{ServiceCode: "x", Link: "   "})
		assert.ErrorIs(t, err, ErrEmptyLink)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("Inactive service", func(t *testing.T) {
		f := newOrderFixture(t)
		service := followersService()
		service.Status = false
		f.catalog.On("GetServiceByCode", mock.Anything, service.Code).Return(service, nil).Once()

		_, err := f.svc.CreatePublicOrder(ctx, CreateOrderRequest{ServiceCode: service.Code, Link: "https://t.me/x"})
		assert.ErrorIs(t, err, domain.ErrServiceInactive)
	})

	t.Run("Unknown service", func(t *testing.T) {
		f := newOrderFixture(t)
		f.catalog.On("GetServiceByCode", mock.Anything, "nope").Return(nil, domain.ErrServiceNotFound).Once()

		_, err := f.svc.CreatePublicOrder(ctx, CreateOrderRequest{ServiceCode: "nope", Link: "https://t.me/x"})
		assert.ErrorIs(t, err, domain.ErrServiceNotFound)
	})
}

func TestOrderService_ListSellerOrders(t *testing.T) {
	ctx := context.Background()

	t.Run("Defaults", func(t *testing.T) {
		f := newOrderFixture(t)
		f.orders.On("GetSellerOrders", mock.Anything, int64(7), DefaultPageSize, 0).Return(nil, int64(0), nil).Once()
		f.orders.On("GetSellerSummary", mock.Anything, int64(7)).Return(&domain.SellerOrderSummary{}, nil).Once()

		page, err := f.svc.ListSellerOrders(ctx, 7, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, page.Page)
		assert.NotNil(t, page.Orders)
	})

	t.Run("Offset", func(t *testing.T) {
		f := newOrderFixture(t)
		f.orders.On("GetSellerOrders", mock.Anything, int64(7), 10, 20).
			Return([]*domain.Order{{OrderID: "A"}}, int64(21), nil).Once()
		f.orders.On("GetSellerSummary", mock.Anything, int64(7)).
			Return(&domain.SellerOrderSummary{TotalOrders: 21, TotalSales: 23940, TotalCommissions: 1596}, nil).Once()

		page, err := f.svc.ListSellerOrders(ctx, 7, 3, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(21), page.Total)
		assert.Equal(t, int64(1596), page.Summary.TotalCommissions)
	})

	t.Run("Invalid limit", func(t *testing.T) {
		f := newOrderFixture(t)

		_, err := f.svc.ListSellerOrders(ctx, 7, 1, 500)
		assert.ErrorIs(t, err, ErrInvalidPage)
	})
}

func TestOrderService_GetOrder(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.On("GetOrderByOrderID", mock.Anything, "MISSING").Return(nil, domain.ErrOrderNotFound).Once()

	_, err := f.svc.GetOrder(context.Background(), "MISSING")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}
