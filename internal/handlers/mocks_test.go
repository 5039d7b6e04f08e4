package handlers

import (
	"context"
	"errors"

	"github.com/avc/smm-panel/internal/domain"
	"github.com/avc/smm-panel/internal/provider"
	"github.com/avc/smm-panel/internal/service"
	"github.com/stretchr/testify/mock"
)

type authServiceMock struct {
	mock.Mock
}

func (m *authServiceMock) Login(ctx context.Context, login, password string) (string, error) {
	args := m.Called(ctx, login, password)
	return args.String(0), args.Error(1)
}

type orderServiceMock struct {
	mock.Mock
}

func (m *orderServiceMock) CreatePublicOrder(ctx context.Context, req service.CreateOrderRequest) (*domain.Order, error) {
	args := m.Called(ctx, req)
	o, _ := args.Get(0).(*domain.Order)
	return o, args.Error(1)
}

func (m *orderServiceMock) CreateSellerOrder(ctx context.Context, sellerID int64, req service.CreateOrderRequest) (*domain.Order, error) {
	args := m.Called(ctx, sellerID, req)
	o, _ := args.Get(0).(*domain.Order)
	return o, args.Error(1)
}

func (m *orderServiceMock) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(*domain.Order)
	return o, args.Error(1)
}

func (m *orderServiceMock) ListSellerOrders(ctx context.Context, sellerID int64, page, limit int) (*service.SellerOrderPage, error) {
	args := m.Called(ctx, sellerID, page, limit)
	p, _ := args.Get(0).(*service.SellerOrderPage)
	return p, args.Error(1)
}

type cronRunnerMock struct {
	mock.Mock
}

func (m *cronRunnerMock) RunDispatch(ctx context.Context) (*service.DispatchResult, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).(*service.DispatchResult)
	return r, args.Error(1)
}

func (m *cronRunnerMock) RunReconcile(ctx context.Context) (*service.ReconcileResult, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).(*service.ReconcileResult)
	return r, args.Error(1)
}

type providerServiceMock struct {
	mock.Mock
}

func (m *providerServiceMock) Create(ctx context.Context, req service.ProviderRequest) (*domain.Provider, error) {
	args := m.Called(ctx, req)
	p, _ := args.Get(0).(*domain.Provider)
	return p, args.Error(1)
}

func (m *providerServiceMock) List(ctx context.Context) ([]*domain.Provider, error) {
	args := m.Called(ctx)
	p, _ := args.Get(0).([]*domain.Provider)
	return p, args.Error(1)
}

func (m *providerServiceMock) Get(ctx context.Context, id int64) (*domain.Provider, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*domain.Provider)
	return p, args.Error(1)
}

func (m *providerServiceMock) Update(ctx context.Context, id int64, req service.ProviderRequest) (*domain.Provider, error) {
	args := m.Called(ctx, id, req)
	p, _ := args.Get(0).(*domain.Provider)
	return p, args.Error(1)
}

func (m *providerServiceMock) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *providerServiceMock) RefreshBalance(ctx context.Context, id int64) (*domain.Provider, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*domain.Provider)
	return p, args.Error(1)
}

func (m *providerServiceMock) RemoteServices(ctx context.Context, id int64) ([]provider.RemoteService, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).([]provider.RemoteService)
	return s, args.Error(1)
}

type catalogServiceMock struct {
	mock.Mock
}

func (m *catalogServiceMock) Sync(ctx context.Context, providerID int64) (*service.SyncResult, error) {
	args := m.Called(ctx, providerID)
	r, _ := args.Get(0).(*service.SyncResult)
	return r, args.Error(1)
}

func (m *catalogServiceMock) UpdateSalePrice(ctx context.Context, serviceID, salePrice int64) (*domain.Service, error) {
	args := m.Called(ctx, serviceID, salePrice)
	s, _ := args.Get(0).(*domain.Service)
	return s, args.Error(1)
}

type reportServiceMock struct {
	mock.Mock
}

func (m *reportServiceMock) SellerProfits(ctx context.Context) (*service.SellerProfitsReport, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).(*service.SellerProfitsReport)
	return r, args.Error(1)
}

type pingerStub struct {
	err error
}

func (p pingerStub) Ping(context.Context) error {
	return p.err
}

var errBoom = errors.New("boom")
