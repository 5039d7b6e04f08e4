// Package mocks содержит testify-моки репозиториев домена.
package mocks

import (
	"context"
	"time"

	"github.com/avc/smm-panel/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// UserRepositoryMock мок domain.UserRepository
type UserRepositoryMock struct {
	mock.Mock
}

// NewUserRepositoryMock создает мок и проверяет ожидания по завершении теста
func NewUserRepositoryMock(t testingT) *UserRepositoryMock {
	m := &UserRepositoryMock{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *UserRepositoryMock) CreateUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	args := m.Called(ctx, u)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetUserByLogin(ctx context.Context, login string) (*domain.User, error) {
	args := m.Called(ctx, login)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetActiveSellers(ctx context.Context) ([]*domain.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]*domain.User)
	return users, args.Error(1)
}

// ProviderRepositoryMock мок domain.ProviderRepository
type ProviderRepositoryMock struct {
	mock.Mock
}

// NewProviderRepositoryMock создает мок и проверяет ожидания по завершении теста
func NewProviderRepositoryMock(t testingT) *ProviderRepositoryMock {
	m := &ProviderRepositoryMock{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *ProviderRepositoryMock) CreateProvider(ctx context.Context, p *domain.Provider) (*domain.Provider, error) {
	args := m.Called(ctx, p)
	created, _ := args.Get(0).(*domain.Provider)
	return created, args.Error(1)
}

func (m *ProviderRepositoryMock) GetProviderByID(ctx context.Context, id int64) (*domain.Provider, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*domain.Provider)
	return p, args.Error(1)
}

func (m *ProviderRepositoryMock) ListProviders(ctx context.Context) ([]*domain.Provider, error) {
	args := m.Called(ctx)
	providers, _ := args.Get(0).([]*domain.Provider)
	return providers, args.Error(1)
}

func (m *ProviderRepositoryMock) UpdateProvider(ctx context.Context, p *domain.Provider) error {
	return m.Called(ctx, p).Error(0)
}

func (m *ProviderRepositoryMock) UpdateProviderBalance(ctx context.Context, id int64, balance decimal.Decimal, currency string) error {
	return m.Called(ctx, id, balance, currency).Error(0)
}

func (m *ProviderRepositoryMock) DeleteProvider(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

// CatalogRepositoryMock мок domain.CatalogRepository
type CatalogRepositoryMock struct {
	mock.Mock
}

// NewCatalogRepositoryMock создает мок и проверяет ожидания по завершении теста
func NewCatalogRepositoryMock(t testingT) *CatalogRepositoryMock {
	m := &CatalogRepositoryMock{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *CatalogRepositoryMock) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	args := m.Called(ctx)
	categories, _ := args.Get(0).([]*domain.Category)
	return categories, args.Error(1)
}

func (m *CatalogRepositoryMock) CreateCategory(ctx context.Context, name, slug string) (*domain.Category, error) {
	args := m.Called(ctx, name, slug)
	c, _ := args.Get(0).(*domain.Category)
	return c, args.Error(1)
}

func (m *CatalogRepositoryMock) GetServiceByID(ctx context.Context, id int64) (*domain.Service, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*domain.Service)
	return s, args.Error(1)
}

func (m *CatalogRepositoryMock) GetServiceByCode(ctx context.Context, code string) (*domain.Service, error) {
	args := m.Called(ctx, code)
	s, _ := args.Get(0).(*domain.Service)
	return s, args.Error(1)
}

func (m *CatalogRepositoryMock) GetServiceByProviderRef(ctx context.Context, providerID int64, providerServiceID string) (*domain.Service, error) {
	args := m.Called(ctx, providerID, providerServiceID)
	s, _ := args.Get(0).(*domain.Service)
	return s, args.Error(1)
}

func (m *CatalogRepositoryMock) CreateService(ctx context.Context, code string, salePrice int64, in *domain.ServiceUpsert) (*domain.Service, error) {
	args := m.Called(ctx, code, salePrice, in)
	s, _ := args.Get(0).(*domain.Service)
	return s, args.Error(1)
}

func (m *CatalogRepositoryMock) UpdateServiceFromCatalog(ctx context.Context, id int64, in *domain.ServiceUpsert) error {
	return m.Called(ctx, id, in).Error(0)
}

func (m *CatalogRepositoryMock) UpdateServiceSalePrice(ctx context.Context, id int64, salePrice int64) error {
	return m.Called(ctx, id, salePrice).Error(0)
}

// OrderRepositoryMock мок domain.OrderRepository
type OrderRepositoryMock struct {
	mock.Mock
}

// NewOrderRepositoryMock создает мок и проверяет ожидания по завершении теста
func NewOrderRepositoryMock(t testingT) *OrderRepositoryMock {
	m := &OrderRepositoryMock{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *OrderRepositoryMock) CreateOrder(ctx context.Context, n *domain.NewOrder) (*domain.Order, error) {
	args := m.Called(ctx, n)
	if fn, ok := args.Get(0).(func(context.Context, *domain.NewOrder) *domain.Order); ok {
		return fn(ctx, n), args.Error(1)
	}
	o, _ := args.Get(0).(*domain.Order)
	return o, args.Error(1)
}

func (m *OrderRepositoryMock) GetOrderByOrderID(ctx context.Context, orderID string) (*domain.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(*domain.Order)
	return o, args.Error(1)
}

func (m *OrderRepositoryMock) GetSellerOrders(ctx context.Context, sellerID int64, limit, offset int) ([]*domain.Order, int64, error) {
	args := m.Called(ctx, sellerID, limit, offset)
	orders, _ := args.Get(0).([]*domain.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepositoryMock) GetSellerSummary(ctx context.Context, sellerID int64) (*domain.SellerOrderSummary, error) {
	args := m.Called(ctx, sellerID)
	s, _ := args.Get(0).(*domain.SellerOrderSummary)
	return s, args.Error(1)
}

func (m *OrderRepositoryMock) GetCompletedSellerOrders(ctx context.Context) ([]*domain.Order, error) {
	args := m.Called(ctx)
	orders, _ := args.Get(0).([]*domain.Order)
	return orders, args.Error(1)
}

func (m *OrderRepositoryMock) GetDispatchable(ctx context.Context, limit int, claimTTL time.Duration) ([]*domain.DispatchTarget, error) {
	args := m.Called(ctx, limit, claimTTL)
	targets, _ := args.Get(0).([]*domain.DispatchTarget)
	return targets, args.Error(1)
}

func (m *OrderRepositoryMock) ClaimForDispatch(ctx context.Context, id, version int64, claimTTL time.Duration) (int64, error) {
	args := m.Called(ctx, id, version, claimTTL)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepositoryMock) ReleaseClaim(ctx context.Context, id, version int64) error {
	return m.Called(ctx, id, version).Error(0)
}

func (m *OrderRepositoryMock) MarkDispatched(ctx context.Context, id, version int64, apiOrderID, statusAPI string) error {
	return m.Called(ctx, id, version, apiOrderID, statusAPI).Error(0)
}

func (m *OrderRepositoryMock) MarkRejected(ctx context.Context, id, version int64, note string) error {
	return m.Called(ctx, id, version, note).Error(0)
}

func (m *OrderRepositoryMock) GetInFlight(ctx context.Context, limit int) ([]*domain.Order, error) {
	args := m.Called(ctx, limit)
	orders, _ := args.Get(0).([]*domain.Order)
	return orders, args.Error(1)
}

func (m *OrderRepositoryMock) ApplyStatus(ctx context.Context, id, version int64, upd domain.StatusUpdate) error {
	return m.Called(ctx, id, version, upd).Error(0)
}
