// Package mocks содержит testify-моки клиента провайдера.
package mocks

import (
	"context"

	"github.com/avc/smm-panel/internal/domain"
	"github.com/avc/smm-panel/internal/provider"
	"github.com/stretchr/testify/mock"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// ClientMock мок provider.Client
type ClientMock struct {
	mock.Mock
}

// NewClientMock создает мок и проверяет ожидания по завершении теста
func NewClientMock(t testingT) *ClientMock {
	m := &ClientMock{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *ClientMock) ListServices(ctx context.Context) ([]provider.RemoteService, error) {
	args := m.Called(ctx)
	services, _ := args.Get(0).([]provider.RemoteService)
	return services, args.Error(1)
}

func (m *ClientMock) Balance(ctx context.Context) (*provider.Balance, error) {
	args := m.Called(ctx)
	b, _ := args.Get(0).(*provider.Balance)
	return b, args.Error(1)
}

func (m *ClientMock) CreateOrder(ctx context.Context, remoteServiceID, link string, quantity int64) (provider.AddResult, error) {
	args := m.Called(ctx, remoteServiceID, link, quantity)
	return args.Get(0).(provider.AddResult), args.Error(1)
}

func (m *ClientMock) OrderStatus(ctx context.Context, upstreamOrderID string) (*provider.OrderStatus, error) {
	args := m.Called(ctx, upstreamOrderID)
	st, _ := args.Get(0).(*provider.OrderStatus)
	return st, args.Error(1)
}

func (m *ClientMock) BulkOrderStatus(ctx context.Context, upstreamOrderIDs []string) (map[string]provider.OrderStatus, error) {
	args := m.Called(ctx, upstreamOrderIDs)
	res, _ := args.Get(0).(map[string]provider.OrderStatus)
	return res, args.Error(1)
}

// Factory отдаёт заранее заданного клиента по id провайдера
type Factory struct {
	Clients map[int64]provider.Client
}

// ForProvider реализует provider.Factory
func (f *Factory) ForProvider(p *domain.Provider) provider.Client {
	return f.Clients[p.ID]
}
