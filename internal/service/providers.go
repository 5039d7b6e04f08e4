package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/avc/smm-panel/internal/domain"
	"github.com/avc/smm-panel/internal/provider"
	"go.uber.org/zap"
)

// ProviderRequest запрос на создание или изменение провайдера
type ProviderRequest struct {
	Name   string              `json:"name" validate:"required,max=255"`
	URL    string              `json:"url" validate:"required,url"`
	APIKey string              `json:"api_key" validate:"max=255"` // при изменении пустой ключ не меняется
	Type   domain.ProviderType `json:"type" validate:"omitempty,oneof=default perfectpanel"`
	Status *bool               `json:"status"`
}

// ProviderService администрирует провайдеров
type ProviderService struct {
	providers domain.ProviderRepository
	clients   provider.Factory
	logger    *zap.Logger
}

// NewProviderService создает новый ProviderService
func NewProviderService(providers domain.ProviderRepository, clients provider.Factory, logger *zap.Logger) *ProviderService {
	return &ProviderService{providers: providers, clients: clients, logger: logger}
}

func (req ProviderRequest) toProvider() (*domain.Provider, error) {
	p := &domain.Provider{
		Name:   req.Name,
		URL:    req.URL,
		APIKey: req.APIKey,
		Type:   req.Type,
		Status: true,
	}
	if p.Type == "" {
		p.Type = domain.ProviderTypeDefault
	}
	if !provider.KnownType(p.Type) {
		return nil, ErrUnknownProvider
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	return p, nil
}

// Create проверяет ключ запросом баланса и сохраняет провайдера
func (s *ProviderService) Create(ctx context.Context, req ProviderRequest) (*domain.Provider, error) {
	if req.APIKey == "" {
		return nil, fmt.Errorf("%w: api_key is required", domain.ErrInvalidInput)
	}

	p, err := req.toProvider()
	if err != nil {
		return nil, err
	}

	balance, err := s.clients.ForProvider(p).Balance(ctx)
	if err != nil {
		return nil, fmt.Errorf("provider service: failed to verify provider %q: %w", p.Name, err)
	}
	p.Balance = balance.Amount
	p.Currency = balance.Currency
	if p.Currency == "" {
		p.Currency = "USD"
	}

	created, err := s.providers.CreateProvider(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("provider service: failed to create provider %q: %w", p.Name, err)
	}

	s.logger.Info("provider created", zap.Int64("provider", created.ID), zap.String("type", string(created.Type)))
	return created, nil
}

// List получает всех провайдеров
func (s *ProviderService) List(ctx context.Context) ([]*domain.Provider, error) {
	providers, err := s.providers.ListProviders(ctx)
	if err != nil {
		return nil, fmt.Errorf("provider service: failed to list providers: %w", err)
	}
	if providers == nil {
		providers = []*domain.Provider{}
	}
	return providers, nil
}

// Get получает провайдера по ID
func (s *ProviderService) Get(ctx context.Context, id int64) (*domain.Provider, error) {
	p, err := s.providers.GetProviderByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrProviderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("provider service: failed to get provider %d: %w", id, err)
	}
	return p, nil
}

// Update изменяет провайдера
func (s *ProviderService) Update(ctx context.Context, id int64, req ProviderRequest) (*domain.Provider, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.APIKey == "" {
		req.APIKey = current.APIKey
	}
	p, err := req.toProvider()
	if err != nil {
		return nil, err
	}
	p.ID = current.ID
	p.Balance = current.Balance
	p.Currency = current.Currency
	p.CreatedAt = current.CreatedAt

	if err := s.providers.UpdateProvider(ctx, p); err != nil {
		if errors.Is(err, domain.ErrProviderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("provider service: failed to update provider %d: %w", id, err)
	}

	return p, nil
}

// Delete удаляет провайдера, если на него не ссылаются услуги
func (s *ProviderService) Delete(ctx context.Context, id int64) error {
	if err := s.providers.DeleteProvider(ctx, id); err != nil {
		if errors.Is(err, domain.ErrProviderNotFound) || errors.Is(err, domain.ErrProviderInUse) {
			return err
		}
		return fmt.Errorf("provider service: failed to delete provider %d: %w", id, err)
	}
	return nil
}

// RefreshBalance запрашивает баланс у провайдера и сохраняет его
func (s *ProviderService) RefreshBalance(ctx context.Context, id int64) (*domain.Provider, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	balance, err := s.clients.ForProvider(p).Balance(ctx)
	if err != nil {
		return nil, fmt.Errorf("provider service: failed to get balance of provider %d: %w", id, err)
	}

	if err := s.providers.UpdateProviderBalance(ctx, id, balance.Amount, balance.Currency); err != nil {
		return nil, fmt.Errorf("provider service: failed to store balance of provider %d: %w", id, err)
	}

	p.Balance = balance.Amount
	p.Currency = balance.Currency
	return p, nil
}

// RemoteServices получает каталог провайдера без сохранения
func (s *ProviderService) RemoteServices(ctx context.Context, id int64) ([]provider.RemoteService, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	services, err := s.clients.ForProvider(p).ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("provider service: failed to list services of provider %d: %w", id, err)
	}
	return services, nil
}
