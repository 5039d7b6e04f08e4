package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/avc/smm-panel/internal/domain"
	"github.com/avc/smm-panel/internal/exchange"
	"github.com/avc/smm-panel/internal/pricing"
	"github.com/avc/smm-panel/internal/provider"
	"github.com/avc/smm-panel/internal/utils/token"
	"go.uber.org/zap"
)

const (
	// DefaultCategoryName категория для услуг, у которых провайдер её не указал
	DefaultCategoryName = "Otros"
	// DefaultServiceQuantity количество по умолчанию, если минимум не разобрался
	DefaultServiceQuantity = 100
)

var whitespace = regexp.MustCompile(`\s+`)

// Slugify переводит имя категории в slug: нижний регистр, пробелы заменены на "-"
func Slugify(name string) string {
	return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// SyncResult итог синхронизации каталога одного провайдера
type SyncResult struct {
	SyncedCount    int      `json:"synced_count"`
	Created        int      `json:"created"`
	Updated        int      `json:"updated"`
	Unchanged      int      `json:"unchanged"`
	TotalAttempted int      `json:"total_attempted"`
	Errors         []string `json:"errors"`
}

// CatalogService синхронизирует каталог услуг провайдера с локальным
type CatalogService struct {
	providers domain.ProviderRepository
	catalog   domain.CatalogRepository
	clients   provider.Factory
	rates     exchange.RateProvider
	logger    *zap.Logger
}

// NewCatalogService создает новый CatalogService
func NewCatalogService(
	providers domain.ProviderRepository,
	catalog domain.CatalogRepository,
	clients provider.Factory,
	rates exchange.RateProvider,
	logger *zap.Logger,
) *CatalogService {
	return &CatalogService{
		providers: providers,
		catalog:   catalog,
		clients:   clients,
		rates:     rates,
		logger:    logger,
	}
}

// Sync загружает каталог провайдера и создаёт или обновляет локальные услуги.
// Если каталог не получен, ничего не меняется.
func (s *CatalogService) Sync(ctx context.Context, providerID int64) (*SyncResult, error) {
	p, err := s.providers.GetProviderByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, domain.ErrProviderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("catalog service: failed to get provider %d: %w", providerID, err)
	}
	if !p.Status {
		return nil, domain.ErrProviderInactive
	}

	client := s.clients.ForProvider(p)
	remote, err := client.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog service: failed to fetch services of provider %d: %w", providerID, err)
	}

	categories, err := s.loadCategories(ctx)
	if err != nil {
		return nil, err
	}

	rate := s.rates.Rate(ctx)
	result := &SyncResult{Errors: []string{}}
	errs := messages{}

	for _, rs := range remote {
		if err := ctx.Err(); err != nil {
			result.Errors = errs
			return result, err
		}

		result.TotalAttempted++
		created, changed, err := s.syncOne(ctx, p.ID, rs, categories, rate)
		if err != nil {
			errs.addf("Service %s (%s): %v", rs.RemoteServiceID, rs.Name, err)
			s.logger.Warn("failed to sync service",
				zap.Int64("provider", p.ID),
				zap.String("remote_service", rs.RemoteServiceID),
				zap.Error(err),
			)
			continue
		}

		result.SyncedCount++
		switch {
		case created:
			result.Created++
		case changed:
			result.Updated++
		default:
			result.Unchanged++
		}
	}
	result.Errors = errs

	s.refreshBalance(ctx, p, client)

	s.logger.Info("catalog synced",
		zap.Int64("provider", p.ID),
		zap.Int("attempted", result.TotalAttempted),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("errors", len(result.Errors)),
	)

	return result, nil
}

// UpdateSalePrice задаёт цену продажи услуги вручную. Синхронизация каталога
// эту цену не перезаписывает.
func (s *CatalogService) UpdateSalePrice(ctx context.Context, serviceID, salePrice int64) (*domain.Service, error) {
	if salePrice <= 0 {
		return nil, ErrInvalidPrice
	}

	if err := s.catalog.UpdateServiceSalePrice(ctx, serviceID, salePrice); err != nil {
		if errors.Is(err, domain.ErrServiceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("catalog service: failed to update price of service %d: %w", serviceID, err)
	}

	svc, err := s.catalog.GetServiceByID(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("catalog service: failed to reload service %d: %w", serviceID, err)
	}

	s.logger.Info("service price updated", zap.Int64("service", serviceID), zap.Int64("sale_price", salePrice))
	return svc, nil
}

// loadCategories строит карту имя категории в нижнем регистре -> id
func (s *CatalogService) loadCategories(ctx context.Context) (map[string]int64, error) {
	list, err := s.catalog.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog service: failed to list categories: %w", err)
	}

	categories := make(map[string]int64, len(list))
	for _, c := range list {
		categories[strings.ToLower(strings.TrimSpace(c.Name))] = c.ID
	}
	return categories, nil
}

func (s *CatalogService) resolveCategory(ctx context.Context, name string, categories map[string]int64) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultCategoryName
	}

	key := strings.ToLower(name)
	if id, ok := categories[key]; ok {
		return id, nil
	}

	c, err := s.catalog.CreateCategory(ctx, name, Slugify(name))
	if err != nil {
		return 0, err
	}
	categories[key] = c.ID
	return c.ID, nil
}

// syncOne возвращает created=true для новой услуги и changed=true, если существующая изменилась
func (s *CatalogService) syncOne(
	ctx context.Context,
	providerID int64,
	rs provider.RemoteService,
	categories map[string]int64,
	rate float64,
) (created, changed bool, err error) {
	if rs.RemoteServiceID == "" {
		return false, false, errors.New("missing service id")
	}

	cost, err := rs.UnitCostUSD()
	if err != nil {
		return false, false, err
	}

	categoryID, err := s.resolveCategory(ctx, rs.Category, categories)
	if err != nil {
		return false, false, fmt.Errorf("category %q: %w", rs.Category, err)
	}

	in := &domain.ServiceUpsert{
		Name:              rs.Name,
		CategoryID:        categoryID,
		Quantity:          DefaultServiceQuantity,
		MinQuantity:       1,
		ProviderID:        providerID,
		ProviderServiceID: rs.RemoteServiceID,
		ProviderPrice:     cost,
	}
	if minQty, ok := rs.MinQuantity(); ok {
		in.Quantity = minQty
		in.MinQuantity = minQty
	}
	if maxQty, ok := rs.MaxQuantity(); ok {
		in.MaxQuantity = maxQty
	}

	existing, err := s.catalog.GetServiceByProviderRef(ctx, providerID, rs.RemoteServiceID)
	if err != nil {
		if !errors.Is(err, domain.ErrServiceNotFound) {
			return false, false, err
		}

		salePrice := pricing.SuggestedSalePrice(cost, rate)
		if _, err := s.catalog.CreateService(ctx, token.ServiceCode(), salePrice, in); err != nil {
			return false, false, err
		}
		return true, false, nil
	}

	if sameAsCatalog(existing, in) {
		return false, false, nil
	}

	if err := s.catalog.UpdateServiceFromCatalog(ctx, existing.ID, in); err != nil {
		return false, false, err
	}
	return false, true, nil
}

func sameAsCatalog(s *domain.Service, in *domain.ServiceUpsert) bool {
	return s.Name == in.Name &&
		s.CategoryID == in.CategoryID &&
		s.Quantity == in.Quantity &&
		s.MinQuantity == in.MinQuantity &&
		s.MaxQuantity == in.MaxQuantity &&
		s.ProviderPrice.Equal(in.ProviderPrice)
}

// refreshBalance обновляет сохранённый баланс провайдера, ошибки только логируются
func (s *CatalogService) refreshBalance(ctx context.Context, p *domain.Provider, client provider.Client) {
	balance, err := client.Balance(ctx)
	if err != nil {
		s.logger.Warn("failed to refresh provider balance", zap.Int64("provider", p.ID), zap.Error(err))
		return
	}

	if err := s.providers.UpdateProviderBalance(ctx, p.ID, balance.Amount, balance.Currency); err != nil {
		s.logger.Warn("failed to store provider balance", zap.Int64("provider", p.ID), zap.Error(err))
	}
}
