package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/avc/smm-panel/internal/domain"
	"github.com/jackc/pgx/v5"
)

// CatalogRepository реализует domain.CatalogRepository: категории и услуги
type CatalogRepository struct {
	db DBTX
}

// NewCatalogRepository создает новый CatalogRepository
func NewCatalogRepository(db DBTX) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListCategories получает все категории
func (r *CatalogRepository) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, slug, status FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		c := &domain.Category{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Status); err != nil {
			return nil, fmt.Errorf("repository: failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating categories: %w", err)
	}

	return categories, nil
}

// CreateCategory создает категорию. Если категория с таким slug уже есть,
// возвращается существующая, так что параллельные синхронизации не падают.
func (r *CatalogRepository) CreateCategory(ctx context.Context, name, slug string) (*domain.Category, error) {
	c := &domain.Category{}
	err := r.db.QueryRow(ctx,
		`INSERT INTO categories (name, slug, status)
		 VALUES ($1, $2, TRUE)
		 ON CONFLICT (slug) DO UPDATE SET slug = EXCLUDED.slug
		 RETURNING id, name, slug, status`,
		name, slug,
	).Scan(&c.ID, &c.Name, &c.Slug, &c.Status)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to create category %q: %w", name, err)
	}

	return c, nil
}

const serviceColumns = `id, service_code, name, category_id, quantity, min_qty, max_qty, sale_price,
	provider_id, provider_service_id, provider_price, status, created_at, updated_at`

func scanService(row pgx.Row) (*domain.Service, error) {
	s := &domain.Service{}
	err := row.Scan(&s.ID, &s.Code, &s.Name, &s.CategoryID, &s.Quantity, &s.MinQuantity, &s.MaxQuantity,
		&s.SalePrice, &s.ProviderID, &s.ProviderServiceID, &s.ProviderPrice, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *CatalogRepository) getService(ctx context.Context, where string, args ...any) (*domain.Service, error) {
	s, err := scanService(r.db.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE `+where, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrServiceNotFound
		}
		return nil, fmt.Errorf("repository: failed to get service: %w", err)
	}
	return s, nil
}

// GetServiceByID получает услугу по внутреннему ID
func (r *CatalogRepository) GetServiceByID(ctx context.Context, id int64) (*domain.Service, error) {
	return r.getService(ctx, `id = $1`, id)
}

// GetServiceByCode получает услугу по публичному коду
func (r *CatalogRepository) GetServiceByCode(ctx context.Context, code string) (*domain.Service, error) {
	return r.getService(ctx, `service_code = $1`, code)
}

// GetServiceByProviderRef получает услугу по паре (провайдер, id услуги у провайдера)
func (r *CatalogRepository) GetServiceByProviderRef(ctx context.Context, providerID int64, providerServiceID string) (*domain.Service, error) {
	return r.getService(ctx, `provider_id = $1 AND provider_service_id = $2`, providerID, providerServiceID)
}

// CreateService создает услугу из каталога провайдера
func (r *CatalogRepository) CreateService(ctx context.Context, code string, salePrice int64, in *domain.ServiceUpsert) (*domain.Service, error) {
	s, err := scanService(r.db.QueryRow(ctx,
		`INSERT INTO services (service_code, name, category_id, quantity, min_qty, max_qty, sale_price,
			provider_id, provider_service_id, provider_price, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE)
		 RETURNING `+serviceColumns,
		code, in.Name, in.CategoryID, in.Quantity, in.MinQuantity, in.MaxQuantity, salePrice,
		in.ProviderID, in.ProviderServiceID, in.ProviderPrice,
	))
	if err != nil {
		return nil, fmt.Errorf("repository: failed to create service %q: %w", in.ProviderServiceID, err)
	}

	return s, nil
}

// UpdateServiceFromCatalog обновляет поля, которые приходят от провайдера.
// Цена продажи не трогается: её правит администратор.
func (r *CatalogRepository) UpdateServiceFromCatalog(ctx context.Context, id int64, in *domain.ServiceUpsert) error {
	result, err := r.db.Exec(ctx,
		`UPDATE services
		 SET name = $1, category_id = $2, quantity = $3, min_qty = $4, max_qty = $5,
		     provider_price = $6, updated_at = NOW()
		 WHERE id = $7`,
		in.Name, in.CategoryID, in.Quantity, in.MinQuantity, in.MaxQuantity, in.ProviderPrice, id,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update service %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrServiceNotFound
	}

	return nil
}

// UpdateServiceSalePrice задаёт цену продажи вручную
func (r *CatalogRepository) UpdateServiceSalePrice(ctx context.Context, id int64, salePrice int64) error {
	result, err := r.db.Exec(ctx,
		`UPDATE services SET sale_price = $1, updated_at = NOW() WHERE id = $2`,
		salePrice, id,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update service %d price: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrServiceNotFound
	}

	return nil
}
