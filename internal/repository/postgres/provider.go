package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/avc/smm-panel/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ProviderRepository реализует domain.ProviderRepository
type ProviderRepository struct {
	db DBTX
}

// NewProviderRepository создает новый ProviderRepository
func NewProviderRepository(db DBTX) *ProviderRepository {
	return &ProviderRepository{db: db}
}

const providerColumns = `id, name, url, api_key, type, balance, currency, status, created_at`

func scanProvider(row pgx.Row) (*domain.Provider, error) {
	p := &domain.Provider{}
	err := row.Scan(&p.ID, &p.Name, &p.URL, &p.APIKey, &p.Type, &p.Balance, &p.Currency, &p.Status, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CreateProvider создает нового провайдера
func (r *ProviderRepository) CreateProvider(ctx context.Context, p *domain.Provider) (*domain.Provider, error) {
	created, err := scanProvider(r.db.QueryRow(ctx,
		`INSERT INTO providers (name, url, api_key, type, balance, currency, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+providerColumns,
		p.Name, p.URL, p.APIKey, p.Type, p.Balance, p.Currency, p.Status,
	))
	if err != nil {
		return nil, fmt.Errorf("repository: failed to create provider %q: %w", p.Name, err)
	}

	return created, nil
}

// GetProviderByID получает провайдера по ID
func (r *ProviderRepository) GetProviderByID(ctx context.Context, id int64) (*domain.Provider, error) {
	p, err := scanProvider(r.db.QueryRow(ctx,
		`SELECT `+providerColumns+` FROM providers WHERE id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProviderNotFound
		}
		return nil, fmt.Errorf("repository: failed to get provider %d: %w", id, err)
	}

	return p, nil
}

// ListProviders получает всех провайдеров, новые первыми
func (r *ProviderRepository) ListProviders(ctx context.Context) ([]*domain.Provider, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+providerColumns+` FROM providers ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to list providers: %w", err)
	}
	defer rows.Close()

	var providers []*domain.Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan provider: %w", err)
		}
		providers = append(providers, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating providers: %w", err)
	}

	return providers, nil
}

// UpdateProvider обновляет редактируемые поля провайдера
func (r *ProviderRepository) UpdateProvider(ctx context.Context, p *domain.Provider) error {
	result, err := r.db.Exec(ctx,
		`UPDATE providers
		 SET name = $1, url = $2, api_key = $3, type = $4, status = $5
		 WHERE id = $6`,
		p.Name, p.URL, p.APIKey, p.Type, p.Status, p.ID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update provider %d: %w", p.ID, err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrProviderNotFound
	}

	return nil
}

// UpdateProviderBalance сохраняет баланс, полученный от провайдера
func (r *ProviderRepository) UpdateProviderBalance(ctx context.Context, id int64, balance decimal.Decimal, currency string) error {
	result, err := r.db.Exec(ctx,
		`UPDATE providers SET balance = $1, currency = $2 WHERE id = $3`,
		balance, currency, id,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update provider %d balance: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrProviderNotFound
	}

	return nil
}

// DeleteProvider удаляет провайдера, если на него не ссылаются услуги
func (r *ProviderRepository) DeleteProvider(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM providers WHERE id = $1`, id)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return domain.ErrProviderInUse
		}
		return fmt.Errorf("repository: failed to delete provider %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrProviderNotFound
	}

	return nil
}
