package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/avc/smm-panel/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var providerColumnList = []string{"id", "name", "url", "api_key", "type", "balance", "currency", "status", "created_at"}

func TestProviderRepository_CreateProvider(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewProviderRepository(mock)

	in := &domain.Provider{
		Name:     "Panel",
		URL:      "https://panel.example/api/v2",
		APIKey:   "secret",
		Type:     domain.ProviderTypeDefault,
		Balance:  decimal.RequireFromString("100.5"),
		Currency: "USD",
		Status:   true,
	}

	rows := pgxmock.NewRows(providerColumnList).
		AddRow(int64(1), in.Name, in.URL, in.APIKey, in.Type, "100.5", in.Currency, true, time.Now())

	mock.ExpectQuery(`INSERT INTO providers`).
		WithArgs(in.Name, in.URL, in.APIKey, in.Type, pgxmock.AnyArg(), in.Currency, in.Status).
		WillReturnRows(rows)

	p, err := repo.CreateProvider(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
	assert.True(t, decimal.RequireFromString("100.5").Equal(p.Balance))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProviderRepository_GetProviderByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewProviderRepository(mock)

	mock.ExpectQuery(`FROM providers WHERE id`).
		WithArgs(int64(42)).
		WillReturnError(pgx.ErrNoRows)

	p, err := repo.GetProviderByID(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrProviderNotFound)
	assert.Nil(t, p)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProviderRepository_UpdateProviderBalance(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewProviderRepository(mock)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE providers SET balance`).
			WithArgs(pgxmock.AnyArg(), "USD", int64(1)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.UpdateProviderBalance(ctx, 1, decimal.NewFromInt(5), "USD"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Provider not found", func(t *testing.T) {
		mock.ExpectExec(`UPDATE providers SET balance`).
			WithArgs(pgxmock.AnyArg(), "USD", int64(2)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.UpdateProviderBalance(ctx, 2, decimal.NewFromInt(5), "USD")
		assert.ErrorIs(t, err, domain.ErrProviderNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProviderRepository_DeleteProvider(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewProviderRepository(mock)
	ctx := context.Background()

	t.Run("Referenced by services", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM providers`).
			WithArgs(int64(1)).
			WillReturnError(&pgconn.PgError{Code: "23503"})

		err := repo.DeleteProvider(ctx, 1)
		assert.ErrorIs(t, err, domain.ErrProviderInUse)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Deleted", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM providers`).
			WithArgs(int64(2)).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		require.NoError(t, repo.DeleteProvider(ctx, 2))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
