package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/avc/smm-panel/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

// addOrderRow добавляет строку заказа со всеми колонками orderColumnList
func addOrderRow(rows *pgxmock.Rows, id int64, orderID string, status domain.OrderStatus, apiOrderID *string, version int64) *pgxmock.Rows {
	now := time.Now()
	return rows.AddRow(
		id, orderID, ptr(int64(7)), int64(3), "Followers", ptr(int64(1)), "12",
		"https://instagram.com/someone", int64(1000), "Ana", "ana@example.com", int64(1140), "0.80",
		int64(760), int64(76), int64(304), "950", status, (*string)(nil),
		apiOrderID, int64(0), int64(0), "", version, now, now,
	)
}

func TestOrderRepository_CreateOrder(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)
	ctx := context.Background()

	providerID := int64(1)
	svc := &domain.Service{ID: 3, Name: "Followers", ProviderID: &providerID, ProviderServiceID: "12"}
	n := &domain.NewOrder{
		OrderID:           "LZ1K2ABC123",
		Service:           svc,
		Link:              "https://instagram.com/someone",
		Quantity:          1000,
		SalePrice:         1140,
		ProviderCost:      decimal.RequireFromString("0.80"),
		ProviderCostLocal: 760,
		Commission:        76,
		Profit:            304,
		ExchangeRate:      decimal.NewFromInt(950),
	}

	t.Run("Success", func(t *testing.T) {
		rows := addOrderRow(pgxmock.NewRows(orderColumnList), 10, n.OrderID, domain.OrderStatusAwaiting, nil, 1)

		mock.ExpectQuery(`INSERT INTO orders`).
			WithArgs(n.OrderID, n.SellerID, svc.ID, svc.Name, svc.ProviderID, svc.ProviderServiceID,
				n.Link, n.Quantity, n.CustomerName, n.CustomerContact, n.SalePrice, pgxmock.AnyArg(), n.ProviderCostLocal,
				n.Commission, n.Profit, pgxmock.AnyArg(), domain.OrderStatusAwaiting).
			WillReturnRows(rows)

		order, err := repo.CreateOrder(ctx, n)
		require.NoError(t, err)
		assert.Equal(t, int64(10), order.ID)
		assert.Equal(t, domain.OrderStatusAwaiting, order.Status)
		assert.Equal(t, int64(304), order.Profit)
		assert.Nil(t, order.APIOrderID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database error", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO orders`).
			WillReturnError(errors.New("database error"))

		order, err := repo.CreateOrder(ctx, n)
		assert.Error(t, err)
		assert.Nil(t, order)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOrderRepository_GetOrderByOrderID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		rows := addOrderRow(pgxmock.NewRows(orderColumnList), 10, "ABC", domain.OrderStatusPending, ptr("23501"), 3)

		mock.ExpectQuery(`FROM orders WHERE order_id`).
			WithArgs("ABC").
			WillReturnRows(rows)

		order, err := repo.GetOrderByOrderID(ctx, "ABC")
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusPending, order.Status)
		require.NotNil(t, order.APIOrderID)
		assert.Equal(t, "23501", *order.APIOrderID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Order not found", func(t *testing.T) {
		mock.ExpectQuery(`FROM orders WHERE order_id`).
			WithArgs("NOPE").
			WillReturnError(pgx.ErrNoRows)

		order, err := repo.GetOrderByOrderID(ctx, "NOPE")
		assert.ErrorIs(t, err, domain.ErrOrderNotFound)
		assert.Nil(t, order)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOrderRepository_GetSellerOrders(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT COUNT`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(25)))

	rows := pgxmock.NewRows(orderColumnList)
	addOrderRow(rows, 1, "A", domain.OrderStatusCompleted, ptr("1"), 5)
	addOrderRow(rows, 2, "B", domain.OrderStatusAwaiting, nil, 1)

	mock.ExpectQuery(`FROM orders`).
		WithArgs(int64(7), 10, 20).
		WillReturnRows(rows)

	orders, total, err := repo.GetSellerOrders(ctx, 7, 10, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
	assert.Len(t, orders, 2)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetSellerSummary(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)

	mock.ExpectQuery(`SELECT COUNT\(\*\), COALESCE`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"count", "sales", "commissions"}).AddRow(int64(3), int64(3420), int64(228)))

	summary, err := repo.GetSellerSummary(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.TotalOrders)
	assert.Equal(t, int64(3420), summary.TotalSales)
	assert.Equal(t, int64(228), summary.TotalCommissions)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetDispatchable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)
	ctx := context.Background()

	columns := append(append([]string{}, orderColumnList...),
		"p_id", "p_name", "p_url", "p_api_key", "p_type", "p_balance", "p_currency", "p_status", "p_created_at")

	t.Run("With and without provider", func(t *testing.T) {
		now := time.Now()
		rows := pgxmock.NewRows(columns)

		rows.AddRow(
			int64(1), "A", (*int64)(nil), int64(3), "Followers", ptr(int64(1)), "12",
			"link", int64(1000), "", "", int64(1140), "0.80",
			int64(760), int64(0), int64(380), "950", domain.OrderStatusAwaiting, (*string)(nil),
			(*string)(nil), int64(0), int64(0), "", int64(1), now, now,
			ptr(int64(1)), ptr("Panel"), ptr("https://panel.example/api/v2"), ptr("secret"), ptr("default"),
			"12.5", ptr("USD"), ptr(true), &now,
		)
		rows.AddRow(
			int64(2), "B", (*int64)(nil), int64(4), "Views", (*int64)(nil), "99",
			"link", int64(100), "", "", int64(500), "0.10",
			int64(95), int64(0), int64(405), "950", domain.OrderStatusAwaiting, (*string)(nil),
			(*string)(nil), int64(0), int64(0), "", int64(1), now, now,
			(*int64)(nil), (*string)(nil), (*string)(nil), (*string)(nil), (*string)(nil),
			nil, (*string)(nil), (*bool)(nil), (*time.Time)(nil),
		)

		mock.ExpectQuery(`FROM orders o\s+LEFT JOIN providers p`).
			WithArgs(domain.OrderStatusAwaiting, float64(120), 50).
			WillReturnRows(rows)

		targets, err := repo.GetDispatchable(ctx, 50, 2*time.Minute)
		require.NoError(t, err)
		require.Len(t, targets, 2)

		require.NotNil(t, targets[0].Provider)
		assert.Equal(t, "secret", targets[0].Provider.APIKey)
		assert.Equal(t, domain.ProviderTypeDefault, targets[0].Provider.Type)
		assert.True(t, targets[0].Provider.Status)
		assert.Nil(t, targets[1].Provider)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Query error", func(t *testing.T) {
		mock.ExpectQuery(`FROM orders o`).
			WillReturnError(errors.New("connection refused"))

		targets, err := repo.GetDispatchable(ctx, 50, time.Minute)
		assert.Error(t, err)
		assert.Nil(t, targets)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOrderRepository_ClaimForDispatch(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)
	ctx := context.Background()

	t.Run("Claimed", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE orders\s+SET version = version \+ 1, dispatch_claimed_at = NOW\(\)`).
			WithArgs(int64(10), int64(1), domain.OrderStatusAwaiting, float64(120)).
			WillReturnRows(pgxmock.NewRows([]string{"version"}).AddRow(int64(2)))

		version, err := repo.ClaimForDispatch(ctx, 10, 1, 2*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(2), version)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already claimed", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE orders`).
			WithArgs(int64(10), int64(1), domain.OrderStatusAwaiting, float64(120)).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.ClaimForDispatch(ctx, 10, 1, 2*time.Minute)
		assert.ErrorIs(t, err, domain.ErrOrderConflict)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOrderRepository_ReleaseClaim(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)

	mock.ExpectExec(`UPDATE orders SET dispatch_claimed_at = NULL`).
		WithArgs(int64(10), int64(2)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.ReleaseClaim(context.Background(), 10, 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_MarkDispatched(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE orders`).
			WithArgs(domain.OrderStatusPending, "23501", "Pending", int64(10), int64(2), domain.OrderStatusAwaiting).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.MarkDispatched(ctx, 10, 2, "23501", "Pending")
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Version moved", func(t *testing.T) {
		mock.ExpectExec(`UPDATE orders`).
			WithArgs(domain.OrderStatusPending, "23501", "Pending", int64(10), int64(2), domain.OrderStatusAwaiting).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.MarkDispatched(ctx, 10, 2, "23501", "Pending")
		assert.ErrorIs(t, err, domain.ErrOrderConflict)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOrderRepository_MarkRejected(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)

	mock.ExpectExec(`UPDATE orders`).
		WithArgs(domain.OrderStatusError, "not enough funds", int64(10), int64(2), domain.OrderStatusAwaiting).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.MarkRejected(context.Background(), 10, 2, "not enough funds")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetInFlight(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)

	rows := pgxmock.NewRows(orderColumnList)
	addOrderRow(rows, 1, "A", domain.OrderStatusPending, ptr("1"), 2)
	addOrderRow(rows, 2, "B", domain.OrderStatusInProgress, ptr("2"), 4)

	mock.ExpectQuery(`WHERE api_order_id IS NOT NULL AND status IN`).
		WithArgs(domain.OrderStatusPending, domain.OrderStatusProcessing, domain.OrderStatusInProgress, 100).
		WillReturnRows(rows)

	orders, err := repo.GetInFlight(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, domain.OrderStatusInProgress, orders[1].Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_ApplyStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)
	ctx := context.Background()
	upd := domain.StatusUpdate{Status: domain.OrderStatusPartial, StatusAPI: "Partial", StartCount: 3572, Remains: 157}

	t.Run("Applied", func(t *testing.T) {
		mock.ExpectExec(`UPDATE orders`).
			WithArgs(upd.Status, upd.StatusAPI, upd.StartCount, upd.Remains, int64(10), int64(4),
				domain.OrderStatusPending, domain.OrderStatusProcessing, domain.OrderStatusInProgress).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.ApplyStatus(ctx, 10, 4, upd))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Terminal row is not touched", func(t *testing.T) {
		mock.ExpectExec(`UPDATE orders`).
			WithArgs(upd.Status, upd.StatusAPI, upd.StartCount, upd.Remains, int64(10), int64(4),
				domain.OrderStatusPending, domain.OrderStatusProcessing, domain.OrderStatusInProgress).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.ApplyStatus(ctx, 10, 4, upd)
		assert.ErrorIs(t, err, domain.ErrOrderConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
