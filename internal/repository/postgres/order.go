package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avc/smm-panel/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// OrderRepository реализует domain.OrderRepository.
// Все переходы статуса делаются через compare-and-set по (id, version).
type OrderRepository struct {
	db DBTX
}

// NewOrderRepository создает новый OrderRepository
func NewOrderRepository(db DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

var orderColumnList = []string{
	"id", "order_id", "seller_id", "service_id", "service_name", "provider_id", "provider_service_id",
	"link", "quantity", "customer_name", "customer_contact", "sale_price", "provider_cost",
	"provider_cost_local", "commission", "profit", "exchange_rate", "status", "status_api",
	"api_order_id", "start_count", "remains", "note", "version", "created_at", "updated_at",
}

func orderColumns(alias string) string {
	if alias == "" {
		return strings.Join(orderColumnList, ", ")
	}
	cols := make([]string, len(orderColumnList))
	for i, c := range orderColumnList {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

func orderDest(o *domain.Order) []any {
	return []any{
		&o.ID, &o.OrderID, &o.SellerID, &o.ServiceID, &o.ServiceName, &o.ProviderID, &o.ProviderServiceID,
		&o.Link, &o.Quantity, &o.CustomerName, &o.CustomerContact, &o.SalePrice, &o.ProviderCost,
		&o.ProviderCostLocal, &o.Commission, &o.Profit, &o.ExchangeRate, &o.Status, &o.StatusAPI,
		&o.APIOrderID, &o.StartCount, &o.Remains, &o.Note, &o.Version, &o.CreatedAt, &o.UpdatedAt,
	}
}

func scanOrders(rows pgx.Rows) ([]*domain.Order, error) {
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		o := &domain.Order{}
		if err := rows.Scan(orderDest(o)...); err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders: %w", err)
	}

	return orders, nil
}

// CreateOrder создает заказ в статусе awaiting со снимком денежных полей
func (r *OrderRepository) CreateOrder(ctx context.Context, n *domain.NewOrder) (*domain.Order, error) {
	o := &domain.Order{}
	err := r.db.QueryRow(ctx,
		`INSERT INTO orders (order_id, seller_id, service_id, service_name, provider_id, provider_service_id,
			link, quantity, customer_name, customer_contact, sale_price, provider_cost, provider_cost_local,
			commission, profit, exchange_rate, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		 RETURNING `+orderColumns(""),
		n.OrderID, n.SellerID, n.Service.ID, n.Service.Name, n.Service.ProviderID, n.Service.ProviderServiceID,
		n.Link, n.Quantity, n.CustomerName, n.CustomerContact, n.SalePrice, n.ProviderCost, n.ProviderCostLocal,
		n.Commission, n.Profit, n.ExchangeRate, domain.OrderStatusAwaiting,
	).Scan(orderDest(o)...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to create order %q: %w", n.OrderID, err)
	}

	return o, nil
}

// GetOrderByOrderID получает заказ по публичному идентификатору
func (r *OrderRepository) GetOrderByOrderID(ctx context.Context, orderID string) (*domain.Order, error) {
	o := &domain.Order{}
	err := r.db.QueryRow(ctx,
		`SELECT `+orderColumns("")+` FROM orders WHERE order_id = $1`,
		orderID,
	).Scan(orderDest(o)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to get order %q: %w", orderID, err)
	}

	return o, nil
}

// GetSellerOrders получает страницу заказов продавца и их общее количество
func (r *OrderRepository) GetSellerOrders(ctx context.Context, sellerID int64, limit, offset int) ([]*domain.Order, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE seller_id = $1`, sellerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository: failed to count orders for seller %d: %w", sellerID, err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+orderColumns("")+`
		 FROM orders
		 WHERE seller_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		sellerID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("repository: failed to get orders for seller %d: %w", sellerID, err)
	}

	orders, err := scanOrders(rows)
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// GetSellerSummary считает итоги продаж продавца
func (r *OrderRepository) GetSellerSummary(ctx context.Context, sellerID int64) (*domain.SellerOrderSummary, error) {
	s := &domain.SellerOrderSummary{}
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(sale_price), 0), COALESCE(SUM(commission), 0)
		 FROM orders
		 WHERE seller_id = $1`,
		sellerID,
	).Scan(&s.TotalOrders, &s.TotalSales, &s.TotalCommissions)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to get summary for seller %d: %w", sellerID, err)
	}

	return s, nil
}

// GetCompletedSellerOrders получает завершённые заказы всех продавцов
func (r *OrderRepository) GetCompletedSellerOrders(ctx context.Context) ([]*domain.Order, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+orderColumns("")+`
		 FROM orders
		 WHERE seller_id IS NOT NULL AND status = $1
		 ORDER BY seller_id, created_at`,
		domain.OrderStatusCompleted,
	)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to get completed seller orders: %w", err)
	}

	return scanOrders(rows)
}

// GetDispatchable получает заказы, ожидающие отправки провайдеру, вместе с провайдером.
// Заказы с живой блокировкой отправки пропускаются.
func (r *OrderRepository) GetDispatchable(ctx context.Context, limit int, claimTTL time.Duration) ([]*domain.DispatchTarget, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+orderColumns("o")+`,
			p.id, p.name, p.url, p.api_key, p.type, p.balance, p.currency, p.status, p.created_at
		 FROM orders o
		 LEFT JOIN providers p ON p.id = o.provider_id
		 WHERE o.status = $1 AND o.api_order_id IS NULL
		   AND (o.dispatch_claimed_at IS NULL OR o.dispatch_claimed_at < NOW() - make_interval(secs => $2))
		 ORDER BY o.created_at ASC
		 LIMIT $3`,
		domain.OrderStatusAwaiting, claimTTL.Seconds(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to get dispatchable orders: %w", err)
	}
	defer rows.Close()

	var targets []*domain.DispatchTarget
	for rows.Next() {
		o := &domain.Order{}
		var (
			pID        *int64
			pName      *string
			pURL       *string
			pKey       *string
			pType      *string
			pBalance   decimal.NullDecimal
			pCurrency  *string
			pStatus    *bool
			pCreatedAt *time.Time
		)
		dest := append(orderDest(o), &pID, &pName, &pURL, &pKey, &pType, &pBalance, &pCurrency, &pStatus, &pCreatedAt)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("repository: failed to scan dispatchable order: %w", err)
		}

		target := &domain.DispatchTarget{Order: o}
		if pID != nil {
			target.Provider = &domain.Provider{
				ID:        *pID,
				Name:      deref(pName),
				URL:       deref(pURL),
				APIKey:    deref(pKey),
				Type:      domain.ProviderType(deref(pType)),
				Balance:   pBalance.Decimal,
				Currency:  deref(pCurrency),
				Status:    pStatus != nil && *pStatus,
				CreatedAt: derefTime(pCreatedAt),
			}
		}
		targets = append(targets, target)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating dispatchable orders: %w", err)
	}

	return targets, nil
}

// ClaimForDispatch помечает заказ как взятый в отправку и возвращает новую версию.
// ErrOrderConflict означает, что заказ изменился или его уже забрал другой запуск.
func (r *OrderRepository) ClaimForDispatch(ctx context.Context, id, version int64, claimTTL time.Duration) (int64, error) {
	var newVersion int64
	err := r.db.QueryRow(ctx,
		`UPDATE orders
		 SET version = version + 1, dispatch_claimed_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND version = $2 AND status = $3 AND api_order_id IS NULL
		   AND (dispatch_claimed_at IS NULL OR dispatch_claimed_at < NOW() - make_interval(secs => $4))
		 RETURNING version`,
		id, version, domain.OrderStatusAwaiting, claimTTL.Seconds(),
	).Scan(&newVersion)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrOrderConflict
		}
		return 0, fmt.Errorf("repository: failed to claim order %d: %w", id, err)
	}

	return newVersion, nil
}

// ReleaseClaim снимает блокировку отправки, чтобы следующий запуск повторил заказ
func (r *OrderRepository) ReleaseClaim(ctx context.Context, id, version int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE orders SET dispatch_claimed_at = NULL WHERE id = $1 AND version = $2`,
		id, version,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to release claim on order %d: %w", id, err)
	}

	return nil
}

// MarkDispatched переводит заказ в pending с id заказа у провайдера
func (r *OrderRepository) MarkDispatched(ctx context.Context, id, version int64, apiOrderID, statusAPI string) error {
	result, err := r.db.Exec(ctx,
		`UPDATE orders
		 SET status = $1, api_order_id = $2, status_api = $3, dispatch_claimed_at = NULL,
		     version = version + 1, updated_at = NOW()
		 WHERE id = $4 AND version = $5 AND status = $6 AND api_order_id IS NULL`,
		domain.OrderStatusPending, apiOrderID, statusAPI, id, version, domain.OrderStatusAwaiting,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to mark order %d dispatched: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrOrderConflict
	}

	return nil
}

// MarkRejected переводит заказ в error с сообщением провайдера
func (r *OrderRepository) MarkRejected(ctx context.Context, id, version int64, note string) error {
	result, err := r.db.Exec(ctx,
		`UPDATE orders
		 SET status = $1, note = $2, dispatch_claimed_at = NULL, version = version + 1, updated_at = NOW()
		 WHERE id = $3 AND version = $4 AND status = $5 AND api_order_id IS NULL`,
		domain.OrderStatusError, note, id, version, domain.OrderStatusAwaiting,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to mark order %d rejected: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrOrderConflict
	}

	return nil
}

// GetInFlight получает отправленные и ещё не завершённые заказы.
// Давно не обновлявшиеся идут первыми, так что страницы ротируются.
func (r *OrderRepository) GetInFlight(ctx context.Context, limit int) ([]*domain.Order, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+orderColumns("")+`
		 FROM orders
		 WHERE api_order_id IS NOT NULL AND status IN ($1, $2, $3)
		 ORDER BY updated_at ASC
		 LIMIT $4`,
		domain.OrderStatusPending, domain.OrderStatusProcessing, domain.OrderStatusInProgress, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to get in-flight orders: %w", err)
	}

	return scanOrders(rows)
}

// ApplyStatus записывает результат сверки. Условие на статус в WHERE
// гарантирует, что завершённый заказ не вернётся в работу.
func (r *OrderRepository) ApplyStatus(ctx context.Context, id, version int64, upd domain.StatusUpdate) error {
	result, err := r.db.Exec(ctx,
		`UPDATE orders
		 SET status = $1, status_api = $2,
		     start_count = CASE WHEN start_count = 0 THEN $3 ELSE start_count END,
		     remains = $4, version = version + 1, updated_at = NOW()
		 WHERE id = $5 AND version = $6 AND status IN ($7, $8, $9)`,
		upd.Status, upd.StatusAPI, upd.StartCount, upd.Remains, id, version,
		domain.OrderStatusPending, domain.OrderStatusProcessing, domain.OrderStatusInProgress,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to apply status to order %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrOrderConflict
	}

	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
