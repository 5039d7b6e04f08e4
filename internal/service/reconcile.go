package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/avc/smm-panel/internal/domain"
	"github.com/avc/smm-panel/internal/provider"
	"go.uber.org/zap"
)

// DefaultReconcileBatchSize сколько заказов сверяется за один запуск
const DefaultReconcileBatchSize = 100

var upstreamStatuses = map[string]domain.OrderStatus{
	"pending":     domain.OrderStatusPending,
	"in progress": domain.OrderStatusInProgress,
	"processing":  domain.OrderStatusProcessing,
	"completed":   domain.OrderStatusCompleted,
	"partial":     domain.OrderStatusPartial,
	"canceled":    domain.OrderStatusCanceled,
	"cancelled":   domain.OrderStatusCanceled,
	"refunded":    domain.OrderStatusRefunded,
}

// MapUpstreamStatus переводит текст статуса провайдера в локальный статус.
// Неизвестный текст даёт processing.
func MapUpstreamStatus(text string) domain.OrderStatus {
	if st, ok := upstreamStatuses[strings.ToLower(strings.TrimSpace(text))]; ok {
		return st
	}
	return domain.OrderStatusProcessing
}

// ReconcileResult итог одного запуска сверки
type ReconcileResult struct {
	Updated         int      `json:"updated"`
	Errors          int      `json:"errors"`
	Skipped         int      `json:"skipped"`
	TotalConsidered int      `json:"total"`
	Messages        []string `json:"-"`
}

// ReconcileService сверяет статусы отправленных заказов с провайдерами
type ReconcileService struct {
	orders    domain.OrderRepository
	providers domain.ProviderRepository
	clients   provider.Factory
	logger    *zap.Logger
}

// NewReconcileService создает новый ReconcileService
func NewReconcileService(
	orders domain.OrderRepository,
	providers domain.ProviderRepository,
	clients provider.Factory,
	logger *zap.Logger,
) *ReconcileService {
	return &ReconcileService{
		orders:    orders,
		providers: providers,
		clients:   clients,
		logger:    logger,
	}
}

// ReconcileBatch опрашивает провайдеров о не больше чем limit заказах,
// делая один пакетный запрос на провайдера.
func (s *ReconcileService) ReconcileBatch(ctx context.Context, limit int) (*ReconcileResult, error) {
	if limit <= 0 {
		limit = DefaultReconcileBatchSize
	}

	orders, err := s.orders.GetInFlight(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("reconcile service: failed to get in-flight orders: %w", err)
	}

	result := &ReconcileResult{TotalConsidered: len(orders)}
	msgs := messages{}

	groups := make(map[int64][]*domain.Order)
	for _, o := range orders {
		if o.ProviderID == nil || o.APIOrderID == nil {
			result.Skipped++
			s.logger.Warn("in-flight order has no provider link", zap.String("order", o.OrderID))
			continue
		}
		groups[*o.ProviderID] = append(groups[*o.ProviderID], o)
	}

	providerIDs := make([]int64, 0, len(groups))
	for id := range groups {
		providerIDs = append(providerIDs, id)
	}
	slices.Sort(providerIDs)

	for _, providerID := range providerIDs {
		if err := ctx.Err(); err != nil {
			result.Messages = msgs
			return result, err
		}

		if err := s.reconcileProvider(ctx, providerID, groups[providerID], result, &msgs); err != nil {
			result.Errors++
			msgs.addf("Provider %d: %v", providerID, err)
			s.logger.Warn("failed to reconcile provider", zap.Int64("provider", providerID), zap.Error(err))
		}
	}
	result.Messages = msgs

	s.logger.Info("reconcile batch finished",
		zap.Int("total", result.TotalConsidered),
		zap.Int("updated", result.Updated),
		zap.Int("errors", result.Errors),
		zap.Int("providers", len(groups)),
	)

	return result, nil
}

// reconcileProvider возвращает ошибку, только если не удалось получить статусы целиком
func (s *ReconcileService) reconcileProvider(
	ctx context.Context,
	providerID int64,
	orders []*domain.Order,
	result *ReconcileResult,
	msgs *messages,
) error {
	p, err := s.providers.GetProviderByID(ctx, providerID)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, *o.APIOrderID)
	}

	statuses, err := s.clients.ForProvider(p).BulkOrderStatus(ctx, ids)
	if err != nil {
		return err
	}

	for _, o := range orders {
		st, ok := statuses[*o.APIOrderID]
		if !ok {
			// Провайдер не вернул заказ, повторим в следующий раз
			continue
		}

		upd := domain.StatusUpdate{
			Status:     MapUpstreamStatus(st.StatusText),
			StatusAPI:  st.StatusText,
			StartCount: st.StartCount,
			Remains:    st.Remains,
		}

		if err := s.orders.ApplyStatus(ctx, o.ID, o.Version, upd); err != nil {
			if errors.Is(err, domain.ErrOrderConflict) {
				s.logger.Debug("order changed since read, skipping", zap.String("order", o.OrderID))
				result.Skipped++
				continue
			}
			result.Errors++
			msgs.addf("Order %s: %v", o.OrderID, err)
			continue
		}

		result.Updated++
	}

	return nil
}
