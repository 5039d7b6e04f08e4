package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avc/smm-panel/internal/domain"
	"github.com/avc/smm-panel/internal/provider"
	"go.uber.org/zap"
)

const (
	// DefaultDispatchBatchSize сколько заказов отправляется за один запуск
	DefaultDispatchBatchSize = 50
	// DefaultClaimTTL через сколько брошенная блокировка отправки считается истёкшей
	DefaultClaimTTL = 2 * time.Minute
	// InitialStatusAPI текст статуса провайдера сразу после отправки
	InitialStatusAPI = "Pending"
)

// DispatchOutcome результат отправки одного заказа
type DispatchOutcome int

const (
	OutcomeDispatched DispatchOutcome = iota
	OutcomeRejected
	OutcomeSkipped
	OutcomeFailed
)

// DispatchResult итог одного запуска отправки
type DispatchResult struct {
	Processed       int      `json:"processed"`
	Rejected        int      `json:"rejected"`
	Errors          int      `json:"errors"` // отклонённые и транзиентные ошибки вместе
	Skipped         int      `json:"skipped"`
	TotalConsidered int      `json:"total"`
	Messages        []string `json:"-"`
}

// DispatchService отправляет ожидающие заказы провайдерам
type DispatchService struct {
	orders   domain.OrderRepository
	clients  provider.Factory
	claimTTL time.Duration
	logger   *zap.Logger
}

// NewDispatchService создает новый DispatchService
func NewDispatchService(orders domain.OrderRepository, clients provider.Factory, claimTTL time.Duration, logger *zap.Logger) *DispatchService {
	if claimTTL <= 0 {
		claimTTL = DefaultClaimTTL
	}
	return &DispatchService{
		orders:   orders,
		clients:  clients,
		claimTTL: claimTTL,
		logger:   logger,
	}
}

// DispatchBatch отправляет не больше limit заказов в статусе awaiting.
// Отмена контекста останавливает партию между заказами.
func (s *DispatchService) DispatchBatch(ctx context.Context, limit int) (*DispatchResult, error) {
	if limit <= 0 {
		limit = DefaultDispatchBatchSize
	}

	targets, err := s.orders.GetDispatchable(ctx, limit, s.claimTTL)
	if err != nil {
		return nil, fmt.Errorf("dispatch service: failed to get dispatchable orders: %w", err)
	}

	result := &DispatchResult{TotalConsidered: len(targets)}
	msgs := messages{}

	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			result.Messages = msgs
			return result, err
		}

		outcome, err := s.DispatchOne(ctx, target)
		switch outcome {
		case OutcomeDispatched:
			result.Processed++
		case OutcomeRejected:
			result.Rejected++
			result.Errors++
			msgs.addf("Order %s: rejected: %s", target.Order.OrderID, target.Order.Note)
		case OutcomeSkipped:
			result.Skipped++
		case OutcomeFailed:
			result.Errors++
			msgs.addf("Order %s: %v", target.Order.OrderID, err)
		}
	}
	result.Messages = msgs

	s.logger.Info("dispatch batch finished",
		zap.Int("total", result.TotalConsidered),
		zap.Int("processed", result.Processed),
		zap.Int("rejected", result.Rejected),
		zap.Int("errors", result.Errors),
		zap.Int("skipped", result.Skipped),
	)

	return result, nil
}

// DispatchOne отправляет один заказ. При отклонении текст провайдера
// записывается в target.Order.Note. Ошибка возвращается только с OutcomeFailed.
func (s *DispatchService) DispatchOne(ctx context.Context, target *domain.DispatchTarget) (DispatchOutcome, error) {
	order := target.Order
	log := s.logger.With(zap.String("order", order.OrderID))

	if target.Provider == nil || order.ProviderServiceID == "" {
		log.Warn("order has no provider link, skipping")
		return OutcomeSkipped, nil
	}
	if !target.Provider.Status {
		log.Warn("provider is inactive, skipping", zap.Int64("provider", target.Provider.ID))
		return OutcomeSkipped, nil
	}

	version, err := s.orders.ClaimForDispatch(ctx, order.ID, order.Version, s.claimTTL)
	if err != nil {
		if errors.Is(err, domain.ErrOrderConflict) {
			log.Debug("order claimed by another run, skipping")
			return OutcomeSkipped, nil
		}
		return OutcomeFailed, err
	}
	order.Version = version

	res, err := s.clients.ForProvider(target.Provider).CreateOrder(ctx, order.ProviderServiceID, order.Link, order.Quantity)
	if err != nil {
		// Заказ остаётся в awaiting, следующий запуск повторит его
		log.Warn("provider unavailable, order left for retry", zap.Error(err))
		if relErr := s.orders.ReleaseClaim(context.WithoutCancel(ctx), order.ID, order.Version); relErr != nil {
			log.Error("failed to release dispatch claim", zap.Error(relErr))
		}
		return OutcomeFailed, err
	}

	// Ответ провайдера уже получен, запись результата не прерывается отменой
	writeCtx := context.WithoutCancel(ctx)

	if !res.Accepted() {
		note := res.Rejection
		if note == "" {
			note = "rejected by provider"
		}
		if err := s.orders.MarkRejected(writeCtx, order.ID, order.Version, note); err != nil {
			return OutcomeFailed, fmt.Errorf("dispatch service: failed to mark order %s rejected: %w", order.OrderID, err)
		}
		order.Status = domain.OrderStatusError
		order.Note = note
		order.Version++
		log.Info("order rejected by provider", zap.String("reason", note))
		return OutcomeRejected, nil
	}

	if err := s.orders.MarkDispatched(writeCtx, order.ID, order.Version, res.UpstreamOrderID, InitialStatusAPI); err != nil {
		// Блокировка не снимается и держит заказ до истечения claimTTL
		log.Error("order accepted upstream but not stored",
			zap.String("upstream_order", res.UpstreamOrderID),
			zap.Error(err),
		)
		return OutcomeFailed, fmt.Errorf("dispatch service: failed to store upstream id for order %s: %w", order.OrderID, err)
	}

	statusAPI := InitialStatusAPI
	upstreamID := res.UpstreamOrderID
	order.Status = domain.OrderStatusPending
	order.StatusAPI = &statusAPI
	order.APIOrderID = &upstreamID
	order.Version++
	log.Info("order dispatched", zap.String("upstream_order", upstreamID))

	return OutcomeDispatched, nil
}
