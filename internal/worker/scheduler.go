package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/avc/smm-panel/internal/lock"
	"github.com/avc/smm-panel/internal/service"
	"go.uber.org/zap"
)

const (
	dispatchLockKey  = "dispatch"
	reconcileLockKey = "reconcile"
)

// ErrRunInProgress возвращается, если такой же запуск уже идёт
var ErrRunInProgress = errors.New("run already in progress")

// Dispatcher отправляет партию ожидающих заказов
type Dispatcher interface {
	DispatchBatch(ctx context.Context, limit int) (*service.DispatchResult, error)
}

// Reconciler сверяет партию отправленных заказов
type Reconciler interface {
	ReconcileBatch(ctx context.Context, limit int) (*service.ReconcileResult, error)
}

// Config настройки планировщика
type Config struct {
	DispatchInterval   time.Duration
	ReconcileInterval  time.Duration
	DispatchBatchSize  int
	ReconcileBatchSize int
	LockTTL            time.Duration // Должен превышать время самого долгого запуска
}

func (c *Config) setDefaults() {
	if c.DispatchInterval <= 0 {
		c.DispatchInterval = time.Minute
	}
	if c.ReconcileInterval <= 0 {
		c.ReconcileInterval = 5 * time.Minute
	}
	if c.DispatchBatchSize <= 0 {
		c.DispatchBatchSize = service.DefaultDispatchBatchSize
	}
	if c.ReconcileBatchSize <= 0 {
		c.ReconcileBatchSize = service.DefaultReconcileBatchSize
	}
	if c.LockTTL <= 0 {
		c.LockTTL = 5 * time.Minute
	}
}

// Scheduler периодически запускает отправку и сверку заказов.
// Каждый запуск берёт блокировку, поэтому пересекающиеся запуски,
// в том числе с других экземпляров и от HTTP-триггеров, пропускаются.
type Scheduler struct {
	cfg        Config
	dispatcher Dispatcher
	reconciler Reconciler
	locker     lock.Locker
	logger     *zap.Logger
	wg         sync.WaitGroup
}

// NewScheduler создает новый планировщик
func NewScheduler(cfg Config, dispatcher Dispatcher, reconciler Reconciler, locker lock.Locker, logger *zap.Logger) *Scheduler {
	cfg.setDefaults()
	return &Scheduler{
		cfg:        cfg,
		dispatcher: dispatcher,
		reconciler: reconciler,
		locker:     locker,
		logger:     logger,
	}
}

// Start запускает тикеры отправки и сверки
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(2)
	go s.loop(ctx, dispatchLockKey, s.cfg.DispatchInterval, func(ctx context.Context) error {
		_, err := s.RunDispatch(ctx)
		return err
	})
	go s.loop(ctx, reconcileLockKey, s.cfg.ReconcileInterval, func(ctx context.Context) error {
		_, err := s.RunReconcile(ctx)
		return err
	})
}

// Stop ждёт завершения текущих запусков; контекст Start должен быть отменён
func (s *Scheduler) Stop() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, name string, interval time.Duration, run func(context.Context) error) {
	defer s.wg.Done()

	s.logger.Info("scheduler job started", zap.String("job", name), zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler job stopping", zap.String("job", name))
			return
		case <-ticker.C:
			if err := run(ctx); err != nil {
				if errors.Is(err, ErrRunInProgress) {
					s.logger.Debug("previous run still in progress, skipping", zap.String("job", name))
					continue
				}
				if ctx.Err() != nil {
					return
				}
				s.logger.Error("scheduler run failed", zap.String("job", name), zap.Error(err))
			}
		}
	}
}

// RunDispatch выполняет один запуск отправки под блокировкой
func (s *Scheduler) RunDispatch(ctx context.Context) (*service.DispatchResult, error) {
	var result *service.DispatchResult
	err := s.guarded(ctx, dispatchLockKey, func(ctx context.Context) error {
		var err error
		result, err = s.dispatcher.DispatchBatch(ctx, s.cfg.DispatchBatchSize)
		return err
	})
	return result, err
}

// RunReconcile выполняет один запуск сверки под блокировкой
func (s *Scheduler) RunReconcile(ctx context.Context) (*service.ReconcileResult, error) {
	var result *service.ReconcileResult
	err := s.guarded(ctx, reconcileLockKey, func(ctx context.Context) error {
		var err error
		result, err = s.reconciler.ReconcileBatch(ctx, s.cfg.ReconcileBatchSize)
		return err
	})
	return result, err
}

func (s *Scheduler) guarded(ctx context.Context, key string, run func(context.Context) error) error {
	lease, ok, err := s.locker.Acquire(ctx, key, s.cfg.LockTTL)
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	if !ok {
		return ErrRunInProgress
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to release run lock", zap.String("job", key), zap.Error(err))
		}
	}()

	return run(ctx)
}
