package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/avc/smm-panel/internal/service"
	"github.com/avc/smm-panel/internal/worker"
	"go.uber.org/zap"
)

// CronRunner выполняет запуски планировщика по HTTP-триггеру
type CronRunner interface {
	RunDispatch(ctx context.Context) (*service.DispatchResult, error)
	RunReconcile(ctx context.Context) (*service.ReconcileResult, error)
}

// CronHandler HTTP-триггеры для внешнего планировщика
type CronHandler struct {
	runner CronRunner
	secret string
	logger *zap.Logger
}

// NewCronHandler создает новый CronHandler; пустой secret отключает проверку
func NewCronHandler(runner CronRunner, secret string, logger *zap.Logger) *CronHandler {
	return &CronHandler{runner: runner, secret: secret, logger: logger}
}

type cronResponse struct {
	Success   bool     `json:"success"`
	Processed *int     `json:"processed,omitempty"`
	Updated   *int     `json:"updated,omitempty"`
	Errors    int      `json:"errors"`
	Total     int      `json:"total"`
	Messages  []string `json:"messages,omitempty"`
	Error     string   `json:"error,omitempty"`
}

func (h *CronHandler) authorized(r *http.Request) bool {
	if h.secret == "" {
		return true
	}
	got := r.URL.Query().Get("secret")
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) == 1
}

// ProcessOrders отправляет ожидающие заказы провайдерам
func (h *CronHandler) ProcessOrders(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	result, err := h.runner.RunDispatch(r.Context())
	if err != nil {
		h.runFailed(w, err, "dispatch")
		return
	}

	writeJSON(w, http.StatusOK, cronResponse{
		Success:   true,
		Processed: &result.Processed,
		Errors:    result.Errors,
		Total:     result.TotalConsidered,
		Messages:  service.Visible(result.Messages),
	}, h.logger)
}

// UpdateStatuses сверяет статусы отправленных заказов
func (h *CronHandler) UpdateStatuses(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	result, err := h.runner.RunReconcile(r.Context())
	if err != nil {
		h.runFailed(w, err, "reconcile")
		return
	}

	writeJSON(w, http.StatusOK, cronResponse{
		Success:  true,
		Updated:  &result.Updated,
		Errors:   result.Errors,
		Total:    result.TotalConsidered,
		Messages: service.Visible(result.Messages),
	}, h.logger)
}

func (h *CronHandler) runFailed(w http.ResponseWriter, err error, job string) {
	if errors.Is(err, worker.ErrRunInProgress) {
		writeJSON(w, http.StatusConflict, cronResponse{Error: err.Error()}, h.logger)
		return
	}
	h.logger.Error("cron run failed", zap.String("job", job), zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, cronResponse{Error: "internal server error"}, h.logger)
}
