package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/avc/smm-panel/internal/domain"
	"github.com/avc/smm-panel/internal/exchange"
	"github.com/avc/smm-panel/internal/provider"
	"github.com/avc/smm-panel/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProviderService администрирование провайдеров
type ProviderService interface {
	Create(ctx context.Context, req service.ProviderRequest) (*domain.Provider, error)
	List(ctx context.Context) ([]*domain.Provider, error)
	Get(ctx context.Context, id int64) (*domain.Provider, error)
	Update(ctx context.Context, id int64, req service.ProviderRequest) (*domain.Provider, error)
	Delete(ctx context.Context, id int64) error
	RefreshBalance(ctx context.Context, id int64) (*domain.Provider, error)
	RemoteServices(ctx context.Context, id int64) ([]provider.RemoteService, error)
}

// CatalogService синхронизирует каталог провайдера и правит цены услуг
type CatalogService interface {
	Sync(ctx context.Context, providerID int64) (*service.SyncResult, error)
	UpdateSalePrice(ctx context.Context, serviceID, salePrice int64) (*domain.Service, error)
}

// ReportService отчёты для администратора
type ReportService interface {
	SellerProfits(ctx context.Context) (*service.SellerProfitsReport, error)
}

// AdminHandler эндпоинты администратора
type AdminHandler struct {
	providers ProviderService
	catalog   CatalogService
	reports   ReportService
	rates     exchange.RateProvider
	logger    *zap.Logger
}

// NewAdminHandler создает новый AdminHandler
func NewAdminHandler(
	providers ProviderService,
	catalog CatalogService,
	reports ReportService,
	rates exchange.RateProvider,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		providers: providers,
		catalog:   catalog,
		reports:   reports,
		rates:     rates,
		logger:    logger,
	}
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidInput
	}
	return id, nil
}

func (h *AdminHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := h.providers.List(r.Context())
	if err != nil {
		respondError(w, r, err, h.logger, "failed to list providers")
		return
	}
	writeJSON(w, http.StatusOK, providers, h.logger)
}

func (h *AdminHandler) CreateProvider(w http.ResponseWriter, r *http.Request) {
	var req service.ProviderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, h.logger, "failed to decode provider request")
		return
	}

	p, err := h.providers.Create(r.Context(), req)
	if err != nil {
		respondError(w, r, err, h.logger, "failed to create provider")
		return
	}
	writeJSON(w, http.StatusCreated, p, h.logger)
}

func (h *AdminHandler) GetProvider(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err, h.logger, "invalid provider id")
		return
	}

	p, err := h.providers.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err, h.logger, "failed to get provider")
		return
	}
	writeJSON(w, http.StatusOK, p, h.logger)
}

func (h *AdminHandler) UpdateProvider(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err, h.logger, "invalid provider id")
		return
	}

	var req service.ProviderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, h.logger, "failed to decode provider request")
		return
	}

	p, err := h.providers.Update(r.Context(), id, req)
	if err != nil {
		respondError(w, r, err, h.logger, "failed to update provider")
		return
	}
	writeJSON(w, http.StatusOK, p, h.logger)
}

func (h *AdminHandler) DeleteProvider(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err, h.logger, "invalid provider id")
		return
	}

	if err := h.providers.Delete(r.Context(), id); err != nil {
		respondError(w, r, err, h.logger, "failed to delete provider")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SyncProvider синхронизирует каталог провайдера с локальными услугами
func (h *AdminHandler) SyncProvider(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err, h.logger, "invalid provider id")
		return
	}

	result, err := h.catalog.Sync(r.Context(), id)
	if err != nil {
		respondError(w, r, err, h.logger, "failed to sync provider catalog")
		return
	}
	writeJSON(w, http.StatusOK, result, h.logger)
}

type servicePriceRequest struct {
	SalePrice int64 `json:"sale_price" validate:"required,gt=0"`
}

// UpdateServicePrice задаёт цену продажи услуги, следующая синхронизация её сохранит
func (h *AdminHandler) UpdateServicePrice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err, h.logger, "invalid service id")
		return
	}

	var req servicePriceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, h.logger, "failed to decode price request")
		return
	}

	svc, err := h.catalog.UpdateSalePrice(r.Context(), id, req.SalePrice)
	if err != nil {
		respondError(w, r, err, h.logger, "failed to update service price")
		return
	}
	writeJSON(w, http.StatusOK, svc, h.logger)
}

func (h *AdminHandler) RefreshBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err, h.logger, "invalid provider id")
		return
	}

	p, err := h.providers.RefreshBalance(r.Context(), id)
	if err != nil {
		respondError(w, r, err, h.logger, "failed to refresh provider balance")
		return
	}
	writeJSON(w, http.StatusOK, p, h.logger)
}

// RemoteServices отдаёт каталог провайдера как есть, без сохранения
func (h *AdminHandler) RemoteServices(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err, h.logger, "invalid provider id")
		return
	}

	services, err := h.providers.RemoteServices(r.Context(), id)
	if err != nil {
		respondError(w, r, err, h.logger, "failed to list remote services")
		return
	}
	writeJSON(w, http.StatusOK, services, h.logger)
}

func (h *AdminHandler) SellerProfits(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.SellerProfits(r.Context())
	if err != nil {
		respondError(w, r, err, h.logger, "failed to build seller profits report")
		return
	}
	writeJSON(w, http.StatusOK, report, h.logger)
}

type exchangeRateResponse struct {
	Rate float64 `json:"rate"`
}

func (h *AdminHandler) ExchangeRate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, exchangeRateResponse{Rate: h.rates.Rate(r.Context())}, h.logger)
}
