package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/avc/smm-panel/internal/domain"
	"github.com/avc/smm-panel/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// OrderService определяет методы работы с заказами.
type OrderService interface {
	CreatePublicOrder(ctx context.Context, req service.CreateOrderRequest) (*domain.Order, error)
	CreateSellerOrder(ctx context.Context, sellerID int64, req service.CreateOrderRequest) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	ListSellerOrders(ctx context.Context, sellerID int64, page, limit int) (*service.SellerOrderPage, error)
}

// publicOrderResponse заказ для покупателя без денежных снимков и данных продавца
type publicOrderResponse struct {
	OrderID     string             `json:"order_id"`
	ServiceName string             `json:"service_name"`
	Link        string             `json:"link"`
	Quantity    int64              `json:"quantity"`
	SalePrice   int64              `json:"sale_price"`
	Status      domain.OrderStatus `json:"status"`
	StatusAPI   *string            `json:"status_api,omitempty"`
	StartCount  int64              `json:"start_count"`
	Remains     int64              `json:"remains"`
	Note        string             `json:"note,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func newPublicOrderResponse(o *domain.Order) publicOrderResponse {
	return publicOrderResponse{
		OrderID:     o.OrderID,
		ServiceName: o.ServiceName,
		Link:        o.Link,
		Quantity:    o.Quantity,
		SalePrice:   o.SalePrice,
		Status:      o.Status,
		StatusAPI:   o.StatusAPI,
		StartCount:  o.StartCount,
		Remains:     o.Remains,
		Note:        o.Note,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

type OrdersHandler struct {
	orderService OrderService
	logger       *zap.Logger
}

func NewOrdersHandler(orderService OrderService, logger *zap.Logger) *OrdersHandler {
	return &OrdersHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// CreatePublicOrder принимает заказ покупателя с сайта
func (h *OrdersHandler) CreatePublicOrder(w http.ResponseWriter, r *http.Request) {
	var req service.CreateOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, h.logger, "failed to decode order request")
		return
	}

	order, err := h.orderService.CreatePublicOrder(r.Context(), req)
	if err != nil {
		respondError(w, r, err, h.logger, "failed to create public order")
		return
	}

	writeJSON(w, http.StatusCreated, newPublicOrderResponse(order), h.logger)
}

// GetPublicOrder отдаёт заказ по публичному идентификатору
func (h *OrdersHandler) GetPublicOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderService.GetOrder(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		respondError(w, r, err, h.logger, "failed to get order")
		return
	}

	writeJSON(w, http.StatusOK, newPublicOrderResponse(order), h.logger)
}

// CreateSellerOrder принимает заказ продавца
func (h *OrdersHandler) CreateSellerOrder(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req service.CreateOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, h.logger, "failed to decode order request")
		return
	}

	order, err := h.orderService.CreateSellerOrder(r.Context(), sellerID, req)
	if err != nil {
		respondError(w, r, err, h.logger, "failed to create seller order")
		return
	}

	writeJSON(w, http.StatusCreated, order, h.logger)
}

// ListSellerOrders отдаёт страницу заказов продавца с итогами
func (h *OrdersHandler) ListSellerOrders(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	page, err := queryInt(r, "page")
	if err != nil {
		respondError(w, r, service.ErrInvalidPage, h.logger, "invalid page")
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		respondError(w, r, service.ErrInvalidPage, h.logger, "invalid limit")
		return
	}

	result, err := h.orderService.ListSellerOrders(r.Context(), sellerID, page, limit)
	if err != nil {
		respondError(w, r, err, h.logger, "failed to list seller orders")
		return
	}

	writeJSON(w, http.StatusOK, result, h.logger)
}

// queryInt разбирает необязательный числовой параметр; отсутствующий даёт 0
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
