package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avc/smm-panel/internal/domain"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// DefaultTimeout таймаут одного запроса к провайдеру
const DefaultTimeout = 20 * time.Second

// maxBulkIDs сколько заказов запрашивать в одном action=status
const maxBulkIDs = 100

// Client единый интерфейс к API провайдера
type Client interface {
	ListServices(ctx context.Context) ([]RemoteService, error)
	Balance(ctx context.Context) (*Balance, error)
	CreateOrder(ctx context.Context, remoteServiceID, link string, quantity int64) (AddResult, error)
	OrderStatus(ctx context.Context, upstreamOrderID string) (*OrderStatus, error)
	// BulkOrderStatus возвращает статусы только тех заказов, которые провайдер вернул
	BulkOrderStatus(ctx context.Context, upstreamOrderIDs []string) (map[string]OrderStatus, error)
}

// Factory создает клиента для записи провайдера
type Factory interface {
	ForProvider(p *domain.Provider) Client
}

// ClientFactory выбирает диалект по типу провайдера и делит один HTTP клиент
type ClientFactory struct {
	http *resty.Client
}

// NewClientFactory создает новый ClientFactory
func NewClientFactory(timeout time.Duration) *ClientFactory {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ClientFactory{
		http: resty.New().
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
	}
}

// ForProvider реализует Factory
func (f *ClientFactory) ForProvider(p *domain.Provider) Client {
	return NewSMMClient(f.http, p.URL, p.APIKey, dialectFor(p.Type))
}

// SMMClient реализует Client поверх протокола SMM panel API v2
type SMMClient struct {
	http    *resty.Client
	baseURL string
	apiKey  string
	dialect Dialect
}

// NewSMMClient создает новый SMMClient
func NewSMMClient(httpClient *resty.Client, baseURL, apiKey string, d Dialect) *SMMClient {
	return &SMMClient{
		http:    httpClient,
		baseURL: baseURL,
		apiKey:  apiKey,
		dialect: d,
	}
}

// ListServices получает каталог услуг провайдера
func (c *SMMClient) ListServices(ctx context.Context) ([]RemoteService, error) {
	body, err := c.call(ctx, "services", nil)
	if err != nil {
		return nil, err
	}

	services, err := c.dialect.decodeServices(body)
	if err != nil {
		return nil, NewUnavailableError("services", fmt.Errorf("failed to decode response: %w", err))
	}

	return services, nil
}

// Balance получает баланс аккаунта
func (c *SMMClient) Balance(ctx context.Context) (*Balance, error) {
	body, err := c.call(ctx, "balance", nil)
	if err != nil {
		return nil, err
	}

	var payload balancePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, NewUnavailableError("balance", fmt.Errorf("failed to decode response: %w", err))
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(payload.Balance.String()))
	if err != nil {
		return nil, NewUnavailableError("balance", fmt.Errorf("invalid balance %q: %w", payload.Balance, err))
	}

	currency := payload.Currency.String()
	if currency == "" {
		currency = "USD"
	}

	return &Balance{Amount: amount, Currency: currency}, nil
}

// CreateOrder отправляет заказ провайдеру.
// Отказ провайдера возвращается в AddResult.Rejection, а не ошибкой.
func (c *SMMClient) CreateOrder(ctx context.Context, remoteServiceID, link string, quantity int64) (AddResult, error) {
	body, err := c.call(ctx, "add", map[string]string{
		"service":  remoteServiceID,
		"link":     link,
		"quantity": fmt.Sprintf("%d", quantity),
	})
	if err != nil {
		var rejected *RejectedError
		if errors.As(err, &rejected) {
			return AddResult{Rejection: rejected.Message}, nil
		}
		return AddResult{}, err
	}

	var payload addPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return AddResult{}, NewUnavailableError("add", fmt.Errorf("failed to decode response: %w", err))
	}

	orderID := strings.TrimSpace(payload.Order.String())
	if orderID == "" || orderID == "0" {
		return AddResult{}, NewUnavailableError("add", errors.New("response has neither order nor error"))
	}

	return AddResult{UpstreamOrderID: orderID}, nil
}

// OrderStatus получает статус одного заказа
func (c *SMMClient) OrderStatus(ctx context.Context, upstreamOrderID string) (*OrderStatus, error) {
	body, err := c.call(ctx, "status", map[string]string{"order": upstreamOrderID})
	if err != nil {
		return nil, err
	}

	var payload statusPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, NewUnavailableError("status", fmt.Errorf("failed to decode response: %w", err))
	}

	status := payload.toStatus()
	return &status, nil
}

// BulkOrderStatus получает статусы пачки заказов. Неизвестные провайдеру id
// могут отсутствовать в ответе или прийти с полем error; такие id пропускаются.
func (c *SMMClient) BulkOrderStatus(ctx context.Context, upstreamOrderIDs []string) (map[string]OrderStatus, error) {
	result := make(map[string]OrderStatus, len(upstreamOrderIDs))

	for start := 0; start < len(upstreamOrderIDs); start += maxBulkIDs {
		end := start + maxBulkIDs
		if end > len(upstreamOrderIDs) {
			end = len(upstreamOrderIDs)
		}

		body, err := c.call(ctx, "status", map[string]string{
			"orders": strings.Join(upstreamOrderIDs[start:end], ","),
		})
		if err != nil {
			return nil, err
		}

		var payload map[string]json.RawMessage
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, NewUnavailableError("status", fmt.Errorf("failed to decode response: %w", err))
		}

		for id, raw := range payload {
			var st statusPayload
			if err := json.Unmarshal(raw, &st); err != nil || st.Error != "" || st.Status == "" {
				continue
			}
			result[id] = st.toStatus()
		}
	}

	return result, nil
}

// call выполняет POST с form-данными и возвращает тело JSON ответа
func (c *SMMClient) call(ctx context.Context, action string, params map[string]string) ([]byte, error) {
	form := map[string]string{
		"key":    c.apiKey,
		"action": action,
	}
	for k, v := range params {
		form[k] = v
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		Post(c.baseURL)
	if err != nil {
		return nil, NewUnavailableError(action, fmt.Errorf("failed to execute request: %w", err))
	}

	body := resp.Body()
	if !json.Valid(body) {
		return nil, NewUnavailableError(action, fmt.Errorf("non-JSON response, status code %d", resp.StatusCode()))
	}

	if resp.StatusCode() >= http.StatusInternalServerError {
		return nil, NewUnavailableError(action, fmt.Errorf("unexpected status code: %d", resp.StatusCode()))
	}

	var errResp errorPayload
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		return nil, &RejectedError{Action: action, Message: errResp.Error.String()}
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, NewUnavailableError(action, fmt.Errorf("unexpected status code: %d", resp.StatusCode()))
	}

	return body, nil
}
