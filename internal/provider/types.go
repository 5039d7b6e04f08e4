package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// RemoteService услуга из каталога провайдера.
// Числовые поля хранятся как пришли: провайдеры присылают их то строками, то числами,
// а разбор каждой записи должен падать отдельно, не ломая весь каталог.
type RemoteService struct {
	RemoteServiceID string `json:"service"`
	Name            string `json:"name"`
	UnitType        string `json:"type"`
	Rate            string `json:"rate"`
	Min             string `json:"min"`
	Max             string `json:"max"`
	Category        string `json:"category"`
	RefillSupported bool   `json:"refill"`
	CancelSupported bool   `json:"cancel"`
}

// UnitCostUSD стоимость услуги у провайдера в USD
func (s RemoteService) UnitCostUSD() (decimal.Decimal, error) {
	cost, err := decimal.NewFromString(strings.TrimSpace(s.Rate))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid rate %q: %w", s.Rate, err)
	}
	if cost.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative rate %q", s.Rate)
	}
	return cost, nil
}

// MinQuantity минимальное количество; false, если значение не разобрать
func (s RemoteService) MinQuantity() (int64, bool) {
	return parsePositive(s.Min)
}

// MaxQuantity максимальное количество; false, если значение не разобрать
func (s RemoteService) MaxQuantity() (int64, bool) {
	return parsePositive(s.Max)
}

func parsePositive(raw string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Balance баланс аккаунта у провайдера
type Balance struct {
	Amount   decimal.Decimal
	Currency string
}

// AddResult результат создания заказа: ровно одно из полей заполнено
type AddResult struct {
	UpstreamOrderID string
	Rejection       string
}

// Accepted сообщает, что провайдер принял заказ
func (r AddResult) Accepted() bool {
	return r.UpstreamOrderID != ""
}

// OrderStatus статус заказа у провайдера
type OrderStatus struct {
	StatusText string
	StartCount int64
	Remains    int64
	Charge     string
	Currency   string
}

// ParseCount разбирает счётчик из ответа провайдера; всё нечисловое даёт 0
func ParseCount(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	// Некоторые панели присылают "157.0"
	if d, err := decimal.NewFromString(raw); err == nil {
		return d.IntPart()
	}
	return 0
}

// flexString принимает строку, число, bool или null
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	// Число или bool оставляем в исходном виде
	*f = flexString(data)
	return nil
}

func (f flexString) String() string {
	return string(f)
}

// flexBool принимает true/false, 1/0 и их строковые формы
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(s.String())) {
	case "true", "1", "yes":
		*b = true
	default:
		*b = false
	}
	return nil
}

type errorPayload struct {
	Error flexString `json:"error"`
}

type addPayload struct {
	Order flexString `json:"order"`
	Error flexString `json:"error"`
}

type balancePayload struct {
	Balance  flexString `json:"balance"`
	Currency flexString `json:"currency"`
}

type statusPayload struct {
	Charge     flexString `json:"charge"`
	StartCount flexString `json:"start_count"`
	Status     flexString `json:"status"`
	Remains    flexString `json:"remains"`
	Currency   flexString `json:"currency"`
	Error      flexString `json:"error"`
}

func (p statusPayload) toStatus() OrderStatus {
	return OrderStatus{
		StatusText: strings.TrimSpace(p.Status.String()),
		StartCount: ParseCount(p.StartCount.String()),
		Remains:    ParseCount(p.Remains.String()),
		Charge:     p.Charge.String(),
		Currency:   p.Currency.String(),
	}
}
