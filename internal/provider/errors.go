package provider

import (
	"errors"
	"fmt"

	"github.com/avc/smm-panel/internal/domain"
)

// ErrUpstreamRejected провайдер явно отклонил запрос (поле error в ответе)
var ErrUpstreamRejected = errors.New("upstream rejected request")

// UnavailableError транзиентная ошибка: сеть, таймаут, 5xx или не-JSON ответ.
// Состояние заказов при такой ошибке не меняется, следующий запуск повторит запрос.
type UnavailableError struct {
	Action string
	Err    error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("provider %s: upstream unavailable: %v", e.Action, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Is позволяет проверять ошибку через errors.Is(err, domain.ErrUpstreamUnavailable)
func (e *UnavailableError) Is(target error) bool {
	return target == domain.ErrUpstreamUnavailable
}

// NewUnavailableError создает новую ошибку недоступности провайдера
func NewUnavailableError(action string, err error) *UnavailableError {
	return &UnavailableError{Action: action, Err: err}
}

// RejectedError ответ провайдера с полем error на запросах, кроме add
type RejectedError struct {
	Action  string
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("provider %s: %s", e.Action, e.Message)
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrUpstreamRejected
}
