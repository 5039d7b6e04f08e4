package domain

import "errors"

// Ошибки пользователей
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSellerInactive     = errors.New("seller is inactive")
)

// Ошибки провайдеров
var (
	ErrProviderNotFound = errors.New("provider not found")
	ErrProviderInactive = errors.New("provider is inactive")
	ErrProviderInUse    = errors.New("provider is referenced by services")
)

// Ошибки каталога
var (
	ErrServiceNotFound = errors.New("service not found")
	ErrServiceInactive = errors.New("service is inactive")
	ErrInvalidQuantity = errors.New("quantity out of range")
)

// Ошибки заказов
var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderConflict возвращается, когда строка заказа изменилась после чтения
	ErrOrderConflict = errors.New("order was modified concurrently")
	ErrInvalidInput  = errors.New("invalid input")
)

// ErrUpstreamUnavailable транзиентная недоступность провайдера: сеть, таймаут, не-JSON ответ
var ErrUpstreamUnavailable = errors.New("upstream unavailable")
