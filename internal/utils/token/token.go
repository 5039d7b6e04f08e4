// Package token генерирует публичные идентификаторы заказов и коды услуг.
package token

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// ServiceCodePrefix префикс кода локальной услуги
const ServiceCodePrefix = "sf"

func randomBase36(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(base36[rand.IntN(len(base36))])
	}
	return b.String()
}

// OrderID возвращает base36(unix ms) и 6 случайных символов в верхнем регистре
func OrderID(now time.Time) string {
	return strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36) + randomBase36(6))
}

// ServiceCode возвращает код вида sf + 10 случайных base36 символов
func ServiceCode() string {
	return ServiceCodePrefix + randomBase36(10)
}
