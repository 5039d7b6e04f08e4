package service

import (
	"fmt"

	"github.com/avc/smm-panel/internal/domain"
)

// Ошибки ввода; все оборачивают domain.ErrInvalidInput
var (
	ErrEmptyLink       = fmt.Errorf("%w: link is required", domain.ErrInvalidInput)
	ErrInvalidPage     = fmt.Errorf("%w: invalid pagination", domain.ErrInvalidInput)
	ErrUnknownProvider = fmt.Errorf("%w: unknown provider type", domain.ErrInvalidInput)
	ErrInvalidPrice    = fmt.Errorf("%w: sale price must be positive", domain.ErrInvalidInput)
)

// MaxReportedMessages сколько сообщений об ошибках отдаётся в ответе запуска
const MaxReportedMessages = 10

// messages копит сообщения об ошибках партии
type messages []string

func (m *messages) addf(format string, args ...any) {
	*m = append(*m, fmt.Sprintf(format, args...))
}

// Visible возвращает сообщения, только если их немного
func Visible(msgs []string) []string {
	if len(msgs) == 0 || len(msgs) > MaxReportedMessages {
		return nil
	}
	return msgs
}
