package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/avc/smm-panel/internal/domain"
	"github.com/avc/smm-panel/internal/provider"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// maxBodySize ограничение размера тела запроса
const maxBodySize = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// В сообщениях об ошибках используем имена полей из json
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// decodeJSON читает тело запроса в dst и проверяет его теги validate
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON", domain.ErrInvalidInput)
	}
	return validate.Struct(dst)
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && logger != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message}, nil)
}

// errorStatus сопоставляет ошибку домена HTTP-коду
func errorStatus(err error) int {
	var verr validator.ValidationErrors
	switch {
	case errors.As(err, &verr),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrSellerInactive):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrProviderNotFound),
		errors.Is(err, domain.ErrServiceNotFound),
		errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUserExists),
		errors.Is(err, domain.ErrProviderInUse),
		errors.Is(err, domain.ErrOrderConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrServiceInactive),
		errors.Is(err, domain.ErrProviderInactive),
		errors.Is(err, provider.ErrUpstreamRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondError пишет ответ по ошибке; внутренние ошибки логируются и не раскрываются
func respondError(w http.ResponseWriter, r *http.Request, err error, logger *zap.Logger, msg string) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		requestID, _ := r.Context().Value(RequestIDKey).(string)
		logger.Error(msg, zap.String("request_id", requestID), zap.Error(err))
		writeError(w, status, "internal server error")
		return
	}

	resp := errorResponse{Error: err.Error()}
	var verr validator.ValidationErrors
	if errors.As(err, &verr) {
		resp.Error = "validation failed"
		for _, fe := range verr {
			resp.Details = append(resp.Details, fmt.Sprintf("%s: failed on %s", fe.Field(), fe.Tag()))
		}
	}
	writeJSON(w, status, resp, logger)
}
