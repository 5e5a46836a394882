package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/plastinin/geo2topo/internal/adapter/http/dto"
	"github.com/plastinin/geo2topo/internal/domain"
	"go.uber.org/zap"
)

// respondJSON отправляет JSON ответ
func respondJSON(w http.ResponseWriter, logger *zap.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

// respondError отправляет ответ с ошибкой
func respondError(w http.ResponseWriter, logger *zap.Logger, status int, errCode string, message string) {
	respondJSON(w, logger, status, dto.NewErrorResponse(errCode, message))
}

// domainErrors соответствие доменных ошибок HTTP ответам
var domainErrors = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrTaskNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrTaskNotCompleted, http.StatusConflict, "task_not_completed"},
	{domain.ErrUnsupportedContainer, http.StatusBadRequest, "unsupported_container"},
	{domain.ErrUnrecognizedFormat, http.StatusBadRequest, "unrecognized_format"},
	{domain.ErrMissingSidecar, http.StatusBadRequest, "missing_sidecar"},
	{domain.ErrInvalidSidecar, http.StatusBadRequest, "invalid_sidecar"},
	{domain.ErrSerialization, http.StatusBadRequest, "invalid_geojson"},
	{domain.ErrEmptyFileName, http.StatusBadRequest, "file_required"},
}

// respondDomainError отвечает по доменной ошибке, возвращает false для прочих ошибок
func respondDomainError(w http.ResponseWriter, logger *zap.Logger, err error) bool {
	for _, m := range domainErrors {
		if !errors.Is(err, m.err) {
			continue
		}
		if m.err == domain.ErrUnrecognizedFormat || m.err == domain.ErrUnsupportedContainer {
			respondJSON(w, logger, m.status, dto.NewFormatErrorResponse(m.code, m.err.Error()))
			return true
		}
		respondError(w, logger, m.status, m.code, m.err.Error())
		return true
	}
	return false
}
