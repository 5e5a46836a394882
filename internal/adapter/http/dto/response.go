package dto

import "github.com/plastinin/geo2topo/internal/domain"

// ErrorResponse ответ с ошибкой
type ErrorResponse struct {
	Error     string   `json:"error"`
	Message   string   `json:"message,omitempty"`
	Supported []string `json:"supported_formats,omitempty"`
}

// NewErrorResponse создаёт ответ с ошибкой
func NewErrorResponse(err string, message string) *ErrorResponse {
	return &ErrorResponse{
		Error:   err,
		Message: message,
	}
}

// NewFormatErrorResponse создаёт ответ с ошибкой формата и перечнем поддерживаемых форматов
func NewFormatErrorResponse(err string, message string) *ErrorResponse {
	resp := NewErrorResponse(err, message)
	for _, f := range domain.Formats() {
		resp.Supported = append(resp.Supported, f.String())
	}
	return resp
}
