package dto

import "github.com/plastinin/geo2topo/internal/domain"

// FormatResponse описание формата
type FormatResponse struct {
	Format string `json:"format"`
	Name   string `json:"name"`
}

// FormatFromDomain конвертирует формат в DTO
func FormatFromDomain(f domain.Format) *FormatResponse {
	return &FormatResponse{
		Format: f.String(),
		Name:   f.Name(),
	}
}

// FormatListResponse список поддерживаемых форматов
type FormatListResponse struct {
	Formats []*FormatResponse `json:"formats"`
}
