package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/plastinin/geo2topo/internal/adapter/http/dto"
	"github.com/plastinin/geo2topo/internal/domain"
	"github.com/plastinin/geo2topo/internal/usecase"
	"go.uber.org/zap"
)

// ObjectConverter синхронная конвертация GeoJSON значения в топологию
type ObjectConverter interface {
	ConvertObject(ctx context.Context, geoData any) (*domain.Topology, error)
}

// TopologyHandler синхронная конвертация и справка по форматам
type TopologyHandler struct {
	converter   ObjectConverter
	maxBodySize int64
	logger      *zap.Logger
}

// NewTopologyHandler создаёт новый TopologyHandler
func NewTopologyHandler(converter ObjectConverter, maxBodySize int64, logger *zap.Logger) *TopologyHandler {
	return &TopologyHandler{
		converter:   converter,
		maxBodySize: maxBodySize,
		logger:      logger,
	}
}

// Convert строит TopoJSON из GeoJSON в теле запроса.
// Результат кладётся в слой "geo".
// POST /api/v1/topology
func (h *TopologyHandler) Convert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, h.logger, http.StatusRequestEntityTooLarge, "body_too_large", "Request body exceeds size limit")
			return
		}
		respondError(w, h.logger, http.StatusBadRequest, "invalid_request", "Failed to read request body")
		return
	}

	topo, err := h.converter.ConvertObject(r.Context(), json.RawMessage(body))
	if err != nil {
		if respondDomainError(w, h.logger, err) {
			h.logger.Debug("GeoJSON rejected", zap.Error(err))
			return
		}
		h.logger.Error("Failed to convert GeoJSON", zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to build topology")
		return
	}

	w.Header().Set("Content-Type", domain.TopoJSONContentType)
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(topo); err != nil {
		h.logger.Error("Failed to encode topology", zap.Error(err))
	}
}

// Formats возвращает список поддерживаемых форматов
// GET /api/v1/formats
func (h *TopologyHandler) Formats(w http.ResponseWriter, r *http.Request) {
	resp := dto.FormatListResponse{}
	for _, f := range domain.Formats() {
		resp.Formats = append(resp.Formats, dto.FormatFromDomain(f))
	}
	respondJSON(w, h.logger, http.StatusOK, resp)
}

// Detect определяет формат по имени файла или проверяет явно указанный
// GET /api/v1/formats/detect?filename=roads.kml
// GET /api/v1/formats/detect?format=shapefile
func (h *TopologyHandler) Detect(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	fileName, format := query.Get("filename"), query.Get("format")
	if fileName == "" && format == "" {
		respondError(w, h.logger, http.StatusBadRequest, "filename_required", "Query parameter filename or format is required")
		return
	}

	f, err := usecase.ResolveFormat(fileName, format)
	if err != nil {
		if !respondDomainError(w, h.logger, err) {
			respondError(w, h.logger, http.StatusBadRequest, "unrecognized_format", err.Error())
		}
		return
	}

	respondJSON(w, h.logger, http.StatusOK, dto.FormatFromDomain(f))
}
