package handler

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/plastinin/geo2topo/internal/adapter/http/dto"
	"github.com/plastinin/geo2topo/internal/domain"
	"github.com/plastinin/geo2topo/internal/usecase"
	"go.uber.org/zap"
)

// memoryLimit сколько байт формы держать в памяти, остальное уходит во временные файлы
const memoryLimit = 32 << 20

// TaskService операции над задачами конвертации
type TaskService interface {
	Create(ctx context.Context, input usecase.CreateTaskInput) (*domain.Task, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	List(ctx context.Context, filter domain.TaskFilter, pagination domain.Pagination) (*domain.TaskListResult, error)
	ResultURL(ctx context.Context, id uuid.UUID) (string, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// TaskHandler обработчик HTTP запросов для задач
type TaskHandler struct {
	tasks         TaskService
	maxUploadSize int64
	logger        *zap.Logger
}

// NewTaskHandler создаёт новый TaskHandler
func NewTaskHandler(tasks TaskService, maxUploadSize int64, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		tasks:         tasks,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

// Create создаёт новую задачу
// POST /api/v1/tasks
// Content-Type: multipart/form-data
// - file: исходный файл (TopoJSON, GeoJSON, KML, Shapefile .shp)
// - sidecar: сопутствующие файлы Shapefile (.dbf обязателен), можно несколько
// - format: явный формат, если расширение файла не подходит
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	if err := r.ParseMultipartForm(memoryLimit); err != nil {
		h.logger.Warn("Failed to parse multipart form", zap.Error(err))

		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, h.logger, http.StatusRequestEntityTooLarge, "file_too_large", "Upload exceeds size limit")
			return
		}
		respondError(w, h.logger, http.StatusBadRequest, "invalid_request", "Failed to parse form data")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.logger.Warn("Failed to get file from form", zap.Error(err))
		respondError(w, h.logger, http.StatusBadRequest, "file_required", "File is required")
		return
	}
	defer file.Close()

	sidecars, err := openSidecars(r.MultipartForm.File["sidecar"])
	if err != nil {
		h.logger.Warn("Failed to open sidecar file", zap.Error(err))
		respondError(w, h.logger, http.StatusBadRequest, "invalid_request", "Failed to read sidecar file")
		return
	}
	defer closeSidecars(sidecars)

	input := usecase.CreateTaskInput{
		FileName:   header.Filename,
		Format:     r.FormValue("format"),
		FileSize:   header.Size,
		FileReader: file,
		Sidecars:   sidecars,
	}

	task, err := h.tasks.Create(r.Context(), input)
	if err != nil {
		if respondDomainError(w, h.logger, err) {
			h.logger.Warn("Task rejected", zap.String("file_name", header.Filename), zap.Error(err))
			return
		}
		h.logger.Error("Failed to create task", zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to create task")
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, dto.TaskFromDomain(task))
}

// GetByID возвращает задачу по ID
// GET /api/v1/tasks/{id}
func (h *TaskHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	task, err := h.tasks.GetByID(r.Context(), id)
	if err != nil {
		if respondDomainError(w, h.logger, err) {
			return
		}
		h.logger.Error("Failed to get task", zap.String("task_id", id.String()), zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to get task")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, dto.TaskFromDomain(task))
}

// List возвращает список задач
// GET /api/v1/tasks?page=1&page_size=20&status=pending&format=kml
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, _ := strconv.Atoi(query.Get("page"))
	pageSize, _ := strconv.Atoi(query.Get("page_size"))
	pagination := domain.NewPagination(page, pageSize)

	filter := domain.TaskFilter{}
	if statusStr := query.Get("status"); statusStr != "" {
		status := domain.TaskStatus(statusStr)
		if status.IsValid() {
			filter.Status = &status
		}
	}
	if formatStr := query.Get("format"); formatStr != "" {
		format, err := domain.ParseFormat(formatStr)
		if err != nil {
			respondError(w, h.logger, http.StatusBadRequest, "unrecognized_format", err.Error())
			return
		}
		filter.Format = &format
	}

	result, err := h.tasks.List(r.Context(), filter, pagination)
	if err != nil {
		h.logger.Error("Failed to list tasks", zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to list tasks")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, dto.TaskListFromDomain(result))
}

// Result перенаправляет на TopoJSON результат задачи
// GET /api/v1/tasks/{id}/result
func (h *TaskHandler) Result(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	url, err := h.tasks.ResultURL(r.Context(), id)
	if err != nil {
		if respondDomainError(w, h.logger, err) {
			return
		}
		h.logger.Error("Failed to get result url", zap.String("task_id", id.String()), zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to get result")
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

// Delete удаляет задачу
// DELETE /api/v1/tasks/{id}
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	if err := h.tasks.Delete(r.Context(), id); err != nil {
		if respondDomainError(w, h.logger, err) {
			return
		}
		h.logger.Error("Failed to delete task", zap.String("task_id", id.String()), zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to delete task")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid_id", "Invalid task ID format")
		return uuid.Nil, false
	}
	return id, true
}

func openSidecars(headers []*multipart.FileHeader) ([]usecase.SidecarInput, error) {
	sidecars := make([]usecase.SidecarInput, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			closeSidecars(sidecars)
			return nil, err
		}
		sidecars = append(sidecars, usecase.SidecarInput{
			FileName:   header.Filename,
			FileSize:   header.Size,
			FileReader: f,
		})
	}
	return sidecars, nil
}

func closeSidecars(sidecars []usecase.SidecarInput) {
	for _, s := range sidecars {
		if c, ok := s.FileReader.(multipart.File); ok {
			c.Close()
		}
	}
}
