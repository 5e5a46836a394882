package dto

import (
	"path"
	"time"

	"github.com/plastinin/geo2topo/internal/domain"
)

// TaskResponse ответ с информацией о задаче
type TaskResponse struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	Format      string     `json:"format"`
	FileName    string     `json:"file_name"`
	Sidecars    []string   `json:"sidecars,omitempty"`
	ResultName  string     `json:"result_name,omitempty"`
	ResultSize  int64      `json:"result_size,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TaskFromDomain конвертирует доменную модель в DTO
func TaskFromDomain(task *domain.Task) *TaskResponse {
	resp := &TaskResponse{
		ID:          task.ID.String(),
		Status:      task.Status.String(),
		Format:      task.Format.String(),
		FileName:    task.FileName,
		ResultSize:  task.ResultSize,
		Error:       task.Error,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
		CompletedAt: task.CompletedAt,
	}

	for _, key := range task.SidecarKeys {
		resp.Sidecars = append(resp.Sidecars, path.Base(key))
	}
	if task.ResultKey != "" {
		resp.ResultName = path.Base(task.ResultKey)
	}

	return resp
}

// TaskListResponse ответ со списком задач
type TaskListResponse struct {
	Tasks      []*TaskResponse `json:"tasks"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

// TaskListFromDomain конвертирует результат списка в DTO
func TaskListFromDomain(result *domain.TaskListResult) *TaskListResponse {
	tasks := make([]*TaskResponse, len(result.Tasks))
	for i, task := range result.Tasks {
		tasks[i] = TaskFromDomain(task)
	}

	return &TaskListResponse{
		Tasks:      tasks,
		Total:      result.Total,
		Page:       result.Pagination.Page,
		PageSize:   result.Pagination.PageSize,
		TotalPages: result.Pagination.TotalPages(result.Total),
	}
}
