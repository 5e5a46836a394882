package domain

import (
	"errors"
	"path"
	"time"

	"github.com/google/uuid"
)

// Ошибки домена
var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrInvalidTaskStatus = errors.New("invalid task status")
	ErrEmptyFileName     = errors.New("file name cannot be empty")
	ErrEmptyFileKey      = errors.New("file key cannot be empty")
	ErrTaskNotCompleted  = errors.New("task is not completed")
)

// Task представляет задачу на конвертацию файла в TopoJSON
type Task struct {
	ID          uuid.UUID  `json:"id"`
	Status      TaskStatus `json:"status"`
	Format      Format     `json:"format"`
	FileName    string     `json:"file_name"`              // Оригинальное имя файла
	FileKey     string     `json:"file_key"`               // Ключ исходного файла в хранилище
	SidecarKeys []string   `json:"sidecar_keys,omitempty"` // Сопутствующие файлы Shapefile (.dbf, .shx, .prj)
	ResultKey   string     `json:"result_key,omitempty"`   // Ключ TopoJSON результата
	ResultSize  int64      `json:"result_size,omitempty"`
	Error       string     `json:"error,omitempty"` // Текст ошибки (если failed)
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewTask создаёт новую задачу
func NewTask(fileName string, format Format) (*Task, error) {
	if fileName == "" {
		return nil, ErrEmptyFileName
	}
	if !format.IsValid() {
		return nil, ErrUnrecognizedFormat
	}

	now := time.Now()
	task := &Task{
		ID:        uuid.New(),
		Status:    TaskStatusPending,
		Format:    format,
		FileName:  fileName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	task.FileKey = task.SourceKey(fileName)

	return task, nil
}

// SourceKey ключ в хранилище для исходного или сопутствующего файла задачи
func (t *Task) SourceKey(fileName string) string {
	return path.Join("sources", t.ID.String(), path.Base(fileName))
}

// ResultKeyFor ключ в хранилище для результата задачи
func (t *Task) ResultKeyFor() string {
	return path.Join("results", t.ID.String(), ResultFileName(t.FileName))
}

// AddSidecar регистрирует сопутствующий файл и возвращает его ключ
func (t *Task) AddSidecar(fileName string) (string, error) {
	if err := ValidateSidecar(fileName); err != nil {
		return "", err
	}
	key := t.SourceKey(fileName)
	t.SidecarKeys = append(t.SidecarKeys, key)
	return key, nil
}

// Keys все ключи хранилища, принадлежащие задаче
func (t *Task) Keys() []string {
	keys := make([]string, 0, len(t.SidecarKeys)+2)
	if t.FileKey != "" {
		keys = append(keys, t.FileKey)
	}
	keys = append(keys, t.SidecarKeys...)
	if t.ResultKey != "" {
		keys = append(keys, t.ResultKey)
	}
	return keys
}

// MarkProcessing переводит задачу в статус "в обработке"
func (t *Task) MarkProcessing() error {
	if t.Status != TaskStatusPending {
		return ErrInvalidTaskStatus
	}
	t.Status = TaskStatusProcessing
	t.UpdatedAt = time.Now()
	return nil
}

// MarkCompleted переводит задачу в статус "завершена"
func (t *Task) MarkCompleted(resultKey string, resultSize int64) error {
	if t.Status != TaskStatusProcessing {
		return ErrInvalidTaskStatus
	}
	if resultKey == "" {
		return ErrEmptyFileKey
	}
	now := time.Now()
	t.Status = TaskStatusCompleted
	t.ResultKey = resultKey
	t.ResultSize = resultSize
	t.UpdatedAt = now
	t.CompletedAt = &now
	return nil
}

// MarkFailed переводит задачу в статус "ошибка"
func (t *Task) MarkFailed(errMsg string) error {
	if t.Status != TaskStatusProcessing && t.Status != TaskStatusPending {
		return ErrInvalidTaskStatus
	}
	now := time.Now()
	t.Status = TaskStatusFailed
	t.Error = errMsg
	t.UpdatedAt = now
	t.CompletedAt = &now
	return nil
}

// CanRetry проверяет, можно ли повторить задачу
func (t *Task) CanRetry() bool {
	return t.Status == TaskStatusFailed
}
