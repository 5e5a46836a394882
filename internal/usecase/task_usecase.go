package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/plastinin/geo2topo/internal/domain"
	"go.uber.org/zap"
)

// sniffLen сколько байт читается для определения типа содержимого
const sniffLen = 3072

// sidecarContentType MIME тип сопутствующих файлов Shapefile
const sidecarContentType = "application/octet-stream"

// TaskUseCase бизнес-логика работы с задачами
type TaskUseCase struct {
	taskRepo    TaskRepository
	fileStorage FileStorage
	taskQueue   TaskQueue
	logger      *zap.Logger
}

// NewTaskUseCase создаёт новый экземпляр TaskUseCase
func NewTaskUseCase(
	taskRepo TaskRepository,
	fileStorage FileStorage,
	taskQueue TaskQueue,
	logger *zap.Logger,
) *TaskUseCase {
	return &TaskUseCase{
		taskRepo:    taskRepo,
		fileStorage: fileStorage,
		taskQueue:   taskQueue,
		logger:      logger,
	}
}

// ResolveFormat возвращает явно указанный формат либо определяет его по имени файла
func ResolveFormat(fileName, format string) (domain.Format, error) {
	if format != "" {
		return domain.ParseFormat(format)
	}
	return domain.DetectFormat(fileName)
}

// Create создаёт новую задачу на конвертацию
func (uc *TaskUseCase) Create(ctx context.Context, input CreateTaskInput) (*domain.Task, error) {
	format, err := ResolveFormat(input.FileName, input.Format)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	if err := validateSidecars(format, input.Sidecars); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	// Архивы не распаковываем: KMZ и zip с Shapefile отклоняются
	reader, mime, err := sniffContent(input.FileReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if isArchive(mime) {
		return nil, fmt.Errorf("validation error: %w", domain.ErrUnsupportedContainer)
	}

	task, err := domain.NewTask(input.FileName, format)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	// Загружаем исходный файл в хранилище
	if err := uc.fileStorage.Upload(ctx, task.FileKey, domain.ContentTypeForFormat(format), reader, input.FileSize); err != nil {
		uc.logger.Error("Failed to upload file to storage",
			zap.String("file_name", input.FileName),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	uc.logger.Debug("File uploaded to storage",
		zap.String("file_key", task.FileKey),
		zap.String("file_name", input.FileName),
		zap.String("detected_mime", mime.String()),
	)

	for _, sidecar := range input.Sidecars {
		key, err := task.AddSidecar(sidecar.FileName)
		if err == nil {
			err = uc.fileStorage.Upload(ctx, key, sidecarContentType, sidecar.FileReader, sidecar.FileSize)
		}
		if err != nil {
			uc.cleanup(ctx, task)
			uc.logger.Error("Failed to upload sidecar file",
				zap.String("task_id", task.ID.String()),
				zap.String("file_name", sidecar.FileName),
				zap.Error(err),
			)
			return nil, fmt.Errorf("failed to upload sidecar %s: %w", sidecar.FileName, err)
		}
	}

	// Сохраняем задачу в БД
	if err := uc.taskRepo.Create(ctx, task); err != nil {
		// Удаляем загруженные файлы при ошибке
		uc.cleanup(ctx, task)
		uc.logger.Error("Failed to save task to database",
			zap.String("task_id", task.ID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to save task: %w", err)
	}

	// Добавляем задачу в очередь
	if err := uc.taskQueue.Enqueue(ctx, task.ID); err != nil {
		uc.logger.Error("Failed to enqueue task",
			zap.String("task_id", task.ID.String()),
			zap.Error(err),
		)
		// Не возвращаем ошибку: задача создана, можно retry позже
	}

	uc.logger.Info("Task created successfully",
		zap.String("task_id", task.ID.String()),
		zap.String("file_name", input.FileName),
		zap.String("format", format.String()),
		zap.Int("sidecars", len(task.SidecarKeys)),
	)

	return task, nil
}

// GetByID возвращает задачу по ID
func (uc *TaskUseCase) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	task, err := uc.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// List возвращает список задач
func (uc *TaskUseCase) List(ctx context.Context, filter domain.TaskFilter, pagination domain.Pagination) (*domain.TaskListResult, error) {
	return uc.taskRepo.List(ctx, filter, pagination)
}

// ResultURL возвращает ссылку на TopoJSON результат завершённой задачи
func (uc *TaskUseCase) ResultURL(ctx context.Context, id uuid.UUID) (string, error) {
	task, err := uc.taskRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	if task.Status != domain.TaskStatusCompleted || task.ResultKey == "" {
		return "", domain.ErrTaskNotCompleted
	}

	url, err := uc.fileStorage.GetURL(ctx, task.ResultKey)
	if err != nil {
		return "", fmt.Errorf("failed to get result url: %w", err)
	}
	return url, nil
}

// Delete удаляет задачу и все связанные файлы
func (uc *TaskUseCase) Delete(ctx context.Context, id uuid.UUID) error {
	// Получаем задачу
	task, err := uc.taskRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	// Удаляем файлы из хранилища, продолжаем удаление задачи при ошибках
	uc.cleanup(ctx, task)

	// Удаляем задачу из БД
	if err := uc.taskRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	uc.logger.Info("Task deleted successfully",
		zap.String("task_id", id.String()),
	)

	return nil
}

// cleanup удаляет все объекты задачи из хранилища
func (uc *TaskUseCase) cleanup(ctx context.Context, task *domain.Task) {
	for _, key := range task.Keys() {
		if err := uc.fileStorage.Delete(ctx, key); err != nil {
			uc.logger.Warn("Failed to delete file from storage",
				zap.String("task_id", task.ID.String()),
				zap.String("file_key", key),
				zap.Error(err),
			)
		}
	}
}

func validateSidecars(format domain.Format, sidecars []SidecarInput) error {
	if format != domain.FormatShapefile {
		if len(sidecars) > 0 {
			return domain.ErrInvalidSidecar
		}
		return nil
	}

	names := make([]string, 0, len(sidecars))
	for _, s := range sidecars {
		if err := domain.ValidateSidecar(s.FileName); err != nil {
			return fmt.Errorf("%w: %s", err, s.FileName)
		}
		names = append(names, s.FileName)
	}

	if !domain.HasDBFSidecar(names) {
		return domain.ErrMissingSidecar
	}
	return nil
}

// sniffContent определяет тип содержимого по первым байтам
// и возвращает reader, снова отдающий поток целиком
func sniffContent(r io.Reader) (io.Reader, *mimetype.MIME, error) {
	header := make([]byte, sniffLen)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, nil, err
	}
	header = header[:n]

	return io.MultiReader(bytes.NewReader(header), r), mimetype.Detect(header), nil
}

func isArchive(mime *mimetype.MIME) bool {
	for m := mime; m != nil; m = m.Parent() {
		if m.Is("application/zip") {
			return true
		}
	}
	return false
}
