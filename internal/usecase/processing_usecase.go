package usecase

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/plastinin/geo2topo/internal/domain"
	"go.uber.org/zap"
)

// ProcessingUseCase конвертация задач в воркере
type ProcessingUseCase struct {
	taskRepo    TaskRepository
	fileStorage FileStorage
	converter   FileConverter
	workDir     string
	logger      *zap.Logger
}

// NewProcessingUseCase создаёт новый экземпляр ProcessingUseCase
func NewProcessingUseCase(
	taskRepo TaskRepository,
	fileStorage FileStorage,
	converter FileConverter,
	workDir string,
	logger *zap.Logger,
) *ProcessingUseCase {
	return &ProcessingUseCase{
		taskRepo:    taskRepo,
		fileStorage: fileStorage,
		converter:   converter,
		workDir:     workDir,
		logger:      logger,
	}
}

// ProcessTask обрабатывает задачу конвертации.
// Ошибки конвертации помечают задачу как failed, ошибки инфраструктуры
// возвращаются как есть, чтобы очередь повторила попытку.
func (uc *ProcessingUseCase) ProcessTask(ctx context.Context, taskID uuid.UUID) error {
	uc.logger.Info("Starting task processing",
		zap.String("task_id", taskID.String()),
	)

	// Получаем задачу
	task, err := uc.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to get task: %w", err)
	}

	// Проверяем статус
	if task.Status.IsFinal() {
		uc.logger.Warn("Task already in final status, skipping",
			zap.String("task_id", taskID.String()),
			zap.String("status", task.Status.String()),
		)
		return nil
	}

	if task.Status == domain.TaskStatusProcessing {
		uc.logger.Info("Resuming task after previous attempt",
			zap.String("task_id", taskID.String()),
		)
	} else {
		// Переводим в статус "processing"
		if err := task.MarkProcessing(); err != nil {
			return fmt.Errorf("failed to mark task as processing: %w", err)
		}
		if err := uc.taskRepo.Update(ctx, task); err != nil {
			return fmt.Errorf("failed to update task status: %w", err)
		}
	}

	dir, err := os.MkdirTemp(uc.workDir, "task-"+task.ID.String()+"-*")
	if err != nil {
		return fmt.Errorf("failed to create work dir: %w", err)
	}
	defer os.RemoveAll(dir)

	source, err := uc.downloadSources(ctx, task, dir)
	if err != nil {
		return err
	}

	// Результат не должен совпасть с исходным .topojson
	dest := filepath.Join(dir, "result-"+domain.ResultFileName(task.FileName))
	progress := ProgressFunc(func(message string) {
		uc.logger.Info("Conversion stage",
			zap.String("task_id", taskID.String()),
			zap.String("stage", message),
		)
	})

	if err := uc.converter.ConvertFileWithFormat(ctx, source, task.Format.String(), dest, WithProgress(progress)); err != nil {
		if domain.IsConversionError(err) {
			uc.markTaskFailed(ctx, task, err.Error())
		}
		return fmt.Errorf("conversion failed: %w", err)
	}

	resultKey := task.ResultKeyFor()
	size, err := uc.uploadResult(ctx, resultKey, dest)
	if err != nil {
		return err
	}

	// Успешно завершаем задачу
	if err := task.MarkCompleted(resultKey, size); err != nil {
		return fmt.Errorf("failed to mark task as completed: %w", err)
	}
	if err := uc.taskRepo.Update(ctx, task); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	uc.logger.Info("Task completed successfully",
		zap.String("task_id", taskID.String()),
		zap.String("result_key", resultKey),
		zap.Int64("result_size", size),
	)

	return nil
}

// FailTask помечает задачу как failed после исчерпания повторов
func (uc *ProcessingUseCase) FailTask(ctx context.Context, taskID uuid.UUID, reason string) error {
	task, err := uc.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to get task: %w", err)
	}
	if task.Status.IsFinal() {
		return nil
	}

	if err := task.MarkFailed(reason); err != nil {
		return fmt.Errorf("failed to mark task as failed: %w", err)
	}
	if err := uc.taskRepo.Update(ctx, task); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

// downloadSources скачивает исходный файл и сопутствующие файлы в dir.
// Файлы Shapefile получают общее базовое имя, чтобы .dbf нашёлся рядом с .shp.
func (uc *ProcessingUseCase) downloadSources(ctx context.Context, task *domain.Task, dir string) (string, error) {
	name := path.Base(task.FileKey)
	base := strings.TrimSuffix(name, path.Ext(name))
	if task.Format == domain.FormatShapefile {
		name = base + ".shp"
	}

	source := filepath.Join(dir, name)
	if err := uc.download(ctx, task.FileKey, source); err != nil {
		return "", err
	}

	for _, key := range task.SidecarKeys {
		local := filepath.Join(dir, base+strings.ToLower(path.Ext(key)))
		if err := uc.download(ctx, key, local); err != nil {
			return "", err
		}
	}

	uc.logger.Debug("Files downloaded from storage",
		zap.String("task_id", task.ID.String()),
		zap.String("source", source),
		zap.Int("sidecars", len(task.SidecarKeys)),
	)

	return source, nil
}

func (uc *ProcessingUseCase) download(ctx context.Context, key, dest string) error {
	reader, err := uc.fileStorage.Download(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to download file %s: %w", key, err)
	}
	defer reader.Close()

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create local file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, reader); err != nil {
		return fmt.Errorf("failed to read file %s: %w", key, err)
	}
	return f.Close()
}

func (uc *ProcessingUseCase) uploadResult(ctx context.Context, key, file string) (int64, error) {
	f, err := os.Open(file)
	if err != nil {
		return 0, fmt.Errorf("failed to open result: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat result: %w", err)
	}

	if err := uc.fileStorage.Upload(ctx, key, domain.TopoJSONContentType, f, info.Size()); err != nil {
		return 0, fmt.Errorf("failed to upload result: %w", err)
	}
	return info.Size(), nil
}

// markTaskFailed помечает задачу как неудачную
func (uc *ProcessingUseCase) markTaskFailed(ctx context.Context, task *domain.Task, errMsg string) {
	uc.logger.Error("Task processing failed",
		zap.String("task_id", task.ID.String()),
		zap.String("error", errMsg),
	)

	if err := task.MarkFailed(errMsg); err != nil {
		uc.logger.Error("Failed to mark task as failed",
			zap.String("task_id", task.ID.String()),
			zap.Error(err),
		)
		return
	}

	if err := uc.taskRepo.Update(ctx, task); err != nil {
		uc.logger.Error("Failed to update failed task",
			zap.String("task_id", task.ID.String()),
			zap.Error(err),
		)
	}
}
