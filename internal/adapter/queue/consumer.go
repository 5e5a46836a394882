package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/plastinin/geo2topo/internal/config"
	"github.com/plastinin/geo2topo/internal/domain"
	"go.uber.org/zap"
)

// TaskProcessor обработчик задач конвертации
type TaskProcessor interface {
	ProcessTask(ctx context.Context, taskID uuid.UUID) error
	FailTask(ctx context.Context, taskID uuid.UUID, reason string) error
}

// TaskConsumer обрабатывает задачи из очереди
type TaskConsumer struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor TaskProcessor
	logger    *zap.Logger
}

// NewTaskConsumer создаёт новый экземпляр TaskConsumer
func NewTaskConsumer(
	cfg config.RedisConfig,
	queueCfg config.QueueConfig,
	processor TaskProcessor,
	logger *zap.Logger,
) *TaskConsumer {
	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Addr(),
			Password: cfg.Password,
			DB:       cfg.DB,
		},
		asynq.Config{
			Concurrency: queueCfg.Concurrency,
			Queues: map[string]int{
				QueueConversion: 10, // Приоритет очереди
				"default":       1,
			},
			Logger: newAsynqLogger(logger),
		},
	)

	consumer := &TaskConsumer{
		server:    server,
		mux:       asynq.NewServeMux(),
		processor: processor,
		logger:    logger,
	}

	// Регистрируем обработчики
	consumer.mux.HandleFunc(TypeTopoJSONConversion, consumer.handleConversion)

	return consumer
}

// Start запускает обработку задач
func (c *TaskConsumer) Start() error {
	c.logger.Info("Starting task consumer")
	return c.server.Start(c.mux)
}

// Stop останавливает обработку задач
func (c *TaskConsumer) Stop() {
	c.logger.Info("Stopping task consumer")
	c.server.Stop()
	c.server.Shutdown()
}

// handleConversion обрабатывает задачу конвертации в TopoJSON
func (c *TaskConsumer) handleConversion(ctx context.Context, t *asynq.Task) error {
	var payload ConversionPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		c.logger.Error("Failed to unmarshal payload",
			zap.Error(err),
			zap.ByteString("payload", t.Payload()),
		)
		return fmt.Errorf("failed to unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	taskID, err := uuid.Parse(payload.TaskID)
	if err != nil {
		c.logger.Error("Invalid task ID",
			zap.String("task_id", payload.TaskID),
			zap.Error(err),
		)
		return fmt.Errorf("invalid task ID: %w: %w", err, asynq.SkipRetry)
	}

	c.logger.Info("Processing conversion task",
		zap.String("task_id", taskID.String()),
	)

	err = c.processor.ProcessTask(ctx, taskID)
	if err == nil {
		return nil
	}

	c.logger.Error("Failed to process task",
		zap.String("task_id", taskID.String()),
		zap.Error(err),
	)

	// Ошибки конвертации терминальны, задача уже помечена failed
	if domain.IsConversionError(err) {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	if isLastAttempt(ctx) {
		if failErr := c.processor.FailTask(ctx, taskID, err.Error()); failErr != nil {
			c.logger.Error("Failed to mark task as failed",
				zap.String("task_id", taskID.String()),
				zap.Error(failErr),
			)
		}
	}

	return err
}

// isLastAttempt проверяет, что повторов больше не будет
func isLastAttempt(ctx context.Context) bool {
	retried, ok := asynq.GetRetryCount(ctx)
	if !ok {
		return false
	}
	maxRetry, ok := asynq.GetMaxRetry(ctx)
	if !ok {
		return false
	}
	return retried >= maxRetry
}

// asynqLogger адаптер логгера для asynq
type asynqLogger struct {
	logger *zap.Logger
}

func newAsynqLogger(logger *zap.Logger) *asynqLogger {
	return &asynqLogger{logger: logger.Named("asynq")}
}

func (l *asynqLogger) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.logger.Fatal(fmt.Sprint(args...))
}
