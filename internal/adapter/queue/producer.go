package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/plastinin/geo2topo/internal/config"
)

// Типы задач
const (
	TypeTopoJSONConversion = "conversion:topojson"
)

// QueueConversion очередь задач конвертации
const QueueConversion = "conversion"

// ConversionPayload данные задачи на конвертацию
type ConversionPayload struct {
	TaskID string `json:"task_id"`
}

// TaskProducer отправляет задачи в очередь
type TaskProducer struct {
	client   *asynq.Client
	maxRetry int
}

// NewTaskProducer создаёт новый экземпляр TaskProducer
func NewTaskProducer(cfg config.RedisConfig, queueCfg config.QueueConfig) *TaskProducer {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &TaskProducer{client: client, maxRetry: queueCfg.MaxRetry}
}

// NewConversionTask собирает задачу asynq для конвертации
func NewConversionTask(taskID uuid.UUID, maxRetry int) (*asynq.Task, error) {
	payload, err := json.Marshal(ConversionPayload{
		TaskID: taskID.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return asynq.NewTask(TypeTopoJSONConversion, payload,
		asynq.MaxRetry(maxRetry),
		asynq.Queue(QueueConversion),
	), nil
}

// Enqueue добавляет задачу в очередь
func (p *TaskProducer) Enqueue(ctx context.Context, taskID uuid.UUID) error {
	task, err := NewConversionTask(taskID, p.maxRetry)
	if err != nil {
		return err
	}

	_, err = p.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	return nil
}

// Close закрывает соединение
func (p *TaskProducer) Close() error {
	return p.client.Close()
}
