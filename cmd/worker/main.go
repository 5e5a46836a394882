package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/plastinin/geo2topo/internal/adapter/queue"
	"github.com/plastinin/geo2topo/internal/adapter/repository"
	"github.com/plastinin/geo2topo/internal/adapter/storage"
	"github.com/plastinin/geo2topo/internal/config"
	"github.com/plastinin/geo2topo/internal/usecase"
	"github.com/plastinin/geo2topo/pkg/geo2topo"
	"github.com/plastinin/geo2topo/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	// Инициализируем логгер
	log := logger.Must(cfg.Log.Level, cfg.Log.Format)
	defer log.Sync()

	log.Info("Starting geo2topo worker",
		zap.Int("concurrency", cfg.Queue.Concurrency),
		zap.Int("max_retry", cfg.Queue.MaxRetry),
		zap.String("work_dir", cfg.Converter.WorkDir),
	)

	// Контекст для инициализации
	ctx := context.Background()

	if cfg.Converter.WorkDir != "" {
		if err := os.MkdirAll(cfg.Converter.WorkDir, 0o755); err != nil {
			log.Fatal("Failed to create work dir", zap.Error(err))
		}
	}

	// Инициализируем PostgreSQL
	dbPool, err := repository.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer dbPool.Close()
	log.Info("Connected to PostgreSQL")

	// Инициализируем хранилище
	fileStorage, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to connect to storage", zap.Error(err))
	}
	log.Info("Connected to storage", zap.String("type", cfg.Storage.Type))

	// Инициализируем конвертер
	converter := geo2topo.New(
		geo2topo.WithWorkDir(cfg.Converter.WorkDir),
		geo2topo.WithLogger(log.Named("converter")),
	)

	// Инициализируем репозитории
	taskRepo := repository.NewTaskRepository(dbPool)

	// Инициализируем use cases
	processingUC := usecase.NewProcessingUseCase(taskRepo, fileStorage, converter, cfg.Converter.WorkDir, log)

	// Инициализируем consumer
	consumer := queue.NewTaskConsumer(cfg.Redis, cfg.Queue, processingUC, log)

	// Запускаем consumer в горутине
	go func() {
		if err := consumer.Start(); err != nil {
			log.Fatal("Failed to start consumer", zap.Error(err))
		}
	}()

	log.Info("Worker started, waiting for tasks...")

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down worker...")

	// Останавливаем consumer
	consumer.Stop()

	log.Info("Worker stopped")
}
