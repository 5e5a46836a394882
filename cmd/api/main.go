package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/plastinin/geo2topo/internal/adapter/http/handler"
	"github.com/plastinin/geo2topo/internal/adapter/queue"
	"github.com/plastinin/geo2topo/internal/adapter/repository"
	"github.com/plastinin/geo2topo/internal/adapter/storage"
	"github.com/plastinin/geo2topo/internal/config"
	"github.com/plastinin/geo2topo/internal/usecase"
	"github.com/plastinin/geo2topo/pkg/geo2topo"
	"github.com/plastinin/geo2topo/pkg/logger"
	"go.uber.org/zap"

	apphttp "github.com/plastinin/geo2topo/internal/adapter/http"
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

	log.Info("Starting geo2topo API",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Type),
	)

	// Контекст с отменой для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Инициализируем PostgreSQL
	dbPool, err := repository.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer dbPool.Close()
	log.Info("Connected to PostgreSQL")

	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(dbPool, cfg.Database.Name); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
		log.Info("Database migrations applied")
	}

	// Инициализируем хранилище
	fileStorage, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to connect to storage", zap.Error(err))
	}
	log.Info("Connected to storage", zap.String("type", cfg.Storage.Type))

	// Инициализируем Queue Producer
	queueProducer := queue.NewTaskProducer(cfg.Redis, cfg.Queue)
	defer queueProducer.Close()
	log.Info("Connected to Redis",
		zap.String("addr", cfg.Redis.Addr()),
	)

	// Инициализируем репозитории
	taskRepo := repository.NewTaskRepository(dbPool)

	// Инициализируем use cases
	taskUC := usecase.NewTaskUseCase(taskRepo, fileStorage, queueProducer, log)
	converter := geo2topo.New(
		geo2topo.WithWorkDir(cfg.Converter.WorkDir),
		geo2topo.WithLogger(log.Named("converter")),
	)

	// Инициализируем handlers
	taskHandler := handler.NewTaskHandler(taskUC, cfg.Server.MaxUploadSize, log)
	topologyHandler := handler.NewTopologyHandler(converter, cfg.Server.MaxUploadSize, log)
	healthHandler := handler.NewHealthHandler(dbPool, log)

	// Создаём роутер
	router := apphttp.NewRouter(taskHandler, topologyHandler, healthHandler, log)

	// Создаём HTTP сервер
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Info("HTTP server starting",
			zap.String("addr", cfg.Server.Addr()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server stopped")
}
