package storage

import (
	"context"
	"fmt"

	"github.com/plastinin/geo2topo/internal/config"
	"github.com/plastinin/geo2topo/internal/usecase"
)

var (
	_ usecase.FileStorage = (*S3Storage)(nil)
	_ usecase.FileStorage = (*B2Storage)(nil)
)

// New создаёт хранилище по типу из конфигурации
func New(ctx context.Context, cfg *config.Config) (usecase.FileStorage, error) {
	switch cfg.Storage.Type {
	case config.StorageS3:
		s, err := NewS3Storage(ctx, cfg.S3, cfg.Storage.URLExpiry)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StorageB2:
		s, err := NewB2Storage(ctx, cfg.B2, cfg.Storage.URLExpiry)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
}
