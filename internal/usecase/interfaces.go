package usecase

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
	"github.com/plastinin/geo2topo/internal/domain"
)

// TaskRepository интерфейс для работы с хранилищем задач
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter domain.TaskFilter, pagination domain.Pagination) (*domain.TaskListResult, error)
}

// FileStorage интерфейс для работы с объектным хранилищем (S3, B2)
type FileStorage interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader, size int64) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	GetURL(ctx context.Context, key string) (string, error)
}

// TaskQueue интерфейс для работы с очередью задач
type TaskQueue interface {
	Enqueue(ctx context.Context, taskID uuid.UUID) error
}

// FileCopier копирует файл без изменений
type FileCopier interface {
	CopyFile(ctx context.Context, source, dest string) error
}

// GeoJSONConverter конвертирует файл исходного формата в GeoJSON файл
type GeoJSONConverter interface {
	ConvertToGeoJSON(ctx context.Context, source, dest string) error
}

// TopologyConverter конвертирует GeoJSON файл в TopoJSON файл
type TopologyConverter interface {
	ConvertGeoJSONToTopoJSON(ctx context.Context, source, dest string) error
}

// TopologyBuilder строит топологию из именованных слоёв
type TopologyBuilder interface {
	Build(layers map[string]*geojson.FeatureCollection) (*domain.Topology, error)
}

// GeoJSONDecoder приводит произвольное значение к FeatureCollection
type GeoJSONDecoder interface {
	Decode(v any) (*geojson.FeatureCollection, error)
}

// FileConverter конвертирует файл известного формата в TopoJSON
type FileConverter interface {
	ConvertFileWithFormat(ctx context.Context, source, format, dest string, opts ...ConvertOption) error
}
