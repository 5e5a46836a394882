// Package geo2topo конвертирует TopoJSON, GeoJSON, KML и Shapefile в TopoJSON.
//
// Формат определяется по имени файла либо указывается явно. Всё, кроме
// TopoJSON и GeoJSON, проходит через промежуточный GeoJSON файл, который
// удаляется после конвертации.
package geo2topo

import (
	"context"
	"sync"

	"github.com/plastinin/geo2topo/internal/adapter/geo"
	"github.com/plastinin/geo2topo/internal/domain"
	"github.com/plastinin/geo2topo/internal/usecase"
	"go.uber.org/zap"
)

// Topology документ TopoJSON
type Topology = domain.Topology

// TopologyObject геометрический объект TopoJSON
type TopologyObject = domain.TopologyObject

// Format тег формата входного файла
type Format = domain.Format

const (
	FormatTopoJSON  = domain.FormatTopoJSON
	FormatGeoJSON   = domain.FormatGeoJSON
	FormatKML       = domain.FormatKML
	FormatShapefile = domain.FormatShapefile
)

// LayerName слой, в который кладутся объекты из GeoJSON
const LayerName = domain.DefaultLayerName

// Ошибки конвертации, сравниваются через errors.Is
var (
	ErrUnrecognizedFormat   = domain.ErrUnrecognizedFormat
	ErrUnsupportedContainer = domain.ErrUnsupportedContainer
	ErrSourceNotFound       = domain.ErrSourceNotFound
	ErrCopyFailed           = domain.ErrCopyFailed
	ErrStageFailed          = domain.ErrStageFailed
	ErrSerialization        = domain.ErrSerialization
)

// StageError ошибка этапа конвертации
type StageError = domain.StageError

// Option настройка Converter
type Option func(*converterOptions)

type converterOptions struct {
	workDir  string
	logger   *zap.Logger
	topology domain.TopologyOptions
}

// WithWorkDir каталог для промежуточных файлов, по умолчанию системный temp
func WithWorkDir(dir string) Option {
	return func(o *converterOptions) {
		o.workDir = dir
	}
}

// WithLogger логгер для отладочных сообщений конвертации
func WithLogger(logger *zap.Logger) Option {
	return func(o *converterOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// ConvertOption опция одной конвертации
type ConvertOption = usecase.ConvertOption

// WithProgress вызывает fn с описанием каждого этапа перед его началом
func WithProgress(fn func(message string)) ConvertOption {
	if fn == nil {
		return usecase.WithProgress(nil)
	}
	return usecase.WithProgress(usecase.ProgressFunc(fn))
}

// Converter конвертер файлов и объектов в TopoJSON.
// Безопасен для одновременного использования.
type Converter struct {
	uc *usecase.ConversionUseCase
}

// New создаёт Converter на стандартных адаптерах
func New(opts ...Option) *Converter {
	o := converterOptions{
		logger:   zap.NewNop(),
		topology: domain.DefaultTopologyOptions(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	reader := geo.NewGeoJSONReader()
	builder := geo.NewTopologyBuilder(o.topology)

	return &Converter{
		uc: usecase.NewConversionUseCase(
			geo.NewCopier(),
			geo.NewKMLConverter(),
			geo.NewShapefileConverter(),
			geo.NewTopoJSONConverter(reader, builder),
			builder,
			reader,
			o.workDir,
			o.logger,
		),
	}
}

// ConvertFile определяет формат по имени source и записывает TopoJSON в dest
func (c *Converter) ConvertFile(ctx context.Context, source, dest string, opts ...ConvertOption) error {
	return c.uc.ConvertFile(ctx, source, dest, opts...)
}

// ConvertFileWithFormat конвертирует source явно указанного формата.
// Формат не зависит от регистра, "shapefile" равнозначен "shp".
func (c *Converter) ConvertFileWithFormat(ctx context.Context, source, format, dest string, opts ...ConvertOption) error {
	return c.uc.ConvertFileWithFormat(ctx, source, format, dest, opts...)
}

// ConvertObject строит топологию из GeoJSON значения в памяти
func (c *Converter) ConvertObject(ctx context.Context, geoData any) (*Topology, error) {
	return c.uc.ConvertObject(ctx, geoData)
}

var defaultConverter = sync.OnceValue(func() *Converter { return New() })

// ConvertFile конвертирует файл конвертером по умолчанию
func ConvertFile(ctx context.Context, source, dest string, opts ...ConvertOption) error {
	return defaultConverter().ConvertFile(ctx, source, dest, opts...)
}

// ConvertFileWithFormat конвертирует файл явно указанного формата конвертером по умолчанию
func ConvertFileWithFormat(ctx context.Context, source, format, dest string, opts ...ConvertOption) error {
	return defaultConverter().ConvertFileWithFormat(ctx, source, format, dest, opts...)
}

// ConvertObject строит топологию конвертером по умолчанию
func ConvertObject(ctx context.Context, geoData any) (*Topology, error) {
	return defaultConverter().ConvertObject(ctx, geoData)
}

// DetectFormat определяет формат по имени файла без обращения к файловой системе
func DetectFormat(path string) (Format, error) {
	return domain.DetectFormat(path)
}

// ParseFormat разбирает явно указанный формат
func ParseFormat(s string) (Format, error) {
	return domain.ParseFormat(s)
}
