package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/paulmach/orb/geojson"
	"github.com/plastinin/geo2topo/internal/domain"
	"go.uber.org/zap"
)

// Сообщения этапов конвертации для наблюдателя прогресса
const (
	StageCopyTopoJSON       = "copying TopoJSON file"
	StageGeoJSONToTopoJSON  = "converting GeoJSON to TopoJSON"
	StageKMLToGeoJSON       = "converting KML to GeoJSON"
	StageShapefileToGeoJSON = "converting shapefile to GeoJSON"
)

// intermediatePattern шаблон имени промежуточного GeoJSON файла
const intermediatePattern = "mapdata-*.geojson"

// ProgressObserver получает описания этапов конвертации
type ProgressObserver interface {
	Stage(message string)
}

// ProgressFunc адаптер функции к ProgressObserver
type ProgressFunc func(message string)

func (f ProgressFunc) Stage(message string) {
	f(message)
}

type noopProgress struct{}

func (noopProgress) Stage(string) {}

type convertOptions struct {
	progress ProgressObserver
}

// ConvertOption опция одной конвертации
type ConvertOption func(*convertOptions)

// WithProgress подключает наблюдателя прогресса
func WithProgress(p ProgressObserver) ConvertOption {
	return func(o *convertOptions) {
		if p != nil {
			o.progress = p
		}
	}
}

// stage один шаг конвертации: читает input, пишет output
type stage struct {
	message string
	run     func(ctx context.Context, input, output string) error
	// raw ошибки шага возвращаются без обёртки StageError
	raw bool
}

// ConversionUseCase определяет формат и проводит файл через цепочку
// конвертеров до TopoJSON. Всё, кроме TopoJSON и GeoJSON, проходит
// через промежуточный GeoJSON файл.
type ConversionUseCase struct {
	copier    FileCopier
	kml       GeoJSONConverter
	shapefile GeoJSONConverter
	topology  TopologyConverter
	builder   TopologyBuilder
	decoder   GeoJSONDecoder
	workDir   string
	logger    *zap.Logger
}

// NewConversionUseCase создаёт новый экземпляр ConversionUseCase.
// Промежуточные файлы создаются в workDir, при пустом workDir в системном temp.
func NewConversionUseCase(
	copier FileCopier,
	kml GeoJSONConverter,
	shapefile GeoJSONConverter,
	topology TopologyConverter,
	builder TopologyBuilder,
	decoder GeoJSONDecoder,
	workDir string,
	logger *zap.Logger,
) *ConversionUseCase {
	return &ConversionUseCase{
		copier:    copier,
		kml:       kml,
		shapefile: shapefile,
		topology:  topology,
		builder:   builder,
		decoder:   decoder,
		workDir:   workDir,
		logger:    logger,
	}
}

// ConvertFile определяет формат по имени файла и конвертирует его в TopoJSON
func (uc *ConversionUseCase) ConvertFile(ctx context.Context, source, dest string, opts ...ConvertOption) error {
	format, err := domain.DetectFormat(source)
	if err != nil {
		return fmt.Errorf("%w: %s", err, source)
	}
	return uc.convert(ctx, source, format, dest, opts)
}

// ConvertFileWithFormat конвертирует файл явно указанного формата
func (uc *ConversionUseCase) ConvertFileWithFormat(ctx context.Context, source, format, dest string, opts ...ConvertOption) error {
	f, err := domain.ParseFormat(format)
	if err != nil {
		return fmt.Errorf("%w: %q", err, format)
	}
	return uc.convert(ctx, source, f, dest, opts)
}

// ConvertObject строит топологию из GeoJSON значения в памяти.
// Значение кладётся в слой "geo". Файловая система не затрагивается.
func (uc *ConversionUseCase) ConvertObject(ctx context.Context, geoData any) (*domain.Topology, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fc, err := uc.decoder.Decode(geoData)
	if err != nil {
		if !errors.Is(err, domain.ErrSerialization) {
			err = fmt.Errorf("%w: %w", domain.ErrSerialization, err)
		}
		return nil, err
	}

	topo, err := uc.builder.Build(map[string]*geojson.FeatureCollection{
		domain.DefaultLayerName: fc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build topology: %w", err)
	}

	return topo, nil
}

func (uc *ConversionUseCase) convert(ctx context.Context, source string, format domain.Format, dest string, opts []ConvertOption) error {
	o := convertOptions{progress: noopProgress{}}
	for _, opt := range opts {
		opt(&o)
	}

	if err := checkSource(source, format); err != nil {
		return err
	}

	input, stages := uc.plan(source, format)

	uc.logger.Debug("Starting conversion",
		zap.String("source", source),
		zap.String("format", format.String()),
		zap.String("dest", dest),
		zap.Int("stages", len(stages)),
	)

	return uc.run(ctx, input, dest, stages, o.progress)
}

// plan возвращает вход первого шага и цепочку шагов для формата
func (uc *ConversionUseCase) plan(source string, format domain.Format) (string, []stage) {
	toTopoJSON := stage{message: StageGeoJSONToTopoJSON, run: uc.topology.ConvertGeoJSONToTopoJSON}

	switch format {
	case domain.FormatTopoJSON:
		return source, []stage{{message: StageCopyTopoJSON, run: uc.copier.CopyFile, raw: true}}
	case domain.FormatKML:
		return source, []stage{{message: StageKMLToGeoJSON, run: uc.kml.ConvertToGeoJSON}, toTopoJSON}
	case domain.FormatShapefile:
		return trimShapefileExt(source), []stage{{message: StageShapefileToGeoJSON, run: uc.shapefile.ConvertToGeoJSON}, toTopoJSON}
	}

	return source, []stage{toTopoJSON}
}

// run выполняет шаги по порядку. Промежуточные файлы уникальны
// и удаляются после завершения при любом исходе.
func (uc *ConversionUseCase) run(ctx context.Context, input, dest string, stages []stage, progress ProgressObserver) error {
	var intermediates []string
	defer func() {
		for _, path := range intermediates {
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				uc.logger.Warn("Failed to remove intermediate file",
					zap.String("path", path),
					zap.Error(err),
				)
			}
		}
	}()

	current := input
	for i, st := range stages {
		if err := ctx.Err(); err != nil {
			return err
		}

		output := dest
		if i < len(stages)-1 {
			tmp, err := uc.createIntermediate()
			if err != nil {
				return err
			}
			intermediates = append(intermediates, tmp)
			output = tmp
		}

		progress.Stage(st.message)

		if err := st.run(ctx, current, output); err != nil {
			uc.logger.Debug("Conversion stage failed",
				zap.String("stage", st.message),
				zap.Error(err),
			)
			if st.raw {
				return err
			}
			return &domain.StageError{Stage: st.message, Err: err}
		}

		current = output
	}

	return nil
}

func (uc *ConversionUseCase) createIntermediate() (string, error) {
	f, err := os.CreateTemp(uc.workDir, intermediatePattern)
	if err != nil {
		return "", fmt.Errorf("failed to create intermediate file: %w", err)
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("failed to create intermediate file: %w", err)
	}
	return name, nil
}

// checkSource проверяет существование исходного файла.
// Для Shapefile допускается путь без расширения .shp.
func checkSource(source string, format domain.Format) error {
	if _, err := os.Stat(source); err == nil {
		return nil
	}

	if format == domain.FormatShapefile {
		base := trimShapefileExt(source)
		for _, ext := range []string{".shp", ".SHP"} {
			if _, err := os.Stat(base + ext); err == nil {
				return nil
			}
		}
	}

	return fmt.Errorf("%w: %s", domain.ErrSourceNotFound, source)
}

func trimShapefileExt(path string) string {
	if strings.HasSuffix(strings.ToLower(path), ".shp") {
		return path[:len(path)-len(".shp")]
	}
	return path
}
