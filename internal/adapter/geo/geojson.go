package geo

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/plastinin/geo2topo/internal/domain"
)

// GeoJSONReader читает GeoJSON документы любого верхнего типа
// (FeatureCollection, Feature, Geometry) и приводит их к FeatureCollection
type GeoJSONReader struct{}

// NewGeoJSONReader создаёт новый GeoJSONReader
func NewGeoJSONReader() *GeoJSONReader {
	return &GeoJSONReader{}
}

// ReadFile читает GeoJSON файл
func (r *GeoJSONReader) ReadFile(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read GeoJSON file: %w", err)
	}
	return r.Unmarshal(data)
}

// Unmarshal разбирает GeoJSON документ
func (r *GeoJSONReader) Unmarshal(data []byte) (*geojson.FeatureCollection, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSerialization, err)
	}

	fc := geojson.NewFeatureCollection()

	switch probe.Type {
	case "FeatureCollection":
		parsed, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrSerialization, err)
		}
		return parsed, nil
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrSerialization, err)
		}
		fc.Append(f)
	case "Point", "MultiPoint", "LineString", "MultiLineString", "Polygon", "MultiPolygon", "GeometryCollection":
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrSerialization, err)
		}
		fc.Append(geojson.NewFeature(g.Geometry()))
	default:
		return nil, fmt.Errorf("%w: unsupported GeoJSON type %q", domain.ErrSerialization, probe.Type)
	}

	return fc, nil
}

// Decode приводит произвольное значение к FeatureCollection.
// Неструктурированные значения разбираются как GeoJSON, всё прочее
// сериализуется в JSON и разбирается повторно. Ошибка приведения
// возвращается как ErrSerialization.
func (r *GeoJSONReader) Decode(v any) (*geojson.FeatureCollection, error) {
	switch data := v.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil geo data", domain.ErrSerialization)
	case *geojson.FeatureCollection:
		if data == nil {
			return nil, fmt.Errorf("%w: nil feature collection", domain.ErrSerialization)
		}
		return data, nil
	case geojson.FeatureCollection:
		return &data, nil
	case *geojson.Feature:
		if data == nil {
			return nil, fmt.Errorf("%w: nil feature", domain.ErrSerialization)
		}
		fc := geojson.NewFeatureCollection()
		fc.Append(data)
		return fc, nil
	case *geojson.Geometry:
		if data == nil {
			return nil, fmt.Errorf("%w: nil geometry", domain.ErrSerialization)
		}
		fc := geojson.NewFeatureCollection()
		fc.Append(geojson.NewFeature(data.Geometry()))
		return fc, nil
	case orb.Geometry:
		fc := geojson.NewFeatureCollection()
		fc.Append(geojson.NewFeature(data))
		return fc, nil
	case []byte:
		return r.Unmarshal(data)
	case json.RawMessage:
		return r.Unmarshal(data)
	case string:
		return r.Unmarshal([]byte(data))
	case io.Reader:
		raw, err := io.ReadAll(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrSerialization, err)
		}
		return r.Unmarshal(raw)
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSerialization, err)
	}
	return r.Unmarshal(raw)
}

// writeGeoJSON атомарно записывает FeatureCollection в файл
func writeGeoJSON(path string, fc *geojson.FeatureCollection) error {
	return writeFileAtomic(path, func(w io.Writer) error {
		if err := json.NewEncoder(w).Encode(fc); err != nil {
			return fmt.Errorf("failed to encode GeoJSON: %w", err)
		}
		return nil
	})
}
