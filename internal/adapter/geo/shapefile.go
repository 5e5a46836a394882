package geo

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ShapefileConverter конвертирует Shapefile в GeoJSON.
// Принимает базовое имя без расширения .shp, атрибуты читаются из .dbf рядом.
type ShapefileConverter struct{}

// NewShapefileConverter создаёт новый ShapefileConverter
func NewShapefileConverter() *ShapefileConverter {
	return &ShapefileConverter{}
}

// ConvertToGeoJSON читает <base>.shp и записывает GeoJSON в dest
func (c *ShapefileConverter) ConvertToGeoJSON(ctx context.Context, base, dest string) error {
	fc, err := c.Read(ctx, base)
	if err != nil {
		return err
	}
	return writeGeoJSON(dest, fc)
}

// Read читает Shapefile в FeatureCollection
func (c *ShapefileConverter) Read(ctx context.Context, base string) (*geojson.FeatureCollection, error) {
	shpPath, err := resolveShapefile(base)
	if err != nil {
		return nil, err
	}

	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open shapefile: %w", err)
	}
	defer reader.Close()

	fields := reader.Fields()
	fc := geojson.NewFeatureCollection()

	for reader.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, shape := reader.Shape()
		geometry, err := shapeToGeometry(shape)
		if err != nil {
			return nil, fmt.Errorf("shape %d: %w", n, err)
		}
		if geometry == nil {
			continue
		}

		feature := geojson.NewFeature(geometry)
		for k, field := range fields {
			feature.Properties[field.String()] = attributeValue(field, reader.ReadAttribute(n, k))
		}
		fc.Append(feature)
	}

	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("failed to read shapefile: %w", err)
	}

	return fc, nil
}

func resolveShapefile(base string) (string, error) {
	for _, ext := range []string{".shp", ".SHP"} {
		candidate := base + ext
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("shapefile %s.shp not found", base)
}

func shapeToGeometry(shape shp.Shape) (orb.Geometry, error) {
	switch s := shape.(type) {
	case *shp.Null:
		return nil, nil
	case *shp.Point:
		return orb.Point{s.X, s.Y}, nil
	case *shp.PointZ:
		return orb.Point{s.X, s.Y}, nil
	case *shp.PointM:
		return orb.Point{s.X, s.Y}, nil
	case *shp.MultiPoint:
		return multiPoint(s.Points), nil
	case *shp.MultiPointZ:
		return multiPoint(s.Points), nil
	case *shp.MultiPointM:
		return multiPoint(s.Points), nil
	case *shp.PolyLine:
		return lines(splitParts(s.Parts, s.Points)), nil
	case *shp.PolyLineZ:
		return lines(splitParts(s.Parts, s.Points)), nil
	case *shp.PolyLineM:
		return lines(splitParts(s.Parts, s.Points)), nil
	case *shp.Polygon:
		return polygons(splitParts(s.Parts, s.Points)), nil
	case *shp.PolygonZ:
		return polygons(splitParts(s.Parts, s.Points)), nil
	case *shp.PolygonM:
		return polygons(splitParts(s.Parts, s.Points)), nil
	}
	return nil, fmt.Errorf("unsupported shape type %T", shape)
}

func splitParts(parts []int32, points []shp.Point) [][]orb.Point {
	result := make([][]orb.Point, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start > end || int(end) > len(points) {
			continue
		}
		part := make([]orb.Point, 0, end-start)
		for _, p := range points[start:end] {
			part = append(part, orb.Point{p.X, p.Y})
		}
		result = append(result, part)
	}
	return result
}

func multiPoint(points []shp.Point) orb.Geometry {
	mp := make(orb.MultiPoint, 0, len(points))
	for _, p := range points {
		mp = append(mp, orb.Point{p.X, p.Y})
	}
	if len(mp) == 1 {
		return mp[0]
	}
	return mp
}

func lines(parts [][]orb.Point) orb.Geometry {
	if len(parts) == 1 {
		return orb.LineString(parts[0])
	}
	mls := make(orb.MultiLineString, 0, len(parts))
	for _, part := range parts {
		mls = append(mls, orb.LineString(part))
	}
	return mls
}

// polygons собирает полигоны из колец: кольцо по часовой стрелке
// открывает новый полигон, против часовой становится дыркой предыдущего.
func polygons(parts [][]orb.Point) orb.Geometry {
	var mp orb.MultiPolygon
	for _, part := range parts {
		ring := orb.Ring(part)
		if !clockwise(ring) && len(mp) > 0 {
			mp[len(mp)-1] = append(mp[len(mp)-1], ring)
			continue
		}
		mp = append(mp, orb.Polygon{ring})
	}

	if len(mp) == 1 {
		return mp[0]
	}
	return mp
}

func clockwise(ring orb.Ring) bool {
	var sum float64
	for i := 0; i+1 < len(ring); i++ {
		sum += (ring[i+1][0] - ring[i][0]) * (ring[i+1][1] + ring[i][1])
	}
	return sum > 0
}

// attributeValue приводит строковое значение DBF к типу поля
func attributeValue(field shp.Field, raw string) any {
	value := strings.TrimSpace(strings.TrimRight(raw, "\x00"))

	switch field.Fieldtype {
	case 'N', 'F':
		if value == "" {
			return nil
		}
		if !strings.ContainsAny(value, ".eE") {
			if i, err := strconv.ParseInt(value, 10, 64); err == nil {
				return i
			}
		}
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		return value
	case 'L':
		switch strings.ToUpper(value) {
		case "T", "Y":
			return true
		case "F", "N":
			return false
		}
		return nil
	}

	return value
}
