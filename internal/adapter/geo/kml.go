package geo

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// KMLConverter конвертирует KML в GeoJSON
type KMLConverter struct{}

// NewKMLConverter создаёт новый KMLConverter
func NewKMLConverter() *KMLConverter {
	return &KMLConverter{}
}

type kmlCoordinates struct {
	Coordinates string `xml:"coordinates"`
}

type kmlBoundary struct {
	LinearRing kmlCoordinates `xml:"LinearRing"`
}

type kmlPolygon struct {
	Outer kmlBoundary   `xml:"outerBoundaryIs"`
	Inner []kmlBoundary `xml:"innerBoundaryIs"`
}

type kmlGeometries struct {
	Points        []kmlCoordinates `xml:"Point"`
	LineStrings   []kmlCoordinates `xml:"LineString"`
	LinearRings   []kmlCoordinates `xml:"LinearRing"`
	Polygons      []kmlPolygon     `xml:"Polygon"`
	MultiGeometry []kmlGeometries  `xml:"MultiGeometry"`
}

type kmlData struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value"`
}

type kmlSimpleData struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type kmlExtendedData struct {
	Data       []kmlData `xml:"Data"`
	SchemaData []struct {
		SimpleData []kmlSimpleData `xml:"SimpleData"`
	} `xml:"SchemaData"`
}

type kmlPlacemark struct {
	ID           string           `xml:"id,attr"`
	Name         string           `xml:"name"`
	Description  string           `xml:"description"`
	StyleURL     string           `xml:"styleUrl"`
	ExtendedData *kmlExtendedData `xml:"ExtendedData"`
	kmlGeometries
}

// ConvertToGeoJSON читает KML файл source и записывает GeoJSON в dest
func (c *KMLConverter) ConvertToGeoJSON(ctx context.Context, source, dest string) error {
	f, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("failed to open KML file: %w", err)
	}
	defer f.Close()

	fc, err := c.Decode(&contextReader{ctx: ctx, r: f})
	if err != nil {
		return err
	}

	return writeGeoJSON(dest, fc)
}

// Decode разбирает KML документ. Placemark ищутся на любой глубине
// вложенности Document/Folder, Placemark без геометрии пропускаются.
func (c *KMLConverter) Decode(r io.Reader) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	decoder := xml.NewDecoder(r)

	for {
		token, err := decoder.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to parse KML: %w", err)
		}

		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "Placemark" {
			continue
		}

		var placemark kmlPlacemark
		if err := decoder.DecodeElement(&placemark, &start); err != nil {
			return nil, fmt.Errorf("failed to decode placemark: %w", err)
		}

		feature, err := placemark.feature()
		if err != nil {
			return nil, fmt.Errorf("placemark %q: %w", placemark.Name, err)
		}
		if feature != nil {
			fc.Append(feature)
		}
	}

	return fc, nil
}

func (p *kmlPlacemark) feature() (*geojson.Feature, error) {
	geometries, err := p.kmlGeometries.collect()
	if err != nil {
		return nil, err
	}
	if len(geometries) == 0 {
		return nil, nil
	}

	geometry := geometries[0]
	if len(geometries) > 1 {
		geometry = collapse(geometries)
	}

	feature := geojson.NewFeature(geometry)
	if p.ID != "" {
		feature.ID = p.ID
	}
	if name := strings.TrimSpace(p.Name); name != "" {
		feature.Properties["name"] = name
	}
	if description := strings.TrimSpace(p.Description); description != "" {
		feature.Properties["description"] = description
	}
	if styleURL := strings.TrimSpace(p.StyleURL); styleURL != "" {
		feature.Properties["styleUrl"] = styleURL
	}
	if p.ExtendedData != nil {
		for _, d := range p.ExtendedData.Data {
			feature.Properties[d.Name] = strings.TrimSpace(d.Value)
		}
		for _, schema := range p.ExtendedData.SchemaData {
			for _, d := range schema.SimpleData {
				feature.Properties[d.Name] = strings.TrimSpace(d.Value)
			}
		}
	}

	return feature, nil
}

func (g *kmlGeometries) collect() ([]orb.Geometry, error) {
	var geometries []orb.Geometry

	for _, p := range g.Points {
		points, err := parseKMLCoordinates(p.Coordinates)
		if err != nil {
			return nil, err
		}
		if len(points) == 0 {
			continue
		}
		geometries = append(geometries, points[0])
	}

	for _, l := range g.LineStrings {
		points, err := parseKMLCoordinates(l.Coordinates)
		if err != nil {
			return nil, err
		}
		if len(points) < 2 {
			continue
		}
		geometries = append(geometries, orb.LineString(points))
	}

	for _, l := range g.LinearRings {
		ring, err := parseKMLRing(l)
		if err != nil {
			return nil, err
		}
		if ring == nil {
			continue
		}
		geometries = append(geometries, orb.Polygon{ring})
	}

	for _, p := range g.Polygons {
		outer, err := parseKMLRing(p.Outer.LinearRing)
		if err != nil {
			return nil, err
		}
		if outer == nil {
			continue
		}
		polygon := orb.Polygon{outer}
		for _, inner := range p.Inner {
			hole, err := parseKMLRing(inner.LinearRing)
			if err != nil {
				return nil, err
			}
			if hole != nil {
				polygon = append(polygon, hole)
			}
		}
		geometries = append(geometries, polygon)
	}

	for _, m := range g.MultiGeometry {
		inner, err := m.collect()
		if err != nil {
			return nil, err
		}
		switch len(inner) {
		case 0:
		case 1:
			geometries = append(geometries, inner[0])
		default:
			geometries = append(geometries, collapse(inner))
		}
	}

	return geometries, nil
}

// collapse объединяет однотипные геометрии в Multi*, разнотипные в коллекцию
func collapse(geometries []orb.Geometry) orb.Geometry {
	var (
		points   orb.MultiPoint
		lines    orb.MultiLineString
		polygons orb.MultiPolygon
	)

	for _, g := range geometries {
		switch v := g.(type) {
		case orb.Point:
			points = append(points, v)
		case orb.LineString:
			lines = append(lines, v)
		case orb.Polygon:
			polygons = append(polygons, v)
		default:
			return orb.Collection(geometries)
		}
	}

	switch len(geometries) {
	case len(points):
		return points
	case len(lines):
		return lines
	case len(polygons):
		return polygons
	}
	return orb.Collection(geometries)
}

func parseKMLRing(c kmlCoordinates) (orb.Ring, error) {
	points, err := parseKMLCoordinates(c.Coordinates)
	if err != nil {
		return nil, err
	}
	if len(points) < 3 {
		return nil, nil
	}

	ring := orb.Ring(points)
	if !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return ring, nil
}

// parseKMLCoordinates разбирает кортежи "lon,lat[,alt]", разделённые пробелами
func parseKMLCoordinates(s string) ([]orb.Point, error) {
	tuples := strings.Fields(s)
	points := make([]orb.Point, 0, len(tuples))

	for _, tuple := range tuples {
		parts := strings.Split(tuple, ",")
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid KML coordinate %q", tuple)
		}
		lon, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude in %q: %w", tuple, err)
		}
		lat, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude in %q: %w", tuple, err)
		}
		points = append(points, orb.Point{lon, lat})
	}

	return points, nil
}
