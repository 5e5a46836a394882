package geo

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-kml/v3"
)

func writeKML(t *testing.T, path string, doc interface {
	WriteIndent(w io.Writer, prefix, indent string) error
}) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, doc.WriteIndent(&buf, "", "  "))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestKMLConvertToGeoJSON(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "places.kml")
	dst := filepath.Join(dir, "places.geojson")

	writeKML(t, src, kml.KML(
		kml.Document(
			kml.Placemark(
				kml.Name("Zurich"),
				kml.Point(kml.Coordinates(kml.Coordinate{Lon: 8.54, Lat: 47.37})),
			),
			kml.Folder(
				kml.Placemark(
					kml.Name("Route"),
					kml.LineString(kml.Coordinates(
						kml.Coordinate{Lon: 0, Lat: 0},
						kml.Coordinate{Lon: 1, Lat: 1},
						kml.Coordinate{Lon: 2, Lat: 0},
					)),
				),
				kml.Placemark(
					kml.Name("Area"),
					kml.Polygon(
						kml.OuterBoundaryIs(kml.LinearRing(kml.Coordinates(
							kml.Coordinate{Lon: 0, Lat: 0},
							kml.Coordinate{Lon: 10, Lat: 0},
							kml.Coordinate{Lon: 10, Lat: 10},
							kml.Coordinate{Lon: 0, Lat: 10},
							kml.Coordinate{Lon: 0, Lat: 0},
						))),
						kml.InnerBoundaryIs(kml.LinearRing(kml.Coordinates(
							kml.Coordinate{Lon: 2, Lat: 2},
							kml.Coordinate{Lon: 4, Lat: 2},
							kml.Coordinate{Lon: 4, Lat: 4},
							kml.Coordinate{Lon: 2, Lat: 2},
						))),
					),
				),
				kml.Placemark(kml.Name("No geometry")),
			),
		),
	))

	require.NoError(t, NewKMLConverter().ConvertToGeoJSON(context.Background(), src, dst))

	fc, err := NewGeoJSONReader().ReadFile(dst)
	require.NoError(t, err)
	require.Len(t, fc.Features, 3)

	assert.Equal(t, orb.Point{8.54, 47.37}, fc.Features[0].Geometry)
	assert.Equal(t, "Zurich", fc.Features[0].Properties["name"])

	assert.Equal(t, orb.LineString{{0, 0}, {1, 1}, {2, 0}}, fc.Features[1].Geometry)

	polygon, ok := fc.Features[2].Geometry.(orb.Polygon)
	require.True(t, ok)
	require.Len(t, polygon, 2)
	assert.Len(t, polygon[0], 5)
	assert.Len(t, polygon[1], 4)
	assert.Equal(t, "Area", fc.Features[2].Properties["name"])
}

func TestKMLDecodeExtendedData(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Placemark id="p1">
      <name>Depot</name>
      <styleUrl>#red</styleUrl>
      <ExtendedData>
        <Data name="capacity"><value>120</value></Data>
        <SchemaData schemaUrl="#s">
          <SimpleData name="owner">city</SimpleData>
        </SchemaData>
      </ExtendedData>
      <MultiGeometry>
        <Point><coordinates>1,2,0</coordinates></Point>
        <Point><coordinates>3,4</coordinates></Point>
      </MultiGeometry>
    </Placemark>
    <Placemark>
      <MultiGeometry>
        <Point><coordinates>1,2</coordinates></Point>
        <LineString><coordinates>0,0 1,1</coordinates></LineString>
      </MultiGeometry>
    </Placemark>
  </Document>
</kml>`

	fc, err := NewKMLConverter().Decode(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)

	depot := fc.Features[0]
	assert.Equal(t, "p1", depot.ID)
	assert.Equal(t, orb.MultiPoint{{1, 2}, {3, 4}}, depot.Geometry)
	assert.Equal(t, geojson.Properties{
		"name":     "Depot",
		"styleUrl": "#red",
		"capacity": "120",
		"owner":    "city",
	}, depot.Properties)

	mixed, ok := fc.Features[1].Geometry.(orb.Collection)
	require.True(t, ok)
	assert.Len(t, mixed, 2)
}

func TestKMLDecodeInvalidCoordinates(t *testing.T) {
	doc := `<kml><Placemark><Point><coordinates>abc</coordinates></Point></Placemark></kml>`

	_, err := NewKMLConverter().Decode(strings.NewReader(doc))
	assert.Error(t, err)
}

func TestKMLDecodeClosesRings(t *testing.T) {
	doc := `<kml><Placemark><Polygon><outerBoundaryIs><LinearRing>
<coordinates>0,0 1,0 1,1</coordinates>
</LinearRing></outerBoundaryIs></Polygon></Placemark></kml>`

	fc, err := NewKMLConverter().Decode(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)

	polygon := fc.Features[0].Geometry.(orb.Polygon)
	assert.True(t, polygon[0].Closed())
	assert.Len(t, polygon[0], 4)
}
