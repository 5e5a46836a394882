package geo

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/plastinin/geo2topo/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectionOf(geometries ...orb.Geometry) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, g := range geometries {
		fc.Append(geojson.NewFeature(g))
	}
	return fc
}

func TestCoordinateSystem(t *testing.T) {
	geographic := collectionOf(orb.Point{37.6, 55.7}, orb.LineString{{-180, -90}, {180, 90}})
	projected := collectionOf(orb.Point{37.6, 55.7}, orb.Point{4_187_000, 7_508_000})

	assert.Equal(t, domain.CoordinateSystemSpherical, coordinateSystem(domain.CoordinateSystemAuto, geographic))
	assert.Equal(t, domain.CoordinateSystemCartesian, coordinateSystem(domain.CoordinateSystemAuto, projected))
	assert.Equal(t, domain.CoordinateSystemSpherical, coordinateSystem(domain.CoordinateSystemAuto, collectionOf()))
	assert.Equal(t, domain.CoordinateSystemCartesian, coordinateSystem(domain.CoordinateSystemCartesian, geographic))
}

func TestPrepareStitchPoles(t *testing.T) {
	line := orb.LineString{{179.9999999, 89.9999999}, {0, 0}, {-179.9999999, -89.9999999}}

	fc := collectionOf(orb.Clone(line))
	NewTopologyBuilder(domain.DefaultTopologyOptions()).prepare(fc)
	assert.Equal(t, orb.LineString{{180, 90}, {0, 0}, {-180, -90}}, fc.Features[0].Geometry)

	opts := domain.DefaultTopologyOptions()
	opts.StitchPoles = false
	fc = collectionOf(orb.Clone(line))
	NewTopologyBuilder(opts).prepare(fc)
	assert.Equal(t, line, fc.Features[0].Geometry)

	opts = domain.DefaultTopologyOptions()
	opts.CoordinateSystem = domain.CoordinateSystemCartesian
	fc = collectionOf(orb.Clone(line))
	NewTopologyBuilder(opts).prepare(fc)
	assert.Equal(t, line, fc.Features[0].Geometry)
}

func TestPrepareForceClockwise(t *testing.T) {
	exterior := orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}
	hole := orb.Ring{{2, 2}, {2, 4}, {4, 4}, {4, 2}, {2, 2}}
	require.Equal(t, orb.CCW, exterior.Orientation())
	require.Equal(t, orb.CW, hole.Orientation())

	opts := domain.DefaultTopologyOptions()
	opts.ForceClockwise = true
	fc := collectionOf(orb.MultiPolygon{orb.Polygon{orb.Clone(exterior).(orb.Ring), orb.Clone(hole).(orb.Ring)}})
	NewTopologyBuilder(opts).prepare(fc)

	polygon := fc.Features[0].Geometry.(orb.MultiPolygon)[0]
	assert.Equal(t, orb.CW, polygon[0].Orientation())
	assert.Equal(t, orb.CCW, polygon[1].Orientation())

	fc = collectionOf(orb.Polygon{orb.Clone(exterior).(orb.Ring)})
	NewTopologyBuilder(domain.DefaultTopologyOptions()).prepare(fc)
	assert.Equal(t, orb.CCW, fc.Features[0].Geometry.(orb.Polygon)[0].Orientation())
}

func TestSimplifyThreshold(t *testing.T) {
	// Площади треугольников внутренних вершин: 1, 2, 3
	fc := collectionOf(orb.LineString{{0, 0}, {1, 1}, {2, 0}, {3, 3}, {4, 0}})

	tests := []struct {
		name    string
		minArea float64
		retain  float64
		want    float64
	}{
		{name: "no simplification", want: 0},
		{name: "minimum area wins", minArea: 5, retain: 0.5, want: 5},
		{name: "retain half", retain: 0.5, want: 2},
		{name: "retain almost all", retain: 0.9, want: 0},
		{name: "retain all", retain: 1, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := domain.DefaultTopologyOptions()
			opts.MinimumArea = tt.minArea
			opts.RetainProportion = tt.retain
			assert.Equal(t, tt.want, simplifyThreshold(opts, fc))
		})
	}
}

func TestTopologyBuildKeepsSourceGeometry(t *testing.T) {
	exterior := orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}
	fc := collectionOf(orb.Polygon{exterior})

	opts := domain.DefaultTopologyOptions()
	opts.ForceClockwise = true
	_, err := NewTopologyBuilder(opts).Build(map[string]*geojson.FeatureCollection{
		domain.DefaultLayerName: fc,
	})
	require.NoError(t, err)

	assert.Equal(t, orb.CCW, fc.Features[0].Geometry.(orb.Polygon)[0].Orientation())
}

func TestTopologyBuildInvalidOptions(t *testing.T) {
	opts := domain.DefaultTopologyOptions()
	opts.CoordinateSystem = "mercator"

	_, err := NewTopologyBuilder(opts).Build(map[string]*geojson.FeatureCollection{
		domain.DefaultLayerName: collectionOf(orb.Point{1, 2}),
	})
	assert.EqualError(t, err, `invalid topology options: unknown coordinate system "mercator"`)
}
