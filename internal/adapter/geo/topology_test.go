package geo

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/plastinin/geo2topo/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(x, y, size float64) orb.Polygon {
	return orb.Polygon{{{x, y}, {x + size, y}, {x + size, y + size}, {x, y + size}, {x, y}}}
}

func decodedPoints(t *testing.T, topo *domain.Topology) [][2]float64 {
	t.Helper()
	var points [][2]float64
	for i := range topo.Arcs {
		arc, err := topo.ArcCoordinates(i)
		require.NoError(t, err)
		points = append(points, arc...)
	}
	return points
}

func assertNearAny(t *testing.T, want orb.Point, got [][2]float64, tolerance float64) {
	t.Helper()
	for _, p := range got {
		if math.Abs(p[0]-want[0]) <= tolerance && math.Abs(p[1]-want[1]) <= tolerance {
			return
		}
	}
	t.Errorf("no decoded point near %v", want)
}

func TestTopologyBuildSingleLayer(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	f := geojson.NewFeature(square(0, 0, 10))
	f.ID = "sq"
	f.Properties["name"] = "square"
	fc.Append(f)

	topo, err := NewTopologyBuilder(domain.DefaultTopologyOptions()).Build(map[string]*geojson.FeatureCollection{
		domain.DefaultLayerName: fc,
	})
	require.NoError(t, err)

	assert.Equal(t, "Topology", topo.Type)
	layer, ok := topo.Layer(domain.DefaultLayerName)
	require.True(t, ok)
	assert.Equal(t, "GeometryCollection", layer.Type)
	require.Len(t, layer.Geometries, 1)

	obj := layer.Geometries[0]
	assert.Equal(t, "Polygon", obj.Type)
	assert.Equal(t, "sq", obj.ID)
	assert.Equal(t, map[string]any{"name": "square"}, obj.Properties)

	points := decodedPoints(t, topo)
	require.NotEmpty(t, points)
	for _, p := range square(0, 0, 10)[0] {
		assertNearAny(t, p, points, 10.0/1_000)
	}
}

func TestTopologyBuildSharedLayers(t *testing.T) {
	left := geojson.NewFeatureCollection()
	left.Append(geojson.NewFeature(square(0, 0, 1)))
	right := geojson.NewFeatureCollection()
	right.Append(geojson.NewFeature(square(1, 0, 1)))
	right.Append(geojson.NewFeature(orb.Point{5, 5}))

	topo, err := NewTopologyBuilder(domain.DefaultTopologyOptions()).Build(map[string]*geojson.FeatureCollection{
		"left":  left,
		"right": right,
	})
	require.NoError(t, err)

	require.Len(t, topo.Objects, 2)
	assert.Len(t, topo.Objects["left"].Geometries, 1)
	require.Len(t, topo.Objects["right"].Geometries, 2)
	assert.Equal(t, "Polygon", topo.Objects["right"].Geometries[0].Type)
	assert.Equal(t, "Point", topo.Objects["right"].Geometries[1].Type)
}

func TestTopologyBuildEmpty(t *testing.T) {
	topo, err := NewTopologyBuilder(domain.DefaultTopologyOptions()).Build(map[string]*geojson.FeatureCollection{
		domain.DefaultLayerName: geojson.NewFeatureCollection(),
	})
	require.NoError(t, err)

	layer, ok := topo.Layer(domain.DefaultLayerName)
	require.True(t, ok)
	assert.Empty(t, layer.Geometries)
	assert.NotNil(t, topo.Arcs)
}

func TestConvertGeoJSONToTopoJSON(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.geojson")
	dst := filepath.Join(dir, "out.topojson")

	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(square(0, 0, 10)))
	data, err := json.Marshal(fc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(src, data, 0o644))

	converter := NewTopoJSONConverter(NewGeoJSONReader(), NewTopologyBuilder(domain.DefaultTopologyOptions()))
	require.NoError(t, converter.ConvertGeoJSONToTopoJSON(context.Background(), src, dst))

	raw, err := os.ReadFile(dst)
	require.NoError(t, err)

	var topo domain.Topology
	require.NoError(t, json.Unmarshal(raw, &topo))
	assert.Equal(t, "Topology", topo.Type)
	assert.Contains(t, topo.Objects, domain.DefaultLayerName)
}

func TestConvertGeoJSONToTopoJSONMalformed(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.geojson")
	dst := filepath.Join(dir, "out.topojson")
	require.NoError(t, os.WriteFile(src, []byte("{nope"), 0o644))

	converter := NewTopoJSONConverter(NewGeoJSONReader(), NewTopologyBuilder(domain.DefaultTopologyOptions()))
	err := converter.ConvertGeoJSONToTopoJSON(context.Background(), src, dst)
	assert.ErrorIs(t, err, domain.ErrSerialization)
	assert.NoFileExists(t, dst)
}
