package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		path   string
		format Format
		err    error
	}{
		{"world.topojson", FormatTopoJSON, nil},
		{"data/world.topo.json", FormatTopoJSON, nil},
		{"countries.geojson", FormatGeoJSON, nil},
		{"countries.geo.json", FormatGeoJSON, nil},
		{"Data.GeoJSON", FormatGeoJSON, nil},
		{"tracks.kml", FormatKML, nil},
		{"TRACKS.KML", FormatKML, nil},
		{"tracks.kmz", "", ErrUnsupportedContainer},
		{"parcels.shp", FormatShapefile, nil},
		{"PARCELS.SHP", FormatShapefile, nil},
		{"parcels.dbf", "", ErrUnrecognizedFormat},
		{"notes.txt", "", ErrUnrecognizedFormat},
		{"", "", ErrUnrecognizedFormat},
		// topo.json проверяется раньше geo.json
		{"geo.topo.json", FormatTopoJSON, nil},
		// geojson проверяется раньше kml
		{"kml_export.geojson", FormatGeoJSON, nil},
	}

	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			format, err := DetectFormat(tc.path)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				assert.Empty(t, format)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.format, format)
		})
	}
}

func TestDetectFormatIsCaseInsensitive(t *testing.T) {
	upper, errUpper := DetectFormat("Data.GeoJSON")
	lower, errLower := DetectFormat("data.geojson")

	require.NoError(t, errUpper)
	require.NoError(t, errLower)
	assert.Equal(t, lower, upper)
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"TopoJSON", "topojson", "GEOJSON", "kml", "SHP", "Shapefile", " geojson "} {
		f, err := ParseFormat(s)
		require.NoError(t, err, s)
		assert.True(t, f.IsValid(), s)
	}

	_, err := ParseFormat("geopackage")
	assert.ErrorIs(t, err, ErrUnrecognizedFormat)

	_, err = ParseFormat("kmz")
	assert.ErrorIs(t, err, ErrUnrecognizedFormat)
}

func TestFormatName(t *testing.T) {
	assert.Equal(t, "TopoJSON", FormatTopoJSON.Name())
	assert.Equal(t, "GeoJSON", FormatGeoJSON.Name())
	assert.Equal(t, "KML", FormatKML.Name())
	assert.Equal(t, "Shapefile", FormatShapefile.Name())
	assert.Len(t, Formats(), 4)
}

func TestStageError(t *testing.T) {
	cause := ErrSerialization
	err := error(&StageError{Stage: "converting KML to GeoJSON", Err: cause})

	assert.ErrorIs(t, err, ErrStageFailed)
	assert.ErrorIs(t, err, ErrSerialization)
	assert.True(t, IsConversionError(err))
	assert.Contains(t, err.Error(), "converting KML to GeoJSON")
}
