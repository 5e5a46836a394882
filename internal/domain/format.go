package domain

import (
	"strings"
)

// Format тег формата входного файла
type Format string

const (
	FormatTopoJSON  Format = "topojson"
	FormatGeoJSON   Format = "geojson"
	FormatKML       Format = "kml"
	FormatShapefile Format = "shp"
)

// Алиасы, принимаемые при явном указании формата
var formatAliases = map[string]Format{
	"topojson":  FormatTopoJSON,
	"geojson":   FormatGeoJSON,
	"kml":       FormatKML,
	"shp":       FormatShapefile,
	"shapefile": FormatShapefile,
}

// ParseFormat разбирает явно указанный формат без учёта регистра
func ParseFormat(s string) (Format, error) {
	f, ok := formatAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", ErrUnrecognizedFormat
	}
	return f, nil
}

// DetectFormat определяет формат по имени файла.
// Проверки идут по порядку, первое совпадение выигрывает:
// "geo.json" и "topo.json" пересекаются по подстрокам.
// Файловая система не затрагивается.
func DetectFormat(path string) (Format, error) {
	p := strings.ToLower(path)

	switch {
	case strings.Contains(p, "topojson") || strings.Contains(p, "topo.json"):
		return FormatTopoJSON, nil
	case strings.Contains(p, "geojson") || strings.Contains(p, "geo.json"):
		return FormatGeoJSON, nil
	case strings.Contains(p, "kml"):
		return FormatKML, nil
	case strings.Contains(p, "kmz"):
		return "", ErrUnsupportedContainer
	case strings.Contains(p, ".shp"):
		return FormatShapefile, nil
	}

	return "", ErrUnrecognizedFormat
}

// IsValid проверяет, что формат входит в поддерживаемый набор
func (f Format) IsValid() bool {
	switch f {
	case FormatTopoJSON, FormatGeoJSON, FormatKML, FormatShapefile:
		return true
	}
	return false
}

// Name возвращает каноническое отображаемое имя формата
func (f Format) Name() string {
	switch f {
	case FormatTopoJSON:
		return "TopoJSON"
	case FormatGeoJSON:
		return "GeoJSON"
	case FormatKML:
		return "KML"
	case FormatShapefile:
		return "Shapefile"
	}
	return string(f)
}

func (f Format) String() string {
	return string(f)
}

// Formats возвращает все поддерживаемые форматы
func Formats() []Format {
	return []Format{FormatTopoJSON, FormatGeoJSON, FormatKML, FormatShapefile}
}
