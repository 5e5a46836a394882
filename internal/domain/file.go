package domain

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"
)

var (
	ErrMissingSidecar = errors.New("shapefile requires a .dbf sidecar file")
	ErrInvalidSidecar = errors.New("sidecar file is not a shapefile component")
)

// TopoJSONContentType MIME тип результата
const TopoJSONContentType = "application/json"

// Маппинг форматов на MIME типы для хранилища
var formatToContentType = map[Format]string{
	FormatTopoJSON:  "application/json",
	FormatGeoJSON:   "application/geo+json",
	FormatKML:       "application/vnd.google-earth.kml+xml",
	FormatShapefile: "application/vnd.shp",
}

// Расширения сопутствующих файлов Shapefile
var shapefileSidecarExts = []string{".dbf", ".shx", ".prj", ".cpg"}

// ContentTypeForFormat возвращает MIME тип для формата
func ContentTypeForFormat(f Format) string {
	if ct, ok := formatToContentType[f]; ok {
		return ct
	}
	return "application/octet-stream"
}

// ValidateSidecar проверяет имя сопутствующего файла Shapefile
func ValidateSidecar(fileName string) error {
	ext := strings.ToLower(filepath.Ext(fileName))
	if !slices.Contains(shapefileSidecarExts, ext) {
		return ErrInvalidSidecar
	}
	return nil
}

// HasDBFSidecar проверяет наличие .dbf среди сопутствующих файлов
func HasDBFSidecar(fileNames []string) bool {
	for _, name := range fileNames {
		if strings.EqualFold(filepath.Ext(name), ".dbf") {
			return true
		}
	}
	return false
}

// ResultFileName имя файла результата для исходного файла
func ResultFileName(sourceName string) string {
	base := filepath.Base(sourceName)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." {
		base = "result"
	}
	return base + ".topojson"
}
