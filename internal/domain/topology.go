package domain

import (
	"encoding/json"
	"fmt"
	"slices"
)

// DefaultLayerName имя слоя, под которым объект кладётся в топологию
const DefaultLayerName = "geo"

// Topology документ TopoJSON
type Topology struct {
	Type      string                     `json:"type"`
	Transform *Transform                 `json:"transform,omitempty"`
	BBox      []float64                  `json:"bbox,omitempty"`
	Objects   map[string]*TopologyObject `json:"objects"`
	Arcs      [][][]float64              `json:"arcs"`
}

// Transform параметры квантования
type Transform struct {
	Scale     [2]float64 `json:"scale"`
	Translate [2]float64 `json:"translate"`
}

// TopologyObject геометрический объект TopoJSON.
// Arcs и Coordinates хранятся как есть: их вложенность зависит от типа.
type TopologyObject struct {
	Type        string            `json:"type"`
	ID          any               `json:"id,omitempty"`
	Properties  map[string]any    `json:"properties,omitempty"`
	BBox        []float64         `json:"bbox,omitempty"`
	Coordinates json.RawMessage   `json:"coordinates,omitempty"`
	Arcs        json.RawMessage   `json:"arcs,omitempty"`
	Geometries  []*TopologyObject `json:"geometries,omitempty"`
}

// Системы координат построения топологии
const (
	CoordinateSystemAuto      = "auto"
	CoordinateSystemSpherical = "spherical"
	CoordinateSystemCartesian = "cartesian"
)

// TopologyOptions параметры построения топологии
type TopologyOptions struct {
	PreQuantization    float64
	PostQuantization   float64
	CoordinateSystem   string
	StitchPoles        bool
	MinimumArea        float64
	RetainProportion   float64
	ForceClockwise     bool
	PreserveProperties bool
}

// DefaultTopologyOptions фиксированная конфигурация конвертации
func DefaultTopologyOptions() TopologyOptions {
	return TopologyOptions{
		PreQuantization:    1_000_000,
		PostQuantization:   10_000,
		CoordinateSystem:   CoordinateSystemAuto,
		StitchPoles:        true,
		MinimumArea:        0,
		RetainProportion:   0,
		ForceClockwise:     false,
		PreserveProperties: true,
	}
}

// Validate проверяет согласованность параметров
func (o TopologyOptions) Validate() error {
	switch o.CoordinateSystem {
	case CoordinateSystemAuto, CoordinateSystemSpherical, CoordinateSystemCartesian:
	default:
		return fmt.Errorf("unknown coordinate system %q", o.CoordinateSystem)
	}
	if o.MinimumArea < 0 {
		return fmt.Errorf("minimum area must not be negative: %v", o.MinimumArea)
	}
	if o.RetainProportion < 0 || o.RetainProportion > 1 {
		return fmt.Errorf("retain proportion must be within [0, 1]: %v", o.RetainProportion)
	}
	return nil
}

// Layer возвращает слой по имени
func (t *Topology) Layer(name string) (*TopologyObject, bool) {
	obj, ok := t.Objects[name]
	return obj, ok
}

// DecodePosition переводит квантованную позицию в исходные координаты
func (t *Topology) DecodePosition(p []float64) [2]float64 {
	if len(p) < 2 {
		return [2]float64{}
	}
	if t.Transform == nil {
		return [2]float64{p[0], p[1]}
	}
	return [2]float64{
		p[0]*t.Transform.Scale[0] + t.Transform.Translate[0],
		p[1]*t.Transform.Scale[1] + t.Transform.Translate[1],
	}
}

// ArcCoordinates декодирует дугу в абсолютные координаты.
// Отрицательный индекс (^i) означает дугу i в обратном порядке.
func (t *Topology) ArcCoordinates(i int) ([][2]float64, error) {
	reverse := i < 0
	if reverse {
		i = ^i
	}
	if i >= len(t.Arcs) {
		return nil, fmt.Errorf("arc index %d out of range (%d arcs)", i, len(t.Arcs))
	}

	arc := t.Arcs[i]
	points := make([][2]float64, 0, len(arc))
	var x, y float64
	for _, p := range arc {
		if len(p) < 2 {
			continue
		}
		if t.Transform == nil {
			points = append(points, [2]float64{p[0], p[1]})
			continue
		}
		// Квантованные дуги кодируются дельтами
		x += p[0]
		y += p[1]
		points = append(points, t.DecodePosition([]float64{x, y}))
	}

	if reverse {
		slices.Reverse(points)
	}
	return points, nil
}
