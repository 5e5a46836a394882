package geo

import (
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/plastinin/geo2topo/internal/domain"
)

// stitchEpsilon допуск в градусах, в пределах которого координата
// прижимается к антимеридиану или полюсу
const stitchEpsilon = 1e-6

// prepare применяет к геометриям параметры системы координат и ориентации колец
// и возвращает порог упрощения. Геометрии изменяются на месте.
func (b *TopologyBuilder) prepare(fc *geojson.FeatureCollection) float64 {
	system := coordinateSystem(b.opts.CoordinateSystem, fc)

	for _, f := range fc.Features {
		if system == domain.CoordinateSystemSpherical && b.opts.StitchPoles {
			f.Geometry = transformPoints(f.Geometry, stitchPoint)
		}
		if b.opts.ForceClockwise {
			forceClockwise(f.Geometry)
		}
	}

	return simplifyThreshold(b.opts, fc)
}

// coordinateSystem разрешает "auto": сферическая, если все координаты
// лежат в пределах долготы и широты
func coordinateSystem(system string, fc *geojson.FeatureCollection) string {
	if system != domain.CoordinateSystemAuto {
		return system
	}

	var (
		bound orb.Bound
		seen  bool
	)
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		if !seen {
			bound, seen = f.Geometry.Bound(), true
			continue
		}
		bound = bound.Union(f.Geometry.Bound())
	}

	if bound.Min[0] < -180 || bound.Max[0] > 180 || bound.Min[1] < -90 || bound.Max[1] > 90 {
		return domain.CoordinateSystemCartesian
	}
	return domain.CoordinateSystemSpherical
}

func stitchPoint(p orb.Point) orb.Point {
	return orb.Point{snapToLimit(p[0], 180), snapToLimit(p[1], 90)}
}

func snapToLimit(v, limit float64) float64 {
	switch {
	case v >= limit-stitchEpsilon:
		return limit
	case v <= -limit+stitchEpsilon:
		return -limit
	}
	return v
}

func transformPoints(g orb.Geometry, fn func(orb.Point) orb.Point) orb.Geometry {
	switch g := g.(type) {
	case orb.Point:
		return fn(g)
	case orb.MultiPoint:
		for i := range g {
			g[i] = fn(g[i])
		}
	case orb.LineString:
		for i := range g {
			g[i] = fn(g[i])
		}
	case orb.Ring:
		for i := range g {
			g[i] = fn(g[i])
		}
	case orb.MultiLineString:
		for _, ls := range g {
			transformPoints(ls, fn)
		}
	case orb.Polygon:
		for _, r := range g {
			transformPoints(r, fn)
		}
	case orb.MultiPolygon:
		for _, p := range g {
			transformPoints(p, fn)
		}
	case orb.Collection:
		for i := range g {
			g[i] = transformPoints(g[i], fn)
		}
	}
	return g
}

// forceClockwise ориентирует внешние кольца по часовой стрелке,
// внутренние против
func forceClockwise(g orb.Geometry) {
	switch g := g.(type) {
	case orb.Polygon:
		for i, r := range g {
			if i == 0 && r.Orientation() == orb.CCW || i > 0 && r.Orientation() == orb.CW {
				r.Reverse()
			}
		}
	case orb.MultiPolygon:
		for _, p := range g {
			forceClockwise(p)
		}
	case orb.Collection:
		for _, c := range g {
			forceClockwise(c)
		}
	}
}

// simplifyThreshold возвращает минимальную площадь треугольника для упрощения.
// Явная минимальная площадь важнее доли сохраняемых точек.
func simplifyThreshold(opts domain.TopologyOptions, fc *geojson.FeatureCollection) float64 {
	if opts.MinimumArea > 0 {
		return opts.MinimumArea
	}
	if opts.RetainProportion <= 0 || opts.RetainProportion >= 1 {
		return 0
	}

	var areas []float64
	for _, f := range fc.Features {
		eachLine(f.Geometry, func(line []orb.Point) {
			for i := 1; i+1 < len(line); i++ {
				areas = append(areas, triangleArea(line[i-1], line[i], line[i+1]))
			}
		})
	}
	if len(areas) == 0 {
		return 0
	}

	slices.Sort(areas)
	drop := int(float64(len(areas)) * (1 - opts.RetainProportion))
	if drop == 0 {
		return 0
	}
	return areas[drop]
}

func eachLine(g orb.Geometry, fn func([]orb.Point)) {
	switch g := g.(type) {
	case orb.LineString:
		fn(g)
	case orb.Ring:
		fn(g)
	case orb.MultiLineString:
		for _, ls := range g {
			fn(ls)
		}
	case orb.Polygon:
		for _, r := range g {
			fn(r)
		}
	case orb.MultiPolygon:
		for _, p := range g {
			eachLine(p, fn)
		}
	case orb.Collection:
		for _, c := range g {
			eachLine(c, fn)
		}
	}
}

func triangleArea(a, b, c orb.Point) float64 {
	area := (a[0]*(b[1]-c[1]) + b[0]*(c[1]-a[1]) + c[0]*(a[1]-b[1])) / 2
	if area < 0 {
		return -area
	}
	return area
}
