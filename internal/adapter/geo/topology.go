package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/plastinin/geo2topo/internal/domain"
	"github.com/rubenv/topojson"
)

// featureKeyProperty служебное свойство, по которому объекты топологии
// сопоставляются с исходными слоями и объектами
const featureKeyProperty = "__geo2topo_key"

// TopologyBuilder строит TopoJSON из именованных слоёв GeoJSON
type TopologyBuilder struct {
	opts domain.TopologyOptions
}

// NewTopologyBuilder создаёт новый TopologyBuilder
func NewTopologyBuilder(opts domain.TopologyOptions) *TopologyBuilder {
	return &TopologyBuilder{opts: opts}
}

type sourceFeature struct {
	layer   string
	index   int
	feature *geojson.Feature
}

// Build строит топологию. Все слои собираются в одно построение, чтобы
// общие границы разных слоёв делили одни дуги, затем объекты
// раскладываются обратно по слоям в виде GeometryCollection.
func (b *TopologyBuilder) Build(layers map[string]*geojson.FeatureCollection) (*domain.Topology, error) {
	if err := b.opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid topology options: %w", err)
	}

	names := slices.Sorted(maps.Keys(layers))

	merged := geojson.NewFeatureCollection()
	sources := make(map[string]sourceFeature)

	for _, name := range names {
		fc := layers[name]
		if fc == nil {
			continue
		}
		for i, f := range fc.Features {
			if f == nil || f.Geometry == nil {
				continue
			}
			key := name + "/" + strconv.Itoa(i)

			clone := geojson.NewFeature(orb.Clone(f.Geometry))
			clone.ID = key
			for k, v := range f.Properties {
				clone.Properties[k] = v
			}
			clone.Properties[featureKeyProperty] = key

			merged.Append(clone)
			sources[key] = sourceFeature{layer: name, index: i, feature: f}
		}
	}

	built, err := b.build(merged, b.prepare(merged))
	if err != nil {
		return nil, err
	}

	topo := &domain.Topology{
		Type:      "Topology",
		Transform: built.Transform,
		BBox:      built.BBox,
		Objects:   make(map[string]*domain.TopologyObject, len(names)),
		Arcs:      built.Arcs,
	}
	if topo.Arcs == nil {
		topo.Arcs = [][][]float64{}
	}

	grouped := make(map[string][]sourceObject, len(names))
	for mapKey, obj := range built.Objects {
		if obj == nil {
			continue
		}
		src, ok := sources[objectKey(mapKey, obj)]
		if !ok {
			return nil, fmt.Errorf("topology object %q has no source feature", mapKey)
		}
		restoreFeature(obj, src.feature, b.opts.PreserveProperties)
		grouped[src.layer] = append(grouped[src.layer], sourceObject{index: src.index, object: obj})
	}

	for _, name := range names {
		objects := grouped[name]
		slices.SortFunc(objects, func(a, b sourceObject) int { return a.index - b.index })

		geometries := make([]*domain.TopologyObject, 0, len(objects))
		for _, o := range objects {
			geometries = append(geometries, o.object)
		}
		topo.Objects[name] = &domain.TopologyObject{
			Type:       "GeometryCollection",
			Geometries: geometries,
		}
	}

	return topo, nil
}

type sourceObject struct {
	index  int
	object *domain.TopologyObject
}

// build вызывает построитель топологии и переводит результат в доменную модель
func (b *TopologyBuilder) build(fc *geojson.FeatureCollection, simplify float64) (result *domain.Topology, err error) {
	if len(fc.Features) == 0 {
		return &domain.Topology{Type: "Topology", Objects: map[string]*domain.TopologyObject{}}, nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to build topology: %v", r)
		}
	}()

	built := topojson.NewTopology(fc, &topojson.TopologyOptions{
		PreQuantize:  b.opts.PreQuantization,
		PostQuantize: b.opts.PostQuantization,
		Simplify:     simplify,
		IDProperty:   featureKeyProperty,
	})

	data, err := json.Marshal(built)
	if err != nil {
		return nil, fmt.Errorf("failed to encode topology: %w", err)
	}

	result = &domain.Topology{}
	if err := json.Unmarshal(data, result); err != nil {
		return nil, fmt.Errorf("failed to decode topology: %w", err)
	}
	return result, nil
}

// objectKey определяет служебный ключ объекта: по id, по свойству или по ключу карты
func objectKey(mapKey string, obj *domain.TopologyObject) string {
	if id, ok := obj.ID.(string); ok && strings.Contains(id, "/") {
		return id
	}
	if v, ok := obj.Properties[featureKeyProperty].(string); ok {
		return v
	}
	return mapKey
}

func restoreFeature(obj *domain.TopologyObject, src *geojson.Feature, preserveProperties bool) {
	obj.ID = src.ID
	obj.BBox = nil

	if !preserveProperties || len(src.Properties) == 0 {
		obj.Properties = nil
		return
	}
	obj.Properties = make(map[string]any, len(src.Properties))
	for k, v := range src.Properties {
		obj.Properties[k] = v
	}
}

// TopoJSONConverter конвертирует GeoJSON файл в TopoJSON файл
type TopoJSONConverter struct {
	reader  *GeoJSONReader
	builder *TopologyBuilder
}

// NewTopoJSONConverter создаёт новый TopoJSONConverter
func NewTopoJSONConverter(reader *GeoJSONReader, builder *TopologyBuilder) *TopoJSONConverter {
	return &TopoJSONConverter{
		reader:  reader,
		builder: builder,
	}
}

// ConvertGeoJSONToTopoJSON читает GeoJSON из source и записывает топологию в dest
func (c *TopoJSONConverter) ConvertGeoJSONToTopoJSON(ctx context.Context, source, dest string) error {
	fc, err := c.reader.ReadFile(source)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	topo, err := c.builder.Build(map[string]*geojson.FeatureCollection{
		domain.DefaultLayerName: fc,
	})
	if err != nil {
		return err
	}

	return writeFileAtomic(dest, func(w io.Writer) error {
		if err := json.NewEncoder(w).Encode(topo); err != nil {
			return fmt.Errorf("failed to encode TopoJSON: %w", err)
		}
		return nil
	})
}
