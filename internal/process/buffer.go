package process

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb/geojson"

	"github.com/mparks/geode/internal/geom"
	"github.com/mparks/geode/internal/model"
)

var bufferDescriptor = &model.ProcessDescriptor{
	ID:    "geometry-buffer",
	Title: "Geometry Buffer",
	Description: "Computes a buffer of a given distance around an input GeoJSON " +
		"geometry. Returns the buffered geometry as GeoJSON.",
	Version:           "1.0.0",
	JobControlOptions: []string{model.ControlSync, model.ControlAsync},
	Keywords:          []string{"buffer", "geometry", "geospatial", "ogc"},
	Links: []model.Link{{
		Type:     "text/html",
		Rel:      "about",
		Title:    "Buffer operation background",
		Href:     "https://en.wikipedia.org/wiki/Buffer_(GIS)",
		Hreflang: "en-US",
	}},
	Inputs: map[string]model.Input{
		"geometry": {
			Title:       "Input Geometry",
			Description: "A GeoJSON geometry object (Point, LineString, Polygon, etc.)",
			Schema:      model.Schema{Type: model.TypeObject},
			MinOccurs:   1,
			MaxOccurs:   1,
			Keywords:    []string{"geometry", "geojson"},
		},
		"distance": {
			Title:       "Buffer Distance",
			Description: "Buffer distance in the units of the input CRS (degrees for WGS84)",
			Schema:      model.Schema{Type: model.TypeNumber},
			MinOccurs:   1,
			MaxOccurs:   1,
			Keywords:    []string{"distance", "radius"},
		},
		"resolution": {
			Title:       "Resolution",
			Description: "Number of segments used to approximate a quarter circle (default: 16)",
			Schema:      model.Schema{Type: model.TypeInteger, Default: geom.DefaultResolution},
			MinOccurs:   0,
			MaxOccurs:   1,
			Keywords:    []string{"resolution", "segments"},
		},
	},
	Outputs: map[string]model.Output{
		"buffered_geometry": {
			Title:       "Buffered Geometry",
			Description: "The resulting buffered GeoJSON geometry",
			Schema:      model.Schema{Type: model.TypeObject, ContentMediaType: "application/json"},
		},
	},
	Example: map[string]any{
		"inputs": map[string]any{
			"geometry":   map[string]any{"type": "Point", "coordinates": []any{0.0, 0.0}},
			"distance":   1.0,
			"resolution": 16,
		},
	},
}

// GeometryBuffer buffers a GeoJSON geometry by a distance and returns the
// result as a GeoJSON Feature.
type GeometryBuffer struct{}

// NewGeometryBuffer creates the geometry-buffer processor.
func NewGeometryBuffer() *GeometryBuffer {
	return &GeometryBuffer{}
}

func (p *GeometryBuffer) Describe() *model.ProcessDescriptor {
	return bufferDescriptor
}

func (p *GeometryBuffer) Execute(inputs map[string]any) (string, any, error) {
	raw, err := json.Marshal(inputs["geometry"])
	if err != nil {
		return "", nil, fmt.Errorf("invalid GeoJSON geometry: %v", err)
	}

	gj, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return "", nil, fmt.Errorf("invalid GeoJSON geometry: %v", err)
	}
	g := gj.Geometry()

	distance, ok := inputs["distance"].(float64)
	if !ok {
		return "", nil, fmt.Errorf("distance must be a number")
	}

	resolution := geom.DefaultResolution
	if v, ok := inputs["resolution"].(int); ok {
		resolution = v
	}

	buffered, err := geom.Buffer(g, distance, resolution)
	if err != nil {
		return "", nil, err
	}

	result := map[string]any{
		"type":     "Feature",
		"geometry": geojson.NewGeometry(buffered),
		"properties": map[string]any{
			"input_geometry_type":  g.GeoJSONType(),
			"buffer_distance":      distance,
			"buffer_resolution":    resolution,
			"result_geometry_type": buffered.GeoJSONType(),
			"result_area":          geom.Area(buffered),
		},
	}
	return "application/json", result, nil
}
