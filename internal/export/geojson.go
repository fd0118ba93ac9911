package export

import (
	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"

	"github.com/snowline-maps/terrain-export/internal/style"
)

// Feature is a GeoJSON feature with the optional hoisted bounding box. The
// geometry is parsed, never passed through as opaque text: a non-JSON
// geometry payload is a hard contract violation.
type Feature struct {
	Type        string            `json:"type"`
	Geometry    *geojson.Geometry `json:"geometry"`
	BoundingBox *geojson.Geometry `json:"boundingBox,omitempty"`
	Properties  map[string]any    `json:"properties"`
}

// FeatureCollection is the GeoJSON output envelope. Feature order follows
// layer iteration order, then row order within each layer.
type FeatureCollection struct {
	Type     string     `json:"type"`
	Features []*Feature `json:"features"`
}

// NewFeatureCollection wraps features in a FeatureCollection envelope.
func NewFeatureCollection(features []*Feature) *FeatureCollection {
	if features == nil {
		features = []*Feature{}
	}
	return &FeatureCollection{Type: "FeatureCollection", Features: features}
}

// FeatureFromRow maps one raw row to a Feature: geometry extracted and
// parsed, bounding box hoisted out of properties, categorical type slugged,
// and the source table tag injected for downstream grouping.
func FeatureFromRow(table string, row RawRow) (*Feature, error) {
	f := &Feature{Type: "Feature", Properties: make(map[string]any, len(row)+1)}

	for k, v := range row {
		switch k {
		case "geometry":
			g, err := parseGeometry(v)
			if err != nil {
				return nil, eris.Wrapf(err, "export: %s geometry", table)
			}
			f.Geometry = g
		case "bounding_box":
			g, err := parseGeometry(v)
			if err != nil {
				return nil, eris.Wrapf(err, "export: %s bounding box", table)
			}
			f.BoundingBox = g
		case "type":
			if s, ok := v.(string); ok {
				f.Properties[k] = style.Slug(s)
			} else {
				f.Properties[k] = v
			}
		default:
			f.Properties[k] = v
		}
	}

	f.Properties["table"] = table
	return f, nil
}

// parseGeometry decodes a geometry column value as GeoJSON. The database
// hands geometry back as text; anything that doesn't parse (for instance an
// ST_AsKML fragment reaching the GeoJSON path through a misconfigured layer)
// is an error, never a silently-wrong feature.
func parseGeometry(v any) (*geojson.Geometry, error) {
	var raw []byte
	switch t := v.(type) {
	case string:
		raw = []byte(t)
	case []byte:
		raw = t
	case nil:
		return nil, eris.New("geometry column is null")
	default:
		return nil, eris.Errorf("geometry column has unexpected type %T", v)
	}

	g, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil, eris.Wrap(err, "parse GeoJSON geometry")
	}
	return g, nil
}
