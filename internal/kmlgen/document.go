package kmlgen

import (
	kml "github.com/twpayne/go-kml"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/snowline-maps/terrain-export/internal/layer"
	"github.com/snowline-maps/terrain-export/internal/style"
)

// LayerRows is one layer's fetched result set, in query row order.
type LayerRows struct {
	Table       string
	DisplayName string
	Rows        []map[string]any
}

// BuildDocument assembles the complete KML tree: one named folder per layer,
// decision points routed through warning aggregation, shared styles in the
// document head, document name taken from the area row.
func BuildDocument(layers []LayerRows, catalog *style.Catalog, iconDir string, iconSize int) (*kml.CompoundElement, error) {
	log := zap.L().With(zap.String("component", "kmlgen.document"))

	docName := "Terrain"
	var folders []kml.Element

	for _, lr := range layers {
		tagged, err := reparseRows(lr, log)
		if err != nil {
			return nil, err
		}

		if lr.Table == layer.TableAreas && len(tagged) > 0 {
			if name, ok := stringField(tagged[0].Data, "name"); ok {
				docName = name
			}
		}

		if lr.Table == layer.TableDecisionPoints {
			tagged = AggregateWarnings(tagged)
		}

		children := []kml.Element{kml.Name(lr.DisplayName)}
		for _, row := range tagged {
			if row.Geom == nil {
				continue
			}
			geomEl, err := row.Geom.Element()
			if err != nil {
				log.Warn("omitting row with unrenderable geometry",
					zap.String("table", row.Table),
					zap.String("kind", row.Geom.Kind.String()),
				)
				continue
			}
			pm, err := BuildPlacemark(row.Table, row.Data, geomEl, catalog)
			if err != nil {
				return nil, eris.Wrapf(err, "kmlgen: placemark for %s", row.Table)
			}
			children = append(children, pm)
		}
		folders = append(folders, kml.Folder(children...))
	}

	shared, err := catalog.SharedStyles(iconDir, iconSize)
	if err != nil {
		return nil, err
	}

	docChildren := append([]kml.Element{kml.Name(docName)}, shared...)
	docChildren = append(docChildren, folders...)

	return kml.KML(kml.Document(docChildren...)), nil
}

// reparseRows tags each raw row with its layer and reparses the geometry
// fragment into the tagged-union form. Unrecognized geometry kinds degrade
// (row kept, geometry dropped); a geometry that fails to parse at all is a
// contract violation and aborts the layer.
func reparseRows(lr LayerRows, log *zap.Logger) ([]Row, error) {
	tagged := make([]Row, 0, len(lr.Rows))
	for _, raw := range lr.Rows {
		data := make(map[string]any, len(raw))
		for k, v := range raw {
			data[k] = v
		}

		var geom *Geometry
		if frag, ok := stringField(data, "geometry"); ok {
			delete(data, "geometry")
			g, err := ParseGeometry(frag)
			if err != nil {
				return nil, eris.Wrapf(err, "kmlgen: geometry for %s", lr.Table)
			}
			switch g.Kind {
			case KindMultiGeometry, KindUnrecognized:
				log.Warn("skipping geometry conversion for unsupported kind",
					zap.String("table", lr.Table),
					zap.String("kind", g.RawName),
				)
			default:
				geom = g
			}
		}
		// The envelope term is only meaningful on the GeoJSON path.
		delete(data, "bounding_box")

		tagged = append(tagged, Row{Table: lr.Table, Data: data, Geom: geom})
	}
	return tagged, nil
}
