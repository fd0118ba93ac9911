package export

import (
	"context"
	"io"
	"io/fs"

	"github.com/rotisserie/eris"
	kml "github.com/twpayne/go-kml"
	"go.uber.org/zap"

	"github.com/snowline-maps/terrain-export/internal/db"
	"github.com/snowline-maps/terrain-export/internal/kmlgen"
	"github.com/snowline-maps/terrain-export/internal/layer"
	"github.com/snowline-maps/terrain-export/internal/style"
)

// ErrAreaNotFound reports that the requested area id matched no area row.
var ErrAreaNotFound = eris.New("export: area not found")

// Exporter runs export requests against one connection pool. All fields are
// read-only after construction; an Exporter is safe for concurrent requests.
type Exporter struct {
	Pool     db.Pool
	Locale   layer.Locale
	Catalog  *style.Catalog
	IconDir  string
	IconSize int
}

// New builds an Exporter with the default style catalog.
func New(pool db.Pool, locale layer.Locale, iconDir string, iconSize int) *Exporter {
	return &Exporter{
		Pool:     pool,
		Locale:   locale,
		Catalog:  style.Default(),
		IconDir:  iconDir,
		IconSize: style.NormalizeIconSize(iconSize),
	}
}

// fetch compiles and runs all layer queries for one area in the given format.
func (e *Exporter) fetch(ctx context.Context, areaID int, format layer.Format) ([]LayerResult, error) {
	specs, err := layer.Specs(e.Locale, format)
	if err != nil {
		return nil, err
	}

	queries := make([]layer.CompiledQuery, len(specs))
	for i, spec := range specs {
		q, err := layer.Compile(spec, areaID)
		if err != nil {
			return nil, err
		}
		queries[i] = q
	}

	results, err := FetchAll(ctx, e.Pool, queries)
	if err != nil {
		return nil, err
	}

	for _, r := range results {
		if r.Query.Table == layer.TableAreas && len(r.Rows) == 0 {
			return nil, eris.Wrapf(ErrAreaNotFound, "area %d", areaID)
		}
	}
	return results, nil
}

// GeoJSON exports one area as a FeatureCollection.
func (e *Exporter) GeoJSON(ctx context.Context, areaID int) (*FeatureCollection, error) {
	results, err := e.fetch(ctx, areaID, layer.FormatGeoJSON)
	if err != nil {
		return nil, err
	}

	var features []*Feature
	for _, r := range results {
		layerFeatures := make([]*Feature, 0, len(r.Rows))
		for _, row := range r.Rows {
			f, err := FeatureFromRow(r.Query.Table, row)
			if err != nil {
				return nil, err
			}
			layerFeatures = append(layerFeatures, f)
		}
		if r.Query.Table == layer.TableDecisionPoints {
			layerFeatures = AggregateDecisionPoints(layerFeatures)
		}
		features = append(features, layerFeatures...)
	}

	zap.L().Info("assembled GeoJSON export",
		zap.Int("area_id", areaID),
		zap.Int("features", len(features)),
	)
	return NewFeatureCollection(features), nil
}

// KML exports one area as a KML document tree.
func (e *Exporter) KML(ctx context.Context, areaID int) (*kml.CompoundElement, error) {
	results, err := e.fetch(ctx, areaID, layer.FormatKML)
	if err != nil {
		return nil, err
	}

	layers := make([]kmlgen.LayerRows, len(results))
	for i, r := range results {
		rows := make([]map[string]any, len(r.Rows))
		for j, row := range r.Rows {
			rows[j] = row
		}
		layers[i] = kmlgen.LayerRows{
			Table:       r.Query.Table,
			DisplayName: r.Query.DisplayName,
			Rows:        rows,
		}
	}

	doc, err := kmlgen.BuildDocument(layers, e.Catalog, e.IconDir, e.IconSize)
	if err != nil {
		return nil, err
	}

	zap.L().Info("assembled KML export", zap.Int("area_id", areaID))
	return doc, nil
}

// KMZ exports one area as a KMZ archive containing doc.kml and the
// configured icon set.
func (e *Exporter) KMZ(ctx context.Context, areaID int, icons fs.FS, w io.Writer) error {
	doc, err := e.KML(ctx, areaID)
	if err != nil {
		return err
	}
	return e.WriteArchive(doc, icons, w)
}

// WriteArchive packages an already-built KML document as a KMZ archive.
func (e *Exporter) WriteArchive(doc *kml.CompoundElement, icons fs.FS, w io.Writer) error {
	return kmlgen.WriteKMZ(w, doc, icons, e.IconDir, e.IconSize)
}
