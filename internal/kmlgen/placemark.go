package kmlgen

import (
	"fmt"

	kml "github.com/twpayne/go-kml"

	"github.com/snowline-maps/terrain-export/internal/style"
)

// BuildPlacemark assembles one placemark from a tagged row. Entry order is
// significant to downstream consumers: geometry first, then name and
// descriptions, then extended data, with exactly one style URL reference as
// the final element. Category styling (points-of-interest type, zone class
// code) takes precedence over the per-table style; an unresolvable style is
// a configuration defect and fails the build.
func BuildPlacemark(table string, row map[string]any, geom kml.Element, catalog *style.Catalog) (kml.Element, error) {
	children := []kml.Element{geom}

	if name, ok := stringField(row, "name"); ok {
		children = append(children, kml.Name(name))
	}
	if comments, ok := stringField(row, "comments"); ok {
		children = append(children, kml.Description(comments))
	}
	if desc, ok := stringField(row, "description"); ok {
		children = append(children, kml.Description(desc))
	}

	var styleKey string
	if typ, ok := stringField(row, "type"); ok {
		children = append(children, kml.Description(typ))
		styleKey = typ
	}

	if warnings, ok := stringField(row, "warnings"); ok {
		children = append(children, kml.ExtendedData(
			kml.Data(kml.Name("warnings"), kml.Value(warnings)),
		))
	}

	if class, ok := stringField(row, "class_code"); ok {
		children = append(children, kml.ExtendedData(
			kml.Data(kml.Name("class_code"), kml.Value(class)),
		))
		if styleKey == "" {
			styleKey = class
		}
	}

	url, err := catalog.ResolveURL(table, styleKey)
	if err != nil {
		return nil, err
	}
	children = append(children, kml.StyleURL(url))

	return kml.Placemark(children...), nil
}

// stringField reads a row column as a display string. Nil and empty values
// report absent; non-string scalars (zone class codes arrive numeric) are
// formatted.
func stringField(row map[string]any, key string) (string, bool) {
	v, ok := row[key]
	if !ok || v == nil {
		return "", false
	}
	switch s := v.(type) {
	case string:
		if s == "" {
			return "", false
		}
		return s, true
	case []byte:
		if len(s) == 0 {
			return "", false
		}
		return string(s), true
	default:
		return fmt.Sprint(v), true
	}
}
