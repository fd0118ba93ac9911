// Package layer defines the fixed registry of exportable terrain layers and
// compiles them into parameterized PostGIS queries.
package layer

import (
	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
)

// Format selects the geometry serialization function used in compiled queries.
type Format string

const (
	FormatGeoJSON Format = "geojson"
	FormatKML     Format = "kml"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatGeoJSON, FormatKML:
		return Format(s), nil
	default:
		return "", eris.Errorf("layer: unknown output format %q", s)
	}
}

// transform returns the PostGIS geometry serialization function for the format.
// An unset or unknown format is a configuration error, never a silent fallback.
func (f Format) transform() (string, error) {
	switch f {
	case FormatGeoJSON:
		return "ST_AsGeoJSON", nil
	case FormatKML:
		return "ST_AsKML", nil
	default:
		return "", eris.Errorf("layer: no geometry transform for format %q", string(f))
	}
}

// Locale selects the display-name table used for folder and document names.
type Locale string

const (
	LocaleEN Locale = "en"
	LocaleFR Locale = "fr"
)

var localeMatcher = language.NewMatcher([]language.Tag{
	language.English,
	language.French,
})

// ParseLocale resolves a BCP 47-ish language string to a supported locale.
// Anything that doesn't match French falls back to English.
func ParseLocale(s string) Locale {
	_, idx := language.MatchStrings(localeMatcher, s)
	if idx == 1 {
		return LocaleFR
	}
	return LocaleEN
}

// Layer table names. These are the only relations the compiler will touch;
// nothing here is ever caller-supplied.
const (
	TableAreas          = "areas"
	TableZones          = "zones"
	TableAccessRoads    = "access_roads"
	TableAvalanchePaths = "avalanche_paths"
	TablePOI            = "points_of_interest"
	TableDecisionPoints = "decision_points"
	TableWarnings       = "decision_point_warnings"
)

// displayNames maps locale and table to the human-readable layer name. Every
// table must be present under every locale; NewSpec fails otherwise.
var displayNames = map[Locale]map[string]string{
	LocaleEN: {
		TableAreas:          "Area",
		TableZones:          "Zones",
		TableAccessRoads:    "Access Roads",
		TableAvalanchePaths: "Avalanche Paths",
		TablePOI:            "Points of Interest",
		TableDecisionPoints: "Decision Points",
		TableWarnings:       "Warnings",
	},
	LocaleFR: {
		TableAreas:          "Région",
		TableZones:          "Zones",
		TableAccessRoads:    "Routes d'accès",
		TableAvalanchePaths: "Couloirs d'avalanche",
		TablePOI:            "Points d'intérêt",
		TableDecisionPoints: "Points de décision",
		TableWarnings:       "Avertissements",
	},
}

// Spec describes one queryable layer: its source relation, the non-geometry
// columns to select, the area filter, and how geometry should be serialized.
type Spec struct {
	Table          string
	Columns        []string
	Filter         string // parameterized predicate, e.g. "area_id = $1"
	Format         Format
	Locale         Locale
	DisplayName    string
	IncludeBBox    bool
	GeometryColumn string // empty means the layer carries no geometry
	JoinOn         string // set only on joined sub-layers

	// Warnings is the joined one-to-many sub-layer, present only on the
	// decision-points spec.
	Warnings *Spec
}

// NewSpec builds a validated Spec. It fails if the table has no display name
// in the requested locale or the format is not a known output format.
func NewSpec(table string, columns []string, filter string, format Format, locale Locale, opts ...SpecOption) (Spec, error) {
	names, ok := displayNames[locale]
	if !ok {
		return Spec{}, eris.Errorf("layer: unsupported locale %q", string(locale))
	}
	name, ok := names[table]
	if !ok {
		return Spec{}, eris.Errorf("layer: no %s display name for table %q", string(locale), table)
	}
	if _, err := format.transform(); err != nil {
		return Spec{}, err
	}

	s := Spec{
		Table:          table,
		Columns:        columns,
		Filter:         filter,
		Format:         format,
		Locale:         locale,
		DisplayName:    name,
		GeometryColumn: "geom",
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s, nil
}

// SpecOption adjusts optional Spec fields at construction time.
type SpecOption func(*Spec)

// WithBBox additionally selects an ST_Envelope of the geometry.
func WithBBox() SpecOption {
	return func(s *Spec) { s.IncludeBBox = true }
}

// WithoutGeometry marks a layer as carrying no geometry column.
func WithoutGeometry() SpecOption {
	return func(s *Spec) { s.GeometryColumn = "" }
}

// WithJoin attaches a joined sub-layer with its ON predicate.
func WithJoin(sub Spec, on string) SpecOption {
	return func(s *Spec) {
		sub.JoinOn = on
		s.Warnings = &sub
	}
}

// Specs returns the full layer registry for one export request, in output
// order: area first, then terrain layers, decision points last.
func Specs(locale Locale, format Format) ([]Spec, error) {
	areas, err := NewSpec(TableAreas, []string{"name"}, "id = $1", format, locale, WithBBox())
	if err != nil {
		return nil, err
	}
	zones, err := NewSpec(TableZones, []string{"name", "class_code", "comments"}, "area_id = $1", format, locale)
	if err != nil {
		return nil, err
	}
	roads, err := NewSpec(TableAccessRoads, []string{"description"}, "area_id = $1", format, locale)
	if err != nil {
		return nil, err
	}
	paths, err := NewSpec(TableAvalanchePaths, []string{"name", "comments"}, "area_id = $1", format, locale)
	if err != nil {
		return nil, err
	}
	poi, err := NewSpec(TablePOI, []string{"name", "type", "comments"}, "area_id = $1", format, locale)
	if err != nil {
		return nil, err
	}
	warnings, err := NewSpec(TableWarnings, []string{"warning", "type"}, "", format, locale, WithoutGeometry())
	if err != nil {
		return nil, err
	}
	decisions, err := NewSpec(TableDecisionPoints, []string{"name", "comments"}, "area_id = $1", format, locale,
		WithJoin(warnings, TableWarnings+".decision_point_id = "+TableDecisionPoints+".id"))
	if err != nil {
		return nil, err
	}

	return []Spec{areas, zones, roads, paths, poi, decisions}, nil
}
